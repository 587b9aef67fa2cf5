package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// Consumer drains the auth.events queue into an append-only audit file.
type Consumer struct {
    URL     string
    Queue   string
    LogPath string
    Log     *zap.Logger
}

func NewConsumer(url string, log *zap.Logger) *Consumer {
    return &Consumer{
        URL:     url,
        Queue:   AuthQueueName,
        LogPath: filepath.Join("logs", "audit.log"),
        Log:     log,
    }
}

// Run connects and consumes until ctx is cancelled.  Broker failures are
// retried with exponential backoff capped at 30s; Run returns nil on
// cancellation.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            c.Log.Warn("audit consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
            if !sleep(ctx, backoff) {
                return nil
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return nil
        }
        c.Log.Warn("audit consumer: consume loop ended, reconnecting", zap.Error(err))
        if !sleep(ctx, 2*time.Second) {
            return nil
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.Log.Warn("audit consumer: set QoS failed", zap.Error(err))
    }
    if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.ConsumeWithContext(ctx, c.Queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for d := range msgs {
        if err := c.Handle(d.Body); err != nil {
            c.Log.Error("audit consumer: handle message failed", zap.Error(err))
            _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

// Handle decodes one message body and appends it to the audit file.
func (c *Consumer) Handle(body []byte) error {
    var ev AuthEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Event == "" {
        return errors.New("event name missing")
    }
    if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatLine renders ev as one audit line.
func FormatLine(ev AuthEvent) string {
    status := "ok"
    if !ev.Success {
        status = "failed"
    }
    line := fmt.Sprintf("[%s] %s %s | id=%s | username=%q", ev.OccurredAt, ev.Event, status, ev.ID, ev.Username)
    if ev.Details != "" {
        line += fmt.Sprintf(" | details=%q", ev.Details)
    }
    return line + "\n"
}
