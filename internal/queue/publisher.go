package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends AuthEvents to RabbitMQ.  Each call dials its own
// connection.
type Publisher struct {
    URL   string
    Queue string
}

func NewPublisher(url string) *Publisher { return &Publisher{URL: url, Queue: AuthQueueName} }

// Publish declares the queue (durable, idempotent) and sends ev as a
// persistent JSON message on the default exchange.
func (p *Publisher) Publish(ctx context.Context, ev AuthEvent) error {
    conn, err := amqp.Dial(p.URL)
    if err != nil {
        return fmt.Errorf("rabbitmq dial: %w", err)
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("rabbitmq channel: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(
        p.Queue, // name
        true,    // durable
        false,   // autoDelete
        false,   // exclusive
        false,   // noWait
        nil,     // args
    ); err != nil {
        return fmt.Errorf("rabbitmq queue declare: %w", err)
    }

    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        MessageId:    ev.ID,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx,
        "",      // default exchange
        p.Queue, // routing key = queue name
        false,   // mandatory
        false,   // immediate
        pub,
    ); err != nil {
        return fmt.Errorf("rabbitmq publish: %w", err)
    }
    return nil
}
