package service

import (
    "context"
    "time"

    "go.uber.org/zap"

    "github.com/iliyamo/academy-access/internal/logging"
    "github.com/iliyamo/academy-access/internal/queue"
)

// Auth event names.
const (
    EventLoginAttempt       = "login_attempt"
    EventLoginSuccess       = "login_success"
    EventTokenRefresh       = "token_refresh"
    EventLogout             = "logout"
    EventPermissionAssigned = "permission_assigned"
    EventPermissionRevoked  = "permission_revoked"
    EventPrincipalCreated   = "principal_created"
    EventPrincipalDeleted   = "principal_deleted"
)

// EventPublisher delivers audit events to the broker.
type EventPublisher interface {
    Publish(ctx context.Context, ev queue.AuthEvent) error
}

// Auditor logs auth events and hands them to a publisher in the background.
// Record never blocks the request: when the buffer is full the event is
// only logged.
type Auditor struct {
    log    *zap.Logger
    pub    EventPublisher
    events chan queue.AuthEvent
}

// NewAuditor returns an Auditor.  With a nil publisher events are only
// logged and Run returns immediately.
func NewAuditor(log *zap.Logger, pub EventPublisher, buffer int) *Auditor {
    if buffer <= 0 {
        buffer = 256
    }
    a := &Auditor{log: log, pub: pub}
    if pub != nil {
        a.events = make(chan queue.AuthEvent, buffer)
    }
    return a
}

// Record logs the event and queues it for publishing.
func (a *Auditor) Record(event, username string, success bool, details string) {
    if a == nil {
        return
    }
    logging.AuthEvent(a.log, event, username, success, details)
    if a.events == nil {
        return
    }
    select {
    case a.events <- queue.NewAuthEvent(event, username, success, details):
    default:
        a.log.Warn("audit buffer full, event not published", zap.String("event", event))
    }
}

// Run publishes queued events until ctx is cancelled.  Publish failures are
// logged and the event is dropped.
func (a *Auditor) Run(ctx context.Context) error {
    if a.events == nil {
        <-ctx.Done()
        return nil
    }
    for {
        select {
        case <-ctx.Done():
            return nil
        case ev := <-a.events:
            pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
            if err := a.pub.Publish(pctx, ev); err != nil {
                a.log.Warn("audit publish failed", zap.String("event", ev.Event), zap.Error(err))
            }
            cancel()
        }
    }
}
