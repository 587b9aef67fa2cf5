// Package queue defines message payloads exchanged over the message broker
// and the RabbitMQ publisher and consumer that carry them.
package queue

import (
    "time"

    "github.com/google/uuid"
)

// AuthQueueName is the durable queue carrying authentication audit events.
const AuthQueueName = "auth.events"

// AuthEvent is published for every login attempt, refresh, logout and
// permission change.  Consumers only append it to the audit trail, so it
// carries everything needed to read the line without querying the database.
type AuthEvent struct {
    ID         string `json:"id"`
    Event      string `json:"event"`
    Username   string `json:"username"`
    Success    bool   `json:"success"`
    Details    string `json:"details,omitempty"`
    OccurredAt string `json:"occurred_at"`
}

// NewAuthEvent stamps a fresh id and the current UTC time.
func NewAuthEvent(event, username string, success bool, details string) AuthEvent {
    return AuthEvent{
        ID:         uuid.NewString(),
        Event:      event,
        Username:   username,
        Success:    success,
        Details:    details,
        OccurredAt: time.Now().UTC().Format(time.RFC3339),
    }
}
