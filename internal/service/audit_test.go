package service

import (
    "context"
    "errors"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"
    "go.uber.org/zap/zaptest/observer"

    "github.com/iliyamo/academy-access/internal/queue"
)

type recordingPublisher struct {
    mu     sync.Mutex
    events []queue.AuthEvent
    err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.AuthEvent) error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.events = append(p.events, ev)
    return p.err
}

func (p *recordingPublisher) count() int {
    p.mu.Lock()
    defer p.mu.Unlock()
    return len(p.events)
}

func TestAuditorPublishesInBackground(t *testing.T) {
    core, logs := observer.New(zap.InfoLevel)
    pub := &recordingPublisher{}
    a := NewAuditor(zap.New(core), pub, 8)

    ctx, cancel := context.WithCancel(t.Context())
    done := make(chan error, 1)
    go func() { done <- a.Run(ctx) }()

    a.Record(EventLoginSuccess, "alice", true, "user")
    a.Record(EventLoginAttempt, "bob", false, "invalid username or password")

    require.Eventually(t, func() bool { return pub.count() == 2 }, time.Second, 10*time.Millisecond)
    cancel()
    require.NoError(t, <-done)

    assert.Equal(t, "alice", pub.events[0].Username)
    assert.NotEmpty(t, pub.events[0].ID)
    assert.Equal(t, 1, logs.FilterField(zap.Bool("success", false)).Len())
}

func TestAuditorDropsWhenFullAndSurvivesPublishErrors(t *testing.T) {
    core, logs := observer.New(zap.WarnLevel)
    pub := &recordingPublisher{err: errors.New("broker down")}
    a := NewAuditor(zap.New(core), pub, 1)

    a.Record(EventLogout, "alice", true, "")
    a.Record(EventLogout, "alice", true, "") // buffer of one is full
    assert.Equal(t, 1, logs.FilterMessage("audit buffer full, event not published").Len())

    ctx, cancel := context.WithCancel(t.Context())
    go func() { _ = a.Run(ctx) }()
    require.Eventually(t, func() bool {
        return logs.FilterMessage("audit publish failed").Len() == 1
    }, time.Second, 10*time.Millisecond)
    cancel()
}

func TestAuditorWithoutPublisher(t *testing.T) {
    a := NewAuditor(zap.NewNop(), nil, 0)
    a.Record(EventLogout, "alice", true, "")

    ctx, cancel := context.WithCancel(t.Context())
    cancel()
    assert.NoError(t, a.Run(ctx))

    var nilAuditor *Auditor
    assert.NotPanics(t, func() { nilAuditor.Record(EventLogout, "x", true, "") })
}
