// Package metrics exposes Prometheus counters for authentication and
// authorization outcomes.
package metrics

import (
    "strconv"

    "github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors registered by this service.
type Metrics struct {
    Logins    *prometheus.CounterVec
    Refreshes *prometheus.CounterVec
    Decisions *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.  Pass
// prometheus.DefaultRegisterer in main and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
    m := &Metrics{
        Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
            Name: "auth_logins_total",
            Help: "Login attempts by principal kind and result.",
        }, []string{"kind", "result"}),
        Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
            Name: "auth_refreshes_total",
            Help: "Refresh token rotations by result.",
        }, []string{"result"}),
        Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
            Name: "authz_decisions_total",
            Help: "Authorization decisions by check and verdict.",
        }, []string{"check", "allowed"}),
    }
    if reg != nil {
        reg.MustRegister(m.Logins, m.Refreshes, m.Decisions)
    }
    return m
}

func (m *Metrics) Login(kind, result string) {
    if m == nil {
        return
    }
    m.Logins.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) Refresh(result string) {
    if m == nil {
        return
    }
    m.Refreshes.WithLabelValues(result).Inc()
}

func (m *Metrics) Decision(check string, allowed bool) {
    if m == nil {
        return
    }
    m.Decisions.WithLabelValues(check, strconv.FormatBool(allowed)).Inc()
}
