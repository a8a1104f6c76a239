package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the lifecycle counters. All methods are nil-receiver safe so
// instrumentation stays optional for library users.
type Metrics struct {
	issuedTotal        prometheus.Counter
	rotatedTotal       prometheus.Counter
	reuseDetectedTotal prometheus.Counter
	revokedTotal       prometheus.Counter
}

// NewMetrics registers the session counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		issuedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "passage_sessions_issued_total",
			Help: "Session secrets issued.",
		}),
		rotatedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "passage_sessions_rotated_total",
			Help: "Successful secret rotations.",
		}),
		reuseDetectedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "passage_session_reuse_detected_total",
			Help: "Replayed secrets that triggered mass revocation.",
		}),
		revokedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "passage_sessions_revoked_total",
			Help: "Explicit single-session revocations.",
		}),
	}
}

func (m *Metrics) issued() {
	if m != nil {
		m.issuedTotal.Inc()
	}
}

func (m *Metrics) rotated() {
	if m != nil {
		m.rotatedTotal.Inc()
	}
}

func (m *Metrics) reuseDetected() {
	if m != nil {
		m.reuseDetectedTotal.Inc()
	}
}

func (m *Metrics) revoked() {
	if m != nil {
		m.revokedTotal.Inc()
	}
}
