package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics records cart store and session activity.
type CartMetrics struct {
	mutations     *prometheus.CounterVec
	persistence   *prometheus.CounterVec
	notifications *prometheus.CounterVec
	sessions      prometheus.Gauge
}

// NewCartMetrics registers the cart metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations applied, by operation.",
	}, []string{"op"})
	persistence := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_persistence_failures_total",
		Help: "Failed reads or writes against the cart key-value store, by operation.",
	}, []string{"op"})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_notifications_total",
		Help: "Notifications emitted by cart stores, by kind.",
	}, []string{"kind"})
	sessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cart_sessions_open",
		Help: "Cart sessions currently held in memory.",
	})
	reg.MustRegister(mutations, persistence, notifications, sessions)
	return &CartMetrics{
		mutations:     mutations,
		persistence:   persistence,
		notifications: notifications,
		sessions:      sessions,
	}
}

// IncMutation increments the mutation counter for op.
func (c *CartMetrics) IncMutation(op string) {
	if c == nil || c.mutations == nil {
		return
	}
	c.mutations.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncPersistenceFailure increments the persistence failure counter for op.
func (c *CartMetrics) IncPersistenceFailure(op string) {
	if c == nil || c.persistence == nil {
		return
	}
	c.persistence.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncNotification increments the notification counter for kind.
func (c *CartMetrics) IncNotification(kind string) {
	if c == nil || c.notifications == nil {
		return
	}
	c.notifications.WithLabelValues(normalizeLabel(kind)).Inc()
}

// SetSessionsOpen reports the number of live sessions.
func (c *CartMetrics) SetSessionsOpen(n int) {
	if c == nil || c.sessions == nil {
		return
	}
	c.sessions.Set(float64(n))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
