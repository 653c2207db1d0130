package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/edvin/fedreg/internal/graph"
)

const namespace = "fedreg"

// Registry holds the collectors fed by the store and the provider
// synchronization.
type Registry struct {
	txTotal    *prometheus.CounterVec
	txDuration *prometheus.HistogramVec
	syncTotal  *prometheus.CounterVec
}

// NewRegistry creates the collectors and registers them on reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		txTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "transactions_total",
			Help:      "Total number of store transactions by mode and outcome",
		}, []string{"mode", "outcome"}),
		txDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "transaction_duration_seconds",
			Help:      "Store transaction duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
		syncTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "entities_total",
			Help:      "Entities touched by provider synchronization by kind and action",
		}, []string{"entity", "action"}),
	}
	reg.MustRegister(r.txTotal, r.txDuration, r.syncTotal)
	return r
}

// ObserveTx is a graph.Observer recording every finished transaction.
func (r *Registry) ObserveTx(mode string, took time.Duration, err error) {
	outcome := "commit"
	if err != nil {
		outcome = "rollback"
	}
	r.txTotal.WithLabelValues(mode, outcome).Inc()
	r.txDuration.WithLabelValues(mode).Observe(took.Seconds())
}

// ObserveSync counts an entity created, updated, removed or disconnected by
// provider synchronization.
func (r *Registry) ObserveSync(entity, action string) {
	r.syncTotal.WithLabelValues(entity, action).Inc()
}

// Instrument wraps store so its transactions are recorded.
func (r *Registry) Instrument(store graph.Store) graph.Store {
	return graph.WithObserver(store, r.ObserveTx)
}
