// Package metrics exports dispatch counters to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors for hash dispatch.
type Metrics struct {
	dispatch *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	hashes   prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		dispatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "verushash",
			Name:      "dispatch_total",
			Help:      "Hash calls by variant and canonicalization decision.",
		}, []string{"variant", "decision"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "verushash",
			Name:      "dispatch_seconds",
			Help:      "Hash call latency by variant.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"variant"}),
		hashes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "verushash",
			Name:      "miner_hashes_total",
			Help:      "Hashes computed by the nonce-scanning worker pool.",
		}),
	}
	for _, c := range []prometheus.Collector{m.dispatch, m.latency, m.hashes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveDispatch records one hash call. decision is empty for variants
// without PBaaS handling.
func (m *Metrics) ObserveDispatch(variant, decision string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if decision == "" {
		decision = "none"
	}
	m.dispatch.WithLabelValues(variant, decision).Inc()
	m.latency.WithLabelValues(variant).Observe(elapsed.Seconds())
}

// AddHashes adds n to the miner hash counter.
func (m *Metrics) AddHashes(n uint64) {
	if m == nil {
		return
	}
	m.hashes.Add(float64(n))
}
