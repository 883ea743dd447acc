// Package metrics exposes tree and check activity as Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/solatis/expectree/internal/check"
	"github.com/solatis/expectree/internal/eval"
	"github.com/solatis/expectree/internal/state"
	"github.com/solatis/expectree/internal/types"
)

var allStatuses = []types.Status{
	types.StatusPending,
	types.StatusPassed,
	types.StatusFailed,
	types.StatusSkipped,
}

// Metrics holds the collectors of one registry.
type Metrics struct {
	registry *prometheus.Registry

	rootStatus    *prometheus.GaugeVec
	leaves        *prometheus.GaugeVec
	transitions   prometheus.Counter
	leafChanges   *prometheus.CounterVec
	checkDuration *prometheus.HistogramVec
	checkErrors   *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		rootStatus: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "expectree_root_status",
			Help: "1 for the current root status, 0 for the others",
		}, []string{"status"}),
		leaves: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "expectree_leaves",
			Help: "Leaves by evaluated status",
		}, []string{"status"}),
		transitions: f.NewCounter(prometheus.CounterOpts{
			Name: "expectree_transitions_total",
			Help: "State replacements observed",
		}),
		leafChanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "expectree_leaf_changes_total",
			Help: "Leaf diffs by change kind",
		}, []string{"change"}),
		checkDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "expectree_check_duration_seconds",
			Help:    "Check latency by kind and outcome",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~800ms
		}, []string{"kind", "outcome"}),
		checkErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "expectree_check_errors_total",
			Help: "Checks that returned an error, by kind",
		}, []string{"kind"}),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Track records the current state of t and every later transition. The
// returned function stops tracking.
func (m *Metrics) Track(t *state.Tree) (stop func()) {
	m.setSnapshot(t.Snapshot())
	return t.Subscribe(func(ev state.Event) {
		m.transitions.Inc()
		for _, c := range ev.Diffs {
			m.leafChanges.WithLabelValues(string(c.Kind)).Inc()
		}
		m.setSnapshot(ev.Snapshot)
	})
}

func (m *Metrics) setSnapshot(s *eval.Snapshot) {
	counts := make(map[types.Status]int, len(allStatuses))
	for _, leaf := range eval.Flatten(s) {
		counts[leaf.Status]++
	}
	for _, st := range allStatuses {
		m.leaves.WithLabelValues(string(st)).Set(float64(counts[st]))
		v := 0.0
		if s != nil && s.Status == st {
			v = 1
		}
		m.rootStatus.WithLabelValues(string(st)).Set(v)
	}
}

// ObserveCheck has the check.Observer signature.
func (m *Metrics) ObserveCheck(kind string, outcome check.Outcome, err error, elapsed time.Duration) {
	m.checkDuration.WithLabelValues(kind, outcome.String()).Observe(elapsed.Seconds())
	if err != nil {
		m.checkErrors.WithLabelValues(kind).Inc()
	}
}
