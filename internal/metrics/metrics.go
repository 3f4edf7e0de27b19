// Package metrics exposes Prometheus collectors for the model lifecycle.
// A nil *Collector is valid and records nothing.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "bimview"

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Collector groups the lifecycle metrics.
type Collector struct {
	loads            *prometheus.CounterVec
	loadDuration     prometheus.Histogram
	activeModels     prometheus.Gauge
	removals         prometheus.Counter
	disposalWarnings prometheus.Counter
	exports          *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg skips
// registration.
func New(namespace string, reg prometheus.Registerer) (*Collector, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	c := &Collector{
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_total",
			Help:      "Model loads by result.",
		}, []string{"result"}),
		loadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Time from load start to loaded or failed.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		activeModels: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_models",
			Help:      "Models currently attached to the scene.",
		}),
		removals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "removals_total",
			Help:      "Models removed from the cache.",
		}),
		disposalWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "disposal_warnings_total",
			Help:      "Resource disposals that failed and were logged.",
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Binary exports by result.",
		}, []string{"result"}),
	}

	if reg == nil {
		return c, nil
	}
	for _, col := range c.collectors() {
		if err := reg.Register(col); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
	}
	return c, nil
}

func (c *Collector) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.loads, c.loadDuration, c.activeModels,
		c.removals, c.disposalWarnings, c.exports,
	}
}

func result(ok bool) string {
	if ok {
		return ResultSuccess
	}
	return ResultFailure
}

// ObserveLoad records the outcome and duration of one load.
func (c *Collector) ObserveLoad(ok bool, d time.Duration) {
	if c == nil {
		return
	}
	c.loads.WithLabelValues(result(ok)).Inc()
	c.loadDuration.Observe(d.Seconds())
}

// SetActiveModels sets the number of attached models.
func (c *Collector) SetActiveModels(n int) {
	if c == nil {
		return
	}
	c.activeModels.Set(float64(n))
}

// IncRemovals counts one removed model.
func (c *Collector) IncRemovals() {
	if c == nil {
		return
	}
	c.removals.Inc()
}

// AddDisposalWarnings counts n failed disposals.
func (c *Collector) AddDisposalWarnings(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.disposalWarnings.Add(float64(n))
}

// ObserveExport records the outcome of one export.
func (c *Collector) ObserveExport(ok bool) {
	if c == nil {
		return
	}
	c.exports.WithLabelValues(result(ok)).Inc()
}
