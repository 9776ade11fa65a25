// Package metrics exposes migration progress as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Collector records migrator activity. A nil *Collector is valid and records nothing.
type Collector struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	versionsApplied   *prometheus.CounterVec
	versionsReverted  *prometheus.CounterVec
	patchesExecuted   *prometheus.CounterVec
	currentIndex      *prometheus.GaugeVec
}

// NewCollector registers the migration metrics on reg under namespace.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		operationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Total number of migrator operations",
			},
			[]string{"module", "operation", "result"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Migrator operation duration in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
			},
			[]string{"module", "operation"},
		),
		versionsApplied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "versions_applied_total",
				Help:      "Versions applied and committed",
			},
			[]string{"module"},
		),
		versionsReverted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "versions_rolled_back_total",
				Help:      "Versions rolled back",
			},
			[]string{"module"},
		),
		patchesExecuted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "patches_executed_total",
				Help:      "Patches run, by direction",
			},
			[]string{"module", "direction"},
		),
		currentIndex: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "current_version_position",
				Help:      "1-based position of the current version in the module, 0 when nothing is applied",
			},
			[]string{"module"},
		),
	}
}

// RecordOperation counts one public migrator call and its duration.
func (c *Collector) RecordOperation(module, operation string, duration time.Duration, err error) {
	if c == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	c.operationsTotal.WithLabelValues(module, operation, result).Inc()
	c.operationDuration.WithLabelValues(module, operation).Observe(duration.Seconds())
}

func (c *Collector) RecordVersionApplied(module string) {
	if c == nil {
		return
	}
	c.versionsApplied.WithLabelValues(module).Inc()
}

func (c *Collector) RecordVersionRolledBack(module string) {
	if c == nil {
		return
	}
	c.versionsReverted.WithLabelValues(module).Inc()
}

func (c *Collector) RecordPatch(module, direction string) {
	if c == nil {
		return
	}
	c.patchesExecuted.WithLabelValues(module, direction).Inc()
}

// SetPosition publishes the marker position; index is 0-based, -1 for none.
func (c *Collector) SetPosition(module string, index int) {
	if c == nil {
		return
	}
	c.currentIndex.WithLabelValues(module).Set(float64(index + 1))
}
