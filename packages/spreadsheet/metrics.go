package spreadsheet

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the Prometheus collectors for one sheet. each sheet owns
// a registry so several sheets (and parallel tests) never collide.
type Metrics struct {
	registry *prometheus.Registry

	writesTotal      prometheus.Counter
	parseErrorsTotal prometheus.Counter
	cycleErrorsTotal prometheus.Counter
	recomputedTotal  prometheus.Counter
	prunedEdgesTotal prometheus.Counter
	cascadeSize      prometheus.Histogram
	cells            prometheus.GaugeFunc
	edges            prometheus.GaugeFunc
}

// cellCount and edgeCount are read at gather time and must do their own
// locking.
func newMetrics(namespace, sheetID string, cellCount, edgeCount func() float64) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	labels := prometheus.Labels{"sheet_id": sheetID}

	return &Metrics{
		registry: reg,
		writesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "writes_total",
			Help:        "Successful SetCell calls",
			ConstLabels: labels,
		}),
		parseErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "parse_errors_total",
			Help:        "Writes rejected because the formula did not parse",
			ConstLabels: labels,
		}),
		cycleErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "cycle_errors_total",
			Help:        "Writes rejected because they would create a dependency cycle",
			ConstLabels: labels,
		}),
		recomputedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "cells_recomputed_total",
			Help:        "Subscriber cells re-evaluated during propagation",
			ConstLabels: labels,
		}),
		prunedEdgesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "pruned_subscriptions_total",
			Help:        "Stale subscription edges removed on formula rewrite",
			ConstLabels: labels,
		}),
		cascadeSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "cascade_size",
			Help:        "Number of subscribers recomputed per write",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(1, 2, 10),
		}),
		cells: factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "cells",
			Help:        "Cells known to the sheet",
			ConstLabels: labels,
		}, cellCount),
		edges: factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "subscriptions",
			Help:        "Subscription edges in the dependency graph",
			ConstLabels: labels,
		}, edgeCount),
	}
}

// Registry exposes the sheet's collectors for gathering
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
