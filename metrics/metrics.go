// Package metrics exposes Prometheus instrumentation for records.
//
// # Description
//
// Metrics are collected by subscribing to a record's event channel, so the
// record itself stays free of instrumentation code. Collected series:
//   - events_total: change/destroy notifications by record kind
//   - dirty_keys: number of changed keys observed after each change
//   - watched_records: records currently being watched
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
// Watch itself follows the record's rules: call it from the goroutine that
// owns the record.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/comalice/recordx"
	"github.com/comalice/recordx/events"
)

// Namespace for all metrics
const metricsNamespace = "recordx"

// Metrics holds the Prometheus collectors for record notifications.
type Metrics struct {
	// EventsTotal counts notifications.
	// Labels: kind, event (change, destroy)
	EventsTotal *prometheus.CounterVec

	// DirtyKeys observes len(Diff()) after every change.
	// Labels: kind
	DirtyKeys *prometheus.HistogramVec

	// WatchedRecords tracks records with an active Watch.
	WatchedRecords prometheus.Gauge
}

// New creates and registers the collectors with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		EventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_total",
			Help:      "Record notifications by kind and event",
		}, []string{"kind", "event"}),
		DirtyKeys: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "dirty_keys",
			Help:      "Changed keys per record after each change notification",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}, []string{"kind"}),
		WatchedRecords: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "watched_records",
			Help:      "Records currently watched",
		}),
	}
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// Default returns metrics registered with the default Prometheus registry.
// Initialized on first use.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = New(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// Watch instruments r until the returned stop function is called. Calling
// stop more than once is safe.
func (m *Metrics) Watch(r *recordx.Record) (stop func()) {
	source := func(e events.Event) *recordx.Record {
		if rec, ok := e.Arg(0).(*recordx.Record); ok {
			return rec
		}
		return r
	}

	change := r.On(recordx.EventChange, func(e events.Event) {
		rec := source(e)
		m.EventsTotal.WithLabelValues(rec.Kind(), recordx.EventChange).Inc()
		m.DirtyKeys.WithLabelValues(rec.Kind()).Observe(float64(len(rec.Diff())))
	})
	destroy := r.On(recordx.EventDestroy, func(e events.Event) {
		m.EventsTotal.WithLabelValues(source(e).Kind(), recordx.EventDestroy).Inc()
	})
	m.WatchedRecords.Inc()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.Off(recordx.EventChange, change)
			r.Off(recordx.EventDestroy, destroy)
			m.WatchedRecords.Dec()
		})
	}
}
