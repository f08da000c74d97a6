// Package metrics exposes Prometheus counters for form dispatching.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/formflow/internal/form"
)

const namespace = "formflow"

// Registry holds every formflow metric. It is separate from the default
// registry so tests can gather it in isolation.
var Registry = prometheus.NewRegistry()

var (
	dispatchCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_total",
			Help:      "Count of dispatched submissions by resolution branch and emitted event.",
		},
		[]string{"form", "resolution", "outcome"},
	)
	unresolvedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unresolved_total",
			Help:      "Count of submissions whose dispatch target could not be resolved.",
		},
		[]string{"form"},
	)
	rejectedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_total",
			Help:      "Count of submissions rejected before evaluation, by request error code.",
		},
		[]string{"form", "code"},
	)
	uploadBytesCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_bytes_total",
			Help:      "Total bytes of file content staged from multipart submissions.",
		},
		[]string{"form"},
	)
	renderCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_total",
			Help:      "Count of renders, each of which issues a fresh set of dispatch ids.",
		},
		[]string{"form"},
	)
	resetCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reset_total",
			Help:      "Count of explicit form resets.",
		},
		[]string{"form"},
	)
	dispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Wall time of one dispatch including teardown.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"form"},
	)
)

var registerMetrics sync.Once

// Register all metrics.
func Register() {
	registerMetrics.Do(func() {
		Registry.MustRegister(dispatchCounter)
		Registry.MustRegister(unresolvedCounter)
		Registry.MustRegister(rejectedCounter)
		Registry.MustRegister(uploadBytesCounter)
		Registry.MustRegister(renderCounter)
		Registry.MustRegister(resetCounter)
		Registry.MustRegister(dispatchDuration)
		Registry.MustRegister(collectors.NewGoCollector())
	})
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// RecordDispatch records the outcome of one dispatch.
func RecordDispatch(name string, res *form.Result, elapsed time.Duration) {
	dispatchCounter.WithLabelValues(name, string(res.Resolution), string(res.Outcome())).Inc()
	dispatchDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	switch res.Resolution {
	case form.ResolutionUnresolved:
		unresolvedCounter.WithLabelValues(name).Inc()
	case form.ResolutionRejected:
		rejectedCounter.WithLabelValues(name, string(res.Code)).Inc()
	}
	if res.Received > 0 {
		uploadBytesCounter.WithLabelValues(name).Add(float64(res.Received))
	}
}

// RecordRender records one render of a form.
func RecordRender(name string) {
	renderCounter.WithLabelValues(name).Inc()
}

// RecordReset records one explicit reset.
func RecordReset(name string) {
	resetCounter.WithLabelValues(name).Inc()
}
