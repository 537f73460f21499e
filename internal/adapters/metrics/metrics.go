// Package metrics exposes task and livereload metrics in the Prometheus format.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const namespace = "gild"

// Outcome label values of the task metrics.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var _ sdktrace.SpanProcessor = (*Metrics)(nil)

// Metrics owns a private registry. It observes finished task spans
// and counts livereload activity.
type Metrics struct {
	registry     *prometheus.Registry
	taskDuration *prometheus.HistogramVec
	clients      prometheus.Gauge
	reloads      prometheus.Counter
}

// New creates the collectors and registers them, together with the Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Duration of task runs by task and outcome.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"task", "outcome"}),
		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "livereload_clients",
			Help:      "Number of connected livereload clients.",
		}),
		reloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "livereload_reloads_total",
			Help:      "Number of reload events broadcast to clients.",
		}),
	}
	m.registry.MustRegister(
		m.taskDuration,
		m.clients,
		m.reloads,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry holding all collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ClientConnected increments the connected client gauge.
func (m *Metrics) ClientConnected() {
	m.clients.Inc()
}

// ClientDisconnected decrements the connected client gauge.
func (m *Metrics) ClientDisconnected() {
	m.clients.Dec()
}

// ReloadSent counts one broadcast reload event.
func (m *Metrics) ReloadSent() {
	m.reloads.Inc()
}

// OnStart does nothing.
func (m *Metrics) OnStart(_ context.Context, _ sdktrace.ReadWriteSpan) {}

// OnEnd observes the duration of a finished task span.
func (m *Metrics) OnEnd(s sdktrace.ReadOnlySpan) {
	outcome := OutcomeSuccess
	if s.Status().Code == codes.Error {
		outcome = OutcomeFailure
	}
	m.taskDuration.
		WithLabelValues(s.Name(), outcome).
		Observe(s.EndTime().Sub(s.StartTime()).Seconds())
}

// ForceFlush does nothing.
func (m *Metrics) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (m *Metrics) Shutdown(_ context.Context) error {
	return nil
}
