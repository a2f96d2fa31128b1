// Package metrics exposes hook dispatch and plugin activation as Prometheus
// metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vk/usbq/internal/activation"
	"github.com/vk/usbq/internal/hook"
)

const namespace = "usbq"

// Metrics holds all Prometheus metrics. It implements hook.Observer.
type Metrics struct {
	HookCallsTotal        *prometheus.CounterVec
	HookErrorsTotal       *prometheus.CounterVec
	HookCallDuration      *prometheus.HistogramVec
	HookImplementers      *prometheus.GaugeVec
	PluginActivationTotal *prometheus.CounterVec
	PluginsRegistered     prometheus.Gauge
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HookCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "hook_calls_total",
				Help:      "Total number of hook calls",
			},
			[]string{"hook", "mode"},
		),
		HookErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "hook_errors_total",
				Help:      "Total number of hook calls aborted by an implementer error",
			},
			[]string{"hook"},
		),
		HookCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "hook_call_duration_seconds",
				Help:      "Hook call duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 10, 7),
			},
			[]string{"hook"},
		),
		HookImplementers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "hook_implementers",
				Help:      "Number of implementers seen by the most recent call of each hook",
			},
			[]string{"hook"},
		),
		PluginActivationTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "plugin_activation_total",
				Help:      "Plugin activation outcomes by state",
			},
			[]string{"plugin", "state"},
		),
		PluginsRegistered: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "plugins_registered",
				Help:      "Number of live plugins",
			},
		),
	}

	reg.MustRegister(
		m.HookCallsTotal,
		m.HookErrorsTotal,
		m.HookCallDuration,
		m.HookImplementers,
		m.PluginActivationTotal,
		m.PluginsRegistered,
	)
	return m
}

// ObserveCall implements hook.Observer.
func (m *Metrics) ObserveCall(name string, mode hook.Mode, stats hook.CallStats) {
	m.HookCallsTotal.WithLabelValues(name, mode.String()).Inc()
	m.HookCallDuration.WithLabelValues(name).Observe(stats.Elapsed.Seconds())
	m.HookImplementers.WithLabelValues(name).Set(float64(stats.Implementers))
	if stats.Err != nil {
		m.HookErrorsTotal.WithLabelValues(name).Inc()
	}
}

// ObserveActivation records every outcome of an activation report.
func (m *Metrics) ObserveActivation(report *activation.Report) {
	if report == nil {
		return
	}
	for _, o := range report.Outcomes {
		m.PluginActivationTotal.WithLabelValues(o.Name, o.State.String()).Inc()
	}
	m.PluginsRegistered.Add(float64(report.Count(activation.StateRegistered)))
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
