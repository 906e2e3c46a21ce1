// Package metrics exposes Prometheus collectors for the bot. Collectors
// live in a private registry so tests can build independent instances.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "carhub"

// Metrics holds every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	UpdatesTotal      *prometheus.CounterVec
	HandlerDuration   *prometheus.HistogramVec
	RateLimitedTotal  prometheus.Counter
	PanicsTotal       prometheus.Counter
	SendErrorsTotal   prometheus.Counter
	IntakeEventsTotal *prometheus.CounterVec
	DispatchTotal     *prometheus.CounterVec
	DispatchDuration  *prometheus.HistogramVec
	SessionsSwept     prometheus.Counter
	StartTime         time.Time
}

// New creates and registers all collectors in a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	m := &Metrics{registry: reg, StartTime: time.Now()}

	m.UpdatesTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "updates_total",
		Help:      "Telegram updates handled, by update kind and status.",
	}, []string{"kind", "status"})

	m.HandlerDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "handler_duration_seconds",
		Help:      "Time spent handling one update.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"kind"})

	m.RateLimitedTotal = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Updates dropped by the per-user throttle.",
	})

	m.PanicsTotal = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "handler_panics_total",
		Help:      "Panics recovered in update handlers.",
	})

	m.SendErrorsTotal = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "send_errors_total",
		Help:      "Outbound Telegram calls that failed after retries.",
	})

	m.IntakeEventsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "intake_events_total",
		Help:      "Questionnaire events (start, reject, complete, cancel) by label.",
	}, []string{"event", "label"})

	m.DispatchTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dispatch_actions_total",
		Help:      "Terminal actions by action and status.",
	}, []string{"action", "status"})

	m.DispatchDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "dispatch_action_duration_seconds",
		Help:      "Duration of terminal actions.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"action"})

	m.SessionsSwept = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_expired_total",
		Help:      "Idle sessions removed by the janitor.",
	})

	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "uptime_seconds",
		Help:      "Seconds since process start.",
	}, func() float64 { return time.Since(m.StartTime).Seconds() })

	return m
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveUpdate records one handled update.
func (m *Metrics) ObserveUpdate(kind string, err error, took time.Duration) {
	if m == nil {
		return
	}
	m.UpdatesTotal.WithLabelValues(kind, status(err)).Inc()
	m.HandlerDuration.WithLabelValues(kind).Observe(took.Seconds())
}

// ObserveRateLimited counts a throttled update.
func (m *Metrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.RateLimitedTotal.Inc()
}

// ObservePanic counts a recovered panic.
func (m *Metrics) ObservePanic() {
	if m == nil {
		return
	}
	m.PanicsTotal.Inc()
}

// ObserveSendError counts a failed outbound call.
func (m *Metrics) ObserveSendError() {
	if m == nil {
		return
	}
	m.SendErrorsTotal.Inc()
}

// ObserveIntake counts a questionnaire event.
func (m *Metrics) ObserveIntake(event, label string) {
	if m == nil {
		return
	}
	m.IntakeEventsTotal.WithLabelValues(event, label).Inc()
}

// ObserveDispatch records one terminal action.
func (m *Metrics) ObserveDispatch(action string, err error, took time.Duration) {
	if m == nil {
		return
	}
	m.DispatchTotal.WithLabelValues(action, status(err)).Inc()
	m.DispatchDuration.WithLabelValues(action).Observe(took.Seconds())
}

// ObserveSweep adds expired sessions removed by one sweep.
func (m *Metrics) ObserveSweep(removed int) {
	if m == nil || removed <= 0 {
		return
	}
	m.SessionsSwept.Add(float64(removed))
}
