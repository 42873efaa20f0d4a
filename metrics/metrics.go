// Package metrics exports the rftp server events as Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/telebroad/rftp/ftp"
)

const namespace = "rftp"

var _ ftp.MetricsCollector = &Metrics{}

// Metrics implements ftp.MetricsCollector on Prometheus collectors.
// All methods are nil-safe: calls on a nil *Metrics are no-ops.
type Metrics struct {
	// ConnectionsTotal counts accepted sockets, labeled by result
	// ("admitted", "rejected") and reason.
	ConnectionsTotal *prometheus.CounterVec

	// ActiveConnections mirrors the server's active connection counter.
	ActiveConnections prometheus.Gauge

	// SessionsTotal counts finished sessions, labeled by outcome ("ok", "error").
	SessionsTotal *prometheus.CounterVec

	// SessionDuration observes session lifetimes in seconds.
	SessionDuration prometheus.Histogram

	// AuthenticationsTotal counts authentication steps, labeled by result.
	AuthenticationsTotal *prometheus.CounterVec

	// CommandsTotal counts executed commands, labeled by verb and outcome.
	CommandsTotal *prometheus.CounterVec

	// CommandDuration observes command execution time in seconds, by verb.
	CommandDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors with reg. If reg is nil,
// metrics are created but not registered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConnectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "total",
			Help:      "Total number of accepted control connections",
		}, []string{"result", "reason"}),
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "active",
			Help:      "Current number of active control connections",
		}),
		SessionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "total",
			Help:      "Total number of finished sessions",
		}, []string{"outcome"}),
		SessionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "duration_seconds",
			Help:      "Lifetime of sessions in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 16), // 100ms to ~55 minutes
		}),
		AuthenticationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "attempts_total",
			Help:      "Total number of authentication steps by result",
		}, []string{"result"}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "commands",
			Name:      "total",
			Help:      "Total number of executed commands",
		}, []string{"verb", "outcome"}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "commands",
			Name:      "duration_seconds",
			Help:      "Command execution time in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"verb"}),
	}

	if reg != nil {
		m.ConnectionsTotal = registerOrReuse(reg, m.ConnectionsTotal).(*prometheus.CounterVec)
		m.ActiveConnections = registerOrReuse(reg, m.ActiveConnections).(prometheus.Gauge)
		m.SessionsTotal = registerOrReuse(reg, m.SessionsTotal).(*prometheus.CounterVec)
		m.SessionDuration = registerOrReuse(reg, m.SessionDuration).(prometheus.Histogram)
		m.AuthenticationsTotal = registerOrReuse(reg, m.AuthenticationsTotal).(*prometheus.CounterVec)
		m.CommandsTotal = registerOrReuse(reg, m.CommandsTotal).(*prometheus.CounterVec)
		m.CommandDuration = registerOrReuse(reg, m.CommandDuration).(*prometheus.HistogramVec)
	}

	return m
}

// registerOrReuse registers c with reg, returning the already registered
// collector when there is one. Panics on any other registration failure.
func registerOrReuse(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}

func (m *Metrics) RecordConnection(admitted bool, reason string) {
	if m == nil {
		return
	}
	result := "admitted"
	if !admitted {
		result = "rejected"
	}
	m.ConnectionsTotal.WithLabelValues(result, reason).Inc()
}

func (m *Metrics) SetActiveConnections(n int) {
	if m == nil {
		return
	}
	m.ActiveConnections.Set(float64(n))
}

func (m *Metrics) RecordSession(failed bool, d time.Duration) {
	if m == nil {
		return
	}
	m.SessionsTotal.WithLabelValues(outcome(failed)).Inc()
	m.SessionDuration.Observe(d.Seconds())
}

func (m *Metrics) RecordAuthentication(result string) {
	if m == nil {
		return
	}
	m.AuthenticationsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordCommand(verb string, failed bool, d time.Duration) {
	if m == nil {
		return
	}
	m.CommandsTotal.WithLabelValues(verb, outcome(failed)).Inc()
	m.CommandDuration.WithLabelValues(verb).Observe(d.Seconds())
}

func outcome(failed bool) string {
	if failed {
		return "error"
	}
	return "ok"
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
