package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordConnection(true, "")
	m.RecordConnection(true, "")
	m.RecordConnection(false, "max_connections")
	m.SetActiveConnections(2)
	m.RecordAuthentication("logged_in")
	m.RecordCommand("NOOP", false, time.Millisecond)
	m.RecordCommand("NOOP", true, time.Millisecond)
	m.RecordSession(false, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ConnectionsTotal.WithLabelValues("admitted", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConnectionsTotal.WithLabelValues("rejected", "max_connections")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ActiveConnections))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthenticationsTotal.WithLabelValues("logged_in")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandsTotal.WithLabelValues("NOOP", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandsTotal.WithLabelValues("NOOP", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsTotal.WithLabelValues("ok")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordConnection(true, "")
		m.SetActiveConnections(1)
		m.RecordSession(true, time.Second)
		m.RecordAuthentication("rejected")
		m.RecordCommand("USER", false, time.Millisecond)
	})
}

func TestMetrics_ReRegisterReuses(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewMetrics(reg)
	second := NewMetrics(reg)

	second.SetActiveConnections(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(first.ActiveConnections))
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.SetActiveConnections(4)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "rftp_connections_active 4"), rec.Body.String())
}
