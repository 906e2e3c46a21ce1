package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ObserveUpdate("message", nil, time.Millisecond)
		m.ObserveRateLimited()
		m.ObservePanic()
		m.ObserveSendError()
		m.ObserveIntake("start", "sale")
		m.ObserveDispatch("persist", nil, time.Millisecond)
		m.ObserveSweep(3)
	})
	require.Nil(t, m.Registry())
}

func TestCounters(t *testing.T) {
	m := New()
	m.ObserveUpdate("message", nil, 10*time.Millisecond)
	m.ObserveUpdate("message", errors.New("x"), 10*time.Millisecond)
	m.ObserveUpdate("photo", nil, time.Millisecond)
	m.ObserveIntake("reject", "invalid_phone")
	m.ObserveDispatch("notify", errors.New("blocked"), time.Millisecond)
	m.ObserveSweep(2)
	m.ObserveSweep(0)

	require.Equal(t, 1.0, testutil.ToFloat64(m.UpdatesTotal.WithLabelValues("message", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.UpdatesTotal.WithLabelValues("message", "error")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.IntakeEventsTotal.WithLabelValues("reject", "invalid_phone")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.DispatchTotal.WithLabelValues("notify", "error")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.SessionsSwept))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.ObserveRateLimited()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Equal(t, 200, rec.Code)
	require.True(t, strings.Contains(string(body), "carhub_rate_limited_total 1"))
	require.Contains(t, string(body), "carhub_uptime_seconds")
	require.Contains(t, string(body), "go_goroutines")
}

func TestInstancesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.ObservePanic()
	require.Equal(t, 1.0, testutil.ToFloat64(a.PanicsTotal))
	require.Equal(t, 0.0, testutil.ToFloat64(b.PanicsTotal))
}
