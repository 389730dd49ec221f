package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_CountersAndHandler(t *testing.T) {
	m := New()
	m.Logins.WithLabelValues(ResultSuccess, "seller").Inc()
	m.Logins.WithLabelValues(ResultRejected, "").Inc()
	m.Logins.WithLabelValues(ResultRejected, "").Inc()
	m.ResetRequests.WithLabelValues(ResultSuccess).Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Logins.WithLabelValues(ResultSuccess, "seller")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Logins.WithLabelValues(ResultRejected, "")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ResetRequests.WithLabelValues(ResultSuccess)))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "trainfood_auth_logins_total")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNew_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.Registrations.WithLabelValues(ResultSuccess, "customer").Inc()
	assert.Equal(t, float64(0), testutil.ToFloat64(b.Registrations.WithLabelValues(ResultSuccess, "customer")))
}
