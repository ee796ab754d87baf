package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.UserRegistered()
		m.ListingCreated()
		m.ListingSold(true)
		m.Offer("initial")
		m.ReviewCreated()
		m.ObserveRequest("GET", "/api/listings", 200, time.Millisecond)
	})
}

func TestCounters(t *testing.T) {
	m := New()
	m.UserRegistered()
	m.UserRegistered()
	m.Offer("initial")
	m.Offer("counter")
	m.Offer("counter")
	m.ListingSold(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.usersRegistered))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.offers.WithLabelValues("counter")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.listingsSold.WithLabelValues("external")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.listingsSold.WithLabelValues("platform")))
}

func TestHandlerExposesRequests(t *testing.T) {
	m := New()
	m.ObserveRequest("POST", "/api/auth/login", 401, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `marketplace_http_requests_total{method="POST",route="/api/auth/login",status="401"} 1`)
}
