package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveVerification(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveVerification("premium", OutcomeApplied, "INR", 48400)
	m.ObserveVerification("premium", OutcomeAlreadyApplied, "INR", 48400)

	assert.Equal(t, 1.0, promtest.ToFloat64(m.VerificationsTotal.WithLabelValues("premium", OutcomeApplied)))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.VerificationsTotal.WithLabelValues("premium", OutcomeAlreadyApplied)))
	assert.Equal(t, 48400.0, promtest.ToFloat64(m.PaymentAmountTotal.WithLabelValues("premium", "INR")))
}

func TestObserveGatewayCall(t *testing.T) {
	m := New(nil)

	m.ObserveGatewayCall("create_order", 10*time.Millisecond, nil)
	m.ObserveGatewayCall("create_order", 10*time.Millisecond, errors.New("timeout"))

	assert.Equal(t, 1.0, promtest.ToFloat64(m.GatewayErrorsTotal.WithLabelValues("create_order")))
	assert.Equal(t, 1, promtest.CollectAndCount(m.GatewayCallDuration))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveOrder("pro", nil)
		m.ObserveVerification("pro", OutcomeApplied, "INR", 1)
		m.ObserveFreeActivation("free", "free")
		m.ObserveWebhook("payment.captured", "applied")
		m.ObserveGatewayCall("fetch_payment", time.Second, nil)
	})
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New(prometheus.NewRegistry())

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/plans", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", m.Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/plans", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, promtest.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/plans", "200")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "folioforge_http_requests_total"))
}
