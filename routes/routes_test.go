package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Govind-619/FolioForge/config"
	"github.com/Govind-619/FolioForge/gateway"
	"github.com/Govind-619/FolioForge/metrics"
	"github.com/Govind-619/FolioForge/models"
	"github.com/Govind-619/FolioForge/plans"
	"github.com/Govind-619/FolioForge/services"
	"github.com/Govind-619/FolioForge/store"
	"github.com/Govind-619/FolioForge/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKeySecret     = "rzp_test_secret"
	testWebhookSecret = "whsec_test"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	store  *store.MemoryStore
	fake   *gateway.FakeGateway
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		Env:                 "test",
		JWTSecret:           "test-jwt-secret-0123456789",
		JWTTTL:              time.Hour,
		SessionSecret:       "test-session-secret-0123",
		CORSOrigins:         []string{"*"},
		MaxRequestBodyBytes: 1 << 20,
		RazorpayKeyID:       "rzp_test_key",
		RazorpayKeySecret:   testKeySecret,
		Currency:            "INR",
	}
	st := store.NewMemoryStore()
	fake := gateway.NewFakeGateway(testKeySecret)
	m := metrics.New(nil)
	billing := services.NewBillingService(st, fake, plans.DefaultCatalog(), services.BillingConfig{
		KeySecret:     testKeySecret,
		WebhookSecret: testWebhookSecret,
		Currency:      "INR",
	}, nil, m)

	require.NoError(t, st.CreateCoupon(context.Background(), &models.Coupon{
		Code: "SAVE20", DiscountType: models.DiscountPercentage, DiscountValue: 20,
		MaxDiscount: func() *float64 { v := 15.0; return &v }(),
		ValidUntil:  time.Now().Add(24 * time.Hour), IsActive: true,
	}))

	router := SetupRouter(Dependencies{
		Config:      cfg,
		Store:       st,
		Billing:     billing,
		Portfolios:  services.NewPortfolioService(st),
		Metrics:     m,
		FakeGateway: fake,
	})
	return &testServer{router: router, store: st, fake: fake}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *testServer) register(t *testing.T, email string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Test User", "email": email, "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := decode(t, w)["data"].(map[string]interface{})
	return data["token"].(string)
}

func (s *testServer) createAdmin(t *testing.T) string {
	t.Helper()
	hash, err := utils.HashPassword("admin1234")
	require.NoError(t, err)
	require.NoError(t, s.store.CreateUser(context.Background(), &models.User{
		Name: "Admin", Email: "admin@example.com", PasswordHash: hash, IsAdmin: true,
	}))
	w := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "admin@example.com", "password": "admin1234"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode(t, w)["data"].(map[string]interface{})["token"].(string)
}

func TestCheckoutFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "buyer@example.com")

	w := s.do(t, http.MethodPost, "/api/apply-coupon", "", gin.H{"planId": "premium", "couponCode": "save20"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	quote := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "15.00", quote["discount"])
	assert.Equal(t, "484.00", quote["final_price"])

	w = s.do(t, http.MethodPost, "/api/create-order", token, gin.H{"planId": "premium", "couponCode": "SAVE20"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	order := decode(t, w)["order"].(map[string]interface{})
	assert.EqualValues(t, 48400, order["amount"])
	assert.Equal(t, "INR", order["currency"])
	orderID := order["id"].(string)

	w = s.do(t, http.MethodPost, "/api/dev/pay", token, gin.H{"orderId": orderID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	paid := decode(t, w)["data"].(map[string]interface{})

	verify := gin.H{
		"paymentId":  paid["paymentId"],
		"orderId":    orderID,
		"signature":  paid["signature"],
		"planId":     "premium",
		"couponCode": "SAVE20",
		"isUpgrade":  false,
		"amount":     484,
	}
	w = s.do(t, http.MethodPost, "/api/verify-payment", token, verify)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode(t, w)
	assert.Equal(t, true, res["success"])
	assert.Equal(t, "premium", res["plan"])
	assert.EqualValues(t, 5, res["tokens"])

	w = s.do(t, http.MethodPost, "/api/verify-payment", token, verify)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["alreadyApplied"])

	w = s.do(t, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode(t, w)["data"].(map[string]interface{})
	assert.EqualValues(t, 5, me["tokens"])

	w = s.do(t, http.MethodGet, "/api/payments", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)
	records := list["data"].([]interface{})
	require.Len(t, records, 1)
	assert.EqualValues(t, 1, list["pagination"].(map[string]interface{})["total"])

	paymentID := records[0].(map[string]interface{})["id"].(string)
	w = s.do(t, http.MethodGet, "/api/payments/"+paymentID+"/receipt", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	other := s.register(t, "other@example.com")
	w = s.do(t, http.MethodGet, "/api/payments/"+paymentID+"/receipt", other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProPlanStaysUnlimited(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "pro@example.com")

	w := s.do(t, http.MethodPost, "/api/create-order", token, gin.H{"planId": "pro"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	orderID := decode(t, w)["order"].(map[string]interface{})["id"].(string)
	w = s.do(t, http.MethodPost, "/api/dev/pay", token, gin.H{"orderId": orderID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	paid := decode(t, w)["data"].(map[string]interface{})
	w = s.do(t, http.MethodPost, "/api/verify-payment", token, gin.H{
		"paymentId": paid["paymentId"], "orderId": orderID, "signature": paid["signature"], "planId": "pro",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/portfolios", token, gin.H{"title": "Studio"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, true, me["unlimited"])
}

func TestCheckoutErrors(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "buyer@example.com")

	tests := []struct {
		name   string
		path   string
		token  string
		body   interface{}
		status int
	}{
		{"unauthenticated", "/api/create-order", "", gin.H{"planId": "premium"}, http.StatusUnauthorized},
		{"bad token", "/api/create-order", "nope", gin.H{"planId": "premium"}, http.StatusUnauthorized},
		{"malformed body", "/api/create-order", token, []byte(`{"planId":`), http.StatusUnprocessableEntity},
		{"missing plan", "/api/create-order", token, gin.H{}, http.StatusUnprocessableEntity},
		{"unknown plan", "/api/create-order", token, gin.H{"planId": "gold"}, http.StatusBadRequest},
		{"unknown coupon", "/api/create-order", token, gin.H{"planId": "premium", "couponCode": "NOPE"}, http.StatusBadRequest},
		{"free plan order", "/api/create-order", token, gin.H{"planId": "free"}, http.StatusBadRequest},
		{"paid plan activation", "/api/activate-free-plan", token, gin.H{"planId": "premium"}, http.StatusBadRequest},
		{"forged verification", "/api/verify-payment", token, gin.H{
			"paymentId": "pay_x", "orderId": "order_x", "signature": "deadbeef", "planId": "premium",
		}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	w := s.do(t, http.MethodPost, "/api/verify-payment", token, gin.H{
		"paymentId": "pay_x", "orderId": "order_x", "signature": "deadbeef", "planId": "premium",
	})
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, utils.ErrPaymentRejected, body["error"])
}

func TestGatewayOutageIsRetryable(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "buyer@example.com")
	s.fake.FailNext = gateway.ErrUnavailable

	w := s.do(t, http.MethodPost, "/api/create-order", token, gin.H{"planId": "premium"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, true, decode(t, w)["retryable"])
}

func TestFreePlanAndPortfolio(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "free@example.com")

	w := s.do(t, http.MethodPost, "/api/portfolios", token, gin.H{"title": "Too Soon"})
	assert.Equal(t, http.StatusPaymentRequired, w.Code)

	w = s.do(t, http.MethodPost, "/api/activate-free-plan", token, gin.H{"planId": "free"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode(t, w)
	assert.Equal(t, "free", res["plan"])
	assert.EqualValues(t, 1, res["tokens"])
	assert.Zero(t, s.fake.Calls)

	w = s.do(t, http.MethodPost, "/api/portfolios", token, gin.H{
		"title":   "Jane Doe",
		"content": gin.H{"bio": "<script>x</script>Designer"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	portfolio := decode(t, w)["data"].(map[string]interface{})
	id := portfolio["id"].(string)
	assert.Equal(t, "jane-doe", portfolio["slug"])

	w = s.do(t, http.MethodGet, "/p/jane-doe", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/portfolios/"+id+"/publish", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/p/jane-doe", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "<script>")

	w = s.do(t, http.MethodGet, "/api/me", token, nil)
	assert.EqualValues(t, 0, decode(t, w)["data"].(map[string]interface{})["tokens"])
}

func TestWebhookEndpoint(t *testing.T) {
	s := newTestServer(t)
	body := []byte(`{"event":"payment.failed","payload":{}}`)

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/razorpay", bytes.NewReader(body))
	req.Header.Set("X-Razorpay-Signature", gateway.WebhookSignature(testWebhookSecret, body))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "ignored", decode(t, w)["data"].(map[string]interface{})["outcome"])

	req = httptest.NewRequest(http.MethodPost, "/api/webhooks/razorpay", bytes.NewReader(body))
	req.Header.Set("X-Razorpay-Signature", "forged")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	user := s.register(t, "user@example.com")
	admin := s.createAdmin(t)

	coupon := gin.H{
		"code":           "launch50",
		"discount_type":  "percentage",
		"discount_value": 50,
		"valid_until":    time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	}
	w := s.do(t, http.MethodPost, "/api/admin/coupons", user, coupon)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/api/admin/coupons", admin, coupon)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "LAUNCH50", decode(t, w)["data"].(map[string]interface{})["code"])

	w = s.do(t, http.MethodPost, "/api/admin/coupons", admin, coupon)
	assert.Equal(t, http.StatusConflict, w.Code)

	bad := gin.H{"code": "BAD", "discount_type": "percentage", "discount_value": 150, "valid_until": coupon["valid_until"]}
	w = s.do(t, http.MethodPost, "/api/admin/coupons", admin, bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, "/api/admin/coupons/launch50", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodPost, "/api/apply-coupon", "", gin.H{"planId": "premium", "couponCode": "LAUNCH50"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/admin/coupons", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/admin/payments/export", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "payments_")
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	s.do(t, http.MethodGet, "/api/plans", "", nil)
	w = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}
