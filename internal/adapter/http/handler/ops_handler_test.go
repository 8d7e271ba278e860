package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"payme-merchant-gateway/internal/core/domain"
	"payme-merchant-gateway/internal/core/ports"
	"payme-merchant-gateway/internal/core/ports/mocks"
	"payme-merchant-gateway/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func opsRequest(t *testing.T, h func(*gin.Context), method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, &buf)
	c.Request.Header.Set("Content-Type", "application/json")
	h(c)
	return w
}

func TestOpsLogin_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockOps := mocks.NewMockOpsService(ctrl)
	h := NewOpsHandler(mockOps)

	expiry := time.Unix(1800000000, 0)
	mockOps.EXPECT().Login(gomock.Any(), "admin", "secret").Return("jwt-token", expiry, nil)

	w := opsRequest(t, h.Login, http.MethodPost, "/api/v1/ops/login",
		gin.H{"username": "admin", "password": "secret"})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "jwt-token", resp["token"])
	assert.EqualValues(t, 1800000000, resp["expiry"])
}

func TestOpsLogin_InvalidCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockOps := mocks.NewMockOpsService(ctrl)
	h := NewOpsHandler(mockOps)

	mockOps.EXPECT().Login(gomock.Any(), "admin", "wrong").
		Return("", time.Time{}, service.ErrInvalidCredentials)

	w := opsRequest(t, h.Login, http.MethodPost, "/api/v1/ops/login",
		gin.H{"username": "admin", "password": "wrong"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOpsLogin_MissingFields(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewOpsHandler(mocks.NewMockOpsService(ctrl))

	w := opsRequest(t, h.Login, http.MethodPost, "/api/v1/ops/login", gin.H{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOpsExchangeRate_Get(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockOps := mocks.NewMockOpsService(ctrl)
	h := NewOpsHandler(mockOps)

	mockOps.EXPECT().Rate(gomock.Any()).Return(12750.0, nil)

	w := opsRequest(t, h.GetExchangeRate, http.MethodGet, "/api/v1/ops/exchange-rate", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "USD/UZS", resp["pair"])
	assert.EqualValues(t, 12750, resp["rate"])
}

func TestOpsExchangeRate_Set(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockOps := mocks.NewMockOpsService(ctrl)
	h := NewOpsHandler(mockOps)

	mockOps.EXPECT().SetRate(gomock.Any(), 12900.0).Return(nil)

	w := opsRequest(t, h.SetExchangeRate, http.MethodPut, "/api/v1/ops/exchange-rate",
		gin.H{"rate": 12900})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOpsExchangeRate_SetRejectsNonPositive(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewOpsHandler(mocks.NewMockOpsService(ctrl))

	// gt=0 binding rejects before the service is reached.
	w := opsRequest(t, h.SetExchangeRate, http.MethodPut, "/api/v1/ops/exchange-rate",
		gin.H{"rate": -10})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOpsPaymentLink(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockOps := mocks.NewMockOpsService(ctrl)
	h := NewOpsHandler(mockOps)

	mockOps.EXPECT().PaymentLink(gomock.Any(), "1042", "").Return(&ports.PaymentLink{
		URL:         "https://checkout.paycom.uz/m123?amount=57375000&account[order_id]=1042",
		OrderID:     "order_01",
		DisplayID:   1042,
		AmountTiyin: 57375000,
		Rate:        12750,
	}, nil)

	w := opsRequest(t, h.GeneratePaymentLink, http.MethodPost, "/api/v1/ops/payment-link",
		gin.H{"order_ref": "1042"})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp["payment_url"], "checkout.paycom.uz")
	assert.EqualValues(t, 57375000, resp["amount"])
}

func TestOpsPaymentLink_OrderNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockOps := mocks.NewMockOpsService(ctrl)
	h := NewOpsHandler(mockOps)

	mockOps.EXPECT().PaymentLink(gomock.Any(), "9999", "").
		Return(nil, service.ErrOrderMissing)

	w := opsRequest(t, h.GeneratePaymentLink, http.MethodPost, "/api/v1/ops/payment-link",
		gin.H{"order_ref": "9999"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOpsListTransactions(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockOps := mocks.NewMockOpsService(ctrl)
	h := NewOpsHandler(mockOps)

	mockOps.EXPECT().ListTransactions(gomock.Any(), int64(100), int64(200)).
		Return([]domain.Transaction{{PaymeID: "tx_1", State: domain.StatePerformed, CreateTime: 150}}, nil)

	w := opsRequest(t, h.ListTransactions, http.MethodGet, "/api/v1/ops/transactions?from=100&to=200", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 1, resp["count"])
}

func TestOpsListTransactions_BadBounds(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewOpsHandler(mocks.NewMockOpsService(ctrl))

	for _, target := range []string{
		"/api/v1/ops/transactions",
		"/api/v1/ops/transactions?from=abc&to=200",
		"/api/v1/ops/transactions?from=200&to=100",
	} {
		w := opsRequest(t, h.ListTransactions, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}

func TestHealthCheck_AllHealthy(t *testing.T) {
	hc := HealthCheck(fakeChecker{name: "postgresql"}, fakeChecker{name: "redis"})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)
	hc(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthCheck_Degraded(t *testing.T) {
	hc := HealthCheck(fakeChecker{name: "postgresql"}, fakeChecker{name: "redis", err: errors.New("down")})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)
	hc(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

type fakeChecker struct {
	name string
	err  error
}

func (f fakeChecker) Ping(ctx context.Context) error { return f.err }
func (f fakeChecker) Name() string                   { return f.name }
