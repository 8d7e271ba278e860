package handler

import (
	"errors"
	"net/http"

	"payme-merchant-gateway/internal/adapter/http/dto"
	"payme-merchant-gateway/internal/core/ports"
	"payme-merchant-gateway/internal/service"

	"github.com/gin-gonic/gin"
)

// OpsHandler serves the internal management endpoints.
type OpsHandler struct {
	svc ports.OpsService
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(svc ports.OpsService) *OpsHandler {
	return &OpsHandler{svc: svc}
}

// Login authenticates the ops user and returns a bearer token.
func (h *OpsHandler) Login(c *gin.Context) {
	var req dto.OpsLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, expiry, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, dto.OpsLoginResponse{Token: token, Expiry: expiry.Unix()})
}

// GetExchangeRate returns the rate in effect.
func (h *OpsHandler) GetExchangeRate(c *gin.Context) {
	rate, err := h.svc.Rate(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, dto.ExchangeRateResponse{Pair: "USD/UZS", Rate: rate})
}

// SetExchangeRate stores a new rate.
func (h *OpsHandler) SetExchangeRate(c *gin.Context) {
	var req dto.SetExchangeRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.SetRate(c.Request.Context(), req.Rate); err != nil {
		if errors.Is(err, service.ErrInvalidRate) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rate must be positive"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, dto.ExchangeRateResponse{Pair: "USD/UZS", Rate: req.Rate})
}

// GeneratePaymentLink builds a Payme checkout URL for an order.
func (h *OpsHandler) GeneratePaymentLink(c *gin.Context) {
	var req dto.PaymentLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	link, err := h.svc.PaymentLink(c.Request.Context(), req.OrderRef, req.CallbackURL)
	if err != nil {
		if errors.Is(err, service.ErrOrderMissing) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, link)
}

// ListTransactions returns transactions in a create-time window.
func (h *OpsHandler) ListTransactions(c *gin.Context) {
	from, to, err := dto.ParseStatementBounds(c.Query("from"), c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	txs, err := h.svc.ListTransactions(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	entries := make([]dto.StatementEntry, 0, len(txs))
	for i := range txs {
		entries = append(entries, dto.NewStatementEntry(&txs[i]))
	}
	c.JSON(http.StatusOK, gin.H{"transactions": entries, "count": len(entries)})
}

// HealthCheck reports dependency health.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}
