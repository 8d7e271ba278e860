package handler

import (
	"payme-merchant-gateway/internal/adapter/http/middleware"
	"payme-merchant-gateway/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	MerchantSvc    ports.MerchantService
	OpsSvc         ports.OpsService
	TokenSvc       ports.TokenService
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies the configured backends)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Merchant API: one public JSON-RPC endpoint. Auth happens inside the
	// handler so failures come back as protocol errors over HTTP 200.
	merchantHandler := NewMerchantHandler(deps.AuthSvc, deps.MerchantSvc, deps.Logger)
	r.POST("/api/merchant", merchantHandler.Handle)

	// Ops API (internal management, JWT-protected past login)
	opsHandler := NewOpsHandler(deps.OpsSvc)
	ops := r.Group("/api/v1/ops")
	{
		ops.POST("/login", opsHandler.Login)

		authed := ops.Group("", middleware.JWTAuth(deps.TokenSvc, deps.Logger))
		{
			authed.GET("/exchange-rate", opsHandler.GetExchangeRate)
			authed.PUT("/exchange-rate", opsHandler.SetExchangeRate)
			authed.POST("/payment-link", opsHandler.GeneratePaymentLink)
			authed.GET("/transactions", opsHandler.ListTransactions)
		}
	}

	return r
}
