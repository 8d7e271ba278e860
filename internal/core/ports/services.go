package ports

import (
	"context"
	"time"

	"payme-merchant-gateway/internal/core/domain"
)

// CredentialStore holds the mutable billing secret the Authenticator
// compares against. It is the single piece of intentionally mutable shared
// state in the core: Rotate must be atomic with respect to concurrent
// Current calls.
type CredentialStore interface {
	Current() string
	Rotate(secret string)
	// Rotated reports whether the secret has ever been changed away from
	// its startup value. The sandbox-relaxed auth policy deactivates
	// permanently once this returns true.
	Rotated() bool
}

// AuthService validates the inbound Basic-Auth credential.
// sandbox marks requests carrying Payme's conformance-test signature.
type AuthService interface {
	Verify(authHeader string, sandbox bool) error
}

// AmountService resolves an order reference and reconciles the requested
// amount (in tiyin) against the order total at the current exchange rate.
type AmountService interface {
	Validate(ctx context.Context, orderRef string, amountTiyin int64) (*domain.Order, error)
}

// CaptureSink is notified when a transaction reaches the performed state,
// so the shop can mark the order paid. Delivery failures must not fail the
// state transition.
type CaptureSink interface {
	OrderPaid(ctx context.Context, tx *domain.Transaction) error
}

// --- Merchant API (the billing state machine) ---

// CheckPerformRequest carries CheckPerformTransaction params.
// OrderRef is empty when the account object was missing or had no order
// reference.
type CheckPerformRequest struct {
	Amount   int64
	OrderRef string
}

// CreateRequest carries CreateTransaction params.
type CreateRequest struct {
	PaymeID  string
	Time     int64 // gateway-supplied creation time, epoch ms
	Amount   int64
	OrderRef string
}

// CancelRequest carries CancelTransaction params.
type CancelRequest struct {
	PaymeID string
	Reason  *int
}

// StatementRequest carries GetStatement params, bounds inclusive.
type StatementRequest struct {
	From int64
	To   int64
}

// MerchantService implements the Payme Merchant API transaction state
// machine. Every method returns either a result or a *merchanterr.Error.
type MerchantService interface {
	CheckPerform(ctx context.Context, req CheckPerformRequest) error
	Create(ctx context.Context, req CreateRequest) (*domain.Transaction, error)
	Perform(ctx context.Context, paymeID string) (*domain.Transaction, error)
	Cancel(ctx context.Context, req CancelRequest) (*domain.Transaction, error)
	Check(ctx context.Context, paymeID string) (*domain.Transaction, error)
	Statement(ctx context.Context, req StatementRequest) ([]domain.Transaction, error)
	ChangePassword(ctx context.Context, newPassword string) error
}

// --- Ops API (internal management surface) ---

// TokenService issues and validates ops API bearer tokens.
type TokenService interface {
	Generate(username string) (string, time.Time, error)
	Validate(tokenString string) (string, error) // returns the subject
}

// HashService verifies ops passwords against their stored hash.
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// PaymentLink is a generated Payme checkout URL for an order.
type PaymentLink struct {
	URL         string  `json:"payment_url"`
	OrderID     string  `json:"order_id"`
	DisplayID   int64   `json:"display_id"`
	AmountTiyin int64   `json:"amount"`
	Rate        float64 `json:"rate"`
}

// OpsService exposes the internal management operations: exchange-rate
// maintenance, checkout-link generation, and statement listing.
type OpsService interface {
	Login(ctx context.Context, username, password string) (string, time.Time, error)
	Rate(ctx context.Context) (float64, error)
	SetRate(ctx context.Context, rate float64) error
	PaymentLink(ctx context.Context, orderRef, callbackURL string) (*PaymentLink, error)
	ListTransactions(ctx context.Context, from, to int64) ([]domain.Transaction, error)
}
