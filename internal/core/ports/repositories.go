package ports

import (
	"context"

	"payme-merchant-gateway/internal/core/domain"
)

// TransactionRepository stores Merchant API transaction records. Records
// are created once, mutated along the legal state transitions, and never
// deleted — Payme queries them indefinitely via CheckTransaction and
// GetStatement.
//
// Get and PendingByOrder return (nil, nil) when no record matches.
type TransactionRepository interface {
	Get(ctx context.Context, paymeID string) (*domain.Transaction, error)
	Create(ctx context.Context, tx *domain.Transaction) error
	Update(ctx context.Context, tx *domain.Transaction) error
	// PendingByOrder returns the state-1 transaction indexed under the
	// order, enforcing at-most-one-pending-per-order.
	PendingByOrder(ctx context.Context, orderID string) (*domain.Transaction, error)
	// ListByCreateTime returns records with create_time in [from, to],
	// both bounds inclusive, regardless of state.
	ListByCreateTime(ctx context.Context, from, to int64) ([]domain.Transaction, error)
}

// OrderRepository is the consumed order-lookup collaborator.
// Resolve accepts either the canonical order id or, when the reference
// parses as an integer, the human-facing display number.
// Returns (nil, nil) when no order matches.
type OrderRepository interface {
	Resolve(ctx context.Context, orderRef string) (*domain.Order, error)
}

// RateSource is the consumed exchange-rate collaborator, in UZS per USD.
// Implementations fall back to a configured default when nothing has been
// stored yet.
type RateSource interface {
	Current(ctx context.Context) (float64, error)
	Set(ctx context.Context, rate float64) error
}

// HealthChecker checks external dependency health.
type HealthChecker interface {
	// Ping verifies connectivity. Returns nil if healthy.
	Ping(ctx context.Context) error
	// Name returns the dependency name (e.g., "postgresql", "redis").
	Name() string
}
