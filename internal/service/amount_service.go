package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"payme-merchant-gateway/internal/core/domain"
	"payme-merchant-gateway/internal/core/ports"
	"payme-merchant-gateway/pkg/merchanterr"

	"github.com/rs/zerolog"
)

// orderLookupTimeout bounds the order collaborator call so a slow backend
// cannot hang the billing request.
const orderLookupTimeout = 3 * time.Second

// AmountValidator implements ports.AmountService: it resolves the order
// reference and reconciles the requested tiyin amount against the order
// total at the exchange rate in effect right now. The rate is read per
// call, never cached, so a rate change between receipt creation and the
// gateway callback fails safely instead of accepting a stale amount.
type AmountValidator struct {
	orders ports.OrderRepository
	rates  ports.RateSource
	log    zerolog.Logger
}

// NewAmountValidator creates a new AmountValidator.
func NewAmountValidator(orders ports.OrderRepository, rates ports.RateSource, log zerolog.Logger) *AmountValidator {
	return &AmountValidator{orders: orders, rates: rates, log: log}
}

// Validate resolves orderRef and checks amountTiyin for an exact match.
func (v *AmountValidator) Validate(ctx context.Context, orderRef string, amountTiyin int64) (*domain.Order, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, orderLookupTimeout)
	defer cancel()

	order, err := v.orders.Resolve(lookupCtx, orderRef)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			v.log.Error().Str("order_ref", orderRef).Msg("order lookup timed out")
			return nil, merchanterr.ErrUnableToPerform()
		}
		return nil, merchanterr.ErrInternal(fmt.Errorf("order lookup: %w", err))
	}
	if order == nil {
		return nil, merchanterr.ErrOrderNotFound()
	}

	rate, err := v.rates.Current(ctx)
	if err != nil {
		return nil, merchanterr.ErrInternal(fmt.Errorf("exchange rate: %w", err))
	}

	expected := order.ExpectedTiyin(rate)
	if amountTiyin != expected {
		v.log.Warn().
			Str("order_id", order.ID).
			Int64("expected_tiyin", expected).
			Int64("requested_tiyin", amountTiyin).
			Float64("rate", rate).
			Msg("amount mismatch")
		return nil, merchanterr.ErrInvalidAmount()
	}

	return order, nil
}
