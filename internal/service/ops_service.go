package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"payme-merchant-gateway/internal/core/domain"
	"payme-merchant-gateway/internal/core/ports"

	"github.com/rs/zerolog"
)

// checkoutBaseURL is Payme's production checkout entry point.
const checkoutBaseURL = "https://checkout.paycom.uz"

// Ops API errors, mapped to HTTP statuses at the handler.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrOrderMissing       = errors.New("order not found")
	ErrInvalidRate        = errors.New("rate must be positive")
)

// OpsServiceImpl implements ports.OpsService: the internal management
// surface for exchange-rate maintenance, checkout links, and statement
// listing.
type OpsServiceImpl struct {
	username     string
	passwordHash string
	merchantID   string
	hashSvc      ports.HashService
	tokenSvc     ports.TokenService
	orders       ports.OrderRepository
	rates        ports.RateSource
	txRepo       ports.TransactionRepository
	log          zerolog.Logger
}

// NewOpsService creates a new OpsServiceImpl.
func NewOpsService(
	username, passwordHash, merchantID string,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
	orders ports.OrderRepository,
	rates ports.RateSource,
	txRepo ports.TransactionRepository,
	log zerolog.Logger,
) *OpsServiceImpl {
	return &OpsServiceImpl{
		username:     username,
		passwordHash: passwordHash,
		merchantID:   merchantID,
		hashSvc:      hashSvc,
		tokenSvc:     tokenSvc,
		orders:       orders,
		rates:        rates,
		txRepo:       txRepo,
		log:          log,
	}
}

// Login authenticates the ops user and issues a bearer token.
func (s *OpsServiceImpl) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	if username != s.username || s.passwordHash == "" {
		return "", time.Time{}, ErrInvalidCredentials
	}
	ok, err := s.hashSvc.Verify(password, s.passwordHash)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return "", time.Time{}, ErrInvalidCredentials
	}

	token, expiry, err := s.tokenSvc.Generate(username)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("issue token: %w", err)
	}
	return token, expiry, nil
}

// Rate returns the exchange rate in effect.
func (s *OpsServiceImpl) Rate(ctx context.Context) (float64, error) {
	return s.rates.Current(ctx)
}

// SetRate stores a new exchange rate.
func (s *OpsServiceImpl) SetRate(ctx context.Context, rate float64) error {
	if rate <= 0 {
		return ErrInvalidRate
	}
	if err := s.rates.Set(ctx, rate); err != nil {
		return fmt.Errorf("store rate: %w", err)
	}
	s.log.Info().Float64("rate", rate).Msg("exchange rate updated")
	return nil
}

// PaymentLink resolves the order and builds a Payme checkout URL. The
// account carries the display number — it is what shop staff and Payme's
// checkout page work with, not the long canonical id.
func (s *OpsServiceImpl) PaymentLink(ctx context.Context, orderRef, callbackURL string) (*ports.PaymentLink, error) {
	order, err := s.orders.Resolve(ctx, orderRef)
	if err != nil {
		return nil, fmt.Errorf("resolve order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderMissing
	}

	rate, err := s.rates.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("exchange rate: %w", err)
	}
	amount := order.ExpectedTiyin(rate)

	link := fmt.Sprintf("%s/%s?amount=%d&account[order_id]=%d", checkoutBaseURL, s.merchantID, amount, order.DisplayID)
	if callbackURL != "" {
		link += "&callback=" + url.QueryEscape(callbackURL)
	}

	s.log.Info().
		Str("order_id", order.ID).
		Int64("display_id", order.DisplayID).
		Int64("amount_tiyin", amount).
		Msg("payment link generated")

	return &ports.PaymentLink{
		URL:         link,
		OrderID:     order.ID,
		DisplayID:   order.DisplayID,
		AmountTiyin: amount,
		Rate:        rate,
	}, nil
}

// ListTransactions returns transactions created within [from, to] for
// reconciliation.
func (s *OpsServiceImpl) ListTransactions(ctx context.Context, from, to int64) ([]domain.Transaction, error) {
	return s.txRepo.ListByCreateTime(ctx, from, to)
}
