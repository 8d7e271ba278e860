package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"payme-merchant-gateway/internal/core/domain"
	"payme-merchant-gateway/internal/core/ports"
	"payme-merchant-gateway/pkg/merchanterr"

	"github.com/rs/zerolog"
)

// minPasswordLen is the shortest secret ChangePassword accepts.
const minPasswordLen = 8

// MerchantServiceImpl implements the Payme Merchant API transaction state
// machine over an injected transaction store.
//
// All state-mutating paths are serialized by a single mutex: Payme's call
// volume per merchant is low and the lock makes the create/perform/cancel
// races (two concurrent creates with one id, create racing cancel on one
// order) trivially correct for any store backend.
type MerchantServiceImpl struct {
	mu      sync.Mutex
	txRepo  ports.TransactionRepository
	amounts ports.AmountService
	creds   ports.CredentialStore
	capture ports.CaptureSink
	// minAmount is the smallest chargeable amount in tiyin.
	minAmount int64
	// now stamps perform/cancel times in epoch ms; replaceable in tests.
	now func() int64
	log zerolog.Logger
}

// NewMerchantService creates a new MerchantServiceImpl.
func NewMerchantService(
	txRepo ports.TransactionRepository,
	amounts ports.AmountService,
	creds ports.CredentialStore,
	capture ports.CaptureSink,
	minAmount int64,
	log zerolog.Logger,
) *MerchantServiceImpl {
	return &MerchantServiceImpl{
		txRepo:    txRepo,
		amounts:   amounts,
		creds:     creds,
		capture:   capture,
		minAmount: minAmount,
		now:       func() int64 { return time.Now().UnixMilli() },
		log:       log,
	}
}

// CheckPerform implements CheckPerformTransaction. It is read-only: a nil
// return means {allow: true}.
func (s *MerchantServiceImpl) CheckPerform(ctx context.Context, req ports.CheckPerformRequest) error {
	if req.Amount < s.minAmount {
		return merchanterr.ErrInvalidAmount()
	}
	if req.OrderRef == "" {
		return merchanterr.ErrInvalidAccount()
	}
	if _, err := s.amounts.Validate(ctx, req.OrderRef, req.Amount); err != nil {
		return err
	}
	return nil
}

// Create implements CreateTransaction.
//
// The replay check runs before business validation on purpose: Payme may
// retry a call it already succeeded on, and that retry must not be
// rejected just because the exchange rate moved in between.
func (s *MerchantServiceImpl) Create(ctx context.Context, req ports.CreateRequest) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.txRepo.Get(ctx, req.PaymeID)
	if err != nil {
		return nil, merchanterr.ErrInternal(fmt.Errorf("load transaction: %w", err))
	}
	if existing != nil {
		if existing.State == domain.StatePerformed {
			return nil, merchanterr.ErrAlreadyPaid()
		}
		return existing, nil
	}

	if req.Amount < s.minAmount {
		return nil, merchanterr.ErrInvalidAmount()
	}
	if req.OrderRef == "" {
		return nil, merchanterr.ErrInvalidAccount()
	}

	order, err := s.amounts.Validate(ctx, req.OrderRef, req.Amount)
	if err != nil {
		return nil, err
	}

	pending, err := s.txRepo.PendingByOrder(ctx, order.ID)
	if err != nil {
		return nil, merchanterr.ErrInternal(fmt.Errorf("pending lookup: %w", err))
	}
	if pending != nil && pending.PaymeID != req.PaymeID {
		return nil, merchanterr.ErrOrderPending()
	}

	createTime := req.Time
	if createTime == 0 {
		createTime = s.now()
	}
	tx := &domain.Transaction{
		PaymeID:    req.PaymeID,
		State:      domain.StateCreated,
		CreateTime: createTime,
		OrderID:    order.ID,
	}
	if err := s.txRepo.Create(ctx, tx); err != nil {
		return nil, merchanterr.ErrInternal(fmt.Errorf("create transaction: %w", err))
	}

	s.log.Info().
		Str("transaction", tx.PaymeID).
		Str("order_id", tx.OrderID).
		Int64("amount", req.Amount).
		Msg("transaction created")

	return tx, nil
}

// Perform implements PerformTransaction. On the 1→2 transition the capture
// sink is notified so the shop marks the order paid; delivery is
// best-effort and never fails the transition.
func (s *MerchantServiceImpl) Perform(ctx context.Context, paymeID string) (*domain.Transaction, error) {
	s.mu.Lock()
	tx, err := s.txRepo.Get(ctx, paymeID)
	if err != nil {
		s.mu.Unlock()
		return nil, merchanterr.ErrInternal(fmt.Errorf("load transaction: %w", err))
	}
	if tx == nil {
		s.mu.Unlock()
		return nil, merchanterr.ErrTransactionNotFound()
	}
	if tx.State == domain.StatePerformed {
		// Idempotent replay: perform_time stays untouched.
		s.mu.Unlock()
		return tx, nil
	}
	if tx.IsTerminal() {
		s.mu.Unlock()
		return nil, merchanterr.ErrTransactionCancelled()
	}

	tx.State = domain.StatePerformed
	tx.PerformTime = s.now()
	if err := s.txRepo.Update(ctx, tx); err != nil {
		s.mu.Unlock()
		return nil, merchanterr.ErrInternal(fmt.Errorf("update transaction: %w", err))
	}
	notify := tx.Clone()
	s.mu.Unlock()

	s.log.Info().
		Str("transaction", tx.PaymeID).
		Str("order_id", tx.OrderID).
		Int64("perform_time", tx.PerformTime).
		Msg("transaction performed")

	// Outside the lock: the sink may do network I/O.
	if s.capture != nil {
		if err := s.capture.OrderPaid(ctx, notify); err != nil {
			s.log.Error().Err(err).
				Str("order_id", notify.OrderID).
				Msg("order-paid notification failed")
		}
	}

	return tx, nil
}

// Cancel implements CancelTransaction: 1→-1 (freeing the order for a new
// transaction) or 2→-2. Replays on an already-cancelled record return it
// unchanged without restamping cancel_time.
func (s *MerchantServiceImpl) Cancel(ctx context.Context, req ports.CancelRequest) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.txRepo.Get(ctx, req.PaymeID)
	if err != nil {
		return nil, merchanterr.ErrInternal(fmt.Errorf("load transaction: %w", err))
	}
	if tx == nil {
		return nil, merchanterr.ErrTransactionNotFound()
	}
	if tx.IsTerminal() {
		return tx, nil
	}

	switch tx.State {
	case domain.StatePerformed:
		tx.State = domain.StateCancelledAfter
	case domain.StateCreated:
		tx.State = domain.StateCancelledBefore
	}
	tx.CancelTime = s.now()
	tx.Reason = req.Reason

	if err := s.txRepo.Update(ctx, tx); err != nil {
		return nil, merchanterr.ErrInternal(fmt.Errorf("update transaction: %w", err))
	}

	s.log.Info().
		Str("transaction", tx.PaymeID).
		Str("order_id", tx.OrderID).
		Int("state", int(tx.State)).
		Msg("transaction cancelled")

	return tx, nil
}

// Check implements CheckTransaction.
func (s *MerchantServiceImpl) Check(ctx context.Context, paymeID string) (*domain.Transaction, error) {
	tx, err := s.txRepo.Get(ctx, paymeID)
	if err != nil {
		return nil, merchanterr.ErrInternal(fmt.Errorf("load transaction: %w", err))
	}
	if tx == nil {
		return nil, merchanterr.ErrTransactionNotFound()
	}
	return tx, nil
}

// Statement implements GetStatement. Both bounds are inclusive and an
// empty result is valid.
func (s *MerchantServiceImpl) Statement(ctx context.Context, req ports.StatementRequest) ([]domain.Transaction, error) {
	txs, err := s.txRepo.ListByCreateTime(ctx, req.From, req.To)
	if err != nil {
		return nil, merchanterr.ErrInternal(fmt.Errorf("list transactions: %w", err))
	}
	return txs, nil
}

// ChangePassword implements the password-rotation method. Callable only
// through the (already authenticated) protocol itself.
func (s *MerchantServiceImpl) ChangePassword(ctx context.Context, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return merchanterr.ErrInvalidPassword()
	}
	s.creds.Rotate(newPassword)
	s.log.Info().Msg("billing password rotated")
	return nil
}

// WithClock replaces the timestamp source. Test hook.
func (s *MerchantServiceImpl) WithClock(now func() int64) *MerchantServiceImpl {
	s.now = now
	return s
}
