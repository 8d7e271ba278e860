// Package memory provides the in-process transaction store. It is the
// default backend: cheap to run and matching the gateway's modest call
// volume, at the cost of losing history on restart. Use the postgres
// backend where Payme's long-horizon CheckTransaction/GetStatement
// queries must survive redeploys.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"payme-merchant-gateway/internal/core/domain"
)

// TransactionRepo implements ports.TransactionRepository with a mutex
// guarded map plus an order→pending-transaction index.
type TransactionRepo struct {
	mu sync.RWMutex
	// byID owns the canonical records; values are never handed out
	// directly, only clones cross the boundary.
	byID map[string]*domain.Transaction
	// pendingByOrder maps order id to the id of its state-1 transaction.
	pendingByOrder map[string]string
}

// NewTransactionRepo creates an empty in-memory store.
func NewTransactionRepo() *TransactionRepo {
	return &TransactionRepo{
		byID:           make(map[string]*domain.Transaction),
		pendingByOrder: make(map[string]string),
	}
}

// Get returns the transaction with the given id, or (nil, nil).
func (r *TransactionRepo) Get(ctx context.Context, paymeID string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tx, ok := r.byID[paymeID]
	if !ok {
		return nil, nil
	}
	return tx.Clone(), nil
}

// Create inserts a new record and, when pending, indexes it under its
// order.
func (r *TransactionRepo) Create(ctx context.Context, tx *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[tx.PaymeID]; exists {
		return fmt.Errorf("transaction already exists: %s", tx.PaymeID)
	}
	r.byID[tx.PaymeID] = tx.Clone()
	if tx.State == domain.StateCreated && tx.OrderID != "" {
		r.pendingByOrder[tx.OrderID] = tx.PaymeID
	}
	return nil
}

// Update replaces the stored record. When the state leaves 1 the order
// index entry is dropped, freeing the order for a new transaction.
func (r *TransactionRepo) Update(ctx context.Context, tx *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[tx.PaymeID]; !exists {
		return fmt.Errorf("transaction not found: %s", tx.PaymeID)
	}
	r.byID[tx.PaymeID] = tx.Clone()
	if tx.State != domain.StateCreated && tx.OrderID != "" {
		if r.pendingByOrder[tx.OrderID] == tx.PaymeID {
			delete(r.pendingByOrder, tx.OrderID)
		}
	}
	return nil
}

// PendingByOrder returns the state-1 transaction for the order, or
// (nil, nil).
func (r *TransactionRepo) PendingByOrder(ctx context.Context, orderID string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.pendingByOrder[orderID]
	if !ok {
		return nil, nil
	}
	tx, ok := r.byID[id]
	if !ok || tx.State != domain.StateCreated {
		return nil, nil
	}
	return tx.Clone(), nil
}

// ListByCreateTime returns records with create_time in [from, to], both
// bounds inclusive, oldest first.
func (r *TransactionRepo) ListByCreateTime(ctx context.Context, from, to int64) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var txs []domain.Transaction
	for _, tx := range r.byID {
		if tx.CreateTime >= from && tx.CreateTime <= to {
			txs = append(txs, *tx.Clone())
		}
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].CreateTime < txs[j].CreateTime })
	return txs, nil
}
