package integration

import (
	"context"
	"strconv"
	"sync"

	"payme-merchant-gateway/internal/core/domain"
)

// --- In-Memory Order Repo ---

// inMemoryOrderRepo stands in for the shop database. Orders are seeded by
// tests and resolved by canonical id or display number, like the postgres
// implementation.
type inMemoryOrderRepo struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

func newInMemoryOrderRepo() *inMemoryOrderRepo {
	return &inMemoryOrderRepo{orders: make(map[string]*domain.Order)}
}

func (r *inMemoryOrderRepo) add(o *domain.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = o
}

func (r *inMemoryOrderRepo) Resolve(ctx context.Context, orderRef string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if o, ok := r.orders[orderRef]; ok {
		cp := *o
		return &cp, nil
	}
	if n, err := strconv.ParseInt(orderRef, 10, 64); err == nil {
		for _, o := range r.orders {
			if o.DisplayID == n {
				cp := *o
				return &cp, nil
			}
		}
	}
	return nil, nil
}
