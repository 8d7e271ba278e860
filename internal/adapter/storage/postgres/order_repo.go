package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"payme-merchant-gateway/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// OrderRepo implements ports.OrderRepository against the shop's orders
// table. Payme's checkout page sends back whatever was put in the account
// object, which is the human-facing display number, while internal
// callers use the canonical id; Resolve accepts both.
type OrderRepo struct {
	pool Pool
}

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(pool Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

const orderColumns = `id, display_id, total`

// Resolve fetches an order by canonical id, falling back to the display
// number when the reference parses as an integer. Returns (nil, nil) when
// no order matches.
func (r *OrderRepo) Resolve(ctx context.Context, orderRef string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	order, err := r.scanOrder(r.pool.QueryRow(ctx, query, orderRef))
	if err != nil {
		return nil, err
	}
	if order != nil {
		return order, nil
	}

	displayID, parseErr := strconv.ParseInt(orderRef, 10, 64)
	if parseErr != nil {
		return nil, nil
	}

	query = `SELECT ` + orderColumns + ` FROM orders WHERE display_id = $1`
	return r.scanOrder(r.pool.QueryRow(ctx, query, displayID))
}

func (r *OrderRepo) scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.DisplayID, &o.Total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return &o, nil
}
