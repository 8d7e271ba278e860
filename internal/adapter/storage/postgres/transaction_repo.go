package postgres

import (
	"context"
	"errors"
	"fmt"

	"payme-merchant-gateway/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository on the
// payme_transactions table. Records are inserted once and mutated in
// place along the state machine; nothing is ever deleted so Payme can
// query arbitrarily old ids.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

const txColumns = `payme_id, state, create_time, perform_time, cancel_time, reason, order_id`

// Get fetches a transaction by its Payme-assigned id. Returns (nil, nil)
// when no record exists.
func (r *TransactionRepo) Get(ctx context.Context, paymeID string) (*domain.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM payme_transactions WHERE payme_id = $1`

	return r.scanTransaction(r.pool.QueryRow(ctx, query, paymeID))
}

// Create inserts a new transaction record.
func (r *TransactionRepo) Create(ctx context.Context, t *domain.Transaction) error {
	query := `INSERT INTO payme_transactions (payme_id, state, create_time, perform_time, cancel_time, reason, order_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		t.PaymeID, int(t.State), t.CreateTime, t.PerformTime, t.CancelTime, t.Reason, t.OrderID,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// Update persists the mutable fields after a state transition.
func (r *TransactionRepo) Update(ctx context.Context, t *domain.Transaction) error {
	query := `UPDATE payme_transactions SET state = $1, perform_time = $2, cancel_time = $3, reason = $4
		WHERE payme_id = $5`

	tag, err := r.pool.Exec(ctx, query,
		int(t.State), t.PerformTime, t.CancelTime, t.Reason, t.PaymeID,
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction not found: %s", t.PaymeID)
	}
	return nil
}

// PendingByOrder fetches the state-1 transaction for the order, if any.
// Returns (nil, nil) when the order has no pending payment.
func (r *TransactionRepo) PendingByOrder(ctx context.Context, orderID string) (*domain.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM payme_transactions WHERE order_id = $1 AND state = 1`

	return r.scanTransaction(r.pool.QueryRow(ctx, query, orderID))
}

// ListByCreateTime fetches transactions with create_time in [from, to],
// both bounds inclusive, oldest first.
func (r *TransactionRepo) ListByCreateTime(ctx context.Context, from, to int64) ([]domain.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM payme_transactions
		WHERE create_time >= $1 AND create_time <= $2 ORDER BY create_time ASC`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		var state int
		if err := rows.Scan(&t.PaymeID, &state, &t.CreateTime, &t.PerformTime, &t.CancelTime, &t.Reason, &t.OrderID); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.State = domain.TransactionState(state)
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

func (r *TransactionRepo) scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	var state int
	err := row.Scan(&t.PaymeID, &state, &t.CreateTime, &t.PerformTime, &t.CancelTime, &t.Reason, &t.OrderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	t.State = domain.TransactionState(state)
	return &t, nil
}
