// Package dedup remembers which order a checkout idempotency key produced, so
// a retried submission resolves to the order already stored.
package dedup

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Executor represents the subset of pgx methods required for dedup operations.
type Executor interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type Repository struct {
	executor Executor
}

func NewRepository(exec Executor) *Repository {
	return &Repository{executor: exec}
}

// Lookup returns the order id recorded for key. The boolean reports whether
// the key was seen before.
func (r *Repository) Lookup(ctx context.Context, key string) (string, bool, error) {
	var orderID string
	if err := r.executor.QueryRow(ctx, `
		SELECT order_id::text
		FROM checkout_idempotency
		WHERE idempotency_key = $1
	`, key).Scan(&orderID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("select idempotency key: %w", err)
	}
	return orderID, true, nil
}

// Remember records key for orderID. It reports false when the key already
// belongs to another submission.
func (r *Repository) Remember(ctx context.Context, key, orderID string) (bool, error) {
	tag, err := r.executor.Exec(ctx, `
		INSERT INTO checkout_idempotency (idempotency_key, order_id)
		VALUES ($1, $2)
		ON CONFLICT (idempotency_key) DO NOTHING
	`, key, orderID)
	if err != nil {
		return false, fmt.Errorf("insert idempotency key: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
