package sequence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Store is satisfied by a pool or by a transaction, so the increment can
// join the caller's transaction.
type Store interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	store Store
}

func NewRepository(store Store) *Repository {
	return &Repository{store: store}
}

// Next atomically increments and returns the named counter, starting at 1.
func (r *Repository) Next(ctx context.Context, name string) (int64, error) {
	var v int64
	err := r.store.QueryRow(ctx, `
		INSERT INTO display_sequence (name, last_value)
		VALUES ($1, 1)
		ON CONFLICT (name)
		DO UPDATE SET last_value = display_sequence.last_value + 1, updated_at = now()
		RETURNING last_value
	`, name).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("next sequence %s: %w", name, err)
	}
	return v, nil
}
