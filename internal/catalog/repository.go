package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("not found")

// DBPool matches the methods from *pgxpool.Pool that we use.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository interface {
	ListMenuItems(ctx context.Context) ([]MenuItem, error)
	GetMenuItem(ctx context.Context, id string) (MenuItem, error)
	ListActiveCrusts(ctx context.Context) ([]CrustOption, error)
	GetCrust(ctx context.Context, id string) (CrustOption, error)
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const menuItemColumns = `id, name, description, ingredients, price, image_url, is_vegetarian, category, available`

func (r *PostgresRepository) ListMenuItems(ctx context.Context) ([]MenuItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+menuItemColumns+` FROM menu_items ORDER BY category ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("select menu_items: %w", err)
	}
	defer rows.Close()

	items := []MenuItem{}
	for rows.Next() {
		row, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan menu_item: %w", err)
		}
		items = append(items, row.toMenuItem())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return items, nil
}

func (r *PostgresRepository) GetMenuItem(ctx context.Context, id string) (MenuItem, error) {
	row, err := scanMenuItem(r.pool.QueryRow(ctx, `SELECT `+menuItemColumns+` FROM menu_items WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MenuItem{}, ErrNotFound
		}
		return MenuItem{}, fmt.Errorf("select menu_item: %w", err)
	}
	return row.toMenuItem(), nil
}

func (r *PostgresRepository) ListActiveCrusts(ctx context.Context) ([]CrustOption, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, price, is_active
		FROM crust_options
		WHERE is_active = TRUE
		ORDER BY price ASC`)
	if err != nil {
		return nil, fmt.Errorf("select crust_options: %w", err)
	}
	defer rows.Close()

	crusts := []CrustOption{}
	for rows.Next() {
		var c CrustOption
		if err := rows.Scan(&c.ID, &c.Name, &c.Price, &c.IsActive); err != nil {
			return nil, fmt.Errorf("scan crust_option: %w", err)
		}
		crusts = append(crusts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return crusts, nil
}

// GetCrust returns an active crust. Inactive crusts are hidden from ordering.
func (r *PostgresRepository) GetCrust(ctx context.Context, id string) (CrustOption, error) {
	var c CrustOption
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, price, is_active
		FROM crust_options
		WHERE id = $1 AND is_active = TRUE`, id).Scan(&c.ID, &c.Name, &c.Price, &c.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CrustOption{}, ErrNotFound
		}
		return CrustOption{}, fmt.Errorf("select crust_option: %w", err)
	}
	return c, nil
}

func scanMenuItem(row pgx.Row) (menuItemRow, error) {
	var m menuItemRow
	err := row.Scan(&m.ID, &m.Name, &m.Description, &m.Ingredients, &m.Price,
		&m.ImageURL, &m.IsVegetarian, &m.Category, &m.Available)
	return m, err
}
