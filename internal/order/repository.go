package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/dedup"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/sequence"
)

const displaySequenceName = "orders"

// DBPool matches the methods from *pgxpool.Pool that we use.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Repository interface {
	// Create stores header, lines and display id in one transaction.
	Create(ctx context.Context, in NewOrder) (Order, error)
	// FindByIdempotencyKey resolves a key recorded by Create.
	FindByIdempotencyKey(ctx context.Context, key string) (Order, bool, error)
	ListOrders(ctx context.Context) ([]Order, error)
	ListItems(ctx context.Context) ([]Item, error)
	GetByID(ctx context.Context, id string) (Order, error)
	ListActiveByCPF(ctx context.Context, cpf string) ([]Order, error)
	UpdateStatus(ctx context.Context, tr Transition) error
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// FormatDisplayID renders a sequence value as the customer-facing order id.
func FormatDisplayID(seq int64) string {
	return fmt.Sprintf("PED-%05d", seq)
}

func (r *PostgresRepository) Create(ctx context.Context, in NewOrder) (_ Order, err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	seq, err := sequence.NewRepository(tx).Next(ctx, displaySequenceName)
	if err != nil {
		return Order{}, err
	}

	o := Order{
		ID:              uuid.NewString(),
		DisplayID:       FormatDisplayID(seq),
		Total:           in.Total,
		Status:          StatusAwaiting,
		CustomerName:    in.CustomerName,
		CustomerAddress: in.Address,
		CPF:             in.CPF,
		PaymentMethod:   in.PaymentMethod,
		DeliveryType:    in.DeliveryType,
		Items:           make([]Item, 0, len(in.Items)),
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO orders (id, display_id, customer_name, address, cpf, total_amount, status, payment_method, delivery_type)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
         RETURNING created_at`,
		o.ID, o.DisplayID, o.CustomerName, o.CustomerAddress, o.CPF,
		o.Total.StringFixed(2), string(o.Status), o.PaymentMethod, string(o.DeliveryType),
	).Scan(&o.CreatedAt)
	if err != nil {
		return Order{}, fmt.Errorf("insert order: %w", err)
	}

	for _, it := range in.Items {
		item := Item{
			ID:          uuid.NewString(),
			OrderID:     o.ID,
			Name:        it.Name,
			Quantity:    it.Quantity,
			Price:       it.Price,
			Observation: it.Observation,
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO order_items (id, order_id, pizza_name, quantity, price, observation)
             VALUES ($1, $2, $3, $4, $5, $6)`,
			item.ID, item.OrderID, item.Name, item.Quantity, item.Price.StringFixed(2), item.Observation,
		)
		if err != nil {
			return Order{}, fmt.Errorf("insert order_item: %w", err)
		}
		o.Items = append(o.Items, item)
	}

	if in.IdempotencyKey != "" {
		var fresh bool
		fresh, err = dedup.NewRepository(tx).Remember(ctx, in.IdempotencyKey, o.ID)
		if err != nil {
			return Order{}, err
		}
		if !fresh {
			err = ErrDuplicateSubmission
			return Order{}, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return Order{}, fmt.Errorf("commit: %w", err)
	}
	return o, nil
}

func (r *PostgresRepository) FindByIdempotencyKey(ctx context.Context, key string) (Order, bool, error) {
	id, found, err := dedup.NewRepository(r.pool).Lookup(ctx, key)
	if err != nil || !found {
		return Order{}, false, err
	}
	o, err := r.GetByID(ctx, id)
	if err != nil {
		return Order{}, false, err
	}
	return o, true, nil
}

const orderColumns = `id::text, display_id, customer_name, address, cpf, total_amount, status,
	payment_method, delivery_type, created_at, preparation_start_at, ready_at, delivered_at`

const itemColumns = `id::text, order_id::text, pizza_name, quantity, price, observation`

// ListOrders returns every header, newest first, without items.
func (r *PostgresRepository) ListOrders(ctx context.Context) ([]Order, error) {
	return r.queryOrders(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

func (r *PostgresRepository) ListItems(ctx context.Context) ([]Item, error) {
	return r.queryItems(ctx, `SELECT `+itemColumns+` FROM order_items`)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Order{}, ErrNotFound
	}

	row, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("select order: %w", err)
	}

	items, err := r.queryItems(ctx, `SELECT `+itemColumns+` FROM order_items WHERE order_id = $1`, id)
	if err != nil {
		return Order{}, err
	}
	return Join([]Order{row.toOrder()}, items)[0], nil
}

// ListActiveByCPF returns the customer's orders that were not delivered yet,
// newest first. No match is an empty slice.
func (r *PostgresRepository) ListActiveByCPF(ctx context.Context, cpf string) ([]Order, error) {
	orders, err := r.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders
         WHERE cpf = $1 AND status <> $2
         ORDER BY created_at DESC`,
		cpf, string(StatusDelivered))
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	items, err := r.queryItems(ctx, `SELECT `+itemColumns+` FROM order_items WHERE order_id::text = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	return Join(orders, items), nil
}

// UpdateStatus writes the new status and stamps the entry column of the
// target stage. Concurrent writers race; the last write wins.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, tr Transition) error {
	if !tr.To.Valid() {
		return fmt.Errorf("update status: invalid status %q", tr.To)
	}

	var (
		tag pgconn.CommandTag
		err error
	)
	if col := tr.To.StampField(); col != "" {
		tag, err = r.pool.Exec(ctx,
			fmt.Sprintf(`UPDATE orders SET status = $2, %s = $3 WHERE id = $1`, col),
			tr.OrderID, string(tr.To), tr.At)
	} else {
		tag, err = r.pool.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, tr.OrderID, string(tr.To))
	}
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) queryOrders(ctx context.Context, sql string, args ...any) ([]Order, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		row, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, row.toOrder())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return orders, nil
}

func (r *PostgresRepository) queryItems(ctx context.Context, sql string, args ...any) ([]Item, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select order_items: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.Name, &it.Quantity, &it.Price, &it.Observation); err != nil {
			return nil, fmt.Errorf("scan order_item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return items, nil
}

func scanOrder(row pgx.Row) (orderRow, error) {
	var o orderRow
	err := row.Scan(&o.ID, &o.DisplayID, &o.CustomerName, &o.Address, &o.CPF, &o.TotalAmount, &o.Status,
		&o.PaymentMethod, &o.DeliveryType, &o.CreatedAt, &o.PreparationStartAt, &o.ReadyAt, &o.DeliveredAt)
	return o, err
}
