package order

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"storefront/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger.Named("order_repo")}
}

const orderColumns = `id::text, customer_id::text, status, payment_method, full_name, email, phone, address_line, ward, city, note,
       subtotal, shipping_fee, total, created_at, canceled_at, completed_at, delivered_at`

func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	if len(o.Items) == 0 {
		return nil, fmt.Errorf("order has no items")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Lock rows in id order so concurrent checkouts cannot deadlock.
	wanted := make(map[int64]int, len(o.Items))
	for _, it := range o.Items {
		wanted[it.ProductID] += it.Quantity
	}
	ids := make([]int64, 0, len(wanted))
	for id := range wanted {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		var (
			stock  int
			status string
		)
		err := tx.QueryRow(ctx, `SELECT stock, status FROM products WHERE id = $1 FOR UPDATE`, id).Scan(&stock, &status)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.StockRejectedError{ProductID: id, Requested: wanted[id], Available: 0}
		}
		if err != nil {
			return nil, fmt.Errorf("lock product %d: %w", id, err)
		}
		if status != string(domain.ProductActive) {
			stock = 0
		}
		if wanted[id] > stock {
			r.logger.Info("stock rejected",
				zap.Int64("product_id", id),
				zap.Int("requested", wanted[id]),
				zap.Int("available", stock),
			)
			return nil, &domain.StockRejectedError{ProductID: id, Requested: wanted[id], Available: stock}
		}
		if _, err := tx.Exec(ctx, `UPDATE products SET stock = stock - $2 WHERE id = $1`, id, wanted[id]); err != nil {
			return nil, fmt.Errorf("decrement stock %d: %w", id, err)
		}
	}

	o.ID = uuid.NewString()
	if o.Status == "" {
		o.Status = domain.OrderPending
	}
	const insertOrder = `
INSERT INTO orders (id, customer_id, status, payment_method, full_name, email, phone, address_line, ward, city, note,
                    subtotal, shipping_fee, total)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING created_at
`
	s := o.Shipping
	if err := tx.QueryRow(ctx, insertOrder,
		o.ID, o.CustomerID, string(o.Status), string(o.PaymentMethod),
		s.FullName, s.Email, s.Phone, s.AddressLine, s.Ward, s.City, s.Note,
		o.Subtotal, o.ShippingFee, o.Total,
	).Scan(&o.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	const insertItem = `
INSERT INTO order_items (id, order_id, product_id, name, quantity, price, position)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	items := make([]domain.OrderItem, len(o.Items))
	for i, it := range o.Items {
		it.ID = uuid.NewString()
		it.OrderID = o.ID
		if _, err := tx.Exec(ctx, insertItem, it.ID, it.OrderID, it.ProductID, it.Name, it.Quantity, it.Price, i); err != nil {
			return nil, fmt.Errorf("insert order item %d: %w", it.ProductID, err)
		}
		items[i] = it
	}
	o.Items = items

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Info("order created",
		zap.String("order_id", o.ID),
		zap.String("customer_id", o.CustomerID),
		zap.Int("items", len(o.Items)),
		zap.Int64("total", o.Total),
	)
	return &o, nil
}

func (r *postgresRepo) ListByCustomer(ctx context.Context, customerID string, status domain.OrderStatus) ([]domain.Order, error) {
	if _, err := uuid.Parse(customerID); err != nil {
		return []domain.Order{}, nil
	}
	q := `SELECT ` + orderColumns + ` FROM orders
WHERE customer_id = $1 AND ($2 = '' OR status = $2)
ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, customerID, string(status))
	if err != nil {
		r.logger.Error("list failed", zap.String("customer_id", customerID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	orders := []domain.Order{}
	index := map[string]int{}
	ids := []string{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		index[o.ID] = len(orders)
		ids = append(ids, o.ID)
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return orders, nil
	}

	items, err := r.loadItems(ctx, r.pool, ids)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		i := index[it.OrderID]
		orders[i].Items = append(orders[i].Items, it)
	}
	return orders, nil
}

func (r *postgresRepo) GetForCustomer(ctx context.Context, customerID, id string) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	q := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND customer_id = $2`
	o, err := scanOrder(r.pool.QueryRow(ctx, q, id, customerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	items, err := r.loadItems(ctx, r.pool, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

// Cancel moves a pending order to canceled and returns its stock.
func (r *postgresRepo) Cancel(ctx context.Context, customerID, id string) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 AND customer_id = $2 FOR UPDATE`, id, customerID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if status != string(domain.OrderPending) {
		return nil, fmt.Errorf("order %s is %s: %w", id, status, domain.ErrInvalidState)
	}

	const restore = `
UPDATE products p
SET stock = p.stock + s.qty
FROM (SELECT product_id, SUM(quantity) AS qty FROM order_items WHERE order_id = $1 GROUP BY product_id) s
WHERE p.id = s.product_id
`
	if _, err := tx.Exec(ctx, restore, id); err != nil {
		return nil, fmt.Errorf("restore stock: %w", err)
	}

	q := `UPDATE orders SET status = 'canceled', canceled_at = now() WHERE id = $1 RETURNING ` + orderColumns
	o, err := scanOrder(tx.QueryRow(ctx, q, id))
	if err != nil {
		return nil, err
	}
	items, err := r.loadItems(ctx, tx, []string{id})
	if err != nil {
		return nil, err
	}
	o.Items = items

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Info("order canceled", zap.String("order_id", id), zap.String("customer_id", customerID))
	return o, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *postgresRepo) loadItems(ctx context.Context, q querier, orderIDs []string) ([]domain.OrderItem, error) {
	rows, err := q.Query(ctx, `
SELECT id::text, order_id::text, product_id, name, quantity, price
FROM order_items
WHERE order_id = ANY($1::uuid[])
ORDER BY order_id, position
`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o           domain.Order
		status, pay string
	)
	s := &o.Shipping
	if err := row.Scan(
		&o.ID, &o.CustomerID, &status, &pay,
		&s.FullName, &s.Email, &s.Phone, &s.AddressLine, &s.Ward, &s.City, &s.Note,
		&o.Subtotal, &o.ShippingFee, &o.Total,
		&o.CreatedAt, &o.CanceledAt, &o.CompletedAt, &o.DeliveredAt,
	); err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	o.PaymentMethod = domain.PaymentMethod(pay)
	return &o, nil
}
