package report

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/vasiliy-maslov/retail-pos/internal/order"
)

// Reader is the read side the dashboard is built from.
type Reader interface {
	PaidOrders(ctx context.Context) ([]order.Order, error)
	ProductNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
	Counts(ctx context.Context) (products int, orders int, err error)
}

type sqlReader struct {
	db *sqlx.DB
}

func NewReader(db *sqlx.DB) Reader {
	return &sqlReader{db: db}
}

func (r *sqlReader) PaidOrders(ctx context.Context) ([]order.Order, error) {
	var orders []order.Order
	err := r.db.SelectContext(ctx, &orders, `
		SELECT id, customer_name, total_amount, status, created_at, updated_at
		FROM orders
		WHERE status = $1
		ORDER BY created_at, id
	`, string(order.StatusPaid))
	if err != nil {
		return nil, fmt.Errorf("report: failed to select paid orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	var items []order.Item
	err = r.db.SelectContext(ctx, &items, `
		SELECT oi.id, oi.order_id, oi.product_id, oi.product_name, oi.price, oi.quantity, oi.created_at
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.status = $1
		ORDER BY oi.created_at, oi.id
	`, string(order.StatusPaid))
	if err != nil {
		return nil, fmt.Errorf("report: failed to select paid order items: %w", err)
	}

	index := make(map[uuid.UUID]int, len(orders))
	for i := range orders {
		index[orders[i].ID] = i
	}
	for _, it := range items {
		if i, ok := index[it.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}

	return orders, nil
}

// ProductNames resolves current names. Ids of deleted products are absent
// from the result.
func (r *sqlReader) ProductNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}

	var rows []struct {
		ID   uuid.UUID `db:"id"`
		Name string    `db:"name"`
	}
	err := r.db.SelectContext(ctx, &rows, `SELECT id, name FROM products WHERE id = ANY($1::uuid[])`, pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("report: failed to select product names: %w", err)
	}
	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}

func (r *sqlReader) Counts(ctx context.Context) (int, int, error) {
	var counts struct {
		Products int `db:"products"`
		Orders   int `db:"orders"`
	}
	err := r.db.GetContext(ctx, &counts, `
		SELECT
			(SELECT count(*) FROM products) AS products,
			(SELECT count(*) FROM orders) AS orders
	`)
	if err != nil {
		return 0, 0, fmt.Errorf("report: failed to count products and orders: %w", err)
	}
	return counts.Products, counts.Orders, nil
}
