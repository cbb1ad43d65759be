package mysql

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/bryanwahyu/binwatch/internal/domain/inventory"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, order_id, ship_date, sku, qty, item_ids, status`

// FindByShipDate order yang harus kapal di tanggal tsb
func (r *OrderRepository) FindByShipDate(ctx context.Context, date time.Time) ([]*domain.Order, error) {
	const q = `
SELECT ` + orderColumns + `
FROM orders
WHERE ship_date = ?
ORDER BY order_id;`
	rows, err := r.db.QueryContext(ctx, q, date.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (r *OrderRepository) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	const q = `
SELECT ` + orderColumns + `
FROM orders
WHERE order_id = ? LIMIT 1;`
	rows, err := r.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orders, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, sql.ErrNoRows
	}
	return orders[0], nil
}

func (r *OrderRepository) List(ctx context.Context, offset, limit int) ([]*domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT ` + orderColumns + `
FROM orders
ORDER BY ship_date DESC, order_id
LIMIT ? OFFSET ?;`
	rows, err := r.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

// Save insert/update by order_id
func (r *OrderRepository) Save(ctx context.Context, o *domain.Order) error {
	const q = `
INSERT INTO orders (order_id, ship_date, sku, qty, item_ids, status)
VALUES (?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 ship_date=VALUES(ship_date), sku=VALUES(sku), qty=VALUES(qty),
 item_ids=VALUES(item_ids), status=VALUES(status);`
	items, err := jsonList(o.ItemIDs)
	if err != nil {
		return err
	}
	status := o.Status
	if status == "" {
		status = domain.OrderPending
	}
	_, err = r.db.ExecContext(ctx, q,
		o.OrderID, o.ShipDate.Format("2006-01-02"), o.SKU, o.Qty, items, string(status))
	return err
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	const q = `UPDATE orders SET status = ? WHERE order_id = ?;`
	res, err := r.db.ExecContext(ctx, q, string(status), orderID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *OrderRepository) CountByShipDate(ctx context.Context, date time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM orders WHERE ship_date = ?;`
	var n int
	if err := r.db.QueryRowContext(ctx, q, date.Format("2006-01-02")).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func collectOrders(rows *sql.Rows) ([]*domain.Order, error) {
	var out []*domain.Order
	for rows.Next() {
		var o domain.Order
		var items sql.NullString
		if err := rows.Scan(&o.ID, &o.OrderID, &o.ShipDate, &o.SKU, &o.Qty, &items, &o.Status); err != nil {
			return nil, err
		}
		o.ItemIDs = parseJSONList(items)
		out = append(out, &o)
	}
	return out, rows.Err()
}
