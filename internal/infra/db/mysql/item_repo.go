package mysql

import (
	"context"
	"database/sql"

	domain "github.com/bryanwahyu/binwatch/internal/domain/inventory"
)

type ItemRepository struct {
	db *sql.DB
}

func NewItemRepository(db *sql.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) ExistsByID(ctx context.Context, itemID string) (bool, error) {
	const q = `SELECT 1 FROM items WHERE item_id = ? LIMIT 1;`
	var one int
	err := r.db.QueryRowContext(ctx, q, itemID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FindBySKU urut item_id ASC supaya pemilihan item deterministik
func (r *ItemRepository) FindBySKU(ctx context.Context, sku string, limit int) ([]*domain.Item, error) {
	if limit <= 0 {
		return nil, nil
	}
	const q = `
SELECT item_id, sku, lot, customer_id
FROM items
WHERE sku = ?
ORDER BY item_id ASC
LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, sku, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectItems(rows)
}

func (r *ItemRepository) Get(ctx context.Context, itemID string) (*domain.Item, error) {
	const q = `SELECT item_id, sku, lot, customer_id FROM items WHERE item_id = ? LIMIT 1;`
	var it domain.Item
	var lot, customer sql.NullString
	if err := r.db.QueryRowContext(ctx, q, itemID).Scan(&it.ItemID, &it.SKU, &lot, &customer); err != nil {
		return nil, err
	}
	it.Lot = fromNull(lot)
	it.CustomerID = fromNull(customer)
	return &it, nil
}

func (r *ItemRepository) List(ctx context.Context, offset, limit int) ([]*domain.Item, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT item_id, sku, lot, customer_id FROM items ORDER BY item_id LIMIT ? OFFSET ?;`
	rows, err := r.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectItems(rows)
}

func (r *ItemRepository) Save(ctx context.Context, it *domain.Item) error {
	const q = `
INSERT INTO items (item_id, sku, lot, customer_id)
VALUES (?,?,?,?)
ON DUPLICATE KEY UPDATE
 sku=VALUES(sku), lot=VALUES(lot), customer_id=VALUES(customer_id);`
	_, err := r.db.ExecContext(ctx, q, it.ItemID, it.SKU, nullable(it.Lot), nullable(it.CustomerID))
	return err
}

func (r *ItemRepository) Delete(ctx context.Context, itemID string) error {
	const q = `DELETE FROM items WHERE item_id = ?;`
	res, err := r.db.ExecContext(ctx, q, itemID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func collectItems(rows *sql.Rows) ([]*domain.Item, error) {
	var out []*domain.Item
	for rows.Next() {
		var it domain.Item
		var lot, customer sql.NullString
		if err := rows.Scan(&it.ItemID, &it.SKU, &lot, &customer); err != nil {
			return nil, err
		}
		it.Lot = fromNull(lot)
		it.CustomerID = fromNull(customer)
		out = append(out, &it)
	}
	return out, rows.Err()
}
