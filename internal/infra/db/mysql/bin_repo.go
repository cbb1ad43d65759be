package mysql

import (
	"context"
	"database/sql"

	domain "github.com/bryanwahyu/binwatch/internal/domain/inventory"
)

type BinRepository struct {
	db *sql.DB
}

func NewBinRepository(db *sql.DB) *BinRepository {
	return &BinRepository{db: db}
}

func (r *BinRepository) Get(ctx context.Context, binID string) (*domain.Bin, error) {
	const q = `SELECT bin_id, zone, coords FROM bins WHERE bin_id = ? LIMIT 1;`
	var b domain.Bin
	var zone, coords sql.NullString
	if err := r.db.QueryRowContext(ctx, q, binID).Scan(&b.BinID, &zone, &coords); err != nil {
		return nil, err
	}
	b.Zone = fromNull(zone)
	b.Coords = fromNull(coords)
	return &b, nil
}

func (r *BinRepository) List(ctx context.Context, offset, limit int) ([]*domain.Bin, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT bin_id, zone, coords FROM bins ORDER BY bin_id LIMIT ? OFFSET ?;`
	rows, err := r.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Bin
	for rows.Next() {
		var b domain.Bin
		var zone, coords sql.NullString
		if err := rows.Scan(&b.BinID, &zone, &coords); err != nil {
			return nil, err
		}
		b.Zone = fromNull(zone)
		b.Coords = fromNull(coords)
		out = append(out, &b)
	}
	return out, rows.Err()
}

func (r *BinRepository) Save(ctx context.Context, b *domain.Bin) error {
	const q = `
INSERT INTO bins (bin_id, zone, coords)
VALUES (?,?,?)
ON DUPLICATE KEY UPDATE zone=VALUES(zone), coords=VALUES(coords);`
	_, err := r.db.ExecContext(ctx, q, b.BinID, nullable(b.Zone), nullable(b.Coords))
	return err
}
