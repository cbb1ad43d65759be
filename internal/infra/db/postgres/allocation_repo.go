package postgres

import (
    "context"
    "database/sql"

    domain "github.com/bryanwahyu/binwatch/internal/domain/inventory"
)

type AllocationRepository struct { db *sql.DB }

func NewAllocationRepository(db *sql.DB) *AllocationRepository { return &AllocationRepository{db: db} }

func (r *AllocationRepository) FindAll(ctx context.Context) ([]*domain.Allocation, error) {
    const q = `SELECT item_id, bin_id, status, updated_at FROM allocations;`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil { return nil, err }
    defer rows.Close()
    return collectAllocations(rows)
}

func (r *AllocationRepository) Get(ctx context.Context, itemID string) (*domain.Allocation, error) {
    const q = `SELECT item_id, bin_id, status, updated_at FROM allocations WHERE item_id = $1 LIMIT 1;`
    var a domain.Allocation
    if err := r.db.QueryRowContext(ctx, q, itemID).Scan(&a.ItemID, &a.BinID, &a.Status, &a.UpdatedAt); err != nil {
        return nil, err
    }
    return &a, nil
}

func (r *AllocationRepository) FindByBin(ctx context.Context, binID string) ([]*domain.Allocation, error) {
    const q = `SELECT item_id, bin_id, status, updated_at FROM allocations WHERE bin_id = $1 ORDER BY item_id;`
    rows, err := r.db.QueryContext(ctx, q, binID)
    if err != nil { return nil, err }
    defer rows.Close()
    return collectAllocations(rows)
}

func (r *AllocationRepository) List(ctx context.Context, offset, limit int) ([]*domain.Allocation, error) {
    if limit <= 0 { limit = 100 }
    const q = `SELECT item_id, bin_id, status, updated_at FROM allocations ORDER BY item_id LIMIT $1 OFFSET $2;`
    rows, err := r.db.QueryContext(ctx, q, limit, offset)
    if err != nil { return nil, err }
    defer rows.Close()
    return collectAllocations(rows)
}

func (r *AllocationRepository) Upsert(ctx context.Context, a *domain.Allocation) error {
    const q = `
INSERT INTO allocations (item_id, bin_id, status, updated_at)
VALUES ($1,$2,$3,NOW())
ON CONFLICT (item_id) DO UPDATE SET
 bin_id = EXCLUDED.bin_id,
 status = EXCLUDED.status,
 updated_at = NOW();`
    status := a.Status
    if status == "" { status = "allocated" }
    _, err := r.db.ExecContext(ctx, q, a.ItemID, a.BinID, status)
    return err
}

func collectAllocations(rows *sql.Rows) ([]*domain.Allocation, error) {
    var out []*domain.Allocation
    for rows.Next() {
        var a domain.Allocation
        if err := rows.Scan(&a.ItemID, &a.BinID, &a.Status, &a.UpdatedAt); err != nil { return nil, err }
        out = append(out, &a)
    }
    return out, rows.Err()
}
