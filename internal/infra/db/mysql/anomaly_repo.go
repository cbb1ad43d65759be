package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	domain "github.com/bryanwahyu/binwatch/internal/domain/recon"
)

type AnomalyRepository struct {
	db *sql.DB
}

func NewAnomalyRepository(db *sql.DB) *AnomalyRepository {
	return &AnomalyRepository{db: db}
}

const anomalyInsert = `
INSERT INTO anomalies (ts, type, bin_id, item_id, order_id, severity, detail, status)
VALUES `

// ClearForDate hapus anomali dalam window [date, date+1d)
func (r *AnomalyRepository) ClearForDate(ctx context.Context, date time.Time) error {
	const q = `DELETE FROM anomalies WHERE ts >= ? AND ts < ?;`
	_, err := r.db.ExecContext(ctx, q, date, date.AddDate(0, 0, 1))
	return err
}

// SaveAll insert batch anomali baru
func (r *AnomalyRepository) SaveAll(ctx context.Context, anomalies []*domain.Anomaly) error {
	if len(anomalies) == 0 {
		return nil
	}
	q, args := buildAnomalyInsert(anomalies)
	_, err := r.db.ExecContext(ctx, q, args...)
	return err
}

// Replace delete window + insert set baru dalam SATU transaksi.
// Gagal di mana pun sebelum commit berarti set lama tetap utuh.
func (r *AnomalyRepository) Replace(ctx context.Context, date time.Time, anomalies []*domain.Anomaly) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const del = `DELETE FROM anomalies WHERE ts >= ? AND ts < ?;`
	if _, err := tx.ExecContext(ctx, del, date, date.AddDate(0, 0, 1)); err != nil {
		return fmt.Errorf("clearing anomalies: %w", err)
	}
	if len(anomalies) > 0 {
		q, args := buildAnomalyInsert(anomalies)
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("inserting anomalies: %w", err)
		}
	}
	return tx.Commit()
}

func buildAnomalyInsert(anomalies []*domain.Anomaly) (string, []any) {
	placeholders := make([]string, 0, len(anomalies))
	args := make([]any, 0, len(anomalies)*8)
	for _, a := range anomalies {
		placeholders = append(placeholders, "(?,?,?,?,?,?,?,?)")
		status := a.Status
		if status == "" {
			status = domain.StatusOpen
		}
		args = append(args,
			a.TS, string(a.Type),
			nullable(a.BinID), nullable(a.ItemID), nullable(a.OrderID),
			string(a.Severity), a.Detail, string(status),
		)
	}
	return anomalyInsert + strings.Join(placeholders, ",") + ";", args
}

// ListForDate urut severity desc lalu ts desc
func (r *AnomalyRepository) ListForDate(ctx context.Context, date time.Time) ([]*domain.Anomaly, error) {
	const q = `
SELECT id, ts, type, bin_id, item_id, order_id, severity, detail, status
FROM anomalies
WHERE ts >= ? AND ts < ?
ORDER BY FIELD(severity, 'high', 'med', 'low'), ts DESC;`
	rows, err := r.db.QueryContext(ctx, q, date, date.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Anomaly
	for rows.Next() {
		a, err := scanAnomaly(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateStatus hanya open/closed; nilai lain ditolak
func (r *AnomalyRepository) UpdateStatus(ctx context.Context, id int64, status domain.Status) error {
	if status != domain.StatusOpen && status != domain.StatusClosed {
		return domain.ErrInvalidStatus
	}
	const q = `UPDATE anomalies SET status = ? WHERE id = ?;`
	res, err := r.db.ExecContext(ctx, q, string(status), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *AnomalyRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM anomalies WHERE ts >= ?;`
	var n int
	if err := r.db.QueryRowContext(ctx, q, since).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func scanAnomaly(rows *sql.Rows) (*domain.Anomaly, error) {
	var a domain.Anomaly
	var binID, itemID, orderID sql.NullString
	if err := rows.Scan(&a.ID, &a.TS, &a.Type, &binID, &itemID, &orderID, &a.Severity, &a.Detail, &a.Status); err != nil {
		return nil, err
	}
	a.BinID = fromNull(binID)
	a.ItemID = fromNull(itemID)
	a.OrderID = fromNull(orderID)
	return &a, nil
}
