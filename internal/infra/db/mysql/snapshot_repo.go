package mysql

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/bryanwahyu/binwatch/internal/domain/inventory"
)

type SnapshotRepository struct {
	db *sql.DB
}

func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// FindLatestPerBinBefore snapshot terakhir per bin dengan ts < cutoff
// (join ke subquery group-by max(ts))
func (r *SnapshotRepository) FindLatestPerBinBefore(ctx context.Context, cutoff time.Time) ([]*domain.Snapshot, error) {
	const q = `
SELECT s.id, s.ts, s.bin_id, s.item_ids, s.photo_ref, s.ocr_text, s.conf
FROM snapshots s
JOIN (
    SELECT bin_id, MAX(ts) AS max_ts
    FROM snapshots
    WHERE bin_id IS NOT NULL AND bin_id <> '' AND ts < ?
    GROUP BY bin_id
) latest ON s.bin_id = latest.bin_id AND s.ts = latest.max_ts;`
	rows, err := r.db.QueryContext(ctx, q, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSnapshots(rows)
}

// FirstSeenInBin snapshot paling awal yang memuat item di bin tsb
func (r *SnapshotRepository) FirstSeenInBin(ctx context.Context, binID, itemID string) (time.Time, bool, error) {
	const q = `
SELECT ts FROM snapshots
WHERE bin_id = ? AND JSON_CONTAINS(item_ids, JSON_QUOTE(?))
ORDER BY ts ASC
LIMIT 1;`
	var ts time.Time
	err := r.db.QueryRowContext(ctx, q, binID, itemID).Scan(&ts)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return ts, true, nil
}

func (r *SnapshotRepository) Save(ctx context.Context, s *domain.Snapshot) error {
	const q = `
INSERT INTO snapshots (ts, bin_id, item_ids, photo_ref, ocr_text, conf)
VALUES (?,?,?,?,?,?);`
	items, err := jsonList(s.ItemIDs)
	if err != nil {
		return err
	}
	ts := s.TS
	if ts.IsZero() {
		ts = time.Now()
	}
	res, err := r.db.ExecContext(ctx, q, ts, s.BinID, items, nullable(s.PhotoRef), nullable(s.OCRText), s.Conf)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		s.ID = id
	}
	return nil
}

func (r *SnapshotRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM snapshots WHERE ts >= ?;`
	var n int
	if err := r.db.QueryRowContext(ctx, q, since).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *SnapshotRepository) CountDistinctBins(ctx context.Context) (int, error) {
	const q = `SELECT COUNT(DISTINCT bin_id) FROM snapshots WHERE bin_id IS NOT NULL AND bin_id <> '';`
	var n int
	if err := r.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func collectSnapshots(rows *sql.Rows) ([]*domain.Snapshot, error) {
	var out []*domain.Snapshot
	for rows.Next() {
		var s domain.Snapshot
		var items, photoRef, ocrText sql.NullString
		var conf sql.NullFloat64
		if err := rows.Scan(&s.ID, &s.TS, &s.BinID, &items, &photoRef, &ocrText, &conf); err != nil {
			return nil, err
		}
		s.ItemIDs = parseJSONList(items)
		s.PhotoRef = fromNull(photoRef)
		s.OCRText = fromNull(ocrText)
		s.Conf = conf.Float64
		out = append(out, &s)
	}
	return out, rows.Err()
}
