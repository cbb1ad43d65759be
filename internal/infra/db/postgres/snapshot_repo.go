package postgres

import (
    "context"
    "database/sql"
    "encoding/json"
    "time"

    domain "github.com/bryanwahyu/binwatch/internal/domain/inventory"
)

type SnapshotRepository struct { db *sql.DB }

func NewSnapshotRepository(db *sql.DB) *SnapshotRepository { return &SnapshotRepository{db: db} }

// FindLatestPerBinBefore pakai DISTINCT ON, idiom postgres untuk latest-per-group
func (r *SnapshotRepository) FindLatestPerBinBefore(ctx context.Context, cutoff time.Time) ([]*domain.Snapshot, error) {
    const q = `
SELECT DISTINCT ON (bin_id) id, ts, bin_id, item_ids, photo_ref, ocr_text, conf
FROM snapshots
WHERE bin_id IS NOT NULL AND bin_id <> '' AND ts < $1
ORDER BY bin_id, ts DESC;`
    rows, err := r.db.QueryContext(ctx, q, cutoff)
    if err != nil { return nil, err }
    defer rows.Close()

    var out []*domain.Snapshot
    for rows.Next() {
        var s domain.Snapshot
        var items, photoRef, ocrText sql.NullString
        var conf sql.NullFloat64
        if err := rows.Scan(&s.ID, &s.TS, &s.BinID, &items, &photoRef, &ocrText, &conf); err != nil { return nil, err }
        s.ItemIDs = parseJSONList(items)
        s.PhotoRef = fromNull(photoRef)
        s.OCRText = fromNull(ocrText)
        s.Conf = conf.Float64
        out = append(out, &s)
    }
    return out, rows.Err()
}

func (r *SnapshotRepository) FirstSeenInBin(ctx context.Context, binID, itemID string) (time.Time, bool, error) {
    const q = `
SELECT ts FROM snapshots
WHERE bin_id = $1 AND item_ids @> $2::jsonb
ORDER BY ts ASC
LIMIT 1;`
    needle, err := json.Marshal([]string{itemID})
    if err != nil { return time.Time{}, false, err }
    var ts time.Time
    err = r.db.QueryRowContext(ctx, q, binID, string(needle)).Scan(&ts)
    if err == sql.ErrNoRows { return time.Time{}, false, nil }
    if err != nil { return time.Time{}, false, err }
    return ts, true, nil
}

func (r *SnapshotRepository) Save(ctx context.Context, s *domain.Snapshot) error {
    const q = `
INSERT INTO snapshots (ts, bin_id, item_ids, photo_ref, ocr_text, conf)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING id;`
    items, err := jsonList(s.ItemIDs)
    if err != nil { return err }
    ts := s.TS
    if ts.IsZero() { ts = time.Now() }
    return r.db.QueryRowContext(ctx, q, ts, s.BinID, items, nullable(s.PhotoRef), nullable(s.OCRText), s.Conf).Scan(&s.ID)
}

func (r *SnapshotRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
    const q = `SELECT COUNT(*) FROM snapshots WHERE ts >= $1;`
    var n int
    if err := r.db.QueryRowContext(ctx, q, since).Scan(&n); err != nil { return 0, err }
    return n, nil
}

func (r *SnapshotRepository) CountDistinctBins(ctx context.Context) (int, error) {
    const q = `SELECT COUNT(DISTINCT bin_id) FROM snapshots WHERE bin_id IS NOT NULL AND bin_id <> '';`
    var n int
    if err := r.db.QueryRowContext(ctx, q).Scan(&n); err != nil { return 0, err }
    return n, nil
}
