package recon

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidStatus status selain open/closed ditolak
var ErrInvalidStatus = errors.New("anomaly status must be 'open' or 'closed'")

// ErrRunInProgress sudah ada run berjalan untuk tanggal yang sama
var ErrRunInProgress = errors.New("reconciliation already running for this date")

// AnomalyRepository port (interface untuk persistence anomali).
// Replace harus atomik: hapus window [date, date+1d) + insert set baru
// dalam satu transaksi; gagal di tengah berarti set lama tetap utuh.
type AnomalyRepository interface {
	ClearForDate(ctx context.Context, date time.Time) error
	SaveAll(ctx context.Context, anomalies []*Anomaly) error
	Replace(ctx context.Context, date time.Time, anomalies []*Anomaly) error
	// ListForDate urut severity desc (high, med, low) lalu ts desc
	ListForDate(ctx context.Context, date time.Time) ([]*Anomaly, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	CountSince(ctx context.Context, since time.Time) (int, error)
}

// ReportStore port (interface untuk upload file laporan)
type ReportStore interface {
	SaveReport(ctx context.Context, data []byte, filename, contentType string) (string, error)
	FileURL(ref string) string
}
