package inventory

import (
	"context"
	"time"
)

// Repository ports (interface untuk persistence).
// Engine hanya membaca tabel-tabel ini; ingestion yang menulis.

type OrderRepository interface {
	FindByShipDate(ctx context.Context, date time.Time) ([]*Order, error)
	Get(ctx context.Context, orderID string) (*Order, error)
	List(ctx context.Context, offset, limit int) ([]*Order, error)
	Save(ctx context.Context, o *Order) error
	UpdateStatus(ctx context.Context, orderID string, status OrderStatus) error
	CountByShipDate(ctx context.Context, date time.Time) (int, error)
}

type AllocationRepository interface {
	FindAll(ctx context.Context) ([]*Allocation, error)
	Get(ctx context.Context, itemID string) (*Allocation, error)
	FindByBin(ctx context.Context, binID string) ([]*Allocation, error)
	List(ctx context.Context, offset, limit int) ([]*Allocation, error)
	Upsert(ctx context.Context, a *Allocation) error
}

type SnapshotRepository interface {
	// FindLatestPerBinBefore balikin snapshot terakhir per bin dengan ts < cutoff
	FindLatestPerBinBefore(ctx context.Context, cutoff time.Time) ([]*Snapshot, error)
	// FirstSeenInBin ts snapshot pertama yang memuat item di bin tsb (untuk staleness clock)
	FirstSeenInBin(ctx context.Context, binID, itemID string) (time.Time, bool, error)
	Save(ctx context.Context, s *Snapshot) error
	CountSince(ctx context.Context, since time.Time) (int, error)
	CountDistinctBins(ctx context.Context) (int, error)
}

type ItemRepository interface {
	ExistsByID(ctx context.Context, itemID string) (bool, error)
	// FindBySKU urut item_id ASC supaya resolusi SKU->items deterministik
	FindBySKU(ctx context.Context, sku string, limit int) ([]*Item, error)
	Get(ctx context.Context, itemID string) (*Item, error)
	List(ctx context.Context, offset, limit int) ([]*Item, error)
	Save(ctx context.Context, it *Item) error
	Delete(ctx context.Context, itemID string) error
}

type BinRepository interface {
	Get(ctx context.Context, binID string) (*Bin, error)
	List(ctx context.Context, offset, limit int) ([]*Bin, error)
	Save(ctx context.Context, b *Bin) error
}

// PhotoStore port (interface untuk penyimpanan foto snapshot)
type PhotoStore interface {
	SavePhoto(ctx context.Context, data []byte, filename string) (string, error)
	FileURL(ref string) string
}
