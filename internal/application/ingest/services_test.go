package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/binwatch/internal/domain/inventory"
)

type memOrderRepo struct {
	saved  map[string]*inventory.Order
	failOn string
}

func (r *memOrderRepo) FindByShipDate(ctx context.Context, date time.Time) ([]*inventory.Order, error) {
	return nil, nil
}
func (r *memOrderRepo) Get(ctx context.Context, orderID string) (*inventory.Order, error) {
	o, ok := r.saved[orderID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return o, nil
}
func (r *memOrderRepo) List(ctx context.Context, offset, limit int) ([]*inventory.Order, error) {
	return nil, nil
}
func (r *memOrderRepo) Save(ctx context.Context, o *inventory.Order) error {
	if o.OrderID == r.failOn {
		return fmt.Errorf("db unavailable")
	}
	r.saved[o.OrderID] = o
	return nil
}
func (r *memOrderRepo) UpdateStatus(ctx context.Context, orderID string, status inventory.OrderStatus) error {
	return nil
}
func (r *memOrderRepo) CountByShipDate(ctx context.Context, date time.Time) (int, error) {
	return 0, nil
}

type memAllocationRepo struct{ saved map[string]*inventory.Allocation }

func (r *memAllocationRepo) FindAll(ctx context.Context) ([]*inventory.Allocation, error) {
	return nil, nil
}
func (r *memAllocationRepo) Get(ctx context.Context, itemID string) (*inventory.Allocation, error) {
	return nil, sql.ErrNoRows
}
func (r *memAllocationRepo) FindByBin(ctx context.Context, binID string) ([]*inventory.Allocation, error) {
	return nil, nil
}
func (r *memAllocationRepo) List(ctx context.Context, offset, limit int) ([]*inventory.Allocation, error) {
	return nil, nil
}
func (r *memAllocationRepo) Upsert(ctx context.Context, a *inventory.Allocation) error {
	r.saved[a.ItemID] = a
	return nil
}

type memItemRepo struct{ saved map[string]*inventory.Item }

func (r *memItemRepo) ExistsByID(ctx context.Context, itemID string) (bool, error) {
	_, ok := r.saved[itemID]
	return ok, nil
}
func (r *memItemRepo) FindBySKU(ctx context.Context, sku string, limit int) ([]*inventory.Item, error) {
	return nil, nil
}
func (r *memItemRepo) Get(ctx context.Context, itemID string) (*inventory.Item, error) {
	return nil, sql.ErrNoRows
}
func (r *memItemRepo) List(ctx context.Context, offset, limit int) ([]*inventory.Item, error) {
	return nil, nil
}
func (r *memItemRepo) Save(ctx context.Context, it *inventory.Item) error {
	r.saved[it.ItemID] = it
	return nil
}
func (r *memItemRepo) Delete(ctx context.Context, itemID string) error { return nil }

type memBinRepo struct{ saved map[string]*inventory.Bin }

func (r *memBinRepo) Get(ctx context.Context, binID string) (*inventory.Bin, error) {
	return nil, sql.ErrNoRows
}
func (r *memBinRepo) List(ctx context.Context, offset, limit int) ([]*inventory.Bin, error) {
	return nil, nil
}
func (r *memBinRepo) Save(ctx context.Context, b *inventory.Bin) error {
	r.saved[b.BinID] = b
	return nil
}

func newIngestService() (*Service, *memOrderRepo, *memAllocationRepo, *memItemRepo, *memBinRepo) {
	orders := &memOrderRepo{saved: map[string]*inventory.Order{}}
	allocations := &memAllocationRepo{saved: map[string]*inventory.Allocation{}}
	items := &memItemRepo{saved: map[string]*inventory.Item{}}
	bins := &memBinRepo{saved: map[string]*inventory.Bin{}}
	return &Service{Orders: orders, Allocations: allocations, Items: items, Bins: bins},
		orders, allocations, items, bins
}

func TestImportOrdersCreatesMissingItems(t *testing.T) {
	svc, orders, _, items, _ := newIngestService()
	items.saved["I1"] = &inventory.Item{ItemID: "I1", SKU: "X"}

	content := `order_id,ship_date,sku,qty,item_ids,status
SO-1,2025-08-17,X,2,I1;I2,shipped
`
	res, err := svc.ImportOrders(context.Background(), content)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Imported)
	assert.Empty(t, res.Errors)
	assert.Contains(t, orders.saved, "SO-1")
	// I2 belum terdaftar, dibuat otomatis dengan SKU ordernya
	require.Contains(t, items.saved, "I2")
	assert.Equal(t, "X", items.saved["I2"].SKU)
}

func TestImportOrdersRecordsRowAndSaveErrors(t *testing.T) {
	svc, orders, _, _, _ := newIngestService()
	orders.failOn = "SO-2"

	content := `order_id,ship_date,sku,qty
SO-1,2025-08-17,X,1
,2025-08-17,X,1
SO-2,2025-08-17,Y,1
`
	res, err := svc.ImportOrders(context.Background(), content)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 3, res.TotalProcessed)
	require.Len(t, res.Errors, 2)
	assert.Contains(t, res.Errors[1], "SO-2")
}

func TestImportAllocations(t *testing.T) {
	svc, _, allocations, _, _ := newIngestService()

	content := `item_id,bin_id,status
I1,A1,allocated
I2,B2,picked
`
	res, err := svc.ImportAllocations(context.Background(), content)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, "A1", allocations.saved["I1"].BinID)
	assert.Equal(t, "picked", allocations.saved["I2"].Status)
}

func TestImportBins(t *testing.T) {
	svc, _, _, _, bins := newIngestService()

	content := `bin_id,zone,coords
A1,north,
S-01,staging,
`
	res, err := svc.ImportBins(context.Background(), content)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Imported)
	assert.Contains(t, bins.saved, "S-01")
}
