package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/binwatch/internal/domain/inventory"
)

func TestParseOrdersCSV(t *testing.T) {
	content := `order_id,ship_date,sku,qty,item_ids,status
SO-1,2025-08-17,X,1,"[""I1""]",shipped
SO-2,2025-08-17,Y,2,,
SO-3,,Z,1,I5;I6,pending
`
	orders, errs, err := ParseOrdersCSV(content)
	require.NoError(t, err)
	assert.Empty(t, errs)
	require.Len(t, orders, 3)

	assert.Equal(t, "SO-1", orders[0].OrderID)
	assert.Equal(t, time.Date(2025, 8, 17, 0, 0, 0, 0, time.UTC), orders[0].ShipDate)
	assert.Equal(t, []string{"I1"}, orders[0].ItemIDs)
	assert.Equal(t, inventory.OrderShipped, orders[0].Status)

	// status kosong default pending, item_ids kosong berarti resolusi by SKU
	assert.Empty(t, orders[1].ItemIDs)
	assert.Equal(t, inventory.OrderPending, orders[1].Status)

	// daftar item pakai titik koma juga diterima
	assert.Equal(t, []string{"I5", "I6"}, orders[2].ItemIDs)
}

func TestParseOrdersCSVSkipsBadRows(t *testing.T) {
	content := `order_id,ship_date,sku,qty
SO-1,2025-08-17,X,1
,2025-08-17,X,1
SO-3,17/08/2025,X,1
SO-4,2025-08-17,X,abc
`
	orders, errs, err := ParseOrdersCSV(content)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "SO-1", orders[0].OrderID)

	// baris rusak dicatat dengan nomor barisnya, bukan menggagalkan import
	require.Len(t, errs, 3)
	assert.Contains(t, errs[0].Error(), "line 3")
	assert.Contains(t, errs[1].Error(), "line 4")
	assert.Contains(t, errs[2].Error(), "line 5")
}

func TestParseAllocationsCSV(t *testing.T) {
	content := `item_id,bin_id,status
I1,A1,allocated
I2,B2,
,C3,allocated
`
	allocations, errs, err := ParseAllocationsCSV(content)
	require.NoError(t, err)
	require.Len(t, allocations, 2)
	assert.Equal(t, "A1", allocations[0].BinID)
	assert.Equal(t, "allocated", allocations[1].Status)
	require.Len(t, errs, 1)
}

func TestParseBinsCSV(t *testing.T) {
	content := `bin_id,zone,coords
A1,north,"3,4"
S-01,staging,
`
	bins, errs, err := ParseBinsCSV(content)
	require.NoError(t, err)
	assert.Empty(t, errs)
	require.Len(t, bins, 2)
	assert.Equal(t, "north", bins[0].Zone)
	assert.Equal(t, "3,4", bins[0].Coords)
	assert.Equal(t, "S-01", bins[1].BinID)
}

func TestParseCSVInvalidFormat(t *testing.T) {
	_, _, err := ParseOrdersCSV("order_id,sku\n\"unterminated")
	assert.Error(t, err)
}
