package recon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/binwatch/internal/domain/inventory"
)

func baseInput() DetectorInput {
	return DetectorInput{
		Now:         ts("2025-08-17T20:00:00Z"),
		OrderItems:  map[string][]string{},
		Allocations: map[string]string{},
		KnownItems:  map[string]bool{},
		Idx: Indices{
			SeenItemToBin:  map[string]string{},
			SeenBinToItems: map[string][]string{},
			BinLastSeen:    map[string]time.Time{},
		},
		StagingBins:      map[string]bool{"S-01": true},
		StagingThreshold: 12 * time.Hour,
		RecentScanWindow: 24 * time.Hour,
		FirstSeen:        map[string]time.Time{},
	}
}

func TestCheckUnshipped(t *testing.T) {
	in := baseInput()
	in.Orders = []*inventory.Order{
		{OrderID: "SO-1", Status: inventory.OrderShipped},
		{OrderID: "SO-2", Status: inventory.OrderPending},
	}
	in.OrderItems = map[string][]string{
		"SO-1": {"I1", "I9"},
		"SO-2": {"I2"},
	}
	in.Idx.SeenItemToBin = map[string]string{"I1": "A1", "I2": "B2"}

	out := checkUnshipped(in)

	require.Len(t, out, 1)
	a := out[0]
	assert.Equal(t, TypeUnshipped, a.Type)
	assert.Equal(t, "SO-1", a.OrderID)
	assert.Equal(t, "I1", a.ItemID)
	assert.Equal(t, "A1", a.BinID)
	assert.Equal(t, SeverityHigh, a.Severity)
	assert.Equal(t, "Order SO-1 marked shipped but item I1 still seen at A1", a.Detail)
}

func TestCheckMisplaced(t *testing.T) {
	in := baseInput()
	in.Allocations = map[string]string{
		"I1": "A1", // terlihat di bin lain
		"I2": "B2", // terlihat di bin yang benar
		"I3": "C3", // tidak terlihat sama sekali
	}
	in.Idx.SeenItemToBin = map[string]string{"I1": "B2", "I2": "B2"}

	out := checkMisplaced(in)

	require.Len(t, out, 1)
	a := out[0]
	assert.Equal(t, TypeMisplaced, a.Type)
	assert.Equal(t, "I1", a.ItemID)
	assert.Equal(t, "B2", a.BinID)
	assert.Equal(t, SeverityMed, a.Severity)
	assert.Equal(t, "Item I1 expected in A1, found in B2", a.Detail)
}

func TestCheckOrphans(t *testing.T) {
	in := baseInput()
	in.Idx.SeenItemToBin = map[string]string{"I1": "A1", "GHOST": "B2"}
	in.KnownItems = map[string]bool{"I1": true}

	out := checkOrphans(in)

	require.Len(t, out, 1)
	assert.Equal(t, TypeOrphan, out[0].Type)
	assert.Equal(t, "GHOST", out[0].ItemID)
	assert.Equal(t, "Item GHOST seen in B2 but not found in system", out[0].Detail)

	// item yang didaftarkan tidak lagi orphan
	in.KnownItems["GHOST"] = true
	assert.Empty(t, checkOrphans(in))
}

func TestCheckStaleStagingThresholdStrict(t *testing.T) {
	in := baseInput()
	in.Idx.SeenBinToItems = map[string][]string{"S-01": {"I1"}}

	// tepat di threshold: belum stale
	in.FirstSeen[StagingKey("S-01", "I1")] = in.Now.Add(-12 * time.Hour)
	assert.Empty(t, checkStaleStaging(in))

	// lewat dikit: stale
	in.FirstSeen[StagingKey("S-01", "I1")] = in.Now.Add(-12*time.Hour - time.Minute)
	out := checkStaleStaging(in)
	require.Len(t, out, 1)
	assert.Equal(t, TypeStaleStaging, out[0].Type)
	assert.Equal(t, SeverityHigh, out[0].Severity)
	assert.Equal(t, "S-01", out[0].BinID)
}

func TestCheckStaleStagingIgnoresRegularBins(t *testing.T) {
	in := baseInput()
	in.Idx.SeenBinToItems = map[string][]string{"A1": {"I1"}}
	in.FirstSeen[StagingKey("A1", "I1")] = in.Now.Add(-48 * time.Hour)

	assert.Empty(t, checkStaleStaging(in))
}

func TestCheckMissingRequiresRecentScan(t *testing.T) {
	in := baseInput()
	in.Allocations = map[string]string{"I1": "A1"}

	// bin belum pernah discan: absennya item bukan anomali
	assert.Empty(t, checkMissing(in))

	// scan terlalu lama
	in.Idx.BinLastSeen["A1"] = in.Now.Add(-30 * time.Hour)
	assert.Empty(t, checkMissing(in))

	// scan baru, item tetap tidak kelihatan
	in.Idx.BinLastSeen["A1"] = in.Now.Add(-2 * time.Hour)
	out := checkMissing(in)
	require.Len(t, out, 1)
	assert.Equal(t, TypeMissing, out[0].Type)
	assert.Equal(t, "I1", out[0].ItemID)
	assert.Equal(t, "A1", out[0].BinID)
	assert.Equal(t, "Item I1 allocated to A1 but not seen in recent snapshots", out[0].Detail)
}

func TestCheckMissingSkipsSeenItems(t *testing.T) {
	in := baseInput()
	in.Allocations = map[string]string{"I1": "A1"}
	in.Idx.BinLastSeen["A1"] = in.Now.Add(-time.Hour)
	in.Idx.SeenItemToBin["I1"] = "B2"

	assert.Empty(t, checkMissing(in))
}

func TestMergeDeterministic(t *testing.T) {
	unshipped := []*Anomaly{
		{Type: TypeUnshipped, ItemID: "I2", BinID: "A1"},
		{Type: TypeUnshipped, ItemID: "I1", BinID: "B2"},
		{Type: TypeUnshipped, ItemID: "I1", BinID: "A1"},
	}
	misplaced := []*Anomaly{
		{Type: TypeMisplaced, ItemID: "I0", BinID: "C3"},
	}

	merged := Merge([][]*Anomaly{unshipped, misplaced})

	require.Len(t, merged, 4)
	// dalam satu detector urut item lalu bin, antar detector urut registrasi
	assert.Equal(t, "I1", merged[0].ItemID)
	assert.Equal(t, "A1", merged[0].BinID)
	assert.Equal(t, "I1", merged[1].ItemID)
	assert.Equal(t, "B2", merged[1].BinID)
	assert.Equal(t, "I2", merged[2].ItemID)
	assert.Equal(t, TypeMisplaced, merged[3].Type)
}

func TestDetectorRegistrationOrder(t *testing.T) {
	names := []string{}
	for _, d := range Detectors() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"unshipped", "misplaced", "orphan", "stale_staging", "missing"}, names)
}
