package recon

import (
	"fmt"
	"sort"
	"time"

	"github.com/bryanwahyu/binwatch/internal/domain/inventory"
)

// DetectorInput semua data yang dibutuhkan para detector.
// Detector tidak menyentuh storage dan tidak saling lihat output.
type DetectorInput struct {
	Now time.Time

	Orders     []*inventory.Order
	OrderItems map[string][]string // order_id -> item ids hasil resolusi

	Allocations map[string]string // item -> expected bin
	KnownItems  map[string]bool   // item ids yang terdaftar di sistem

	Idx Indices

	StagingBins      map[string]bool
	StagingThreshold time.Duration
	RecentScanWindow time.Duration
	FirstSeen        map[string]time.Time // StagingKey(bin,item) -> ts pertama terlihat
}

// StagingKey key map FirstSeen
func StagingKey(binID, itemID string) string {
	return binID + "|" + itemID
}

// Detector satu aturan pengecekan, stateless
type Detector struct {
	Name  string
	Check func(in DetectorInput) []*Anomaly
}

// Detectors urutan registrasi menentukan urutan merge hasil
func Detectors() []Detector {
	return []Detector{
		{Name: "unshipped", Check: checkUnshipped},
		{Name: "misplaced", Check: checkMisplaced},
		{Name: "orphan", Check: checkOrphans},
		{Name: "stale_staging", Check: checkStaleStaging},
		{Name: "missing", Check: checkMissing},
	}
}

// checkUnshipped order berstatus shipped tapi itemnya masih terlihat di bin
func checkUnshipped(in DetectorInput) []*Anomaly {
	var out []*Anomaly
	for _, o := range in.Orders {
		if o.Status != inventory.OrderShipped {
			continue
		}
		for _, itemID := range in.OrderItems[o.OrderID] {
			binSeen, ok := in.Idx.SeenItemToBin[itemID]
			if !ok {
				continue
			}
			out = append(out, &Anomaly{
				Type:     TypeUnshipped,
				OrderID:  o.OrderID,
				ItemID:   itemID,
				BinID:    binSeen,
				Severity: SeverityHigh,
				Detail:   fmt.Sprintf("Order %s marked shipped but item %s still seen at %s", o.OrderID, itemID, binSeen),
			})
		}
	}
	return out
}

// checkMisplaced item punya expected bin dan last-seen bin, dan keduanya beda
func checkMisplaced(in DetectorInput) []*Anomaly {
	var out []*Anomaly
	for _, itemID := range sortedKeys(in.Allocations) {
		expected := in.Allocations[itemID]
		actual, ok := in.Idx.SeenItemToBin[itemID]
		if !ok || actual == expected {
			continue
		}
		out = append(out, &Anomaly{
			Type:     TypeMisplaced,
			ItemID:   itemID,
			BinID:    actual,
			Severity: SeverityMed,
			Detail:   fmt.Sprintf("Item %s expected in %s, found in %s", itemID, expected, actual),
		})
	}
	return out
}

// checkOrphans item terlihat secara fisik tapi tidak dikenal sistem
func checkOrphans(in DetectorInput) []*Anomaly {
	var out []*Anomaly
	for _, itemID := range sortedKeys(in.Idx.SeenItemToBin) {
		if in.KnownItems[itemID] {
			continue
		}
		binID := in.Idx.SeenItemToBin[itemID]
		out = append(out, &Anomaly{
			Type:     TypeOrphan,
			ItemID:   itemID,
			BinID:    binID,
			Severity: SeverityMed,
			Detail:   fmt.Sprintf("Item %s seen in %s but not found in system", itemID, binID),
		})
	}
	return out
}

// checkStaleStaging item terlalu lama nongkrong di staging bin.
// Jam staleness dihitung dari snapshot PERTAMA yang menempatkan item
// di bin tsb, bukan yang terakhir, supaya monotonic lintas re-scan.
func checkStaleStaging(in DetectorInput) []*Anomaly {
	var out []*Anomaly
	for _, binID := range sortedKeysSlice(in.Idx.SeenBinToItems) {
		if !in.StagingBins[binID] {
			continue
		}
		for _, itemID := range in.Idx.SeenBinToItems[binID] {
			first, ok := in.FirstSeen[StagingKey(binID, itemID)]
			if !ok {
				continue
			}
			inBin := in.Now.Sub(first)
			if inBin <= in.StagingThreshold {
				continue
			}
			out = append(out, &Anomaly{
				Type:     TypeStaleStaging,
				ItemID:   itemID,
				BinID:    binID,
				Severity: SeverityHigh,
				Detail: fmt.Sprintf("Item %s in staging %s for %.1fh (>%.0fh)",
					itemID, binID, inBin.Hours(), in.StagingThreshold.Hours()),
			})
		}
	}
	return out
}

// checkMissing item punya expected bin, tidak terlihat, dan bin-nya
// memang baru di-scan. Tanpa bukti scan, absennya item bukan anomali.
func checkMissing(in DetectorInput) []*Anomaly {
	var out []*Anomaly
	for _, itemID := range sortedKeys(in.Allocations) {
		expected := in.Allocations[itemID]
		if _, seen := in.Idx.SeenItemToBin[itemID]; seen {
			continue
		}
		lastScan, scanned := in.Idx.BinLastSeen[expected]
		if !scanned || in.Now.Sub(lastScan) > in.RecentScanWindow {
			continue
		}
		out = append(out, &Anomaly{
			Type:     TypeMissing,
			ItemID:   itemID,
			BinID:    expected,
			Severity: SeverityMed,
			Detail:   fmt.Sprintf("Item %s allocated to %s but not seen in recent snapshots", itemID, expected),
		})
	}
	return out
}

// Merge gabungkan kandidat per detector: urutan registrasi dulu,
// lalu item id, lalu bin id. Hasilnya reproducible walau detector
// jalan paralel.
func Merge(results [][]*Anomaly) []*Anomaly {
	var merged []*Anomaly
	for _, candidates := range results {
		sort.SliceStable(candidates, func(i, j int) bool {
			if candidates[i].ItemID != candidates[j].ItemID {
				return candidates[i].ItemID < candidates[j].ItemID
			}
			return candidates[i].BinID < candidates[j].BinID
		})
		merged = append(merged, candidates...)
	}
	return merged
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeysSlice(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
