package recon

import (
	"sort"
	"time"

	"github.com/bryanwahyu/binwatch/internal/domain/inventory"
)

// Indices hasil turunan dari snapshot terakhir per bin sebelum cutoff.
// Pure read, tidak ada side effect.
type Indices struct {
	// SeenItemToBin item -> bin tempat item terakhir terlihat
	SeenItemToBin map[string]string
	// SeenBinToItems bin -> daftar item dari snapshot terpilihnya
	SeenBinToItems map[string][]string
	// BinLastSeen bin -> ts snapshot terpilih (dipakai cek proof-of-scan)
	BinLastSeen map[string]time.Time
	// Snapshots jumlah snapshot yang lolos seleksi
	Snapshots int
}

// BuildIndices seleksi snapshot terakhir per bin dengan ts < cutoff,
// buang bin tanpa snapshot yang lolos, lalu bangun indeksnya.
// Bin diproses urut bin_id supaya "last writer wins" deterministik
// saat satu item muncul di snapshot dua bin berbeda.
func BuildIndices(snapshots []*inventory.Snapshot, cutoff time.Time) Indices {
	latest := make(map[string]*inventory.Snapshot)
	for _, s := range snapshots {
		if s == nil || s.BinID == "" || !s.TS.Before(cutoff) {
			continue
		}
		if cur, ok := latest[s.BinID]; !ok || s.TS.After(cur.TS) {
			latest[s.BinID] = s
		}
	}

	bins := make([]string, 0, len(latest))
	for b := range latest {
		bins = append(bins, b)
	}
	sort.Strings(bins)

	idx := Indices{
		SeenItemToBin:  make(map[string]string),
		SeenBinToItems: make(map[string][]string),
		BinLastSeen:    make(map[string]time.Time),
		Snapshots:      len(latest),
	}
	for _, bin := range bins {
		s := latest[bin]
		idx.BinLastSeen[bin] = s.TS
		if len(s.ItemIDs) == 0 {
			idx.SeenBinToItems[bin] = nil
			continue
		}
		items := make([]string, len(s.ItemIDs))
		copy(items, s.ItemIDs)
		idx.SeenBinToItems[bin] = items
		for _, itemID := range items {
			idx.SeenItemToBin[itemID] = bin
		}
	}
	return idx
}
