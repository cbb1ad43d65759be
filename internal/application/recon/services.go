package recon

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	app "github.com/bryanwahyu/binwatch/internal/application"
	"github.com/bryanwahyu/binwatch/internal/domain/inventory"
	domain "github.com/bryanwahyu/binwatch/internal/domain/recon"
)

// Config parameter reconciliation, diinject per service (bukan global)
// supaya bisa dioverride per run dan tes bisa paralel.
type Config struct {
	StagingBins      []string
	StagingThreshold time.Duration
	RecentScanWindow time.Duration
	RunTimeout       time.Duration
}

// Service implements use-cases reconciliation.
// Satu run per tanggal pada satu waktu; run untuk tanggal berbeda
// boleh jalan bareng.
type Service struct {
	Anomalies   domain.AnomalyRepository
	Orders      inventory.OrderRepository
	Allocations inventory.AllocationRepository
	Snapshots   inventory.SnapshotRepository
	Items       inventory.ItemRepository
	Clock       app.Clock
	Cfg         Config

	mu      sync.Mutex
	running map[string]bool
}

// DateOnly potong ke tengah malam UTC
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *Service) acquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running == nil {
		s.running = make(map[string]bool)
	}
	if s.running[key] {
		return false
	}
	s.running[key] = true
	return true
}

func (s *Service) release(key string) {
	s.mu.Lock()
	delete(s.running, key)
	s.mu.Unlock()
}

// Run jalankan reconciliation penuh untuk targetDate.
// Urutan: hapus anomali lama di window tanggal -> resolve orders/
// allocations/indices -> jalankan 5 detector paralel -> merge
// deterministik -> persist atomik -> summary.
func (s *Service) Run(ctx context.Context, targetDate time.Time) (*domain.Summary, error) {
	start := s.Clock.Now()
	if targetDate.IsZero() {
		targetDate = start
	}
	date := DateOnly(targetDate)
	cutoff := date.AddDate(0, 0, 1)
	key := date.Format("2006-01-02")

	if !s.acquire(key) {
		return nil, domain.ErrRunInProgress
	}
	defer s.release(key)

	if s.Cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Cfg.RunTimeout)
		defer cancel()
	}

	runID := uuid.New().String()
	log.Printf("reconcile start: run=%s date=%s", runID, key)

	summary := &domain.Summary{
		RunID:        runID,
		Date:         key,
		AnomalyTypes: make(map[string]int),
	}

	// resolusi input; error storage di tahap ini fatal untuk run
	orders, err := s.Orders.FindByShipDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("loading orders: %w", err)
	}
	allocRows, err := s.Allocations.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading allocations: %w", err)
	}
	snaps, err := s.Snapshots.FindLatestPerBinBefore(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("loading snapshots: %w", err)
	}

	allocations := make(map[string]string, len(allocRows))
	for _, a := range allocRows {
		if a.ItemID == "" || a.BinID == "" {
			summary.Errors = append(summary.Errors, fmt.Sprintf("allocation skipped: item=%q bin=%q", a.ItemID, a.BinID))
			continue
		}
		allocations[a.ItemID] = a.BinID
	}

	idx := domain.BuildIndices(snaps, cutoff)

	orderItems := s.resolveOrderItems(ctx, orders, summary)
	known := s.resolveKnownItems(ctx, idx, summary)

	staging := make(map[string]bool, len(s.Cfg.StagingBins))
	for _, b := range s.Cfg.StagingBins {
		staging[b] = true
	}
	firstSeen := s.resolveFirstSeen(ctx, idx, staging, summary)

	in := domain.DetectorInput{
		Now:              start,
		Orders:           orders,
		OrderItems:       orderItems,
		Allocations:      allocations,
		KnownItems:       known,
		Idx:              idx,
		StagingBins:      staging,
		StagingThreshold: s.Cfg.StagingThreshold,
		RecentScanWindow: s.Cfg.RecentScanWindow,
		FirstSeen:        firstSeen,
	}

	// detector saling independen, jalan paralel, hasil per slot
	detectors := domain.Detectors()
	results := make([][]*domain.Anomaly, len(detectors))
	var wg sync.WaitGroup
	for i, d := range detectors {
		wg.Add(1)
		go func(i int, d domain.Detector) {
			defer wg.Done()
			results[i] = d.Check(in)
		}(i, d)
	}
	wg.Wait()

	merged := domain.Merge(results)
	ts := anomalyTimestamp(start, date, cutoff)
	valid := merged[:0]
	for _, a := range merged {
		a.TS = ts
		a.Status = domain.StatusOpen
		if err := a.Validate(); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("anomaly dropped: %v", err))
			continue
		}
		valid = append(valid, a)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("reconciliation run aborted: %w", err)
	}

	// delete+insert satu transaksi: gagal berarti set lama tetap utuh
	if err := s.Anomalies.Replace(ctx, date, valid); err != nil {
		log.Printf("reconcile failed: run=%s date=%s err=%v", runID, key, err)
		return nil, fmt.Errorf("persisting anomalies: %w", err)
	}

	summary.TotalAnomalies = len(valid)
	for _, a := range valid {
		summary.AnomalyTypes[string(a.Type)]++
	}
	summary.OrdersChecked = len(orders)
	summary.SnapshotsProcessed = idx.Snapshots
	summary.BinsScanned = len(idx.SeenBinToItems)
	summary.DurationMS = s.Clock.Now().Sub(start).Milliseconds()

	log.Printf("reconcile done: run=%s date=%s anomalies=%d orders=%d bins=%d errors=%d",
		runID, key, summary.TotalAnomalies, summary.OrdersChecked, summary.BinsScanned, len(summary.Errors))
	return summary, nil
}

// resolveOrderItems pakai daftar eksplisit kalau ada, selain itu ambil
// maksimal qty item dengan SKU yang sama (urut item_id). Lebih sedikit
// dari qty bukan error.
func (s *Service) resolveOrderItems(ctx context.Context, orders []*inventory.Order, summary *domain.Summary) map[string][]string {
	out := make(map[string][]string, len(orders))
	for _, o := range orders {
		if o.OrderID == "" {
			summary.Errors = append(summary.Errors, "order skipped: empty order_id")
			continue
		}
		if len(o.ItemIDs) > 0 {
			ids := make([]string, len(o.ItemIDs))
			copy(ids, o.ItemIDs)
			out[o.OrderID] = ids
			continue
		}
		items, err := s.Items.FindBySKU(ctx, o.SKU, o.Qty)
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("order %s: resolving sku %s: %v", o.OrderID, o.SKU, err))
			continue
		}
		ids := make([]string, 0, len(items))
		for _, it := range items {
			ids = append(ids, it.ItemID)
		}
		out[o.OrderID] = ids
	}
	return out
}

func (s *Service) resolveKnownItems(ctx context.Context, idx domain.Indices, summary *domain.Summary) map[string]bool {
	known := make(map[string]bool, len(idx.SeenItemToBin))
	for itemID := range idx.SeenItemToBin {
		ok, err := s.Items.ExistsByID(ctx, itemID)
		if err != nil {
			// jangan bikin false positive orphan gara-gara lookup gagal
			summary.Errors = append(summary.Errors, fmt.Sprintf("item lookup %s: %v", itemID, err))
			known[itemID] = true
			continue
		}
		known[itemID] = ok
	}
	return known
}

func (s *Service) resolveFirstSeen(ctx context.Context, idx domain.Indices, staging map[string]bool, summary *domain.Summary) map[string]time.Time {
	firstSeen := make(map[string]time.Time)
	for binID, items := range idx.SeenBinToItems {
		if !staging[binID] {
			continue
		}
		for _, itemID := range items {
			ts, ok, err := s.Snapshots.FirstSeenInBin(ctx, binID, itemID)
			if err != nil {
				summary.Errors = append(summary.Errors, fmt.Sprintf("first-seen lookup %s/%s: %v", binID, itemID, err))
				continue
			}
			if ok {
				firstSeen[domain.StagingKey(binID, itemID)] = ts
			}
		}
	}
	return firstSeen
}

// anomalyTimestamp jepit ts run ke window tanggal supaya ListForDate dan
// penghapusan saat re-run selalu mengenai set yang barusan ditulis,
// termasuk saat run dijalankan untuk tanggal lampau.
func anomalyTimestamp(now, date, cutoff time.Time) time.Time {
	if now.Before(date) {
		return date
	}
	if !now.Before(cutoff) {
		return cutoff.Add(-time.Second)
	}
	return now
}

// AnomaliesForDate anomali untuk satu tanggal, severity desc lalu ts desc
func (s *Service) AnomaliesForDate(ctx context.Context, targetDate time.Time) ([]*domain.Anomaly, error) {
	return s.Anomalies.ListForDate(ctx, DateOnly(targetDate))
}

// SummaryForDate rekap by type / severity / status
func (s *Service) SummaryForDate(ctx context.Context, targetDate time.Time) (map[string]any, error) {
	date := DateOnly(targetDate)
	anomalies, err := s.Anomalies.ListForDate(ctx, date)
	if err != nil {
		return nil, err
	}
	byType := make(map[string]int)
	bySeverity := make(map[string]int)
	byStatus := make(map[string]int)
	for _, a := range anomalies {
		byType[string(a.Type)]++
		bySeverity[string(a.Severity)]++
		byStatus[string(a.Status)]++
	}
	return map[string]any{
		"date":            date.Format("2006-01-02"),
		"total_anomalies": len(anomalies),
		"by_type":         byType,
		"by_severity":     bySeverity,
		"by_status":       byStatus,
		"generated_at":    s.Clock.Now(),
	}, nil
}

// UpdateAnomalyStatus toggle open/closed dari reviewer
func (s *Service) UpdateAnomalyStatus(ctx context.Context, id int64, status string) error {
	st := domain.Status(status)
	if st != domain.StatusOpen && st != domain.StatusClosed {
		return domain.ErrInvalidStatus
	}
	return s.Anomalies.UpdateStatus(ctx, id, st)
}

// SystemStatus angka-angka hari ini untuk endpoint status
func (s *Service) SystemStatus(ctx context.Context) (map[string]any, error) {
	now := s.Clock.Now()
	today := DateOnly(now)

	snapshots, err := s.Snapshots.CountSince(ctx, today)
	if err != nil {
		return nil, err
	}
	anomalies, err := s.Anomalies.CountSince(ctx, today)
	if err != nil {
		return nil, err
	}
	orders, err := s.Orders.CountByShipDate(ctx, today)
	if err != nil {
		return nil, err
	}
	bins, err := s.Snapshots.CountDistinctBins(ctx)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"date":               today.Format("2006-01-02"),
		"today_snapshots":    snapshots,
		"today_anomalies":    anomalies,
		"today_orders":       orders,
		"total_bins_scanned": bins,
		"system_status":      "operational",
		"last_check":         now,
	}, nil
}
