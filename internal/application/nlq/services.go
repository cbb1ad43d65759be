package nlq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	app "github.com/bryanwahyu/binwatch/internal/application"
	"github.com/bryanwahyu/binwatch/internal/domain/inventory"
	domnlq "github.com/bryanwahyu/binwatch/internal/domain/nlq"
	recdom "github.com/bryanwahyu/binwatch/internal/domain/recon"
)

var (
	binPattern   = regexp.MustCompile(`\b([A-Z]\d{1,2}|S-\d{1,2})\b`)
	orderPattern = regexp.MustCompile(`\b(SO-[A-Za-z0-9_-]+)\b`)
	skuPattern   = regexp.MustCompile(`\b(SKU-[A-Za-z0-9_-]+)\b`)
)

// Service jawab pertanyaan gudang dalam bahasa natural.
// Data selalu diresolve dari repo dulu (deterministik); client AI cuma
// dipakai untuk merangkai kalimat jawaban. Tanpa client, jawaban
// template tetap jalan.
type Service struct {
	Client    domnlq.Client // boleh nil
	Snapshots inventory.SnapshotRepository
	Items     inventory.ItemRepository
	Orders    inventory.OrderRepository
	Anomalies recdom.AnomalyRepository
	Clock     app.Clock
}

// Query proses satu pertanyaan
func (s *Service) Query(ctx context.Context, question string) (*domnlq.Response, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is required")
	}

	answer, data, err := s.resolve(ctx, question)
	if err != nil {
		return nil, err
	}

	if s.Client != nil {
		facts, _ := json.Marshal(data)
		phrased, err := s.Client.Answer(ctx, question, string(facts))
		switch {
		case err == nil && phrased != "":
			answer = phrased
		case errors.Is(err, domnlq.ErrQuotaExceeded):
			return nil, err
		case err != nil:
			// jawaban template tetap dipakai
			log.Printf("nlq client error: %v", err)
		}
	}

	return &domnlq.Response{Answer: answer, Data: data}, nil
}

func (s *Service) resolve(ctx context.Context, question string) (string, any, error) {
	if m := orderPattern.FindString(question); m != "" {
		return s.resolveOrder(ctx, m)
	}
	if m := skuPattern.FindString(question); m != "" {
		return s.resolveSKU(ctx, m)
	}
	if m := binPattern.FindString(question); m != "" {
		return s.resolveBin(ctx, m)
	}
	lower := strings.ToLower(question)
	if strings.Contains(lower, "anomal") {
		return s.resolveAnomalies(ctx)
	}
	return "I didn't understand that request. Try asking about bin contents, SKU locations, orders, or today's anomalies.", nil, nil
}

func (s *Service) resolveBin(ctx context.Context, binID string) (string, any, error) {
	cutoff := s.Clock.Now().AddDate(0, 0, 1)
	snaps, err := s.Snapshots.FindLatestPerBinBefore(ctx, cutoff)
	if err != nil {
		return "", nil, err
	}
	for _, snap := range snaps {
		if snap.BinID != binID {
			continue
		}
		answer := fmt.Sprintf("Bin %s last scanned at %s contains %d items.",
			binID, snap.TS.Format("2006-01-02 15:04"), len(snap.ItemIDs))
		return answer, map[string]any{
			"bin_id":      binID,
			"items":       snap.ItemIDs,
			"items_count": len(snap.ItemIDs),
			"scanned_at":  snap.TS,
			"confidence":  snap.Conf,
		}, nil
	}
	return fmt.Sprintf("Bin %s has no recorded snapshot.", binID), map[string]any{"bin_id": binID}, nil
}

func (s *Service) resolveSKU(ctx context.Context, sku string) (string, any, error) {
	items, err := s.Items.FindBySKU(ctx, sku, 50)
	if err != nil {
		return "", nil, err
	}
	cutoff := s.Clock.Now().AddDate(0, 0, 1)
	snaps, err := s.Snapshots.FindLatestPerBinBefore(ctx, cutoff)
	if err != nil {
		return "", nil, err
	}
	idx := recdom.BuildIndices(snaps, cutoff)

	type location struct {
		ItemID string `json:"item_id"`
		Bin    string `json:"bin,omitempty"`
		Status string `json:"status"`
	}
	var locations []location
	found := 0
	for _, it := range items {
		loc := location{ItemID: it.ItemID, Status: "not_seen"}
		if bin, ok := idx.SeenItemToBin[it.ItemID]; ok {
			loc.Bin = bin
			loc.Status = "found"
			found++
		}
		locations = append(locations, loc)
	}
	answer := fmt.Sprintf("SKU %s has %d registered items, %d located in recent snapshots.", sku, len(items), found)
	return answer, map[string]any{
		"sku":         sku,
		"total_items": len(items),
		"found_items": found,
		"locations":   locations,
	}, nil
}

func (s *Service) resolveOrder(ctx context.Context, orderID string) (string, any, error) {
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return "", nil, err
	}
	answer := fmt.Sprintf("Order %s: SKU %s, quantity %d, ship date %s, status %s.",
		o.OrderID, o.SKU, o.Qty, o.ShipDate.Format("2006-01-02"), o.Status)
	return answer, o, nil
}

func (s *Service) resolveAnomalies(ctx context.Context) (string, any, error) {
	now := s.Clock.Now()
	anomalies, err := s.Anomalies.ListForDate(ctx, dateOnly(now))
	if err != nil {
		return "", nil, err
	}
	byType := make(map[string]int)
	for _, a := range anomalies {
		byType[string(a.Type)]++
	}
	answer := fmt.Sprintf("Found %d anomalies today.", len(anomalies))
	return answer, map[string]any{
		"date":            dateOnly(now).Format("2006-01-02"),
		"total_anomalies": len(anomalies),
		"by_type":         byType,
	}, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
