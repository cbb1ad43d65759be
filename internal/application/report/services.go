package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	domain "github.com/bryanwahyu/binwatch/internal/domain/recon"
)

// Service implements use-cases laporan reconciliation.
// Output CSV diupload ke object storage, caller dapat URL-nya.
type Service struct {
	Anomalies domain.AnomalyRepository
	Store     domain.ReportStore
}

// GenerateReconciliation render anomali satu tanggal jadi CSV lalu upload
func (s *Service) GenerateReconciliation(ctx context.Context, date time.Time) (map[string]string, error) {
	date = dateOnly(date)
	anomalies, err := s.Anomalies.ListForDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("loading anomalies: %w", err)
	}

	content, err := renderAnomaliesCSV(anomalies)
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("reconciliation_%s.csv", date.Format("20060102"))
	ref, err := s.Store.SaveReport(ctx, content, filename, "text/csv")
	if err != nil {
		return nil, fmt.Errorf("uploading report: %w", err)
	}

	return map[string]string{
		"csv_ref": ref,
		"csv_url": s.Store.FileURL(ref),
	}, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func renderAnomaliesCSV(anomalies []*domain.Anomaly) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"id", "ts", "type", "bin_id", "item_id", "order_id", "severity", "detail", "status"}); err != nil {
		return nil, err
	}
	for _, a := range anomalies {
		rec := []string{
			strconv.FormatInt(a.ID, 10),
			a.TS.UTC().Format(time.RFC3339),
			string(a.Type),
			a.BinID,
			a.ItemID,
			a.OrderID,
			string(a.Severity),
			a.Detail,
			string(a.Status),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
