package report

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/binwatch/internal/domain/recon"
)

type stubAnomalyRepo struct {
	list []*domain.Anomaly
	err  error
}

func (r *stubAnomalyRepo) ClearForDate(ctx context.Context, date time.Time) error { return nil }
func (r *stubAnomalyRepo) SaveAll(ctx context.Context, anomalies []*domain.Anomaly) error {
	return nil
}
func (r *stubAnomalyRepo) Replace(ctx context.Context, date time.Time, anomalies []*domain.Anomaly) error {
	return nil
}
func (r *stubAnomalyRepo) ListForDate(ctx context.Context, date time.Time) ([]*domain.Anomaly, error) {
	return r.list, r.err
}
func (r *stubAnomalyRepo) UpdateStatus(ctx context.Context, id int64, status domain.Status) error {
	return nil
}
func (r *stubAnomalyRepo) CountSince(ctx context.Context, since time.Time) (int, error) {
	return 0, nil
}

type stubReportStore struct {
	saved       map[string][]byte
	contentType string
}

func (s *stubReportStore) SaveReport(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	if s.saved == nil {
		s.saved = map[string][]byte{}
	}
	s.saved[filename] = data
	s.contentType = contentType
	return "reports/" + filename, nil
}

func (s *stubReportStore) FileURL(ref string) string {
	return "http://storage.local/bucket/" + ref
}

func TestGenerateReconciliation(t *testing.T) {
	ts, _ := time.Parse(time.RFC3339, "2025-08-17T10:30:00Z")
	repo := &stubAnomalyRepo{list: []*domain.Anomaly{
		{ID: 1, TS: ts, Type: domain.TypeUnshipped, BinID: "A1", ItemID: "I1", OrderID: "SO-1",
			Severity: domain.SeverityHigh, Detail: "Order SO-1 marked shipped but item I1 still seen at A1", Status: domain.StatusOpen},
		{ID: 2, TS: ts, Type: domain.TypeMisplaced, BinID: "B2", ItemID: "I2",
			Severity: domain.SeverityMed, Detail: "Item I2 expected in A1, found in B2", Status: domain.StatusOpen},
	}}
	store := &stubReportStore{}
	svc := &Service{Anomalies: repo, Store: store}

	date, _ := time.Parse("2006-01-02", "2025-08-17")
	refs, err := svc.GenerateReconciliation(context.Background(), date)
	require.NoError(t, err)

	assert.Equal(t, "reports/reconciliation_20250817.csv", refs["csv_ref"])
	assert.Equal(t, "http://storage.local/bucket/reports/reconciliation_20250817.csv", refs["csv_url"])
	assert.Equal(t, "text/csv", store.contentType)

	content := string(store.saved["reconciliation_20250817.csv"])
	lines := strings.Split(strings.TrimSpace(content), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,ts,type,bin_id,item_id,order_id,severity,detail,status", lines[0])
	assert.Contains(t, lines[1], "unshipped")
	assert.Contains(t, lines[1], "SO-1")
	assert.Contains(t, lines[2], "misplaced")
}

// windowAnomalyRepo filter list pakai window [date, date+1d) seperti repo SQL
type windowAnomalyRepo struct {
	stubAnomalyRepo
}

func (r *windowAnomalyRepo) ListForDate(ctx context.Context, date time.Time) ([]*domain.Anomaly, error) {
	end := date.Add(24 * time.Hour)
	var out []*domain.Anomaly
	for _, a := range r.list {
		if !a.TS.Before(date) && a.TS.Before(end) {
			out = append(out, a)
		}
	}
	return out, nil
}

func TestGenerateReconciliationTruncatesMidDayTimestamp(t *testing.T) {
	ts, _ := time.Parse(time.RFC3339, "2025-08-17T10:30:00Z")
	repo := &windowAnomalyRepo{stubAnomalyRepo{list: []*domain.Anomaly{
		{ID: 1, TS: ts, Type: domain.TypeOrphan, BinID: "A1", ItemID: "GHOST",
			Severity: domain.SeverityMed, Detail: "Item GHOST found at A1 but not registered in system", Status: domain.StatusOpen},
	}}}
	store := &stubReportStore{}
	svc := &Service{Anomalies: repo, Store: store}

	// tanpa ?date= router kirim Clock.Now(), jam berapapun hasilnya harus sama
	noon, _ := time.Parse(time.RFC3339, "2025-08-17T12:00:00Z")
	_, err := svc.GenerateReconciliation(context.Background(), noon)
	require.NoError(t, err)

	content := string(store.saved["reconciliation_20250817.csv"])
	lines := strings.Split(strings.TrimSpace(content), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "GHOST")
}

func TestGenerateReconciliationEmptyDay(t *testing.T) {
	store := &stubReportStore{}
	svc := &Service{Anomalies: &stubAnomalyRepo{}, Store: store}

	date, _ := time.Parse("2006-01-02", "2025-08-18")
	refs, err := svc.GenerateReconciliation(context.Background(), date)
	require.NoError(t, err)

	// laporan kosong tetap dibuat, cuma header
	content := string(store.saved["reconciliation_20250818.csv"])
	assert.Equal(t, 1, strings.Count(strings.TrimSpace(content), "\n")+1)
	assert.NotEmpty(t, refs["csv_url"])
}

func TestGenerateReconciliationRepoError(t *testing.T) {
	svc := &Service{
		Anomalies: &stubAnomalyRepo{err: fmt.Errorf("db gone")},
		Store:     &stubReportStore{},
	}
	date, _ := time.Parse("2006-01-02", "2025-08-17")
	_, err := svc.GenerateReconciliation(context.Background(), date)
	assert.Error(t, err)
}
