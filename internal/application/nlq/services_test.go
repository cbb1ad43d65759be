package nlq

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/binwatch/internal/domain/inventory"
	domnlq "github.com/bryanwahyu/binwatch/internal/domain/nlq"
	recdom "github.com/bryanwahyu/binwatch/internal/domain/recon"
)

type stubClock struct{ t time.Time }

func (c stubClock) Now() time.Time { return c.t }

type stubSnapshotRepo struct{ snaps []*inventory.Snapshot }

func (r *stubSnapshotRepo) FindLatestPerBinBefore(ctx context.Context, cutoff time.Time) ([]*inventory.Snapshot, error) {
	return r.snaps, nil
}
func (r *stubSnapshotRepo) FirstSeenInBin(ctx context.Context, binID, itemID string) (time.Time, bool, error) {
	return time.Time{}, false, nil
}
func (r *stubSnapshotRepo) Save(ctx context.Context, s *inventory.Snapshot) error { return nil }
func (r *stubSnapshotRepo) CountSince(ctx context.Context, since time.Time) (int, error) {
	return 0, nil
}
func (r *stubSnapshotRepo) CountDistinctBins(ctx context.Context) (int, error) { return 0, nil }

type stubItemRepo struct{ items []*inventory.Item }

func (r *stubItemRepo) ExistsByID(ctx context.Context, itemID string) (bool, error) {
	return false, nil
}
func (r *stubItemRepo) FindBySKU(ctx context.Context, sku string, limit int) ([]*inventory.Item, error) {
	var out []*inventory.Item
	for _, it := range r.items {
		if it.SKU == sku {
			out = append(out, it)
		}
	}
	return out, nil
}
func (r *stubItemRepo) Get(ctx context.Context, itemID string) (*inventory.Item, error) {
	return nil, sql.ErrNoRows
}
func (r *stubItemRepo) List(ctx context.Context, offset, limit int) ([]*inventory.Item, error) {
	return nil, nil
}
func (r *stubItemRepo) Save(ctx context.Context, it *inventory.Item) error { return nil }
func (r *stubItemRepo) Delete(ctx context.Context, itemID string) error    { return nil }

type stubOrderRepo struct{ orders map[string]*inventory.Order }

func (r *stubOrderRepo) FindByShipDate(ctx context.Context, date time.Time) ([]*inventory.Order, error) {
	return nil, nil
}
func (r *stubOrderRepo) Get(ctx context.Context, orderID string) (*inventory.Order, error) {
	o, ok := r.orders[orderID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return o, nil
}
func (r *stubOrderRepo) List(ctx context.Context, offset, limit int) ([]*inventory.Order, error) {
	return nil, nil
}
func (r *stubOrderRepo) Save(ctx context.Context, o *inventory.Order) error { return nil }
func (r *stubOrderRepo) UpdateStatus(ctx context.Context, orderID string, status inventory.OrderStatus) error {
	return nil
}
func (r *stubOrderRepo) CountByShipDate(ctx context.Context, date time.Time) (int, error) {
	return 0, nil
}

type stubAnomalyRepo struct{ list []*recdom.Anomaly }

func (r *stubAnomalyRepo) ClearForDate(ctx context.Context, date time.Time) error { return nil }
func (r *stubAnomalyRepo) SaveAll(ctx context.Context, anomalies []*recdom.Anomaly) error {
	return nil
}
func (r *stubAnomalyRepo) Replace(ctx context.Context, date time.Time, anomalies []*recdom.Anomaly) error {
	return nil
}
func (r *stubAnomalyRepo) ListForDate(ctx context.Context, date time.Time) ([]*recdom.Anomaly, error) {
	return r.list, nil
}
func (r *stubAnomalyRepo) UpdateStatus(ctx context.Context, id int64, status recdom.Status) error {
	return nil
}
func (r *stubAnomalyRepo) CountSince(ctx context.Context, since time.Time) (int, error) {
	return 0, nil
}

type stubClient struct {
	answer string
	err    error
	called bool
}

func (c *stubClient) Answer(ctx context.Context, question, facts string) (string, error) {
	c.called = true
	return c.answer, c.err
}

func newNLQService() *Service {
	now, _ := time.Parse(time.RFC3339, "2025-08-17T12:00:00Z")
	return &Service{
		Snapshots: &stubSnapshotRepo{snaps: []*inventory.Snapshot{
			{BinID: "A3", TS: now.Add(-2 * time.Hour), ItemIDs: []string{"I1", "I2"}, Conf: 0.9},
		}},
		Items: &stubItemRepo{items: []*inventory.Item{
			{ItemID: "I1", SKU: "SKU-ABC"},
			{ItemID: "I9", SKU: "SKU-ABC"},
		}},
		Orders: &stubOrderRepo{orders: map[string]*inventory.Order{
			"SO-1": {OrderID: "SO-1", SKU: "SKU-ABC", Qty: 1, ShipDate: now, Status: inventory.OrderShipped},
		}},
		Anomalies: &stubAnomalyRepo{list: []*recdom.Anomaly{
			{ID: 1, Type: recdom.TypeMisplaced, ItemID: "I1", Severity: recdom.SeverityMed},
		}},
		Clock: stubClock{now},
	}
}

func TestQueryBinContents(t *testing.T) {
	svc := newNLQService()

	resp, err := svc.Query(context.Background(), "what is inside bin A3 right now?")
	require.NoError(t, err)

	assert.Contains(t, resp.Answer, "A3")
	assert.Contains(t, resp.Answer, "2 items")
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []string{"I1", "I2"}, data["items"])
}

func TestQueryUnknownBin(t *testing.T) {
	svc := newNLQService()

	resp, err := svc.Query(context.Background(), "what is in bin Z9?")
	require.NoError(t, err)
	assert.Contains(t, resp.Answer, "no recorded snapshot")
}

func TestQueryOrder(t *testing.T) {
	svc := newNLQService()

	resp, err := svc.Query(context.Background(), "status of SO-1 please")
	require.NoError(t, err)
	assert.Contains(t, resp.Answer, "SO-1")
	assert.Contains(t, resp.Answer, "shipped")
}

func TestQuerySKULocations(t *testing.T) {
	svc := newNLQService()

	resp, err := svc.Query(context.Background(), "where is SKU-ABC stored?")
	require.NoError(t, err)
	// I1 kelihatan di A3, I9 tidak ada di snapshot manapun
	assert.Contains(t, resp.Answer, "2 registered items")
	assert.Contains(t, resp.Answer, "1 located")
}

func TestQueryAnomalies(t *testing.T) {
	svc := newNLQService()

	resp, err := svc.Query(context.Background(), "any anomalies today?")
	require.NoError(t, err)
	assert.Contains(t, resp.Answer, "1 anomalies")
}

func TestQueryFallbackMessage(t *testing.T) {
	svc := newNLQService()

	resp, err := svc.Query(context.Background(), "tell me a joke")
	require.NoError(t, err)
	assert.Contains(t, resp.Answer, "didn't understand")
}

func TestQueryEmptyQuestion(t *testing.T) {
	svc := newNLQService()

	_, err := svc.Query(context.Background(), "   ")
	assert.Error(t, err)
}

func TestQueryUsesClientPhrasing(t *testing.T) {
	svc := newNLQService()
	client := &stubClient{answer: "Bin A3 holds two items, scanned two hours ago."}
	svc.Client = client

	resp, err := svc.Query(context.Background(), "what is in bin A3?")
	require.NoError(t, err)
	assert.True(t, client.called)
	assert.Equal(t, client.answer, resp.Answer)
	// data pendukung tetap dari repo, bukan dari AI
	require.NotNil(t, resp.Data)
}

func TestQueryFallsBackOnClientError(t *testing.T) {
	svc := newNLQService()
	svc.Client = &stubClient{err: fmt.Errorf("upstream 500")}

	resp, err := svc.Query(context.Background(), "what is in bin A3?")
	require.NoError(t, err)
	assert.Contains(t, resp.Answer, "Bin A3")
}

func TestQueryPropagatesQuotaError(t *testing.T) {
	svc := newNLQService()
	svc.Client = &stubClient{err: domnlq.ErrQuotaExceeded}

	_, err := svc.Query(context.Background(), "what is in bin A3?")
	assert.ErrorIs(t, err, domnlq.ErrQuotaExceeded)
}
