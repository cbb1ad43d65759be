package snapshots

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/binwatch/internal/domain/inventory"
)

type stubClock struct{ t time.Time }

func (c stubClock) Now() time.Time { return c.t }

type stubSnapshotRepo struct{ saved []*inventory.Snapshot }

func (r *stubSnapshotRepo) FindLatestPerBinBefore(ctx context.Context, cutoff time.Time) ([]*inventory.Snapshot, error) {
	var out []*inventory.Snapshot
	for _, s := range r.saved {
		if s.TS.Before(cutoff) {
			out = append(out, s)
		}
	}
	return out, nil
}
func (r *stubSnapshotRepo) FirstSeenInBin(ctx context.Context, binID, itemID string) (time.Time, bool, error) {
	return time.Time{}, false, nil
}
func (r *stubSnapshotRepo) Save(ctx context.Context, s *inventory.Snapshot) error {
	s.ID = int64(len(r.saved) + 1)
	r.saved = append(r.saved, s)
	return nil
}
func (r *stubSnapshotRepo) CountSince(ctx context.Context, since time.Time) (int, error) {
	return len(r.saved), nil
}
func (r *stubSnapshotRepo) CountDistinctBins(ctx context.Context) (int, error) {
	return 0, nil
}

type stubPhotoStore struct {
	saved map[string][]byte
	fail  bool
}

func (s *stubPhotoStore) SavePhoto(ctx context.Context, data []byte, filename string) (string, error) {
	if s.fail {
		return "", fmt.Errorf("storage down")
	}
	if s.saved == nil {
		s.saved = map[string][]byte{}
	}
	s.saved[filename] = data
	return "photos/" + filename, nil
}

func (s *stubPhotoStore) FileURL(ref string) string {
	return "http://storage.local/bucket/" + ref
}

func TestRecordWithPhoto(t *testing.T) {
	now, _ := time.Parse(time.RFC3339, "2025-08-17T10:00:00Z")
	repo := &stubSnapshotRepo{}
	photos := &stubPhotoStore{}
	svc := &Service{Snapshots: repo, Photos: photos, Clock: stubClock{now}}

	res, err := svc.Record(context.Background(), RecordCommand{
		BinID:   "A1",
		ItemIDs: []string{"I1", "I2"},
		Conf:    0.93,
		Photo:   []byte("jpegdata"),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), res.SnapshotID)
	assert.Equal(t, 2, res.ItemCount)
	assert.Equal(t, "photos/snapshot_A1_20250817_100000.jpg", res.PhotoRef)
	assert.Contains(t, res.PhotoURL, "photos/snapshot_A1")

	require.Len(t, repo.saved, 1)
	assert.Equal(t, now, repo.saved[0].TS)
	assert.Equal(t, res.PhotoRef, repo.saved[0].PhotoRef)
}

func TestRecordPhotoFailureStillSaves(t *testing.T) {
	now, _ := time.Parse(time.RFC3339, "2025-08-17T10:00:00Z")
	repo := &stubSnapshotRepo{}
	svc := &Service{Snapshots: repo, Photos: &stubPhotoStore{fail: true}, Clock: stubClock{now}}

	res, err := svc.Record(context.Background(), RecordCommand{
		BinID: "A1", ItemIDs: []string{"I1"}, Photo: []byte("jpegdata"),
	})
	require.NoError(t, err)

	// upload gagal: snapshot tetap tercatat tanpa photo_ref
	assert.Empty(t, res.PhotoRef)
	require.Len(t, repo.saved, 1)
	assert.Empty(t, repo.saved[0].PhotoRef)
}

func TestRecordRequiresBin(t *testing.T) {
	svc := &Service{Snapshots: &stubSnapshotRepo{}, Photos: &stubPhotoStore{}, Clock: stubClock{time.Now()}}

	_, err := svc.Record(context.Background(), RecordCommand{ItemIDs: []string{"I1"}})
	assert.Error(t, err)
}

func TestLatestPerBin(t *testing.T) {
	now, _ := time.Parse(time.RFC3339, "2025-08-18T09:00:00Z")
	repo := &stubSnapshotRepo{saved: []*inventory.Snapshot{
		{BinID: "A1", TS: now.Add(-24 * time.Hour)},
		{BinID: "B2", TS: now.Add(48 * time.Hour)},
	}}
	svc := &Service{Snapshots: repo, Photos: &stubPhotoStore{}, Clock: stubClock{now}}

	// cutoff eksplisit: 2025-08-18 berarti ts < 2025-08-19
	list, err := svc.LatestPerBin(context.Background(), "2025-08-18")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "A1", list[0].BinID)

	_, err = svc.LatestPerBin(context.Background(), "bad-date")
	assert.Error(t, err)
}
