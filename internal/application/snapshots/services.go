package snapshots

import (
	"context"
	"fmt"
	"log"

	app "github.com/bryanwahyu/binwatch/internal/application"
	"github.com/bryanwahyu/binwatch/internal/domain/inventory"
)

// Service implements use-cases pencatatan snapshot.
// Decoding QR/OCR terjadi di pipeline scan eksternal; ke sini sudah
// masuk bin/items/confidence hasil decode plus foto mentahnya.
type Service struct {
	Snapshots inventory.SnapshotRepository
	Photos    inventory.PhotoStore
	Clock     app.Clock
}

// RecordCommand satu observasi isi bin
type RecordCommand struct {
	BinID   string
	ItemIDs []string
	Conf    float64
	OCRText string
	Photo   []byte // opsional
}

// RecordResult hasil pencatatan
type RecordResult struct {
	SnapshotID int64   `json:"snapshot_id"`
	BinID      string  `json:"bin_id"`
	ItemCount  int     `json:"item_count"`
	Conf       float64 `json:"conf"`
	PhotoRef   string  `json:"photo_ref,omitempty"`
	PhotoURL   string  `json:"photo_url,omitempty"`
	Timestamp  string  `json:"timestamp"`
}

// Record simpan foto ke object storage (kalau ada) lalu tulis baris snapshot
func (s *Service) Record(ctx context.Context, cmd RecordCommand) (*RecordResult, error) {
	if cmd.BinID == "" {
		return nil, fmt.Errorf("bin_id is required")
	}

	now := s.Clock.Now()
	var photoRef, photoURL string
	if len(cmd.Photo) > 0 {
		filename := fmt.Sprintf("snapshot_%s_%s.jpg", cmd.BinID, now.Format("20060102_150405"))
		ref, err := s.Photos.SavePhoto(ctx, cmd.Photo, filename)
		if err != nil {
			// foto gagal diupload bukan alasan buang observasinya
			log.Printf("snapshot photo upload failed: bin=%s err=%v", cmd.BinID, err)
		} else {
			photoRef = ref
			photoURL = s.Photos.FileURL(ref)
		}
	}

	snap := &inventory.Snapshot{
		TS:       now,
		BinID:    cmd.BinID,
		ItemIDs:  cmd.ItemIDs,
		PhotoRef: photoRef,
		OCRText:  cmd.OCRText,
		Conf:     cmd.Conf,
	}
	if err := s.Snapshots.Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("saving snapshot: %w", err)
	}

	return &RecordResult{
		SnapshotID: snap.ID,
		BinID:      snap.BinID,
		ItemCount:  len(snap.ItemIDs),
		Conf:       snap.Conf,
		PhotoRef:   photoRef,
		PhotoURL:   photoURL,
		Timestamp:  now.Format("2006-01-02T15:04:05Z07:00"),
	}, nil
}

// LatestPerBin snapshot terakhir per bin sebelum cutoff
func (s *Service) LatestPerBin(ctx context.Context, cutoff string) ([]*inventory.Snapshot, error) {
	t := s.Clock.Now().AddDate(0, 0, 1)
	if cutoff != "" {
		parsed, err := app.ParseDate(cutoff)
		if err != nil {
			return nil, err
		}
		t = parsed.AddDate(0, 0, 1)
	}
	return s.Snapshots.FindLatestPerBinBefore(ctx, t)
}
