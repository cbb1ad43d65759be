package recon

import (
	"fmt"
	"time"
)

// Type enum untuk jenis anomali
type Type string

const (
	TypeUnshipped    Type = "unshipped"
	TypeMisplaced    Type = "misplaced"
	TypeOrphan       Type = "orphan"
	TypeStaleStaging Type = "stale_staging"
	TypeMissing      Type = "missing"
)

// Severity enum
type Severity string

const (
	SeverityHigh Severity = "high"
	SeverityMed  Severity = "med"
	SeverityLow  Severity = "low"
)

// Status enum
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Aggregate Root: Anomaly
type Anomaly struct {
	ID       int64     `json:"id"`
	TS       time.Time `json:"ts"`
	Type     Type      `json:"type"`
	BinID    string    `json:"bin_id,omitempty"`
	ItemID   string    `json:"item_id,omitempty"`
	OrderID  string    `json:"order_id,omitempty"`
	Severity Severity  `json:"severity"`
	Detail   string    `json:"detail"`
	Status   Status    `json:"status"`
}

// Validate cek referensi minimal: bin atau item harus terisi
func (a *Anomaly) Validate() error {
	if a.BinID == "" && a.ItemID == "" {
		return fmt.Errorf("anomaly %s has neither bin_id nor item_id", a.Type)
	}
	switch a.Severity {
	case SeverityHigh, SeverityMed, SeverityLow:
	default:
		return fmt.Errorf("invalid severity: %s", a.Severity)
	}
	return nil
}

// Summary hasil satu reconciliation run
type Summary struct {
	RunID              string         `json:"run_id"`
	Date               string         `json:"date"`
	TotalAnomalies     int            `json:"total_anomalies"`
	AnomalyTypes       map[string]int `json:"anomaly_types"`
	OrdersChecked      int            `json:"orders_checked"`
	SnapshotsProcessed int            `json:"snapshots_processed"`
	BinsScanned        int            `json:"bins_scanned"`
	Errors             []string       `json:"errors,omitempty"`
	DurationMS         int64          `json:"duration_ms"`
}
