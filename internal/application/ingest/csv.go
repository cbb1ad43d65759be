package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bryanwahyu/binwatch/internal/domain/inventory"
)

// parsing CSV upload dari WMS luar. Baris rusak dilewati dan dicatat,
// bukan menggagalkan seluruh import.

type rowError struct {
	Line int
	Err  error
}

func (e rowError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

func readRows(content string) ([]map[string]string, error) {
	r := csv.NewReader(strings.NewReader(content))
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid CSV format: %w", err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("empty CSV")
	}
	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[strings.TrimSpace(col)] = strings.TrimSpace(rec[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseItemIDs terima JSON array atau daftar dipisah titik koma
func parseItemIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err == nil {
		return ids
	}
	for _, id := range strings.Split(raw, ";") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// ParseOrdersCSV kolom: order_id, ship_date, sku, qty, item_ids, status
func ParseOrdersCSV(content string) ([]*inventory.Order, []error, error) {
	rows, err := readRows(content)
	if err != nil {
		return nil, nil, err
	}
	var orders []*inventory.Order
	var errs []error
	for i, row := range rows {
		line := i + 2
		if row["order_id"] == "" || row["sku"] == "" {
			errs = append(errs, rowError{line, fmt.Errorf("missing order_id or sku")})
			continue
		}
		var shipDate time.Time
		if raw := row["ship_date"]; raw != "" {
			shipDate, err = time.ParseInLocation("2006-01-02", raw, time.UTC)
			if err != nil {
				errs = append(errs, rowError{line, fmt.Errorf("invalid ship_date %q", raw)})
				continue
			}
		}
		qty := 0
		if raw := row["qty"]; raw != "" {
			qty, err = strconv.Atoi(raw)
			if err != nil {
				errs = append(errs, rowError{line, fmt.Errorf("invalid qty %q", raw)})
				continue
			}
		}
		status := inventory.OrderStatus(row["status"])
		if status == "" {
			status = inventory.OrderPending
		}
		orders = append(orders, &inventory.Order{
			OrderID:  row["order_id"],
			ShipDate: shipDate,
			SKU:      row["sku"],
			Qty:      qty,
			ItemIDs:  parseItemIDs(row["item_ids"]),
			Status:   status,
		})
	}
	return orders, errs, nil
}

// ParseAllocationsCSV kolom: item_id, bin_id, status
func ParseAllocationsCSV(content string) ([]*inventory.Allocation, []error, error) {
	rows, err := readRows(content)
	if err != nil {
		return nil, nil, err
	}
	var allocations []*inventory.Allocation
	var errs []error
	for i, row := range rows {
		line := i + 2
		if row["item_id"] == "" || row["bin_id"] == "" {
			errs = append(errs, rowError{line, fmt.Errorf("missing item_id or bin_id")})
			continue
		}
		status := row["status"]
		if status == "" {
			status = "allocated"
		}
		allocations = append(allocations, &inventory.Allocation{
			ItemID: row["item_id"],
			BinID:  row["bin_id"],
			Status: status,
		})
	}
	return allocations, errs, nil
}

// ParseBinsCSV kolom: bin_id, zone, coords
func ParseBinsCSV(content string) ([]*inventory.Bin, []error, error) {
	rows, err := readRows(content)
	if err != nil {
		return nil, nil, err
	}
	var bins []*inventory.Bin
	var errs []error
	for i, row := range rows {
		if row["bin_id"] == "" {
			errs = append(errs, rowError{i + 2, fmt.Errorf("missing bin_id")})
			continue
		}
		bins = append(bins, &inventory.Bin{
			BinID:  row["bin_id"],
			Zone:   row["zone"],
			Coords: row["coords"],
		})
	}
	return bins, errs, nil
}
