package ingest

import (
	"context"
	"log"

	"github.com/bryanwahyu/binwatch/internal/domain/inventory"
)

// Service implements use-cases import data master dari CSV
type Service struct {
	Orders      inventory.OrderRepository
	Allocations inventory.AllocationRepository
	Items       inventory.ItemRepository
	Bins        inventory.BinRepository
}

// Result rekap satu import
type Result struct {
	Imported       int      `json:"imported"`
	Errors         []string `json:"errors,omitempty"`
	TotalProcessed int      `json:"total_processed"`
}

// ImportOrders upsert order per baris; item eksplisit yang belum
// terdaftar ikut dibuat supaya resolusi order tidak bolong.
func (s *Service) ImportOrders(ctx context.Context, csvContent string) (*Result, error) {
	orders, rowErrs, err := ParseOrdersCSV(csvContent)
	if err != nil {
		return nil, err
	}
	res := &Result{TotalProcessed: len(orders) + len(rowErrs)}
	for _, e := range rowErrs {
		res.Errors = append(res.Errors, e.Error())
	}
	for _, o := range orders {
		if err := s.Orders.Save(ctx, o); err != nil {
			res.Errors = append(res.Errors, "order "+o.OrderID+": "+err.Error())
			log.Printf("ingest order %s: %v", o.OrderID, err)
			continue
		}
		res.Imported++
		for _, itemID := range o.ItemIDs {
			exists, err := s.Items.ExistsByID(ctx, itemID)
			if err != nil || exists {
				continue
			}
			if err := s.Items.Save(ctx, &inventory.Item{ItemID: itemID, SKU: o.SKU}); err != nil {
				res.Errors = append(res.Errors, "item "+itemID+": "+err.Error())
			}
		}
	}
	return res, nil
}

// ImportAllocations upsert allocation per item
func (s *Service) ImportAllocations(ctx context.Context, csvContent string) (*Result, error) {
	allocations, rowErrs, err := ParseAllocationsCSV(csvContent)
	if err != nil {
		return nil, err
	}
	res := &Result{TotalProcessed: len(allocations) + len(rowErrs)}
	for _, e := range rowErrs {
		res.Errors = append(res.Errors, e.Error())
	}
	for _, a := range allocations {
		if err := s.Allocations.Upsert(ctx, a); err != nil {
			res.Errors = append(res.Errors, "allocation "+a.ItemID+": "+err.Error())
			log.Printf("ingest allocation %s: %v", a.ItemID, err)
			continue
		}
		res.Imported++
	}
	return res, nil
}

// ImportBins upsert master bin
func (s *Service) ImportBins(ctx context.Context, csvContent string) (*Result, error) {
	bins, rowErrs, err := ParseBinsCSV(csvContent)
	if err != nil {
		return nil, err
	}
	res := &Result{TotalProcessed: len(bins) + len(rowErrs)}
	for _, e := range rowErrs {
		res.Errors = append(res.Errors, e.Error())
	}
	for _, b := range bins {
		if err := s.Bins.Save(ctx, b); err != nil {
			res.Errors = append(res.Errors, "bin "+b.BinID+": "+err.Error())
			continue
		}
		res.Imported++
	}
	return res, nil
}
