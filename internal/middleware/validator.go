package middleware

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Input validation and sanitization utilities

var (
	binPattern     = regexp.MustCompile(`^[A-Z]\d{1,2}$`)
	stagingPattern = regexp.MustCompile(`^S-\d{1,2}$`)
	itemPattern    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	orderPattern   = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	skuPattern     = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

// ValidateBinID checks bin label format: regular (A1..Z99) or staging (S-01)
func ValidateBinID(binID string) error {
	if binID == "" {
		return fmt.Errorf("bin ID cannot be empty")
	}
	if !binPattern.MatchString(binID) && !stagingPattern.MatchString(binID) {
		return fmt.Errorf("invalid bin ID format: %s", binID)
	}
	return nil
}

// ValidateItemID validates QR item label format
func ValidateItemID(itemID string) error {
	if itemID == "" {
		return fmt.Errorf("item ID cannot be empty")
	}
	if !itemPattern.MatchString(itemID) {
		return fmt.Errorf("invalid item ID format: %s", itemID)
	}
	return nil
}

// ValidateOrderID validates order reference format
func ValidateOrderID(orderID string) error {
	if orderID == "" {
		return fmt.Errorf("order ID cannot be empty")
	}
	if !orderPattern.MatchString(orderID) {
		return fmt.Errorf("invalid order ID format: %s", orderID)
	}
	return nil
}

// ValidateSKU validates SKU format
func ValidateSKU(sku string) error {
	if sku == "" {
		return fmt.Errorf("SKU cannot be empty")
	}
	if !skuPattern.MatchString(sku) {
		return fmt.Errorf("invalid SKU format: %s", sku)
	}
	return nil
}

// ValidateDate parses YYYY-MM-DD; empty string is allowed (caller defaults to today)
func ValidateDate(date string) error {
	if date == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("invalid date format (expected YYYY-MM-DD): %s", date)
	}
	return nil
}

// ValidateAnomalyStatus checks reviewer status value
func ValidateAnomalyStatus(status string) error {
	switch status {
	case "open", "closed":
		return nil
	}
	return fmt.Errorf("invalid status: %s (allowed: open, closed)", status)
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 50 // default
	}
	if limit > 500 {
		return 500 // max limit
	}
	return limit
}

// ValidateOffset validates pagination offset
func ValidateOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
