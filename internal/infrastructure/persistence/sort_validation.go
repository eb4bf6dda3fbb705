package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// VoucherSortFields contains allowed sort fields for fee vouchers
var VoucherSortFields = map[string]bool{
	"id":               true,
	"created_at":       true,
	"updated_at":       true,
	"voucher_number":   true,
	"student_name":     true,
	"class_name":       true,
	"due_date":         true,
	"total_amount":     true,
	"paid_amount":      true,
	"remaining_amount": true,
	"status":           true,
}

// voucherPeriodOrder is the default listing order, latest billing period first
const voucherPeriodOrder = "year DESC, month DESC, created_at DESC"

// voucherOrderClause builds the ORDER BY clause for a voucher listing.
// "period" sorts by year then month; unknown fields fall back to the default.
func voucherOrderClause(sortBy, sortOrder string) string {
	trimmed := strings.TrimSpace(sortBy)
	if trimmed == "period" {
		dir := ValidateSortOrder(sortOrder)
		return "year " + dir + ", month " + dir + ", id ASC"
	}
	field := ValidateSortField(trimmed, VoucherSortFields, "")
	if field == "" {
		return voucherPeriodOrder
	}
	return field + " " + ValidateSortOrder(sortOrder) + ", id ASC"
}
