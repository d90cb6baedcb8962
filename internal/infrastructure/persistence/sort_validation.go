package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes a sort direction to ASC or DESC, defaulting to DESC
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when the whitelist allows it and
// defaultField otherwise. Column names never reach SQL unchecked.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// LayawayOrderSortFields are the order columns a listing may sort by
var LayawayOrderSortFields = map[string]bool{
	"created_at":        true,
	"updated_at":        true,
	"order_number":      true,
	"customer_name":     true,
	"status":            true,
	"total_amount":      true,
	"balance_remaining": true,
	"due_date":          true,
}

func orderClause(sortBy, sortOrder string, allowed map[string]bool, defaultField string) string {
	return ValidateSortField(sortBy, allowed, defaultField) + " " + ValidateSortOrder(sortOrder) + ", id"
}
