package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes the sort direction to ASC or DESC (the default)
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "ASC") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when it is whitelisted, otherwise defaultField
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// TicketSortFields lists the columns tickets can be ordered by
var TicketSortFields = map[string]bool{
	"created_at":  true,
	"updated_at":  true,
	"priority":    true,
	"status":      true,
	"title":       true,
	"resolved_at": true,
}

// AssetSortFields lists the columns assets can be ordered by
var AssetSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"quantity":   true,
	"cost":       true,
}

// UserSortFields lists the columns users can be ordered by
var UserSortFields = map[string]bool{
	"created_at":    true,
	"username":      true,
	"email":         true,
	"last_login_at": true,
}
