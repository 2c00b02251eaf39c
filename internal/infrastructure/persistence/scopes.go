package persistence

import (
	"strings"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// TenantScope restricts a query to rows owned by tenantID
func TenantScope(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tenant_id = ?", tenantID)
	}
}

// Paginate applies the normalized offset and limit of page
func Paginate(page shared.Page) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		p := page.Normalize()
		return db.Offset(p.Offset()).Limit(p.PageSize)
	}
}

// OrderBy applies a whitelisted sort column, falling back to defaultField
func OrderBy(field, order string, allowed map[string]bool, defaultField string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(ValidateSortField(field, allowed, defaultField) + " " + ValidateSortOrder(order))
	}
}

// containsPattern builds a case-insensitive LIKE pattern with wildcards escaped
func containsPattern(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + s + "%"
}
