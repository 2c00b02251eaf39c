package tenancy

import (
	"strings"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Site is a physical or organizational location owned by a tenant
type Site struct {
	shared.TenantAggregateRoot
	Name   string
	Slug   string
	Budget decimal.Decimal // default budget, overwritten by current-month budget writes
}

// NewSite creates a site inside a tenant
func NewSite(tenantID uuid.UUID, name, slug string, budget decimal.Decimal) (*Site, error) {
	s := &Site{TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID)}
	if err := s.Update(name, slug, budget); err != nil {
		return nil, err
	}
	return s, nil
}

// Update replaces the site's editable fields
func (s *Site) Update(name, slug string, budget decimal.Decimal) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_SITE_NAME", "Site name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_SITE_NAME", "Site name cannot exceed 200 characters")
	}
	slug = NormalizeSlug(slug)
	if err := validateSlug(slug); err != nil {
		return err
	}
	if budget.IsNegative() {
		return shared.NewDomainError("INVALID_BUDGET", "Budget cannot be negative")
	}

	s.Name = name
	s.Slug = slug
	s.Budget = budget.Round(2)
	s.Touch()
	return nil
}

// SyncBudget overwrites the default budget from a current-month budget row
func (s *Site) SyncBudget(amount decimal.Decimal) {
	s.Budget = amount.Round(2)
	s.Touch()
}
