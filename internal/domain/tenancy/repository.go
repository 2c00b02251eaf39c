package tenancy

import (
	"context"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/shared"
)

// TenantRepository defines the interface for tenant persistence
type TenantRepository interface {
	Create(ctx context.Context, tenant *Tenant) error
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	// FindBySlug returns shared.ErrNotFound when no tenant has the slug
	FindBySlug(ctx context.Context, slug string) (*Tenant, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	FindAll(ctx context.Context, page shared.Page) ([]*Tenant, int64, error)
}

// SiteRepository defines the interface for site persistence
type SiteRepository interface {
	Create(ctx context.Context, site *Site) error
	Update(ctx context.Context, site *Site) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Site, error)
	FindAll(ctx context.Context, tenantID uuid.UUID) ([]*Site, error)
	ExistsBySlug(ctx context.Context, tenantID uuid.UUID, slug string, excludeID *uuid.UUID) (bool, error)
}

// SiteBudgetRepository defines the interface for monthly budget persistence
type SiteBudgetRepository interface {
	// Upsert inserts the row or overwrites the amount of the existing (site, year, month) row
	Upsert(ctx context.Context, budget *SiteBudget) (*SiteBudget, error)
	FindBySite(ctx context.Context, tenantID, siteID uuid.UUID, year *int) ([]*SiteBudget, error)
	FindForMonth(ctx context.Context, tenantID, siteID uuid.UUID, year, month int) (*SiteBudget, error)
	// FindLatest returns the row with the greatest (year, month) for the site
	FindLatest(ctx context.Context, tenantID, siteID uuid.UUID) (*SiteBudget, error)
	// SumByYear returns each site's summed monthly budgets for a year, ordered by site name
	SumByYear(ctx context.Context, tenantID uuid.UUID, year int) ([]SiteBudgetTotal, error)
}
