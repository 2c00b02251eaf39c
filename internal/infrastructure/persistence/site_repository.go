package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/shared"
	"github.com/helpdesk/backend/internal/domain/tenancy"
	"github.com/helpdesk/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSiteRepository implements tenancy.SiteRepository using GORM
type GormSiteRepository struct {
	db *gorm.DB
}

// NewGormSiteRepository creates a new GormSiteRepository
func NewGormSiteRepository(db *gorm.DB) *GormSiteRepository {
	return &GormSiteRepository{db: db}
}

// Create inserts a site
func (r *GormSiteRepository) Create(ctx context.Context, site *tenancy.Site) error {
	return translateError(r.db.WithContext(ctx).Create(models.SiteModelFromDomain(site)).Error)
}

// Update writes the site's mutable columns
func (r *GormSiteRepository) Update(ctx context.Context, site *tenancy.Site) error {
	result := r.db.WithContext(ctx).
		Model(&models.SiteModel{}).
		Scopes(TenantScope(site.TenantID)).
		Where("id = ?", site.ID).
		Updates(map[string]any{
			"name":       site.Name,
			"slug":       site.Slug,
			"budget":     site.Budget,
			"version":    site.Version,
			"updated_at": site.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a site. Budgets cascade in the schema; tickets keep a null site.
func (r *GormSiteRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("site_id = ?", id).Delete(&models.SiteBudgetModel{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.TicketModel{}).
			Scopes(TenantScope(tenantID)).
			Where("site_id = ?", id).
			Update("site_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.UserModel{}).
			Scopes(TenantScope(tenantID)).
			Where("site_id = ?", id).
			Update("site_id", nil).Error; err != nil {
			return err
		}
		result := tx.Scopes(TenantScope(tenantID)).Delete(&models.SiteModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// FindByID finds a site within a tenant
func (r *GormSiteRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*tenancy.Site, error) {
	var m models.SiteModel
	if err := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindAll lists the tenant's sites ordered by name
func (r *GormSiteRepository) FindAll(ctx context.Context, tenantID uuid.UUID) ([]*tenancy.Site, error) {
	var rows []models.SiteModel
	if err := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	sites := make([]*tenancy.Site, len(rows))
	for i := range rows {
		sites[i] = rows[i].ToDomain()
	}
	return sites, nil
}

// ExistsBySlug checks for a slug clash inside the tenant, ignoring excludeID
func (r *GormSiteRepository) ExistsBySlug(ctx context.Context, tenantID uuid.UUID, slug string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.SiteModel{}).
		Scopes(TenantScope(tenantID)).
		Where("slug = ?", slug)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GormSiteBudgetRepository implements tenancy.SiteBudgetRepository using GORM
type GormSiteBudgetRepository struct {
	db *gorm.DB
}

// NewGormSiteBudgetRepository creates a new GormSiteBudgetRepository
func NewGormSiteBudgetRepository(db *gorm.DB) *GormSiteBudgetRepository {
	return &GormSiteBudgetRepository{db: db}
}

// Upsert inserts the monthly row or overwrites the amount of the existing one
func (r *GormSiteBudgetRepository) Upsert(ctx context.Context, budget *tenancy.SiteBudget) (*tenancy.SiteBudget, error) {
	m := models.SiteBudgetModelFromDomain(budget)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "site_id"}, {Name: "year"}, {Name: "month"}},
		DoUpdates: clause.Assignments(map[string]any{
			"amount":     m.Amount,
			"updated_at": time.Now().UTC(),
		}),
	}).Create(m).Error
	if err != nil {
		return nil, translateError(err)
	}
	return r.FindForMonth(ctx, budget.TenantID, budget.SiteID, budget.Year, budget.Month)
}

// FindBySite lists a site's monthly budgets, newest period first
func (r *GormSiteBudgetRepository) FindBySite(ctx context.Context, tenantID, siteID uuid.UUID, year *int) ([]*tenancy.SiteBudget, error) {
	query := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		Where("site_id = ?", siteID)
	if year != nil {
		query = query.Where("year = ?", *year)
	}

	var rows []models.SiteBudgetModel
	if err := query.Order("year DESC").Order("month DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	budgets := make([]*tenancy.SiteBudget, len(rows))
	for i := range rows {
		budgets[i] = rows[i].ToDomain()
	}
	return budgets, nil
}

// FindForMonth finds the budget row of one period
func (r *GormSiteBudgetRepository) FindForMonth(ctx context.Context, tenantID, siteID uuid.UUID, year, month int) (*tenancy.SiteBudget, error) {
	var m models.SiteBudgetModel
	if err := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		Where("site_id = ? AND year = ? AND month = ?", siteID, year, month).
		First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindLatest returns the row with the greatest (year, month)
func (r *GormSiteBudgetRepository) FindLatest(ctx context.Context, tenantID, siteID uuid.UUID) (*tenancy.SiteBudget, error) {
	var m models.SiteBudgetModel
	if err := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		Where("site_id = ?", siteID).
		Order("year DESC").Order("month DESC").
		Take(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

type siteBudgetTotalRow struct {
	SiteID   uuid.UUID
	SiteName string
	SiteSlug string
	Budget   decimal.NullDecimal
}

// SumByYear sums the monthly amounts of every site for the year. Sites without rows total zero.
func (r *GormSiteBudgetRepository) SumByYear(ctx context.Context, tenantID uuid.UUID, year int) ([]tenancy.SiteBudgetTotal, error) {
	var rows []siteBudgetTotalRow
	err := r.db.WithContext(ctx).
		Table("sites").
		Select("sites.id AS site_id, sites.name AS site_name, sites.slug AS site_slug, SUM(site_budgets.amount) AS budget").
		Joins("LEFT JOIN site_budgets ON site_budgets.site_id = sites.id AND site_budgets.year = ?", year).
		Where("sites.tenant_id = ?", tenantID).
		Group("sites.id, sites.name, sites.slug").
		Order("sites.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	totals := make([]tenancy.SiteBudgetTotal, len(rows))
	for i, row := range rows {
		totals[i] = tenancy.SiteBudgetTotal{
			SiteID:   row.SiteID,
			SiteName: row.SiteName,
			SiteSlug: row.SiteSlug,
			Budget:   row.Budget.Decimal,
		}
	}
	return totals, nil
}
