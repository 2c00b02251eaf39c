package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/shared"
	"github.com/helpdesk/backend/internal/domain/tenancy"
	"github.com/helpdesk/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTenantRepository implements tenancy.TenantRepository using GORM
type GormTenantRepository struct {
	db *gorm.DB
}

// NewGormTenantRepository creates a new GormTenantRepository
func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

// Create inserts a tenant
func (r *GormTenantRepository) Create(ctx context.Context, tenant *tenancy.Tenant) error {
	return translateError(r.db.WithContext(ctx).Create(models.TenantModelFromDomain(tenant)).Error)
}

// FindByID finds a tenant by ID
func (r *GormTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*tenancy.Tenant, error) {
	var m models.TenantModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindBySlug finds a tenant by its URL slug
func (r *GormTenantRepository) FindBySlug(ctx context.Context, slug string) (*tenancy.Tenant, error) {
	var m models.TenantModel
	if err := r.db.WithContext(ctx).
		Where("slug = ?", strings.ToLower(slug)).
		First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// ExistsBySlug checks if a slug is taken
func (r *GormTenantRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.TenantModel{}).
		Where("slug = ?", strings.ToLower(slug)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindAll lists tenants ordered by name
func (r *GormTenantRepository) FindAll(ctx context.Context, page shared.Page) ([]*tenancy.Tenant, int64, error) {
	var total int64
	query := r.db.WithContext(ctx).Model(&models.TenantModel{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.TenantModel
	if err := query.Order("name ASC").Scopes(Paginate(page)).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	tenants := make([]*tenancy.Tenant, len(rows))
	for i := range rows {
		tenants[i] = rows[i].ToDomain()
	}
	return tenants, total, nil
}
