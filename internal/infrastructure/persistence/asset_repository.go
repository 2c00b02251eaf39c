package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/inventory"
	"github.com/helpdesk/backend/internal/domain/shared"
	"github.com/helpdesk/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAssetRepository implements inventory.AssetRepository using GORM
type GormAssetRepository struct {
	db *gorm.DB
}

// NewGormAssetRepository creates a new GormAssetRepository
func NewGormAssetRepository(db *gorm.DB) *GormAssetRepository {
	return &GormAssetRepository{db: db}
}

// Create inserts the asset and its opening log entry
func (r *GormAssetRepository) Create(ctx context.Context, asset *inventory.Asset) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.AssetModelFromDomain(asset)).Error; err != nil {
			return err
		}
		return r.insertLogs(tx, asset)
	})
	if err != nil {
		return translateError(err)
	}
	asset.MarkPersisted()
	return nil
}

// Update writes the asset and appends its pending log entries. The UPDATE is
// conditional on the version the asset was loaded with.
func (r *GormAssetRepository) Update(ctx context.Context, asset *inventory.Asset) error {
	m := models.AssetModelFromDomain(asset)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.AssetModel{}).
			Scopes(TenantScope(asset.TenantID)).
			Where("id = ? AND version = ?", asset.ID, asset.StoredVersion()).
			Updates(map[string]any{
				"name":          m.Name,
				"serial_number": m.SerialNumber,
				"image":         m.Image,
				"quantity":      m.Quantity,
				"cost":          m.Cost,
				"active":        m.Active,
				"disabled":      m.Disabled,
				"updated_by":    m.UpdatedBy,
				"version":       m.Version,
				"updated_at":    m.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.AssetModel{}).
				Scopes(TenantScope(asset.TenantID)).
				Where("id = ?", asset.ID).
				Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return shared.ErrNotFound
			}
			return shared.ErrConcurrencyConflict
		}
		return r.insertLogs(tx, asset)
	})
	if err != nil {
		return translateError(err)
	}
	asset.MarkPersisted()
	return nil
}

func (r *GormAssetRepository) insertLogs(tx *gorm.DB, asset *inventory.Asset) error {
	for _, l := range asset.PendingLogs() {
		l.AssetID = asset.ID
		if err := tx.Create(models.AssetLogModelFromDomain(l)).Error; err != nil {
			return err
		}
	}
	return nil
}

// FindByID finds an asset of the tenant, disabled ones included
func (r *GormAssetRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*inventory.Asset, error) {
	var m models.AssetModel
	if err := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindByIDs loads the tenant's assets among ids
func (r *GormAssetRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*inventory.Asset, error) {
	if len(ids) == 0 {
		return []*inventory.Asset{}, nil
	}
	var rows []models.AssetModel
	if err := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		Where("id IN ?", ids).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toAssets(rows), nil
}

// FindAll lists the tenant's assets; disabled assets are hidden unless requested
func (r *GormAssetRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter inventory.AssetFilter) ([]*inventory.Asset, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AssetModel{}).Scopes(TenantScope(tenantID))

	if !filter.IncludeDisabled {
		query = query.Where("disabled = ?", false)
	}
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}
	if filter.Search != "" {
		p := containsPattern(filter.Search)
		query = query.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(serial_number) LIKE ? ESCAPE '\')`, p, p)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.AssetModel
	if err := query.
		Scopes(OrderBy(filter.SortBy, filter.SortOrder, AssetSortFields, "created_at"), Paginate(filter.Page)).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toAssets(rows), total, nil
}

// ExistsByName checks for a case-insensitive name clash in the tenant
func (r *GormAssetRepository) ExistsByName(ctx context.Context, tenantID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.AssetModel{}).
		Scopes(TenantScope(tenantID)).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name)))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindLogs returns an asset's history, newest first
func (r *GormAssetRepository) FindLogs(ctx context.Context, tenantID, assetID uuid.UUID) ([]*inventory.AssetLog, error) {
	var rows []models.AssetLogModel
	err := r.db.WithContext(ctx).
		Joins("JOIN assets ON assets.id = asset_logs.asset_id").
		Where("assets.tenant_id = ? AND asset_logs.asset_id = ?", tenantID, assetID).
		Order("asset_logs.created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	logs := make([]*inventory.AssetLog, len(rows))
	for i := range rows {
		logs[i] = rows[i].ToDomain()
	}
	return logs, nil
}

func toAssets(rows []models.AssetModel) []*inventory.Asset {
	out := make([]*inventory.Asset, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}
