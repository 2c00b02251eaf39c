// Package inventory holds the asset use cases. Every quantity change is written
// together with its log entry.
package inventory

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/identity"
	"github.com/helpdesk/backend/internal/domain/inventory"
	"github.com/helpdesk/backend/internal/domain/shared"
	"github.com/helpdesk/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// FileStore persists uploaded blobs by key
type FileStore interface {
	Save(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
}

var imageContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// AssetService handles asset operations inside a tenant
type AssetService struct {
	assetRepo inventory.AssetRepository
	files     FileStore
	logger    *zap.Logger
}

// NewAssetService creates a new AssetService
func NewAssetService(assetRepo inventory.AssetRepository, files FileStore, logger *zap.Logger) *AssetService {
	return &AssetService{
		assetRepo: assetRepo,
		files:     files,
		logger:    logger,
	}
}

// List returns the tenant's assets. Disabled assets are hidden unless the filter asks for them.
func (s *AssetService) List(ctx context.Context, p identity.Principal, tenantID uuid.UUID, filter inventory.AssetFilter) (shared.Paginated[*inventory.Asset], error) {
	if identity.SeesNothing(p) {
		return shared.NewPaginated[*inventory.Asset](nil, 0, filter.Page), nil
	}
	if err := identity.Authorize(p, tenantID, identity.ActionAssetView); err != nil {
		return shared.Paginated[*inventory.Asset]{}, err
	}
	items, total, err := s.assetRepo.FindAll(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[*inventory.Asset]{}, fmt.Errorf("list assets: %w", err)
	}
	return shared.NewPaginated(items, total, filter.Page), nil
}

// Get returns one asset
func (s *AssetService) Get(ctx context.Context, p identity.Principal, tenantID, id uuid.UUID) (*inventory.Asset, error) {
	if err := identity.Authorize(p, tenantID, identity.ActionAssetView); err != nil {
		return nil, err
	}
	return s.assetRepo.FindByID(ctx, tenantID, id)
}

// Create adds an asset; the initial stock becomes its first log entry
func (s *AssetService) Create(ctx context.Context, p identity.Principal, tenantID uuid.UUID, input CreateAssetInput) (*inventory.Asset, error) {
	if err := identity.Authorize(p, tenantID, identity.ActionAssetManage); err != nil {
		return nil, err
	}
	by := p.UserID
	asset, err := inventory.NewAsset(tenantID, input.Name, input.SerialNumber, input.Quantity, input.Cost, &by)
	if err != nil {
		return nil, err
	}
	if unit := strings.TrimSpace(input.Unit); unit != "" {
		for _, l := range asset.PendingLogs() {
			l.Unit = unit
		}
	}
	if err := s.ensureNameFree(ctx, tenantID, asset.Name, nil); err != nil {
		return nil, err
	}
	if err := s.assetRepo.Create(ctx, asset); err != nil {
		return nil, fmt.Errorf("create asset: %w", err)
	}
	s.logger.Info("Asset created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("asset_id", asset.ID.String()),
		zap.Int("quantity", asset.Quantity))
	return asset, nil
}

// Update applies changes in one write. A quantity change appends exactly one log entry.
func (s *AssetService) Update(ctx context.Context, p identity.Principal, tenantID, id uuid.UUID, input UpdateAssetInput) (*inventory.Asset, error) {
	if err := identity.Authorize(p, tenantID, identity.ActionAssetManage); err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "asset", "update",
		telemetry.ID(telemetry.AttrTenantID, tenantID),
		telemetry.ID(telemetry.AttrAssetID, id),
	)
	defer span.End()

	asset, err := s.assetRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	by := p.UserID

	if input.Name != nil || input.SerialNumber != nil {
		name, serial := asset.Name, asset.SerialNumber
		if input.Name != nil {
			name = *input.Name
		}
		if input.SerialNumber != nil {
			serial = *input.SerialNumber
		}
		if err := asset.Rename(name, serial, &by); err != nil {
			return nil, err
		}
		if err := s.ensureNameFree(ctx, tenantID, asset.Name, &asset.ID); err != nil {
			return nil, err
		}
	}
	if input.Cost != nil {
		if err := asset.SetCost(*input.Cost, &by); err != nil {
			return nil, err
		}
	}
	if input.Quantity != nil {
		if err := asset.SetQuantity(*input.Quantity, input.Unit, &by); err != nil {
			return nil, err
		}
	}
	if input.Active != nil && *input.Active != asset.Active {
		asset.SetActive(*input.Active, &by)
	}

	if err := s.assetRepo.Update(ctx, asset); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("update asset: %w", err)
	}
	telemetry.SetOK(span)
	return asset, nil
}

// Disable soft-deletes the asset; its log is kept
func (s *AssetService) Disable(ctx context.Context, p identity.Principal, tenantID, id uuid.UUID) error {
	if err := identity.Authorize(p, tenantID, identity.ActionAssetManage); err != nil {
		return err
	}
	asset, err := s.assetRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if asset.Disabled {
		return nil
	}
	by := p.UserID
	asset.Disable(&by)
	if err := s.assetRepo.Update(ctx, asset); err != nil {
		return fmt.Errorf("disable asset: %w", err)
	}
	s.logger.Info("Asset disabled",
		zap.String("tenant_id", tenantID.String()),
		zap.String("asset_id", id.String()))
	return nil
}

// SetImage replaces the asset image and deletes the previous blob
func (s *AssetService) SetImage(ctx context.Context, p identity.Principal, tenantID, id uuid.UUID, img ImageUpload) (*inventory.Asset, error) {
	if err := identity.Authorize(p, tenantID, identity.ActionAssetManage); err != nil {
		return nil, err
	}
	if img.Body == nil {
		return nil, shared.NewDomainError("INVALID_FILE", "Image is required")
	}
	contentType, _, err := mime.ParseMediaType(img.ContentType)
	if err != nil || !imageContentTypes[contentType] {
		return nil, shared.NewDomainError("INVALID_FILE", "Image must be JPEG, PNG, GIF or WebP")
	}
	asset, err := s.assetRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	key := path.Join("assets", tenantID.String(), id.String(), uuid.NewString()+strings.ToLower(path.Ext(img.Name)))
	if err := s.files.Save(ctx, key, img.Body, img.Size, contentType); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}
	by := p.UserID
	old := asset.SetImage(key, &by)
	if err := s.assetRepo.Update(ctx, asset); err != nil {
		s.deleteFile(ctx, key)
		return nil, fmt.Errorf("update asset: %w", err)
	}
	s.deleteFile(ctx, old)
	return asset, nil
}

// Logs returns the asset's quantity history, newest first
func (s *AssetService) Logs(ctx context.Context, p identity.Principal, tenantID, id uuid.UUID) ([]*inventory.AssetLog, error) {
	if err := identity.Authorize(p, tenantID, identity.ActionAssetView); err != nil {
		return nil, err
	}
	if _, err := s.assetRepo.FindByID(ctx, tenantID, id); err != nil {
		return nil, err
	}
	return s.assetRepo.FindLogs(ctx, tenantID, id)
}

func (s *AssetService) ensureNameFree(ctx context.Context, tenantID uuid.UUID, name string, excludeID *uuid.UUID) error {
	exists, err := s.assetRepo.ExistsByName(ctx, tenantID, name, excludeID)
	if err != nil {
		return fmt.Errorf("check asset name: %w", err)
	}
	if exists {
		return shared.NewDomainError("ALREADY_EXISTS", "An asset with this name already exists")
	}
	return nil
}

func (s *AssetService) deleteFile(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.files.Delete(ctx, key); err != nil {
		s.logger.Warn("Failed to delete stored file", zap.String("key", key), zap.Error(err))
	}
}
