package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/shared"
)

// AssetFilter contains filter options for listing assets
type AssetFilter struct {
	Search          string
	Active          *bool
	IncludeDisabled bool
	SortBy          string
	SortOrder       string
	shared.Page
}

// AssetRepository persists assets together with their pending log entries.
// Log entries are insert-only; no method updates or deletes them.
type AssetRepository interface {
	// Create inserts the asset and its pending logs in one transaction
	Create(ctx context.Context, asset *Asset) error
	// Update writes the asset and its pending logs in one transaction
	Update(ctx context.Context, asset *Asset) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Asset, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*Asset, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter AssetFilter) ([]*Asset, int64, error)
	ExistsByName(ctx context.Context, tenantID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error)
	// FindLogs returns the asset's log entries, newest first
	FindLogs(ctx context.Context, tenantID, assetID uuid.UUID) ([]*AssetLog, error)
}
