package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Asset is a tenant-owned stock item whose quantity is tracked by an audit log
type Asset struct {
	shared.TenantAggregateRoot
	Name         string
	SerialNumber string
	Image        string // storage key
	Quantity     int
	Cost         decimal.Decimal // unit cost
	Active       bool
	Disabled     bool
	CreatedBy    *uuid.UUID
	UpdatedBy    *uuid.UUID

	pendingLogs   []*AssetLog
	storedVersion int
}

// AssetLog is one immutable entry of an asset's quantity history
type AssetLog struct {
	ID        uuid.UUID
	AssetID   uuid.UUID
	Quantity  int // quantity after the change
	Change    int // signed delta from the previous quantity
	Unit      string
	CreatedBy *uuid.UUID
	CreatedAt time.Time
}

// NewAsset creates an asset. The initial stock is logged with change == quantity.
func NewAsset(tenantID uuid.UUID, name, serial string, quantity int, cost decimal.Decimal, createdBy *uuid.UUID) (*Asset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Name is required")
	}
	if len(name) > 255 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Name cannot exceed 255 characters")
	}
	if quantity < 1 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Quantity must be greater than 0")
	}
	if cost.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Cost cannot be negative")
	}

	a := &Asset{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		SerialNumber:        strings.TrimSpace(serial),
		Quantity:            quantity,
		Cost:                cost.Round(2),
		Active:              true,
		CreatedBy:           createdBy,
		UpdatedBy:           createdBy,
	}
	a.appendLog(quantity, "", createdBy)
	return a, nil
}

// Rename changes the descriptive fields
func (a *Asset) Rename(name, serial string, by *uuid.UUID) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Name is required")
	}
	if len(name) > 255 {
		return shared.NewDomainError("VALIDATION_ERROR", "Name cannot exceed 255 characters")
	}
	a.Name = name
	a.SerialNumber = strings.TrimSpace(serial)
	a.markUpdated(by)
	return nil
}

// SetCost changes the unit cost
func (a *Asset) SetCost(cost decimal.Decimal, by *uuid.UUID) error {
	if cost.IsNegative() {
		return shared.NewDomainError("VALIDATION_ERROR", "Cost cannot be negative")
	}
	a.Cost = cost.Round(2)
	a.markUpdated(by)
	return nil
}

// SetQuantity records a new stock level. Exactly one log entry is produced per
// actual change; setting the same quantity logs nothing.
func (a *Asset) SetQuantity(quantity int, unit string, by *uuid.UUID) error {
	if quantity < 0 {
		return shared.NewDomainError("VALIDATION_ERROR", "Quantity cannot be negative")
	}
	if quantity == a.Quantity {
		return nil
	}
	delta := quantity - a.Quantity
	a.Quantity = quantity
	a.markUpdated(by)
	a.appendLog(delta, unit, by)
	return nil
}

// SetActive toggles the active flag
func (a *Asset) SetActive(active bool, by *uuid.UUID) {
	a.Active = active
	a.markUpdated(by)
}

// SetImage replaces the image and returns the key it replaced
func (a *Asset) SetImage(key string, by *uuid.UUID) string {
	old := a.Image
	a.Image = key
	a.markUpdated(by)
	return old
}

// Disable soft-deletes the asset
func (a *Asset) Disable(by *uuid.UUID) {
	a.Disabled = true
	a.markUpdated(by)
}

// PendingLogs returns log entries not yet persisted
func (a *Asset) PendingLogs() []*AssetLog {
	return a.pendingLogs
}

// ClearPendingLogs drops persisted log entries
func (a *Asset) ClearPendingLogs() {
	a.pendingLogs = nil
}

// MarkPersisted records that the asset as it stands has been read from or
// written to storage
func (a *Asset) MarkPersisted() {
	a.storedVersion = a.Version
	a.pendingLogs = nil
}

// StoredVersion is the version last read or written; updates are conditional on it
func (a *Asset) StoredVersion() int {
	return a.storedVersion
}

func (a *Asset) appendLog(change int, unit string, by *uuid.UUID) {
	a.pendingLogs = append(a.pendingLogs, &AssetLog{
		ID:        uuid.New(),
		AssetID:   a.ID,
		Quantity:  a.Quantity,
		Change:    change,
		Unit:      strings.TrimSpace(unit),
		CreatedBy: by,
		CreatedAt: shared.Now(),
	})
}

func (a *Asset) markUpdated(by *uuid.UUID) {
	if by != nil {
		a.UpdatedBy = by
	}
	a.Touch()
	a.IncrementVersion()
}
