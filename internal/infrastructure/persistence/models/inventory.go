package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// AssetModel is the persistence model of inventory.Asset
type AssetModel struct {
	TenantAggregateModel
	Name         string          `gorm:"type:varchar(255);not null"`
	SerialNumber string          `gorm:"type:varchar(255)"`
	Image        string          `gorm:"type:varchar(500)"`
	Quantity     int             `gorm:"not null;default:0"`
	Cost         decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	Active       bool            `gorm:"not null;default:true"`
	Disabled     bool            `gorm:"not null;default:false"`
	CreatedBy    *uuid.UUID      `gorm:"type:uuid"`
	UpdatedBy    *uuid.UUID      `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (AssetModel) TableName() string {
	return "assets"
}

// ToDomain converts the model to an inventory.Asset
func (m *AssetModel) ToDomain() *inventory.Asset {
	a := &inventory.Asset{
		TenantAggregateRoot: m.toTenantAggregate(),
		Name:                m.Name,
		SerialNumber:        m.SerialNumber,
		Image:               m.Image,
		Quantity:            m.Quantity,
		Cost:                m.Cost,
		Active:              m.Active,
		Disabled:            m.Disabled,
		CreatedBy:           m.CreatedBy,
		UpdatedBy:           m.UpdatedBy,
	}
	a.MarkPersisted()
	return a
}

// AssetModelFromDomain builds a model from an inventory.Asset
func AssetModelFromDomain(a *inventory.Asset) *AssetModel {
	m := &AssetModel{
		Name:         a.Name,
		SerialNumber: a.SerialNumber,
		Image:        a.Image,
		Quantity:     a.Quantity,
		Cost:         a.Cost,
		Active:       a.Active,
		Disabled:     a.Disabled,
		CreatedBy:    a.CreatedBy,
		UpdatedBy:    a.UpdatedBy,
	}
	m.fromTenantAggregate(a.TenantAggregateRoot)
	return m
}

// AssetLogModel is an insert-only quantity history row
type AssetLogModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	AssetID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	Quantity  int        `gorm:"not null"`
	Change    int        `gorm:"column:change;not null"`
	Unit      string     `gorm:"type:varchar(50)"`
	CreatedBy *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AssetLogModel) TableName() string {
	return "asset_logs"
}

// ToDomain converts the model to an inventory.AssetLog
func (m *AssetLogModel) ToDomain() *inventory.AssetLog {
	return &inventory.AssetLog{
		ID:        m.ID,
		AssetID:   m.AssetID,
		Quantity:  m.Quantity,
		Change:    m.Change,
		Unit:      m.Unit,
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt,
	}
}

// AssetLogModelFromDomain builds a model from an inventory.AssetLog
func AssetLogModelFromDomain(l *inventory.AssetLog) *AssetLogModel {
	return &AssetLogModel{
		ID:        l.ID,
		AssetID:   l.AssetID,
		Quantity:  l.Quantity,
		Change:    l.Change,
		Unit:      l.Unit,
		CreatedBy: l.CreatedBy,
		CreatedAt: l.CreatedAt,
	}
}
