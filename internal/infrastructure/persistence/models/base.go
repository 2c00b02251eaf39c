package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/shared"
)

// BaseModel maps shared.BaseEntity
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (m *BaseModel) fromEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

func (m *BaseModel) toEntity() shared.BaseEntity {
	return shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

// AggregateModel adds the optimistic locking version
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

func (m *AggregateModel) fromAggregate(a shared.BaseAggregateRoot) {
	m.fromEntity(a.BaseEntity)
	m.Version = a.Version
}

func (m *AggregateModel) toAggregate() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{BaseEntity: m.toEntity(), Version: m.Version}
}

// TenantAggregateModel is the base of every tenant-owned aggregate table
type TenantAggregateModel struct {
	AggregateModel
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
}

func (m *TenantAggregateModel) fromTenantAggregate(t shared.TenantAggregateRoot) {
	m.fromAggregate(t.BaseAggregateRoot)
	m.TenantID = t.TenantID
}

func (m *TenantAggregateModel) toTenantAggregate() shared.TenantAggregateRoot {
	return shared.TenantAggregateRoot{BaseAggregateRoot: m.toAggregate(), TenantID: m.TenantID}
}

// AllModels lists every model in dependency order, for AutoMigrate in tests and seeding
func AllModels() []any {
	return []any{
		&TenantModel{},
		&SiteModel{},
		&SiteBudgetModel{},
		&UserModel{},
		&PasswordResetOTPModel{},
		&AssetModel{},
		&AssetLogModel{},
		&TicketModel{},
		&TicketAssetModel{},
		&TicketAttachmentModel{},
	}
}
