package models

import (
	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/tenancy"
	"github.com/shopspring/decimal"
)

// TenantModel is the persistence model of tenancy.Tenant
type TenantModel struct {
	AggregateModel
	Name   string `gorm:"type:varchar(255);not null"`
	Slug   string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Domain string `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (TenantModel) TableName() string {
	return "tenants"
}

// ToDomain converts the model to a tenancy.Tenant
func (m *TenantModel) ToDomain() *tenancy.Tenant {
	return &tenancy.Tenant{
		BaseAggregateRoot: m.toAggregate(),
		Name:              m.Name,
		Slug:              m.Slug,
		Domain:            m.Domain,
	}
}

// TenantModelFromDomain builds a model from a tenancy.Tenant
func TenantModelFromDomain(t *tenancy.Tenant) *TenantModel {
	m := &TenantModel{Name: t.Name, Slug: t.Slug, Domain: t.Domain}
	m.fromAggregate(t.BaseAggregateRoot)
	return m
}

// SiteModel is the persistence model of tenancy.Site
type SiteModel struct {
	TenantAggregateModel
	Name   string          `gorm:"type:varchar(255);not null"`
	Slug   string          `gorm:"type:varchar(255);not null"`
	Budget decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (SiteModel) TableName() string {
	return "sites"
}

// ToDomain converts the model to a tenancy.Site
func (m *SiteModel) ToDomain() *tenancy.Site {
	return &tenancy.Site{
		TenantAggregateRoot: m.toTenantAggregate(),
		Name:                m.Name,
		Slug:                m.Slug,
		Budget:              m.Budget,
	}
}

// SiteModelFromDomain builds a model from a tenancy.Site
func SiteModelFromDomain(s *tenancy.Site) *SiteModel {
	m := &SiteModel{Name: s.Name, Slug: s.Slug, Budget: s.Budget}
	m.fromTenantAggregate(s.TenantAggregateRoot)
	return m
}

// SiteBudgetModel is the persistence model of tenancy.SiteBudget.
// (site_id, year, month) is unique.
type SiteBudgetModel struct {
	BaseModel
	TenantID uuid.UUID       `gorm:"type:uuid;not null;index"`
	SiteID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_site_budget_period"`
	Year     int             `gorm:"not null;uniqueIndex:uq_site_budget_period"`
	Month    int             `gorm:"not null;uniqueIndex:uq_site_budget_period"`
	Amount   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (SiteBudgetModel) TableName() string {
	return "site_budgets"
}

// ToDomain converts the model to a tenancy.SiteBudget
func (m *SiteBudgetModel) ToDomain() *tenancy.SiteBudget {
	return &tenancy.SiteBudget{
		BaseEntity: m.toEntity(),
		TenantID:   m.TenantID,
		SiteID:     m.SiteID,
		Year:       m.Year,
		Month:      m.Month,
		Amount:     m.Amount,
	}
}

// SiteBudgetModelFromDomain builds a model from a tenancy.SiteBudget
func SiteBudgetModelFromDomain(b *tenancy.SiteBudget) *SiteBudgetModel {
	m := &SiteBudgetModel{
		TenantID: b.TenantID,
		SiteID:   b.SiteID,
		Year:     b.Year,
		Month:    b.Month,
		Amount:   b.Amount,
	}
	m.fromEntity(b.BaseEntity)
	return m
}
