package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/ticket"
	"github.com/shopspring/decimal"
)

// TicketModel is the persistence model of ticket.Ticket. Linked asset ids live in
// ticket_assets and are loaded by the repository.
type TicketModel struct {
	TenantAggregateModel
	Title            string              `gorm:"type:varchar(255);not null"`
	Description      string              `gorm:"type:text"`
	Status           ticket.Status       `gorm:"type:varchar(20);not null;default:'OPEN';index"`
	Priority         ticket.Priority     `gorm:"type:varchar(20);not null;default:'MEDIUM'"`
	SiteID           *uuid.UUID          `gorm:"type:uuid;index"`
	CreatedBy        uuid.UUID           `gorm:"type:uuid;not null;index"`
	AssigneeID       *uuid.UUID          `gorm:"type:uuid;index"`
	JobCard          string              `gorm:"type:varchar(500)"`
	Invoice          string              `gorm:"type:varchar(500)"`
	InvoiceAmount    decimal.NullDecimal `gorm:"type:numeric(12,2)"`
	AssignedAt       *time.Time
	ConfirmedAt      *time.Time
	StartedAt        *time.Time
	ResolvedAt       *time.Time `gorm:"index"`
	ClosedAt         *time.Time
	ClosedBy         *uuid.UUID `gorm:"type:uuid"`
	ContractorRating *int
	Feedback         string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (TicketModel) TableName() string {
	return "tickets"
}

// ToDomain converts the model to a ticket.Ticket without its asset links
func (m *TicketModel) ToDomain() *ticket.Ticket {
	t := &ticket.Ticket{
		TenantAggregateRoot: m.toTenantAggregate(),
		Title:               m.Title,
		Description:         m.Description,
		Status:              m.Status,
		Priority:            m.Priority,
		SiteID:              m.SiteID,
		CreatedBy:           m.CreatedBy,
		AssigneeID:          m.AssigneeID,
		JobCard:             m.JobCard,
		Invoice:             m.Invoice,
		AssetIDs:            []uuid.UUID{},
		AssignedAt:          m.AssignedAt,
		ConfirmedAt:         m.ConfirmedAt,
		StartedAt:           m.StartedAt,
		ResolvedAt:          m.ResolvedAt,
		ClosedAt:            m.ClosedAt,
		ClosedBy:            m.ClosedBy,
		ContractorRating:    m.ContractorRating,
		Feedback:            m.Feedback,
	}
	if m.InvoiceAmount.Valid {
		amount := m.InvoiceAmount.Decimal
		t.InvoiceAmount = &amount
	}
	return t
}

// TicketModelFromDomain builds a model from a ticket.Ticket
func TicketModelFromDomain(t *ticket.Ticket) *TicketModel {
	m := &TicketModel{
		Title:            t.Title,
		Description:      t.Description,
		Status:           t.Status,
		Priority:         t.Priority,
		SiteID:           t.SiteID,
		CreatedBy:        t.CreatedBy,
		AssigneeID:       t.AssigneeID,
		JobCard:          t.JobCard,
		Invoice:          t.Invoice,
		AssignedAt:       t.AssignedAt,
		ConfirmedAt:      t.ConfirmedAt,
		StartedAt:        t.StartedAt,
		ResolvedAt:       t.ResolvedAt,
		ClosedAt:         t.ClosedAt,
		ClosedBy:         t.ClosedBy,
		ContractorRating: t.ContractorRating,
		Feedback:         t.Feedback,
	}
	if t.InvoiceAmount != nil {
		m.InvoiceAmount = decimal.NewNullDecimal(*t.InvoiceAmount)
	}
	m.fromTenantAggregate(t.TenantAggregateRoot)
	return m
}

// TicketAssetModel is the ticket ↔ inventory asset join row
type TicketAssetModel struct {
	TicketID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	AssetID   uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TicketAssetModel) TableName() string {
	return "ticket_assets"
}

// TicketAttachmentModel is the persistence model of ticket.Attachment
type TicketAttachmentModel struct {
	BaseModel
	TenantID    uuid.UUID `gorm:"type:uuid;not null;index"`
	TicketID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"type:varchar(255)"`
	FileKey     string    `gorm:"type:varchar(500);not null"`
	ContentType string    `gorm:"type:varchar(100)"`
	Size        int64     `gorm:"not null;default:0"`
	UploadedBy  uuid.UUID `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (TicketAttachmentModel) TableName() string {
	return "ticket_attachments"
}

// ToDomain converts the model to a ticket.Attachment
func (m *TicketAttachmentModel) ToDomain() *ticket.Attachment {
	return &ticket.Attachment{
		BaseEntity:  m.toEntity(),
		TenantID:    m.TenantID,
		TicketID:    m.TicketID,
		Name:        m.Name,
		FileKey:     m.FileKey,
		ContentType: m.ContentType,
		Size:        m.Size,
		UploadedBy:  m.UploadedBy,
	}
}

// TicketAttachmentModelFromDomain builds a model from a ticket.Attachment
func TicketAttachmentModelFromDomain(a *ticket.Attachment) *TicketAttachmentModel {
	m := &TicketAttachmentModel{
		TenantID:    a.TenantID,
		TicketID:    a.TicketID,
		Name:        a.Name,
		FileKey:     a.FileKey,
		ContentType: a.ContentType,
		Size:        a.Size,
		UploadedBy:  a.UploadedBy,
	}
	m.fromEntity(a.BaseEntity)
	return m
}
