package ticket

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Filter contains filter options for listing tickets
type Filter struct {
	Status     *Status
	Priority   *Priority
	SiteID     *uuid.UUID
	AssigneeID *uuid.UUID
	CreatedBy  *uuid.UUID
	Search     string
	SortBy     string
	SortOrder  string
	shared.Page
}

// Stats aggregates ticket counts of a tenant
type Stats struct {
	Total         int64
	ByStatus      map[Status]int64
	ByPriority    map[Priority]int64
	TotalInvoiced decimal.Decimal
}

// Repository defines the interface for ticket persistence
type Repository interface {
	Create(ctx context.Context, t *Ticket) error
	// Update writes the ticket guarded by its version; a stale version yields
	// shared.ErrConcurrencyConflict and nothing is written.
	Update(ctx context.Context, t *Ticket) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Ticket, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]*Ticket, int64, error)
	Stats(ctx context.Context, tenantID uuid.UUID) (*Stats, error)
	// SumInvoiceAmountResolvedBetween sums invoice_amount of the site's tickets with resolved_at in [from, to)
	SumInvoiceAmountResolvedBetween(ctx context.Context, tenantID, siteID uuid.UUID, from, to time.Time) (decimal.Decimal, error)
	LinkAsset(ctx context.Context, tenantID, ticketID, assetID uuid.UUID) error
	UnlinkAsset(ctx context.Context, tenantID, ticketID, assetID uuid.UUID) error
}

// AttachmentRepository defines the interface for ticket attachment persistence
type AttachmentRepository interface {
	Create(ctx context.Context, a *Attachment) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Attachment, error)
	FindByTicket(ctx context.Context, tenantID, ticketID uuid.UUID) ([]*Attachment, error)
}
