package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/ticket"
	"github.com/shopspring/decimal"
)

// =====================
// Ticket Request DTOs
// =====================

// CreateTicketRequest represents the request body for opening a ticket
type CreateTicketRequest struct {
	Title       string     `json:"title" binding:"required,max=255"`
	Description string     `json:"description" binding:"max=10000"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	SiteID      *uuid.UUID `json:"site_id"`
}

// UpdateTicketRequest represents the request body for editing a ticket. Status
// only changes through the lifecycle endpoints.
type UpdateTicketRequest struct {
	Title         *string          `json:"title" binding:"omitempty,min=1,max=255"`
	Description   *string          `json:"description" binding:"omitempty,max=10000"`
	Priority      *string          `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	SiteID        *uuid.UUID       `json:"site_id"`
	ClearSite     bool             `json:"clear_site"`
	InvoiceAmount *decimal.Decimal `json:"invoice_amount"`
}

// AssignTicketRequest names the contractor a ticket is assigned to
type AssignTicketRequest struct {
	AssigneeID uuid.UUID `json:"assignee_id" binding:"required"`
}

// CloseTicketRequest carries the optional rating and feedback given on close
type CloseTicketRequest struct {
	Rating   *int   `json:"rating" binding:"omitempty,min=1,max=5"`
	Feedback string `json:"feedback" binding:"max=5000"`
}

// LinkAssetRequest names the inventory asset to link to a ticket
type LinkAssetRequest struct {
	AssetID uuid.UUID `json:"asset_id" binding:"required"`
}

// TicketListQuery represents query parameters for listing tickets
type TicketListQuery struct {
	Status     string `form:"status" binding:"omitempty,oneof=OPEN ASSIGNED IN_PROGRESS RESOLVED CLOSED"`
	Priority   string `form:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	SiteID     string `form:"site_id" binding:"omitempty,uuid"`
	AssigneeID string `form:"assignee_id" binding:"omitempty,uuid"`
	Search     string `form:"search" binding:"max=100"`
	SortBy     string `form:"sort_by" binding:"omitempty,oneof=created_at updated_at priority status title resolved_at"`
	SortOrder  string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

func (q TicketListQuery) toFilter() ticket.Filter {
	f := ticket.Filter{
		Search:    q.Search,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
	}
	f.Page.Page, f.Page.PageSize = q.Page, q.PageSize
	if q.Status != "" {
		s := ticket.Status(q.Status)
		f.Status = &s
	}
	if q.Priority != "" {
		p := ticket.Priority(q.Priority)
		f.Priority = &p
	}
	if q.SiteID != "" {
		id := uuid.MustParse(q.SiteID)
		f.SiteID = &id
	}
	if q.AssigneeID != "" {
		id := uuid.MustParse(q.AssigneeID)
		f.AssigneeID = &id
	}
	return f
}

// =====================
// Ticket Response DTOs
// =====================

// TicketResponse represents a ticket in API responses. Documents are absolute URLs.
type TicketResponse struct {
	ID               uuid.UUID        `json:"id"`
	TenantID         uuid.UUID        `json:"tenant_id"`
	SiteID           *uuid.UUID       `json:"site_id"`
	CreatedBy        uuid.UUID        `json:"created_by"`
	AssigneeID       *uuid.UUID       `json:"assignee_id"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	Status           string           `json:"status"`
	Priority         string           `json:"priority"`
	JobCard          string           `json:"job_card,omitempty"`
	Invoice          string           `json:"invoice,omitempty"`
	InvoiceAmount    *decimal.Decimal `json:"invoice_amount"`
	Assets           []uuid.UUID      `json:"assets"`
	AssignedAt       *time.Time       `json:"assigned_at"`
	ConfirmedAt      *time.Time       `json:"confirmed_at"`
	StartedAt        *time.Time       `json:"started_at"`
	ResolvedAt       *time.Time       `json:"resolved_at"`
	ClosedAt         *time.Time       `json:"closed_at"`
	ClosedBy         *uuid.UUID       `json:"closed_by"`
	ContractorRating *int             `json:"contractor_rating"`
	Feedback         string           `json:"feedback"`
	Version          int              `json:"version"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func toTicketResponse(c *gin.Context, files FileURLs, t *ticket.Ticket) TicketResponse {
	assets := t.AssetIDs
	if assets == nil {
		assets = []uuid.UUID{}
	}
	return TicketResponse{
		ID:               t.ID,
		TenantID:         t.TenantID,
		SiteID:           t.SiteID,
		CreatedBy:        t.CreatedBy,
		AssigneeID:       t.AssigneeID,
		Title:            t.Title,
		Description:      t.Description,
		Status:           string(t.Status),
		Priority:         string(t.Priority),
		JobCard:          fileURL(c, files, t.JobCard),
		Invoice:          fileURL(c, files, t.Invoice),
		InvoiceAmount:    t.InvoiceAmount,
		Assets:           assets,
		AssignedAt:       t.AssignedAt,
		ConfirmedAt:      t.ConfirmedAt,
		StartedAt:        t.StartedAt,
		ResolvedAt:       t.ResolvedAt,
		ClosedAt:         t.ClosedAt,
		ClosedBy:         t.ClosedBy,
		ContractorRating: t.ContractorRating,
		Feedback:         t.Feedback,
		Version:          t.Version,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func toTicketResponses(c *gin.Context, files FileURLs, tickets []*ticket.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, toTicketResponse(c, files, t))
	}
	return out
}

// AttachmentResponse represents a ticket photo or document
type AttachmentResponse struct {
	ID          uuid.UUID `json:"id"`
	TicketID    uuid.UUID `json:"ticket_id"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadedBy  uuid.UUID `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

func toAttachmentResponses(c *gin.Context, files FileURLs, attachments []*ticket.Attachment) []AttachmentResponse {
	out := make([]AttachmentResponse, 0, len(attachments))
	for _, a := range attachments {
		out = append(out, toAttachmentResponse(c, files, a))
	}
	return out
}

func toAttachmentResponse(c *gin.Context, files FileURLs, a *ticket.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:          a.ID,
		TicketID:    a.TicketID,
		Name:        a.Name,
		URL:         fileURL(c, files, a.FileKey),
		ContentType: a.ContentType,
		Size:        a.Size,
		UploadedBy:  a.UploadedBy,
		CreatedAt:   a.CreatedAt,
	}
}

// TicketStatsResponse holds tenant ticket totals. Every status and priority is
// present, zero when no ticket has it.
type TicketStatsResponse struct {
	Total         int64            `json:"total"`
	Open          int64            `json:"open"`
	ByStatus      map[string]int64 `json:"by_status"`
	ByPriority    map[string]int64 `json:"by_priority"`
	TotalInvoiced decimal.Decimal  `json:"total_invoiced"`
}

func toTicketStatsResponse(s *ticket.Stats) TicketStatsResponse {
	resp := TicketStatsResponse{
		Total:         s.Total,
		ByStatus:      make(map[string]int64, len(ticket.AllStatuses)),
		ByPriority:    make(map[string]int64, len(ticket.AllPriorities)),
		TotalInvoiced: s.TotalInvoiced,
	}
	for _, st := range ticket.AllStatuses {
		n := s.ByStatus[st]
		resp.ByStatus[string(st)] = n
		if st != ticket.StatusResolved && st != ticket.StatusClosed {
			resp.Open += n
		}
	}
	for _, p := range ticket.AllPriorities {
		resp.ByPriority[string(p)] = s.ByPriority[p]
	}
	return resp
}
