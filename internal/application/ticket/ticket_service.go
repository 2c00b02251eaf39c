// Package ticket holds the ticket use cases: CRUD, the lifecycle transitions,
// documents, photo attachments and linked assets.
package ticket

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/identity"
	"github.com/helpdesk/backend/internal/domain/inventory"
	"github.com/helpdesk/backend/internal/domain/shared"
	"github.com/helpdesk/backend/internal/domain/tenancy"
	"github.com/helpdesk/backend/internal/domain/ticket"
	"github.com/helpdesk/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// TicketService handles ticket operations inside a tenant
type TicketService struct {
	ticketRepo     ticket.Repository
	attachmentRepo ticket.AttachmentRepository
	userRepo       identity.UserRepository
	siteRepo       tenancy.SiteRepository
	assetRepo      inventory.AssetRepository
	files          FileStore
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewTicketService creates a new TicketService
func NewTicketService(
	ticketRepo ticket.Repository,
	attachmentRepo ticket.AttachmentRepository,
	userRepo identity.UserRepository,
	siteRepo tenancy.SiteRepository,
	assetRepo inventory.AssetRepository,
	files FileStore,
	logger *zap.Logger,
) *TicketService {
	return &TicketService{
		ticketRepo:     ticketRepo,
		attachmentRepo: attachmentRepo,
		userRepo:       userRepo,
		siteRepo:       siteRepo,
		assetRepo:      assetRepo,
		files:          files,
		logger:         logger,
	}
}

// SetEventPublisher sets the publisher ticket events are sent to after each write
func (s *TicketService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// List returns the tenant's tickets, newest first
func (s *TicketService) List(ctx context.Context, p identity.Principal, tenantID uuid.UUID, filter ticket.Filter) (shared.Paginated[*ticket.Ticket], error) {
	if identity.SeesNothing(p) {
		return shared.NewPaginated[*ticket.Ticket](nil, 0, filter.Page), nil
	}
	if err := identity.Authorize(p, tenantID, identity.ActionTicketView); err != nil {
		return shared.Paginated[*ticket.Ticket]{}, err
	}
	items, total, err := s.ticketRepo.FindAll(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[*ticket.Ticket]{}, fmt.Errorf("list tickets: %w", err)
	}
	return shared.NewPaginated(items, total, filter.Page), nil
}

// Get returns one ticket
func (s *TicketService) Get(ctx context.Context, p identity.Principal, tenantID, id uuid.UUID) (*ticket.Ticket, error) {
	if err := identity.Authorize(p, tenantID, identity.ActionTicketView); err != nil {
		return nil, err
	}
	return s.ticketRepo.FindByID(ctx, tenantID, id)
}

// Create opens a ticket reported by the caller
func (s *TicketService) Create(ctx context.Context, p identity.Principal, tenantID uuid.UUID, input CreateTicketInput) (*ticket.Ticket, error) {
	if err := identity.Authorize(p, tenantID, identity.ActionTicketCreate); err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "ticket", "create")
	defer span.End()

	priority, err := ticket.ParsePriority(input.Priority)
	if err != nil {
		return nil, err
	}
	if input.SiteID != nil {
		if err := s.ensureSite(ctx, tenantID, *input.SiteID); err != nil {
			return nil, err
		}
	}

	t, err := ticket.NewTicket(tenantID, p.UserID, input.Title, input.Description, priority, input.SiteID)
	if err != nil {
		return nil, err
	}
	if err := s.ticketRepo.Create(ctx, t); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("create ticket: %w", err)
	}
	span.SetAttributes(
		telemetry.ID(telemetry.AttrTenantID, tenantID),
		telemetry.ID(telemetry.AttrTicketID, t.ID),
	)
	s.publish(ctx, t)

	s.logger.Info("Ticket created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("ticket_id", t.ID.String()),
		zap.String("created_by", p.UserID.String()))
	telemetry.SetOK(span)
	return t, nil
}

// Update edits descriptive fields and the invoice amount. Status is never changed here.
func (s *TicketService) Update(ctx context.Context, p identity.Principal, tenantID, id uuid.UUID, input UpdateTicketInput) (*ticket.Ticket, error) {
	if err := identity.Authorize(p, tenantID, identity.ActionTicketUpdate); err != nil {
		return nil, err
	}
	t, err := s.ticketRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	title, description, priority, siteID := t.Title, t.Description, t.Priority, t.SiteID
	if input.Title != nil {
		title = *input.Title
	}
	if input.Description != nil {
		description = *input.Description
	}
	if input.Priority != nil {
		if priority, err = ticket.ParsePriority(*input.Priority); err != nil {
			return nil, err
		}
	}
	switch {
	case input.ClearSite:
		siteID = nil
	case input.SiteID != nil:
		if err := s.ensureSite(ctx, tenantID, *input.SiteID); err != nil {
			return nil, err
		}
		siteID = input.SiteID
	}

	if err := t.Update(title, description, priority, siteID); err != nil {
		return nil, err
	}
	if err := t.SetInvoiceAmount(input.InvoiceAmount); err != nil {
		return nil, err
	}
	if err := s.save(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes the ticket, then its stored files
func (s *TicketService) Delete(ctx context.Context, p identity.Principal, tenantID, id uuid.UUID) error {
	if err := identity.Authorize(p, tenantID, identity.ActionTicketDelete); err != nil {
		return err
	}
	t, err := s.ticketRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	attachments, err := s.attachmentRepo.FindByTicket(ctx, tenantID, id)
	if err != nil {
		return fmt.Errorf("list attachments: %w", err)
	}
	if err := s.ticketRepo.Delete(ctx, tenantID, id); err != nil {
		return err
	}

	keys := []string{t.JobCard, t.Invoice}
	for _, a := range attachments {
		keys = append(keys, a.FileKey)
	}
	s.deleteFiles(ctx, keys...)

	s.logger.Info("Ticket deleted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("ticket_id", id.String()),
		zap.String("deleted_by", p.UserID.String()))
	return nil
}

// Assign hands the ticket to a contractor of the same tenant
func (s *TicketService) Assign(ctx context.Context, p identity.Principal, tenantID, id, assigneeID uuid.UUID) (*ticket.Ticket, error) {
	if err := identity.Authorize(p, tenantID, identity.ActionTicketAssign); err != nil {
		return nil, err
	}
	ctx, span := s.transitionSpan(ctx, "assign", tenantID, id)
	defer span.End()
	span.SetAttributes(telemetry.ID(telemetry.AttrAssigneeID, assigneeID))

	t, err := s.ticketRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	assignee, err := s.userRepo.FindByID(ctx, tenantID, assigneeID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("VALIDATION_ERROR", "Assignee must be a contractor of this tenant")
		}
		return nil, err
	}
	if err := t.Assign(assignee, p.UserID); err != nil {
		return nil, err
	}
	if err := s.save(ctx, t); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetOK(span)
	return t, nil
}

// Confirm records the assignee's acceptance of the job
func (s *TicketService) Confirm(ctx context.Context, p identity.Principal, tenantID, id uuid.UUID) (*ticket.Ticket, error) {
	return s.transition(ctx, p, tenantID, id, identity.ActionTicketConfirm, "confirm", func(t *ticket.Ticket) error {
		return t.Confirm(p.UserID)
	})
}

// Start moves the ticket into progress
func (s *TicketService) Start(ctx context.Context, p identity.Principal, tenantID, id uuid.UUID) (*ticket.Ticket, error) {
	return s.transition(ctx, p, tenantID, id, identity.ActionTicketStart, "start", func(t *ticket.Ticket) error {
		return t.StartWork(p.UserID)
	})
}

// Resolve marks the work as completed
func (s *TicketService) Resolve(ctx context.Context, p identity.Principal, tenantID, id uuid.UUID) (*ticket.Ticket, error) {
	return s.transition(ctx, p, tenantID, id, identity.ActionTicketResolve, "resolve", func(t *ticket.Ticket) error {
		return t.MarkResolved(p.UserID, p.Role)
	})
}

// Close finalizes a resolved ticket
func (s *TicketService) Close(ctx context.Context, p identity.Principal, tenantID, id uuid.UUID, input CloseTicketInput) (*ticket.Ticket, error) {
	return s.transition(ctx, p, tenantID, id, identity.ActionTicketClose, "close", func(t *ticket.Ticket) error {
		return t.Close(p.UserID, input.Rating, input.Feedback)
	})
}

// Stats returns the tenant's ticket totals
func (s *TicketService) Stats(ctx context.Context, p identity.Principal, tenantID uuid.UUID) (*ticket.Stats, error) {
	if err := identity.Authorize(p, tenantID, identity.ActionTicketStats); err != nil {
		return nil, err
	}
	stats, err := s.ticketRepo.Stats(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("ticket stats: %w", err)
	}
	return stats, nil
}

func (s *TicketService) transition(
	ctx context.Context,
	p identity.Principal,
	tenantID, id uuid.UUID,
	action identity.Action,
	name string,
	apply func(*ticket.Ticket) error,
) (*ticket.Ticket, error) {
	if err := identity.Authorize(p, tenantID, action); err != nil {
		return nil, err
	}
	ctx, span := s.transitionSpan(ctx, name, tenantID, id)
	defer span.End()

	t, err := s.ticketRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := apply(t); err != nil {
		return nil, err
	}
	if err := s.save(ctx, t); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(telemetry.AttrStatus.String(string(t.Status)))
	telemetry.SetOK(span)
	return t, nil
}

func (s *TicketService) transitionSpan(ctx context.Context, name string, tenantID, id uuid.UUID) (context.Context, trace.Span) {
	return telemetry.StartServiceSpan(ctx, "ticket", name,
		telemetry.ID(telemetry.AttrTenantID, tenantID),
		telemetry.ID(telemetry.AttrTicketID, id),
	)
}

// save writes the ticket and, only once the write succeeded, publishes its events
func (s *TicketService) save(ctx context.Context, t *ticket.Ticket) error {
	if err := s.ticketRepo.Update(ctx, t); err != nil {
		t.ClearDomainEvents()
		if errors.Is(err, shared.ErrConcurrencyConflict) || errors.Is(err, shared.ErrNotFound) {
			return err
		}
		return fmt.Errorf("update ticket: %w", err)
	}
	s.publish(ctx, t)
	return nil
}

func (s *TicketService) publish(ctx context.Context, t *ticket.Ticket) {
	events := t.GetDomainEvents()
	t.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish ticket events",
			zap.String("ticket_id", t.ID.String()),
			zap.Error(err))
	}
}

func (s *TicketService) ensureSite(ctx context.Context, tenantID, siteID uuid.UUID) error {
	if _, err := s.siteRepo.FindByID(ctx, tenantID, siteID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("VALIDATION_ERROR", "Site does not belong to this tenant")
		}
		return err
	}
	return nil
}
