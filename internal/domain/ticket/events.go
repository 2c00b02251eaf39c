package ticket

import (
	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/shared"
)

// AggregateTypeTicket is the aggregate type of ticket events
const AggregateTypeTicket = "Ticket"

// Ticket domain event types
const (
	EventTypeTicketCreated       = "TicketCreated"
	EventTypeTicketAssigned      = "TicketAssigned"
	EventTypeTicketConfirmed     = "TicketConfirmed"
	EventTypeTicketStatusChanged = "TicketStatusChanged"
)

// TicketCreatedEvent is published when a ticket is opened
type TicketCreatedEvent struct {
	shared.BaseDomainEvent
	Title     string    `json:"title"`
	CreatedBy uuid.UUID `json:"created_by"`
	Priority  Priority  `json:"priority"`
}

// NewTicketCreatedEvent creates a new TicketCreatedEvent
func NewTicketCreatedEvent(t *Ticket) *TicketCreatedEvent {
	return &TicketCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTicketCreated, AggregateTypeTicket, t.ID, t.TenantID),
		Title:           t.Title,
		CreatedBy:       t.CreatedBy,
		Priority:        t.Priority,
	}
}

// TicketAssignedEvent is published on assignment and reassignment
type TicketAssignedEvent struct {
	shared.BaseDomainEvent
	AssigneeID         uuid.UUID  `json:"assignee_id"`
	PreviousAssigneeID *uuid.UUID `json:"previous_assignee_id,omitempty"`
	AssignedBy         uuid.UUID  `json:"assigned_by"`
}

// NewTicketAssignedEvent creates a new TicketAssignedEvent
func NewTicketAssignedEvent(t *Ticket, previous *uuid.UUID, by uuid.UUID) *TicketAssignedEvent {
	return &TicketAssignedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeTicketAssigned, AggregateTypeTicket, t.ID, t.TenantID),
		AssigneeID:         *t.AssigneeID,
		PreviousAssigneeID: previous,
		AssignedBy:         by,
	}
}

// TicketConfirmedEvent is published when the contractor accepts the job
type TicketConfirmedEvent struct {
	shared.BaseDomainEvent
	ContractorID uuid.UUID `json:"contractor_id"`
}

// NewTicketConfirmedEvent creates a new TicketConfirmedEvent
func NewTicketConfirmedEvent(t *Ticket, by uuid.UUID) *TicketConfirmedEvent {
	return &TicketConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTicketConfirmed, AggregateTypeTicket, t.ID, t.TenantID),
		ContractorID:    by,
	}
}

// TicketStatusChangedEvent is published on every status change
type TicketStatusChangedEvent struct {
	shared.BaseDomainEvent
	From    Status    `json:"from"`
	To      Status    `json:"to"`
	ActorID uuid.UUID `json:"actor_id"`
}

// NewTicketStatusChangedEvent creates a new TicketStatusChangedEvent
func NewTicketStatusChangedEvent(t *Ticket, from, to Status, by uuid.UUID) *TicketStatusChangedEvent {
	return &TicketStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTicketStatusChanged, AggregateTypeTicket, t.ID, t.TenantID),
		From:            from,
		To:              to,
		ActorID:         by,
	}
}
