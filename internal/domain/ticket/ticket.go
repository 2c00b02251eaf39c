package ticket

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/identity"
	"github.com/helpdesk/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Ticket is a unit of maintenance work reported at a site and carried out by a contractor
type Ticket struct {
	shared.TenantAggregateRoot
	Title            string
	Description      string
	Status           Status
	Priority         Priority
	SiteID           *uuid.UUID
	CreatedBy        uuid.UUID
	AssigneeID       *uuid.UUID
	JobCard          string // storage key
	Invoice          string // storage key
	InvoiceAmount    *decimal.Decimal
	AssetIDs         []uuid.UUID
	AssignedAt       *time.Time
	ConfirmedAt      *time.Time
	StartedAt        *time.Time
	ResolvedAt       *time.Time
	ClosedAt         *time.Time
	ClosedBy         *uuid.UUID
	ContractorRating *int
	Feedback         string
}

// NewTicket opens a ticket on behalf of the reporting user
func NewTicket(tenantID, createdBy uuid.UUID, title, description string, priority Priority, siteID *uuid.UUID) (*Ticket, error) {
	t := &Ticket{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Status:              StatusOpen,
		CreatedBy:           createdBy,
		AssetIDs:            make([]uuid.UUID, 0),
	}
	if err := t.applyDetails(title, description, priority, siteID); err != nil {
		return nil, err
	}
	t.AddDomainEvent(NewTicketCreatedEvent(t))
	return t, nil
}

// Update edits descriptive fields. Status is never touched here.
func (t *Ticket) Update(title, description string, priority Priority, siteID *uuid.UUID) error {
	if err := t.applyDetails(title, description, priority, siteID); err != nil {
		return err
	}
	t.Touch()
	t.IncrementVersion()
	return nil
}

func (t *Ticket) applyDetails(title, description string, priority Priority, siteID *uuid.UUID) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Title cannot be empty")
	}
	if len(title) > 255 {
		return shared.NewDomainError("INVALID_TITLE", "Title cannot exceed 255 characters")
	}
	if !priority.IsValid() {
		return shared.NewDomainError("INVALID_PRIORITY", "Priority must be one of LOW, MEDIUM, HIGH, URGENT")
	}
	t.Title = title
	t.Description = strings.TrimSpace(description)
	t.Priority = priority
	t.SiteID = siteID
	return nil
}

// Assign hands the ticket to a contractor. The candidate is checked before anything
// changes, so a rejected assignment leaves status and assignee as they were.
func (t *Ticket) Assign(assignee *identity.User, by uuid.UUID) error {
	if assignee == nil || !assignee.IsContractor() {
		return shared.NewDomainError("VALIDATION_ERROR", "Assignee must be a contractor")
	}
	if !assignee.InTenant(t.TenantID) {
		return shared.NewDomainError("VALIDATION_ERROR", "Assignee must belong to the ticket's tenant")
	}
	if !assignee.IsActive {
		return shared.NewDomainError("VALIDATION_ERROR", "Assignee account is inactive")
	}
	to, err := NextStatus(t.Status, TransitionAssign)
	if err != nil {
		return err
	}

	previous := t.AssigneeID
	from := t.Status
	now := shared.Now()
	id := assignee.ID
	t.AssigneeID = &id
	t.Status = to
	t.AssignedAt = &now
	t.ConfirmedAt = nil
	t.Touch()
	t.IncrementVersion()

	t.AddDomainEvent(NewTicketAssignedEvent(t, previous, by))
	if from != to {
		t.AddDomainEvent(NewTicketStatusChangedEvent(t, from, to, by))
	}
	return nil
}

// Confirm records that the assignee accepted the job
func (t *Ticket) Confirm(by uuid.UUID) error {
	if _, err := NextStatus(t.Status, TransitionConfirm); err != nil {
		return err
	}
	if !t.IsAssignee(by) {
		return shared.NewDomainError("FORBIDDEN", "Only the assigned contractor can confirm this ticket")
	}
	now := shared.Now()
	t.ConfirmedAt = &now
	t.Touch()
	t.IncrementVersion()
	t.AddDomainEvent(NewTicketConfirmedEvent(t, by))
	return nil
}

// StartWork moves an assigned ticket into progress; only the assignee may do it
func (t *Ticket) StartWork(by uuid.UUID) error {
	to, err := NextStatus(t.Status, TransitionStart)
	if err != nil {
		return err
	}
	if !t.IsAssignee(by) {
		return shared.NewDomainError("FORBIDDEN", "Only the assigned contractor can start work on this ticket")
	}
	now := shared.Now()
	t.StartedAt = &now
	t.changeStatus(to, by)
	return nil
}

// MarkResolved records completion. resolved_at is what budget spend is bucketed by.
func (t *Ticket) MarkResolved(by uuid.UUID, role identity.Role) error {
	to, err := NextStatus(t.Status, TransitionResolve)
	if err != nil {
		return err
	}
	if role == identity.RoleContractor && !t.IsAssignee(by) {
		return shared.NewDomainError("FORBIDDEN", "Only the assigned contractor can resolve this ticket")
	}
	now := shared.Now()
	t.ResolvedAt = &now
	t.changeStatus(to, by)
	return nil
}

// Close finalizes a resolved ticket with an optional 1-5 rating and feedback
func (t *Ticket) Close(by uuid.UUID, rating *int, feedback string) error {
	to, err := NextStatus(t.Status, TransitionClose)
	if err != nil {
		return err
	}
	if rating != nil && (*rating < 1 || *rating > 5) {
		return shared.NewDomainError("VALIDATION_ERROR", "Rating must be between 1 and 5")
	}
	now := shared.Now()
	closedBy := by
	t.ClosedAt = &now
	t.ClosedBy = &closedBy
	t.ContractorRating = rating
	t.Feedback = strings.TrimSpace(feedback)
	t.changeStatus(to, by)
	return nil
}

func (t *Ticket) changeStatus(to Status, by uuid.UUID) {
	from := t.Status
	t.Status = to
	t.Touch()
	t.IncrementVersion()
	t.AddDomainEvent(NewTicketStatusChangedEvent(t, from, to, by))
}

// IsAssignee reports whether the user is the current assignee
func (t *Ticket) IsAssignee(userID uuid.UUID) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}

// ReplaceJobCard sets a new job card and returns the key it replaced
func (t *Ticket) ReplaceJobCard(key string) string {
	old := t.JobCard
	t.JobCard = key
	t.Touch()
	t.IncrementVersion()
	return old
}

// ReplaceInvoice sets a new invoice file, optionally with its amount, and returns the key it replaced
func (t *Ticket) ReplaceInvoice(key string, amount *decimal.Decimal) (string, error) {
	if err := t.SetInvoiceAmount(amount); err != nil {
		return "", err
	}
	old := t.Invoice
	t.Invoice = key
	t.Touch()
	t.IncrementVersion()
	return old, nil
}

// SetInvoiceAmount sets the spend figure used in budget aggregation. nil leaves it unchanged.
func (t *Ticket) SetInvoiceAmount(amount *decimal.Decimal) error {
	if amount == nil {
		return nil
	}
	if amount.IsNegative() {
		return shared.NewDomainError("VALIDATION_ERROR", "Invoice amount cannot be negative")
	}
	rounded := amount.Round(2)
	t.InvoiceAmount = &rounded
	return nil
}

// LinkAsset attaches an inventory asset
func (t *Ticket) LinkAsset(assetID uuid.UUID) error {
	for _, id := range t.AssetIDs {
		if id == assetID {
			return shared.NewDomainError("ALREADY_EXISTS", "Asset is already linked to this ticket")
		}
	}
	t.AssetIDs = append(t.AssetIDs, assetID)
	t.Touch()
	return nil
}

// UnlinkAsset detaches an inventory asset
func (t *Ticket) UnlinkAsset(assetID uuid.UUID) error {
	for i, id := range t.AssetIDs {
		if id == assetID {
			t.AssetIDs = append(t.AssetIDs[:i], t.AssetIDs[i+1:]...)
			t.Touch()
			return nil
		}
	}
	return shared.NewDomainError("NOT_FOUND", "Asset is not linked to this ticket")
}
