package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/shared"
	"github.com/helpdesk/backend/internal/domain/ticket"
	"github.com/helpdesk/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormTicketRepository implements ticket.Repository using GORM
type GormTicketRepository struct {
	db *gorm.DB
}

// NewGormTicketRepository creates a new GormTicketRepository
func NewGormTicketRepository(db *gorm.DB) *GormTicketRepository {
	return &GormTicketRepository{db: db}
}

// Create inserts the ticket and its asset links
func (r *GormTicketRepository) Create(ctx context.Context, t *ticket.Ticket) error {
	return translateError(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.TicketModelFromDomain(t)).Error; err != nil {
			return err
		}
		for _, assetID := range t.AssetIDs {
			link := &models.TicketAssetModel{TicketID: t.ID, AssetID: assetID, CreatedAt: t.CreatedAt}
			if err := tx.Create(link).Error; err != nil {
				return err
			}
		}
		return nil
	}))
}

// Update writes the ticket in a single UPDATE guarded by the version the aggregate was loaded with
func (r *GormTicketRepository) Update(ctx context.Context, t *ticket.Ticket) error {
	m := models.TicketModelFromDomain(t)
	result := r.db.WithContext(ctx).
		Model(&models.TicketModel{}).
		Scopes(TenantScope(t.TenantID)).
		Where("id = ? AND version = ?", t.ID, t.Version-1).
		Updates(map[string]any{
			"title":             m.Title,
			"description":       m.Description,
			"status":            m.Status,
			"priority":          m.Priority,
			"site_id":           m.SiteID,
			"assignee_id":       m.AssigneeID,
			"job_card":          m.JobCard,
			"invoice":           m.Invoice,
			"invoice_amount":    m.InvoiceAmount,
			"assigned_at":       m.AssignedAt,
			"confirmed_at":      m.ConfirmedAt,
			"started_at":        m.StartedAt,
			"resolved_at":       m.ResolvedAt,
			"closed_at":         m.ClosedAt,
			"closed_by":         m.ClosedBy,
			"contractor_rating": m.ContractorRating,
			"feedback":          m.Feedback,
			"version":           m.Version,
			"updated_at":        m.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	exists, err := r.exists(ctx, t.TenantID, t.ID)
	if err != nil {
		return err
	}
	if !exists {
		return shared.ErrNotFound
	}
	return shared.ErrConcurrencyConflict
}

func (r *GormTicketRepository) exists(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.TicketModel{}).
		Scopes(TenantScope(tenantID)).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

// Delete removes the ticket with its attachment rows and asset links
func (r *GormTicketRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(TenantScope(tenantID)).
			Where("ticket_id = ?", id).
			Delete(&models.TicketAttachmentModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("ticket_id = ?", id).Delete(&models.TicketAssetModel{}).Error; err != nil {
			return err
		}
		result := tx.Scopes(TenantScope(tenantID)).Delete(&models.TicketModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// FindByID loads a ticket of the tenant with its linked asset ids
func (r *GormTicketRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ticket.Ticket, error) {
	var m models.TicketModel
	if err := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	t := m.ToDomain()
	links, err := r.assetIDs(ctx, []uuid.UUID{t.ID})
	if err != nil {
		return nil, err
	}
	t.AssetIDs = append(t.AssetIDs, links[t.ID]...)
	return t, nil
}

// FindAll lists the tenant's tickets, newest first unless another order is requested
func (r *GormTicketRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter ticket.Filter) ([]*ticket.Ticket, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.TicketModel{}).Scopes(TenantScope(tenantID))

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("priority = ?", *filter.Priority)
	}
	if filter.SiteID != nil {
		query = query.Where("site_id = ?", *filter.SiteID)
	}
	if filter.AssigneeID != nil {
		query = query.Where("assignee_id = ?", *filter.AssigneeID)
	}
	if filter.CreatedBy != nil {
		query = query.Where("created_by = ?", *filter.CreatedBy)
	}
	if filter.Search != "" {
		query = query.Where(`LOWER(title) LIKE ? ESCAPE '\'`, containsPattern(filter.Search))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.TicketModel
	if err := query.
		Scopes(OrderBy(filter.SortBy, filter.SortOrder, TicketSortFields, "created_at"), Paginate(filter.Page)).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	ids := make([]uuid.UUID, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	links, err := r.assetIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	tickets := make([]*ticket.Ticket, len(rows))
	for i := range rows {
		tickets[i] = rows[i].ToDomain()
		tickets[i].AssetIDs = append(tickets[i].AssetIDs, links[rows[i].ID]...)
	}
	return tickets, total, nil
}

func (r *GormTicketRepository) assetIDs(ctx context.Context, ticketIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	out := make(map[uuid.UUID][]uuid.UUID, len(ticketIDs))
	if len(ticketIDs) == 0 {
		return out, nil
	}
	var links []models.TicketAssetModel
	if err := r.db.WithContext(ctx).
		Where("ticket_id IN ?", ticketIDs).
		Order("created_at ASC").
		Find(&links).Error; err != nil {
		return nil, err
	}
	for _, l := range links {
		out[l.TicketID] = append(out[l.TicketID], l.AssetID)
	}
	return out, nil
}

type groupCount struct {
	GroupKey string
	Total    int64
}

// Stats counts the tenant's tickets by status and priority and sums invoiced amounts
func (r *GormTicketRepository) Stats(ctx context.Context, tenantID uuid.UUID) (*ticket.Stats, error) {
	stats := &ticket.Stats{
		ByStatus:   make(map[ticket.Status]int64, len(ticket.AllStatuses)),
		ByPriority: make(map[ticket.Priority]int64, len(ticket.AllPriorities)),
	}
	for _, s := range ticket.AllStatuses {
		stats.ByStatus[s] = 0
	}
	for _, p := range ticket.AllPriorities {
		stats.ByPriority[p] = 0
	}

	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.TicketModel{}).Scopes(TenantScope(tenantID))
	}

	var byStatus []groupCount
	if err := base().Select("status AS group_key, COUNT(*) AS total").Group("status").Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, g := range byStatus {
		stats.ByStatus[ticket.Status(g.GroupKey)] = g.Total
		stats.Total += g.Total
	}

	var byPriority []groupCount
	if err := base().Select("priority AS group_key, COUNT(*) AS total").Group("priority").Scan(&byPriority).Error; err != nil {
		return nil, err
	}
	for _, g := range byPriority {
		stats.ByPriority[ticket.Priority(g.GroupKey)] = g.Total
	}

	var invoiced decimal.NullDecimal
	if err := base().Select("SUM(invoice_amount)").Row().Scan(&invoiced); err != nil {
		return nil, err
	}
	stats.TotalInvoiced = invoiced.Decimal
	return stats, nil
}

// SumInvoiceAmountResolvedBetween sums invoice_amount of the site's tickets resolved in [from, to)
func (r *GormTicketRepository) SumInvoiceAmountResolvedBetween(ctx context.Context, tenantID, siteID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&models.TicketModel{}).
		Scopes(TenantScope(tenantID)).
		Select("SUM(invoice_amount)").
		Where("site_id = ? AND resolved_at >= ? AND resolved_at < ?", siteID, from, to).
		Row().Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	return sum.Decimal, nil
}

// LinkAsset records a ticket ↔ asset link; an existing link yields shared.ErrAlreadyExists
func (r *GormTicketRepository) LinkAsset(ctx context.Context, tenantID, ticketID, assetID uuid.UUID) error {
	exists, err := r.exists(ctx, tenantID, ticketID)
	if err != nil {
		return err
	}
	if !exists {
		return shared.ErrNotFound
	}
	link := &models.TicketAssetModel{TicketID: ticketID, AssetID: assetID, CreatedAt: shared.Now()}
	return translateError(r.db.WithContext(ctx).Create(link).Error)
}

// UnlinkAsset removes a ticket ↔ asset link
func (r *GormTicketRepository) UnlinkAsset(ctx context.Context, tenantID, ticketID, assetID uuid.UUID) error {
	exists, err := r.exists(ctx, tenantID, ticketID)
	if err != nil {
		return err
	}
	if !exists {
		return shared.ErrNotFound
	}
	result := r.db.WithContext(ctx).
		Where("ticket_id = ? AND asset_id = ?", ticketID, assetID).
		Delete(&models.TicketAssetModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormAttachmentRepository implements ticket.AttachmentRepository using GORM
type GormAttachmentRepository struct {
	db *gorm.DB
}

// NewGormAttachmentRepository creates a new GormAttachmentRepository
func NewGormAttachmentRepository(db *gorm.DB) *GormAttachmentRepository {
	return &GormAttachmentRepository{db: db}
}

// Create inserts an attachment row
func (r *GormAttachmentRepository) Create(ctx context.Context, a *ticket.Attachment) error {
	return translateError(r.db.WithContext(ctx).Create(models.TicketAttachmentModelFromDomain(a)).Error)
}

// Delete removes an attachment row
func (r *GormAttachmentRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		Delete(&models.TicketAttachmentModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds an attachment of the tenant
func (r *GormAttachmentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ticket.Attachment, error) {
	var m models.TicketAttachmentModel
	if err := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindByTicket lists a ticket's attachments in upload order
func (r *GormAttachmentRepository) FindByTicket(ctx context.Context, tenantID, ticketID uuid.UUID) ([]*ticket.Attachment, error) {
	var rows []models.TicketAttachmentModel
	if err := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		Where("ticket_id = ?", ticketID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*ticket.Attachment, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}
