package handler

import (
	"context"
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appticket "github.com/helpdesk/backend/internal/application/ticket"
	"github.com/helpdesk/backend/internal/domain/identity"
	"github.com/helpdesk/backend/internal/domain/ticket"
	"github.com/helpdesk/backend/internal/interfaces/http/dto"
)

// TicketHandler handles ticket CRUD, lifecycle transitions and ticket files
type TicketHandler struct {
	BaseHandler
	ticketService *appticket.TicketService
	files         FileURLs
	maxUpload     int64
}

// NewTicketHandler creates a new TicketHandler. maxUpload bounds a single
// uploaded file in bytes; zero disables the check.
func NewTicketHandler(ticketService *appticket.TicketService, files FileURLs, maxUpload int64) *TicketHandler {
	return &TicketHandler{
		ticketService: ticketService,
		files:         files,
		maxUpload:     maxUpload,
	}
}

// List godoc
// @Summary      List tickets
// @Description  List the tenant's tickets, newest first
// @Tags         tickets
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        status query string false "Status" Enums(OPEN, ASSIGNED, IN_PROGRESS, RESOLVED, CLOSED)
// @Param        priority query string false "Priority" Enums(LOW, MEDIUM, HIGH, URGENT)
// @Param        site_id query string false "Site ID" format(uuid)
// @Param        assignee_id query string false "Assignee ID" format(uuid)
// @Param        search query string false "Search in title"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]TicketResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/tickets [get]
func (h *TicketHandler) List(c *gin.Context) {
	p, t, ok := h.scope(c)
	if !ok {
		return
	}
	var query TicketListQuery
	if !h.bindQuery(c, &query) {
		return
	}

	result, err := h.ticketService.List(c.Request.Context(), p, t.ID, query.toFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toTicketResponses(c, h.files, result.Items), result.Total, result.Page, result.PageSize)
}

// Get godoc
// @Summary      Get a ticket
// @Tags         tickets
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        id path string true "Ticket ID" format(uuid)
// @Success      200 {object} dto.Response{data=TicketResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/tickets/{id} [get]
func (h *TicketHandler) Get(c *gin.Context) {
	p, t, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	tk, err := h.ticketService.Get(c.Request.Context(), p, t.ID, id)
	h.respond(c, tk, err)
}

// Create godoc
// @Summary      Open a ticket
// @Description  Tenant and reporter are taken from the caller
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        request body CreateTicketRequest true "Ticket"
// @Success      201 {object} dto.Response{data=TicketResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/tickets [post]
func (h *TicketHandler) Create(c *gin.Context) {
	p, t, ok := h.scope(c)
	if !ok {
		return
	}
	var req CreateTicketRequest
	if !h.bindJSON(c, &req) {
		return
	}

	tk, err := h.ticketService.Create(c.Request.Context(), p, t.ID, appticket.CreateTicketInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		SiteID:      req.SiteID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toTicketResponse(c, h.files, tk))
}

// Update godoc
// @Summary      Update a ticket
// @Description  Edit title, description, priority, site or invoice amount. Status is unaffected.
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        id path string true "Ticket ID" format(uuid)
// @Param        request body UpdateTicketRequest true "Changes"
// @Success      200 {object} dto.Response{data=TicketResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/tickets/{id} [put]
func (h *TicketHandler) Update(c *gin.Context) {
	p, t, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req UpdateTicketRequest
	if !h.bindJSON(c, &req) {
		return
	}

	tk, err := h.ticketService.Update(c.Request.Context(), p, t.ID, id, appticket.UpdateTicketInput{
		Title:         req.Title,
		Description:   req.Description,
		Priority:      req.Priority,
		SiteID:        req.SiteID,
		ClearSite:     req.ClearSite,
		InvoiceAmount: req.InvoiceAmount,
	})
	h.respond(c, tk, err)
}

// Delete godoc
// @Summary      Delete a ticket
// @Description  Removes the ticket and its stored files (admin only)
// @Tags         tickets
// @Param        tenant_slug path string true "Tenant slug"
// @Param        id path string true "Ticket ID" format(uuid)
// @Success      204
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/tickets/{id} [delete]
func (h *TicketHandler) Delete(c *gin.Context) {
	p, t, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.ticketService.Delete(c.Request.Context(), p, t.ID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Assign godoc
// @Summary      Assign a ticket
// @Description  Assign or reassign the ticket to a contractor of the tenant
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        id path string true "Ticket ID" format(uuid)
// @Param        request body AssignTicketRequest true "Contractor"
// @Success      200 {object} dto.Response{data=TicketResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/tickets/{id}/assign [post]
func (h *TicketHandler) Assign(c *gin.Context) {
	p, t, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req AssignTicketRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tk, err := h.ticketService.Assign(c.Request.Context(), p, t.ID, id, req.AssigneeID)
	h.respond(c, tk, err)
}

// Confirm godoc
// @Summary      Confirm an assignment
// @Description  The assigned contractor acknowledges the job
// @Tags         tickets
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        id path string true "Ticket ID" format(uuid)
// @Success      200 {object} dto.Response{data=TicketResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/tickets/{id}/confirm [post]
func (h *TicketHandler) Confirm(c *gin.Context) {
	h.transition(c, h.ticketService.Confirm)
}

// Start godoc
// @Summary      Start work
// @Description  The assigned contractor starts work on the ticket
// @Tags         tickets
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        id path string true "Ticket ID" format(uuid)
// @Success      200 {object} dto.Response{data=TicketResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/tickets/{id}/start [post]
func (h *TicketHandler) Start(c *gin.Context) {
	h.transition(c, h.ticketService.Start)
}

// Resolve godoc
// @Summary      Resolve a ticket
// @Tags         tickets
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        id path string true "Ticket ID" format(uuid)
// @Success      200 {object} dto.Response{data=TicketResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/tickets/{id}/resolve [post]
func (h *TicketHandler) Resolve(c *gin.Context) {
	h.transition(c, h.ticketService.Resolve)
}

// Close godoc
// @Summary      Close a ticket
// @Description  Close a resolved ticket with an optional contractor rating (1-5) and feedback
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        id path string true "Ticket ID" format(uuid)
// @Param        request body CloseTicketRequest false "Rating and feedback"
// @Success      200 {object} dto.Response{data=TicketResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/tickets/{id}/close [post]
func (h *TicketHandler) Close(c *gin.Context) {
	p, t, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req CloseTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.bindFailed(c, err, dto.ErrCodeInvalidJSON, "Invalid request body")
		return
	}
	tk, err := h.ticketService.Close(c.Request.Context(), p, t.ID, id, appticket.CloseTicketInput{
		Rating:   req.Rating,
		Feedback: req.Feedback,
	})
	h.respond(c, tk, err)
}

// Stats godoc
// @Summary      Ticket statistics
// @Description  Totals by status and priority, outstanding count and invoiced amount
// @Tags         tickets
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Success      200 {object} dto.Response{data=TicketStatsResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/tickets/stats [get]
func (h *TicketHandler) Stats(c *gin.Context) {
	p, t, ok := h.scope(c)
	if !ok {
		return
	}
	stats, err := h.ticketService.Stats(c.Request.Context(), p, t.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toTicketStatsResponse(stats))
}

type transitionFunc func(ctx context.Context, p identity.Principal, tenantID, id uuid.UUID) (*ticket.Ticket, error)

func (h *TicketHandler) transition(c *gin.Context, fn transitionFunc) {
	p, t, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	tk, err := fn(c.Request.Context(), p, t.ID, id)
	h.respond(c, tk, err)
}

func (h *TicketHandler) respond(c *gin.Context, tk *ticket.Ticket, err error) {
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toTicketResponse(c, h.files, tk))
}
