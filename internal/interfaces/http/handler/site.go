package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/helpdesk/backend/internal/application/tenancy"
)

// SiteHandler handles sites and their monthly budgets
type SiteHandler struct {
	BaseHandler
	siteService   *tenancy.SiteService
	budgetService *tenancy.BudgetService
}

// NewSiteHandler creates a new SiteHandler
func NewSiteHandler(siteService *tenancy.SiteService, budgetService *tenancy.BudgetService) *SiteHandler {
	return &SiteHandler{
		siteService:   siteService,
		budgetService: budgetService,
	}
}

// List godoc
// @Summary      List sites
// @Tags         sites
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Success      200 {object} dto.Response{data=[]SiteResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/sites [get]
func (h *SiteHandler) List(c *gin.Context) {
	p, t, ok := h.scope(c)
	if !ok {
		return
	}
	sites, err := h.siteService.List(c.Request.Context(), p, t.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSiteResponses(sites))
}

// Get godoc
// @Summary      Get a site
// @Tags         sites
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        id path string true "Site ID" format(uuid)
// @Success      200 {object} dto.Response{data=SiteResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/sites/{id} [get]
func (h *SiteHandler) Get(c *gin.Context) {
	p, t, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	site, err := h.siteService.Get(c.Request.Context(), p, t.ID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSiteResponse(site))
}

// Create godoc
// @Summary      Create a site
// @Tags         sites
// @Accept       json
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        request body SiteRequest true "Site"
// @Success      201 {object} dto.Response{data=SiteResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/sites [post]
func (h *SiteHandler) Create(c *gin.Context) {
	p, t, ok := h.scope(c)
	if !ok {
		return
	}
	var req SiteRequest
	if !h.bindJSON(c, &req) {
		return
	}
	site, err := h.siteService.Create(c.Request.Context(), p, t.ID, tenancy.SiteInput{
		Name:   req.Name,
		Slug:   req.Slug,
		Budget: req.Budget,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toSiteResponse(site))
}

// Update godoc
// @Summary      Update a site
// @Tags         sites
// @Accept       json
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        id path string true "Site ID" format(uuid)
// @Param        request body SiteRequest true "Site"
// @Success      200 {object} dto.Response{data=SiteResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/sites/{id} [put]
func (h *SiteHandler) Update(c *gin.Context) {
	p, t, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req SiteRequest
	if !h.bindJSON(c, &req) {
		return
	}
	site, err := h.siteService.Update(c.Request.Context(), p, t.ID, id, tenancy.SiteInput{
		Name:   req.Name,
		Slug:   req.Slug,
		Budget: req.Budget,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSiteResponse(site))
}

// Delete godoc
// @Summary      Delete a site
// @Tags         sites
// @Param        tenant_slug path string true "Tenant slug"
// @Param        id path string true "Site ID" format(uuid)
// @Success      204
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/sites/{id} [delete]
func (h *SiteHandler) Delete(c *gin.Context) {
	p, t, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.siteService.Delete(c.Request.Context(), p, t.ID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListBudgets godoc
// @Summary      List monthly budgets of a site
// @Tags         sites
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        id path string true "Site ID" format(uuid)
// @Param        year query int false "Year"
// @Success      200 {object} dto.Response{data=[]SiteBudgetResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/sites/{id}/budgets [get]
func (h *SiteHandler) ListBudgets(c *gin.Context) {
	p, t, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	year, err := optionalInt(c, "year")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	budgets, err := h.budgetService.List(c.Request.Context(), p, t.ID, id, year)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSiteBudgetResponses(budgets))
}

// UpsertBudget godoc
// @Summary      Set a monthly budget
// @Description  Creates or replaces the budget of one month. Writing the current month also updates the site's budget.
// @Tags         sites
// @Accept       json
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        id path string true "Site ID" format(uuid)
// @Param        request body BudgetRequest true "Budget"
// @Success      200 {object} dto.Response{data=SiteBudgetResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/sites/{id}/budgets [post]
func (h *SiteHandler) UpsertBudget(c *gin.Context) {
	p, t, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req BudgetRequest
	if !h.bindJSON(c, &req) {
		return
	}
	budget, err := h.budgetService.Upsert(c.Request.Context(), p, t.ID, id, tenancy.BudgetInput{
		Year:   req.Year,
		Month:  req.Month,
		Amount: req.Amount,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSiteBudgetResponse(budget))
}

// BudgetSummary godoc
// @Summary      Budget summary of a site
// @Description  Budget, spend, remaining and utilization for one month. Without a year the latest budget month is used.
// @Tags         sites
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        id path string true "Site ID" format(uuid)
// @Param        year query int false "Year"
// @Param        month query int false "Month (1-12)"
// @Success      200 {object} dto.Response{data=BudgetSummaryResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/sites/{id}/budget-summary [get]
func (h *SiteHandler) BudgetSummary(c *gin.Context) {
	p, t, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	year, err := optionalInt(c, "year")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	month, err := optionalInt(c, "month")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	summary, err := h.budgetService.Summary(c.Request.Context(), p, t.ID, id, tenancy.SummaryQuery{Year: year, Month: month})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toBudgetSummaryResponse(summary))
}

// BudgetOverview godoc
// @Summary      Budget overview of all sites
// @Description  Per site, the sum of monthly budgets for the year, or the default budget when no year is given
// @Tags         sites
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        year query int false "Year"
// @Success      200 {object} dto.Response{data=[]SiteBudgetTotalResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/sites/budgets [get]
func (h *SiteHandler) BudgetOverview(c *gin.Context) {
	p, t, ok := h.scope(c)
	if !ok {
		return
	}
	year, err := optionalInt(c, "year")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	rows, err := h.budgetService.Overview(c.Request.Context(), p, t.ID, year)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSiteBudgetTotalResponses(rows))
}
