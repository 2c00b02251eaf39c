package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/helpdesk/backend/internal/application/tenancy"
	"github.com/helpdesk/backend/internal/domain/shared"
	"github.com/helpdesk/backend/internal/interfaces/http/dto"
	"github.com/helpdesk/backend/internal/interfaces/http/middleware"
)

// TenantHandler handles tenant management HTTP requests
type TenantHandler struct {
	BaseHandler
	tenantService *tenancy.TenantService
}

// NewTenantHandler creates a new tenant handler
func NewTenantHandler(tenantService *tenancy.TenantService) *TenantHandler {
	return &TenantHandler{
		tenantService: tenantService,
	}
}

// List godoc
// @Summary      List tenants
// @Description  Get a paginated list of tenants. Callers without a tenant get an empty list.
// @Tags         tenants
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]TenantResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /tenants [get]
func (h *TenantHandler) List(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
		return
	}
	var query TenantListQuery
	if !h.bindQuery(c, &query) {
		return
	}

	result, err := h.tenantService.List(c.Request.Context(), p, shared.Page{Page: query.Page, PageSize: query.PageSize})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toTenantResponses(result.Items), result.Total, result.Page, result.PageSize)
}

// Create godoc
// @Summary      Create a new tenant
// @Description  Create a tenant, optionally together with its first admin account
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        request body CreateTenantRequest true "Tenant creation request"
// @Success      201 {object} dto.Response{data=CreateTenantResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /tenants [post]
func (h *TenantHandler) Create(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
		return
	}
	var req CreateTenantRequest
	if !h.bindJSON(c, &req) {
		return
	}

	input := tenancy.CreateTenantInput{
		Name:   req.Name,
		Slug:   req.Slug,
		Domain: req.Domain,
	}
	if req.Admin != nil {
		input.Admin = &tenancy.InitialAdminInput{
			Username:    req.Admin.Username,
			Email:       req.Admin.Email,
			Password:    req.Admin.Password,
			FirstName:   req.Admin.FirstName,
			LastName:    req.Admin.LastName,
			PhoneNumber: req.Admin.PhoneNumber,
		}
	}

	result, err := h.tenantService.Create(c.Request.Context(), p, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := CreateTenantResponse{Tenant: toTenantResponse(result.Tenant)}
	if result.Admin != nil {
		admin := toUserResponse(result.Admin)
		resp.Admin = &admin
	}
	h.Created(c, resp)
}
