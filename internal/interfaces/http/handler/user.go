package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/application/identity"
	domainidentity "github.com/helpdesk/backend/internal/domain/identity"
	"github.com/helpdesk/backend/internal/domain/shared"
)

// UserHandler handles the account endpoints of a tenant
type UserHandler struct {
	BaseHandler
	userService *identity.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *identity.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Me godoc
// @Summary      Current user
// @Description  Return the authenticated user's account
// @Tags         accounts
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Success      200 {object} dto.Response{data=UserResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/accounts/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	p, t, ok := h.scope(c)
	if !ok {
		return
	}
	user, err := h.userService.Me(c.Request.Context(), p, t.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toUserResponse(user))
}

// List godoc
// @Summary      List users
// @Description  List the tenant's users with optional filters
// @Tags         accounts
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        search query string false "Search username, email or names"
// @Param        role query string false "Role" Enums(ADMIN, CONTRACTOR, SITE_MANAGER)
// @Param        site_id query string false "Site ID" format(uuid)
// @Param        is_active query bool false "Active flag"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]UserResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/accounts/users [get]
func (h *UserHandler) List(c *gin.Context) {
	p, t, ok := h.scope(c)
	if !ok {
		return
	}
	var query UserListQuery
	if !h.bindQuery(c, &query) {
		return
	}

	filter := domainidentity.UserFilter{
		Keyword:  query.Search,
		IsActive: query.IsActive,
		Page:     shared.Page{Page: query.Page, PageSize: query.PageSize},
	}
	if query.Role != "" {
		role := domainidentity.Role(query.Role)
		filter.Role = &role
	}
	if query.SiteID != "" {
		siteID := uuid.MustParse(query.SiteID)
		filter.SiteID = &siteID
	}

	result, err := h.userService.List(c.Request.Context(), p, t.ID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toUserResponses(result.Items), result.Total, result.Page, result.PageSize)
}

// Get godoc
// @Summary      Get a user
// @Tags         accounts
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} dto.Response{data=UserResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/accounts/users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	p, t, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	user, err := h.userService.Get(c.Request.Context(), p, t.ID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toUserResponse(user))
}

// Register godoc
// @Summary      Register a user
// @Description  Create a user inside the tenant (admin only)
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        request body RegisterUserRequest true "User"
// @Success      201 {object} dto.Response{data=UserResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/accounts/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	p, t, ok := h.scope(c)
	if !ok {
		return
	}
	var req RegisterUserRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Register(c.Request.Context(), p, t.ID, identity.RegisterUserInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		Role:        domainidentity.Role(req.Role),
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		SiteID:      req.SiteID,
		Contractor:  req.Contractor.toProfile(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toUserResponse(user))
}

// Update godoc
// @Summary      Update a user
// @Description  Change a user's account; password, role or deactivation ends their sessions
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        id path string true "User ID" format(uuid)
// @Param        request body UpdateUserRequest true "Changes"
// @Success      200 {object} dto.Response{data=UserResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/accounts/users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	p, t, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req UpdateUserRequest
	if !h.bindJSON(c, &req) {
		return
	}

	input := identity.UpdateUserInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		SiteID:      req.SiteID,
		ClearSite:   req.ClearSite,
		IsActive:    req.IsActive,
		Contractor:  req.Contractor.toProfile(),
	}
	if req.Role != nil {
		role := domainidentity.Role(*req.Role)
		input.Role = &role
	}

	user, err := h.userService.Update(c.Request.Context(), p, t.ID, id, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toUserResponse(user))
}

// Delete godoc
// @Summary      Delete a user
// @Tags         accounts
// @Param        tenant_slug path string true "Tenant slug"
// @Param        id path string true "User ID" format(uuid)
// @Success      204
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/accounts/users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	p, t, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.userService.Delete(c.Request.Context(), p, t.ID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
