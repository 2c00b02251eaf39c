package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/helpdesk/backend/internal/application/identity"
	"github.com/helpdesk/backend/internal/interfaces/http/dto"
	"github.com/helpdesk/backend/internal/interfaces/http/middleware"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService *identity.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *identity.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Token godoc
// @Summary      Obtain a token pair
// @Description  Authenticate inside a tenant with username or email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body TokenRequest true "Login credentials"
// @Success      200 {object} dto.Response{data=TokenResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/token [post]
func (h *AuthHandler) Token(c *gin.Context) {
	var req TokenRequest
	if !h.bindJSON(c, &req) {
		return
	}
	identifier := req.identifier()
	if identifier == "" {
		h.ValidationError(c, []dto.ValidationDetail{{Field: "identifier", Message: "This field is required"}})
		return
	}

	result, err := h.authService.Login(c.Request.Context(), identity.LoginInput{
		TenantSlug: req.TenantSlug,
		Identifier: identifier,
		Password:   req.Password,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := toTokenResponse(result.Tokens)
	resp.Tenant = result.Tenant.Slug
	resp.TenantID = &result.Tenant.ID
	resp.Role = result.User.Role.String()
	resp.UserID = &result.User.ID
	h.Success(c, resp)
}

// Refresh godoc
// @Summary      Refresh a token pair
// @Description  Trade a refresh token for a new pair; the old refresh token is revoked
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshTokenRequest true "Refresh token"
// @Success      200 {object} dto.Response{data=TokenResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/token/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshTokenRequest
	if !h.bindJSON(c, &req) {
		return
	}

	pair, err := h.authService.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toTokenResponse(pair))
}

// Logout godoc
// @Summary      Logout
// @Description  Revoke the presented access token
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=MessageResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
		return
	}
	if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, MessageResponse{Message: "Logged out"})
}
