package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/helpdesk/backend/internal/application/identity"
	domainidentity "github.com/helpdesk/backend/internal/domain/identity"
	"github.com/helpdesk/backend/internal/interfaces/http/dto"
	"github.com/helpdesk/backend/internal/interfaces/http/middleware"
)

// RequestOTPRequest asks for a password reset code
type RequestOTPRequest struct {
	Identifier string `json:"identifier" binding:"required,max=254"`
	Channel    string `json:"channel" binding:"required,oneof=email whatsapp"`
}

// VerifyOTPRequest checks a password reset code
type VerifyOTPRequest struct {
	Identifier string `json:"identifier" binding:"required,max=254"`
	Code       string `json:"code" binding:"required,len=6,numeric"`
}

// ResetPasswordRequest consumes a code and sets a new password
type ResetPasswordRequest struct {
	Identifier  string `json:"identifier" binding:"required,max=254"`
	Code        string `json:"code" binding:"required,len=6,numeric"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=128"`
}

// PasswordResetHandler serves the unauthenticated OTP password reset flow
type PasswordResetHandler struct {
	BaseHandler
	resetService *identity.PasswordResetService
}

// NewPasswordResetHandler creates a new PasswordResetHandler
func NewPasswordResetHandler(resetService *identity.PasswordResetService) *PasswordResetHandler {
	return &PasswordResetHandler{resetService: resetService}
}

// RequestOTP godoc
// @Summary      Request a reset code
// @Description  Sends a 6-digit code by email or WhatsApp. The response is the same whether or not the account exists.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        request body RequestOTPRequest true "Account and channel"
// @Success      200 {object} dto.Response{data=MessageResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /{tenant_slug}/accounts/password/otp/request [post]
func (h *PasswordResetHandler) RequestOTP(c *gin.Context) {
	t, ok := middleware.GetTenant(c)
	if !ok {
		h.Error(c, http.StatusNotFound, dto.ErrCodeTenantNotFound, "Tenant not found")
		return
	}
	var req RequestOTPRequest
	if !h.bindJSON(c, &req) {
		return
	}

	err := h.resetService.Request(c.Request.Context(), t.ID, identity.RequestOTPInput{
		Identifier: req.Identifier,
		Channel:    domainidentity.OTPChannel(req.Channel),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, MessageResponse{Message: "If the account exists, a code has been sent"})
}

// VerifyOTP godoc
// @Summary      Verify a reset code
// @Description  Checks a code without consuming it
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        request body VerifyOTPRequest true "Account and code"
// @Success      200 {object} dto.Response{data=MessageResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /{tenant_slug}/accounts/password/otp/verify [post]
func (h *PasswordResetHandler) VerifyOTP(c *gin.Context) {
	t, ok := middleware.GetTenant(c)
	if !ok {
		h.Error(c, http.StatusNotFound, dto.ErrCodeTenantNotFound, "Tenant not found")
		return
	}
	var req VerifyOTPRequest
	if !h.bindJSON(c, &req) {
		return
	}

	err := h.resetService.Verify(c.Request.Context(), t.ID, identity.VerifyOTPInput{
		Identifier: req.Identifier,
		Code:       req.Code,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, MessageResponse{Message: "Code is valid"})
}

// ResetPassword godoc
// @Summary      Reset password
// @Description  Consumes a code, sets the new password and ends every session of the account
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        request body ResetPasswordRequest true "Account, code and new password"
// @Success      200 {object} dto.Response{data=MessageResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /{tenant_slug}/accounts/password/reset [post]
func (h *PasswordResetHandler) ResetPassword(c *gin.Context) {
	t, ok := middleware.GetTenant(c)
	if !ok {
		h.Error(c, http.StatusNotFound, dto.ErrCodeTenantNotFound, "Tenant not found")
		return
	}
	var req ResetPasswordRequest
	if !h.bindJSON(c, &req) {
		return
	}

	err := h.resetService.Reset(c.Request.Context(), t.ID, identity.ResetPasswordInput{
		Identifier:  req.Identifier,
		Code:        req.Code,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, MessageResponse{Message: "Password has been reset"})
}
