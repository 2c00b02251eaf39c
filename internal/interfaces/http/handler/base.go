// Package handler contains the gin handlers of the HTTP API. Handlers bind and
// validate requests, call one application service method and present the result
// inside the dto.Response envelope.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/identity"
	"github.com/helpdesk/backend/internal/domain/shared"
	"github.com/helpdesk/backend/internal/domain/tenancy"
	"github.com/helpdesk/backend/internal/infrastructure/logger"
	"github.com/helpdesk/backend/internal/interfaces/http/dto"
	"github.com/helpdesk/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// FileURLs turns storage keys into URLs clients can fetch
type FileURLs interface {
	URL(ctx context.Context, key string) (string, error)
}

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// Forbidden sends a 403 forbidden response
func (h *BaseHandler) Forbidden(c *gin.Context, message string) {
	h.Error(c, http.StatusForbidden, dto.ErrCodeForbidden, message)
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		middleware.GetRequestID(c),
		details,
	))
}

// HandleError maps domain errors to their HTTP status. Anything else is logged
// and answered with a generic 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.Error(c, dto.GetHTTPStatus(domainErr.Code), domainErr.Code, domainErr.Message)
		return
	}

	logger.L(c.Request.Context()).Error("Request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err))
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}

// bindJSON binds the body into req. Validator failures become field details,
// anything else (malformed JSON, wrong types) a plain INVALID_JSON error.
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.bindFailed(c, err, dto.ErrCodeInvalidJSON, "Invalid request body")
		return false
	}
	return true
}

// bindQuery binds query parameters into req
func (h *BaseHandler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		h.bindFailed(c, err, dto.ErrCodeInvalidInput, "Invalid query parameters")
		return false
	}
	return true
}

// bindForm binds multipart form values into req
func (h *BaseHandler) bindForm(c *gin.Context, req any) bool {
	if err := c.ShouldBind(req); err != nil {
		h.bindFailed(c, err, dto.ErrCodeInvalidInput, "Invalid form data")
		return false
	}
	return true
}

func (h *BaseHandler) bindFailed(c *gin.Context, err error, code, message string) {
	if details := middleware.ValidationDetails(err); details != nil {
		h.ValidationError(c, details)
		return
	}
	h.Error(c, http.StatusBadRequest, code, message)
}

// pathUUID parses a UUID path parameter, answering 400 when it is malformed
func (h *BaseHandler) pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Invalid "+strings.ReplaceAll(name, "_", " "))
		return uuid.Nil, false
	}
	return id, true
}

// scope returns the caller and the tenant resolved from the path. Routes are
// always mounted behind JWTAuth and TenantGate, so a miss means the router is
// misconfigured.
func (h *BaseHandler) scope(c *gin.Context) (identity.Principal, *tenancy.Tenant, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
		return identity.Principal{}, nil, false
	}
	t, ok := middleware.GetTenant(c)
	if !ok {
		h.Error(c, http.StatusNotFound, dto.ErrCodeTenantNotFound, "Tenant not found")
		return identity.Principal{}, nil, false
	}
	return p, t, true
}

// fileURL resolves a storage key to an absolute URL. Relative URLs from the
// local backend are joined with the request scheme and host.
func fileURL(c *gin.Context, files FileURLs, key string) string {
	if key == "" || files == nil {
		return ""
	}
	u, err := files.URL(c.Request.Context(), key)
	if err != nil {
		logger.L(c.Request.Context()).Warn("Failed to resolve file URL", zap.String("key", key), zap.Error(err))
		return ""
	}
	if !strings.HasPrefix(u, "/") {
		return u
	}
	return requestScheme(c) + "://" + c.Request.Host + u
}

func requestScheme(c *gin.Context) string {
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		return strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	if c.Request.TLS != nil {
		return "https"
	}
	return "http"
}

// optionalInt parses an optional integer query parameter
func optionalInt(c *gin.Context, name string) (*int, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, shared.NewDomainError(dto.ErrCodeInvalidInput, name+" must be an integer")
	}
	return &n, nil
}
