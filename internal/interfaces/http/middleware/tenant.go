package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/helpdesk/backend/internal/domain/shared"
	"github.com/helpdesk/backend/internal/domain/tenancy"
	"github.com/helpdesk/backend/internal/infrastructure/logger"
	"github.com/helpdesk/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Tenant context keys
const (
	TenantKey       = "tenant"
	TenantSlugParam = "tenant_slug"
)

// TenantResolver looks a tenant up by its path slug
type TenantResolver interface {
	Resolve(ctx context.Context, slug string) (*tenancy.Tenant, error)
}

// TenantGate resolves :tenant_slug and refuses callers authenticated in another
// tenant. Anonymous requests and callers without a tenant pass through; the
// services decide what they may see.
func TenantGate(resolver TenantResolver, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		slug := c.Param(TenantSlugParam)
		t, err := resolver.Resolve(c.Request.Context(), slug)
		if err != nil {
			if errors.Is(err, shared.ErrTenantNotFound) || errors.Is(err, shared.ErrNotFound) {
				abort(c, http.StatusNotFound, dto.ErrCodeTenantNotFound, "Tenant not found")
				return
			}
			log.Error("Failed to resolve tenant", zap.String("slug", slug), zap.Error(err))
			abort(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
			return
		}

		if p, ok := GetPrincipal(c); ok && p.HasTenant() && *p.TenantID != t.ID {
			log.Warn("Tenant mismatch",
				zap.String("slug", t.Slug),
				zap.String("user_id", p.UserID.String()),
				zap.String("caller_tenant_id", p.TenantID.String()))
			abort(c, http.StatusForbidden, dto.ErrCodeTenantMismatch, "Tenant mismatch")
			return
		}

		c.Set(TenantKey, t)
		c.Request = c.Request.WithContext(logger.WithTenantSlug(c.Request.Context(), t.Slug))
		c.Next()
	}
}

// GetTenant returns the tenant resolved by TenantGate
func GetTenant(c *gin.Context) (*tenancy.Tenant, bool) {
	if v, ok := c.Get(TenantKey); ok {
		if t, ok := v.(*tenancy.Tenant); ok {
			return t, true
		}
	}
	return nil, false
}
