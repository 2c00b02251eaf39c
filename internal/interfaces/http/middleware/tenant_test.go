package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/identity"
	"github.com/helpdesk/backend/internal/domain/shared"
	"github.com/helpdesk/backend/internal/domain/tenancy"
	"github.com/helpdesk/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type mockTenantResolver struct {
	mock.Mock
}

func (m *mockTenantResolver) Resolve(ctx context.Context, slug string) (*tenancy.Tenant, error) {
	args := m.Called(ctx, slug)
	if t := args.Get(0); t != nil {
		return t.(*tenancy.Tenant), args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestTenant(t *testing.T, slug string) *tenancy.Tenant {
	t.Helper()
	tenant, err := tenancy.NewTenant("Acme Facilities", slug, "")
	require.NoError(t, err)
	return tenant
}

// gateRouter runs TenantGate behind a stub that installs the given principal
func gateRouter(t *testing.T, resolver TenantResolver, p *identity.Principal) *gin.Engine {
	router := gin.New()
	router.Use(RequestID())
	router.Use(func(c *gin.Context) {
		if p != nil {
			c.Set(PrincipalKey, *p)
		}
		c.Next()
	})
	router.GET("/:tenant_slug/ping", TenantGate(resolver, zaptest.NewLogger(t)), func(c *gin.Context) {
		tenant, ok := GetTenant(c)
		require.True(t, ok)
		c.String(http.StatusOK, tenant.Slug)
	})
	return router
}

func TestTenantGate(t *testing.T) {
	acme := newTestTenant(t, "acme")
	otherTenant := uuid.New()

	tests := []struct {
		name       string
		principal  *identity.Principal
		resolveErr error
		wantStatus int
		wantCode   string
	}{
		{name: "anonymous", wantStatus: http.StatusOK},
		{
			name:       "member of tenant",
			principal:  &identity.Principal{UserID: uuid.New(), TenantID: &acme.ID, Role: identity.RoleSiteManager},
			wantStatus: http.StatusOK,
		},
		{
			name:       "tenantless admin",
			principal:  &identity.Principal{UserID: uuid.New(), Role: identity.RoleAdmin},
			wantStatus: http.StatusOK,
		},
		{
			name:       "member of another tenant",
			principal:  &identity.Principal{UserID: uuid.New(), TenantID: &otherTenant, Role: identity.RoleAdmin},
			wantStatus: http.StatusForbidden,
			wantCode:   dto.ErrCodeTenantMismatch,
		},
		{
			name:       "unknown tenant",
			resolveErr: shared.ErrTenantNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   dto.ErrCodeTenantNotFound,
		},
		{
			name:       "resolver failure",
			resolveErr: errors.New("connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   dto.ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := new(mockTenantResolver)
			if tt.resolveErr != nil {
				resolver.On("Resolve", mock.Anything, "acme").Return(nil, tt.resolveErr)
			} else {
				resolver.On("Resolve", mock.Anything, "acme").Return(acme, nil)
			}

			w := httptest.NewRecorder()
			gateRouter(t, resolver, tt.principal).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/acme/ping", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				errInfo := decodeError(t, w)
				assert.Equal(t, tt.wantCode, errInfo.Code)
				assert.NotEmpty(t, errInfo.RequestID)
			} else {
				assert.Equal(t, "acme", w.Body.String())
			}
			resolver.AssertExpectations(t)
		})
	}
}

func TestGetTenant_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := GetTenant(c)
	assert.False(t, ok)
}
