package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appidentity "github.com/helpdesk/backend/internal/application/identity"
	"github.com/helpdesk/backend/internal/domain/identity"
	"github.com/helpdesk/backend/internal/domain/shared"
	"github.com/helpdesk/backend/internal/domain/tenancy"
	"github.com/helpdesk/backend/internal/infrastructure/auth"
	"github.com/helpdesk/backend/internal/infrastructure/config"
	"github.com/helpdesk/backend/internal/interfaces/http/dto"
	"github.com/helpdesk/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testJWTConfig returns a default JWT config for tests
func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret-key-32-characters-long",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "test-issuer",
	}
}

// MockTenantRepository is a mock implementation of tenancy.TenantRepository
type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) Create(ctx context.Context, t *tenancy.Tenant) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*tenancy.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenancy.Tenant), args.Error(1)
}

func (m *MockTenantRepository) FindBySlug(ctx context.Context, slug string) (*tenancy.Tenant, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenancy.Tenant), args.Error(1)
}

func (m *MockTenantRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func (m *MockTenantRepository) FindAll(ctx context.Context, page shared.Page) ([]*tenancy.Tenant, int64, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*tenancy.Tenant), args.Get(1).(int64), args.Error(2)
}

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *identity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *identity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.User, error) {
	return m.user(m.Called(ctx, tenantID, id))
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*identity.User, error) {
	return m.user(m.Called(ctx, tenantID, email))
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, tenantID uuid.UUID, username string) (*identity.User, error) {
	return m.user(m.Called(ctx, tenantID, username))
}

func (m *MockUserRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*identity.User, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByRole(ctx context.Context, tenantID uuid.UUID, role identity.Role) ([]*identity.User, error) {
	args := m.Called(ctx, tenantID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter identity.UserFilter) ([]*identity.User, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*identity.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, tenantID uuid.UUID, username string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, username, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, email, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) user(args mock.Arguments) (*identity.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

type authFixture struct {
	tenants *MockTenantRepository
	users   *MockUserRepository
	jwt     *auth.JWTService
	router  *gin.Engine
	tenant  *tenancy.Tenant
	alice   *identity.User
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	tenant, err := tenancy.NewTenant("Acme", "acme", "")
	require.NoError(t, err)
	alice, err := identity.NewUser(tenant.ID, "alice", "alice@acme.com", "Passw0rd-123", identity.RoleSiteManager)
	require.NoError(t, err)

	f := &authFixture{
		tenants: new(MockTenantRepository),
		users:   new(MockUserRepository),
		jwt:     auth.NewJWTService(testJWTConfig()),
		tenant:  tenant,
		alice:   alice,
	}
	svc := appidentity.NewAuthService(f.tenants, f.users, f.jwt, auth.NewInMemoryTokenBlacklist(), nil, zap.NewNop())
	h := NewAuthHandler(svc)

	f.router = gin.New()
	f.router.POST("/auth/token", h.Token)
	f.router.POST("/auth/token/refresh", h.Refresh)
	f.router.POST("/auth/logout", func(c *gin.Context) {
		if raw := c.GetHeader("X-Test-Access"); raw != "" {
			claims, err := f.jwt.ValidateAccessToken(raw)
			require.NoError(t, err)
			c.Set(middleware.JWTClaimsKey, claims)
		}
		h.Logout(c)
	})
	return f
}

func (f *authFixture) post(t *testing.T, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeToken(t *testing.T, w *httptest.ResponseRecorder) TokenResponse {
	t.Helper()
	var resp struct {
		Success bool          `json:"success"`
		Data    TokenResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.True(t, resp.Success)
	return resp.Data
}

func TestAuthHandler_Token(t *testing.T) {
	t.Run("login by username", func(t *testing.T) {
		f := newAuthFixture(t)
		f.tenants.On("FindBySlug", mock.Anything, "acme").Return(f.tenant, nil)
		f.users.On("FindByUsername", mock.Anything, f.tenant.ID, "alice").Return(f.alice, nil)
		f.users.On("Update", mock.Anything, f.alice).Return(nil)

		w := f.post(t, "/auth/token", TokenRequest{TenantSlug: "acme", Username: "alice", Password: "Passw0rd-123"})

		assert.Equal(t, http.StatusOK, w.Code)
		tok := decodeToken(t, w)
		assert.NotEmpty(t, tok.Access)
		assert.NotEmpty(t, tok.Refresh)
		assert.Equal(t, "acme", tok.Tenant)
		assert.Equal(t, "SITE_MANAGER", tok.Role)
		require.NotNil(t, tok.UserID)
		assert.Equal(t, f.alice.ID, *tok.UserID)
		assert.NotNil(t, f.alice.LastLoginAt)
		f.users.AssertExpectations(t)
	})

	t.Run("identifier that looks like an email tries email first", func(t *testing.T) {
		f := newAuthFixture(t)
		f.tenants.On("FindBySlug", mock.Anything, "acme").Return(f.tenant, nil)
		f.users.On("FindByEmail", mock.Anything, f.tenant.ID, "alice@acme.com").Return(f.alice, nil)
		f.users.On("Update", mock.Anything, f.alice).Return(nil)

		w := f.post(t, "/auth/token", TokenRequest{TenantSlug: "acme", Identifier: "Alice@Acme.com", Password: "Passw0rd-123"})

		assert.Equal(t, http.StatusOK, w.Code)
		f.users.AssertNotCalled(t, "FindByUsername", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("failures share one answer", func(t *testing.T) {
		f := newAuthFixture(t)
		f.tenants.On("FindBySlug", mock.Anything, "acme").Return(f.tenant, nil)
		f.tenants.On("FindBySlug", mock.Anything, "globex").Return(nil, shared.ErrNotFound)
		f.users.On("FindByUsername", mock.Anything, f.tenant.ID, "alice").Return(f.alice, nil)
		f.users.On("FindByUsername", mock.Anything, f.tenant.ID, "bob").Return(nil, shared.ErrNotFound)
		f.users.On("FindByEmail", mock.Anything, f.tenant.ID, "bob").Return(nil, shared.ErrNotFound)

		var messages []string
		for _, req := range []TokenRequest{
			{TenantSlug: "acme", Username: "alice", Password: "wrong"},
			{TenantSlug: "acme", Username: "bob", Password: "Passw0rd-123"},
			{TenantSlug: "globex", Username: "alice", Password: "Passw0rd-123"},
		} {
			w := f.post(t, "/auth/token", req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, dto.ErrCodeInvalidCredentials, resp.Error.Code)
			messages = append(messages, resp.Error.Message)
		}
		assert.Equal(t, messages[0], messages[1])
		assert.Equal(t, messages[0], messages[2])
		f.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("inactive account is rejected", func(t *testing.T) {
		f := newAuthFixture(t)
		f.alice.IsActive = false
		f.tenants.On("FindBySlug", mock.Anything, "acme").Return(f.tenant, nil)
		f.users.On("FindByUsername", mock.Anything, f.tenant.ID, "alice").Return(f.alice, nil)

		w := f.post(t, "/auth/token", TokenRequest{TenantSlug: "acme", Username: "alice", Password: "Passw0rd-123"})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("request validation", func(t *testing.T) {
		f := newAuthFixture(t)

		w := f.post(t, "/auth/token", map[string]string{"tenant_slug": "acme", "password": "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "identifier", resp.Error.Details[0].Field)

		w = f.post(t, "/auth/token", map[string]string{"tenant_slug": "acme", "username": "alice"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		f.tenants.AssertNotCalled(t, "FindBySlug", mock.Anything, mock.Anything)
	})
}

func TestAuthHandler_Refresh(t *testing.T) {
	f := newAuthFixture(t)
	f.tenants.On("FindBySlug", mock.Anything, "acme").Return(f.tenant, nil)
	f.users.On("FindByUsername", mock.Anything, f.tenant.ID, "alice").Return(f.alice, nil)
	f.users.On("Update", mock.Anything, f.alice).Return(nil)
	f.users.On("FindByID", mock.Anything, f.tenant.ID, f.alice.ID).Return(f.alice, nil)

	login := decodeToken(t, f.post(t, "/auth/token", TokenRequest{TenantSlug: "acme", Username: "alice", Password: "Passw0rd-123"}))

	w := f.post(t, "/auth/token/refresh", RefreshTokenRequest{Refresh: login.Refresh})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rotated := decodeToken(t, w)
	assert.NotEqual(t, login.Refresh, rotated.Refresh)

	w = f.post(t, "/auth/token/refresh", RefreshTokenRequest{Refresh: login.Refresh})
	assert.Equal(t, http.StatusUnauthorized, w.Code, "a used refresh token cannot be replayed")

	w = f.post(t, "/auth/token/refresh", RefreshTokenRequest{Refresh: login.Access})
	assert.Equal(t, http.StatusUnauthorized, w.Code, "access tokens are not refresh tokens")

	w = f.post(t, "/auth/token/refresh", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Logout(t *testing.T) {
	f := newAuthFixture(t)
	f.tenants.On("FindBySlug", mock.Anything, "acme").Return(f.tenant, nil)
	f.users.On("FindByUsername", mock.Anything, f.tenant.ID, "alice").Return(f.alice, nil)
	f.users.On("Update", mock.Anything, f.alice).Return(nil)

	login := decodeToken(t, f.post(t, "/auth/token", TokenRequest{TenantSlug: "acme", Username: "alice", Password: "Passw0rd-123"}))

	w := f.post(t, "/auth/logout", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.post(t, "/auth/logout", nil, "X-Test-Access", login.Access)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Logged out")
}
