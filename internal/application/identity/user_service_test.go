package identity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/identity"
	"github.com/helpdesk/backend/internal/domain/shared"
	"github.com/helpdesk/backend/internal/domain/tenancy"
	"github.com/helpdesk/backend/internal/infrastructure/auth"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newUserService(t *testing.T) (*UserService, *MockUserRepository, *MockSiteRepository, *auth.InMemoryTokenBlacklist) {
	t.Helper()
	userRepo := new(MockUserRepository)
	siteRepo := new(MockSiteRepository)
	blacklist := auth.NewInMemoryTokenBlacklist()
	return NewUserService(userRepo, siteRepo, blacklist, time.Hour, zaptest.NewLogger(t)), userRepo, siteRepo, blacklist
}

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	admin := principal(tenantID, identity.RoleAdmin)

	t.Run("defaults to site manager", func(t *testing.T) {
		svc, userRepo, _, _ := newUserService(t)
		userRepo.On("ExistsByUsername", ctx, tenantID, "bob", (*uuid.UUID)(nil)).Return(false, nil)
		userRepo.On("ExistsByEmail", ctx, tenantID, "bob@acme.test", (*uuid.UUID)(nil)).Return(false, nil)
		userRepo.On("Create", ctx, mock.AnythingOfType("*identity.User")).Return(nil)

		user, err := svc.Register(ctx, admin, tenantID, RegisterUserInput{
			Username: "Bob", Email: "bob@acme.test", Password: "secret123", FirstName: "Bob",
		})
		require.NoError(t, err)
		assert.Equal(t, identity.RoleSiteManager, user.Role)
		assert.True(t, user.InTenant(tenantID))
		assert.Equal(t, "Bob", user.FirstName)
		userRepo.AssertExpectations(t)
	})

	t.Run("contractor with site", func(t *testing.T) {
		svc, userRepo, siteRepo, _ := newUserService(t)
		site, err := tenancy.NewSite(tenantID, "HQ", "hq", decimal.NewFromInt(1000))
		require.NoError(t, err)
		siteRepo.On("FindByID", ctx, tenantID, site.ID).Return(site, nil)
		userRepo.On("ExistsByUsername", ctx, tenantID, "fixit", (*uuid.UUID)(nil)).Return(false, nil)
		userRepo.On("ExistsByEmail", ctx, tenantID, "fix@it.test", (*uuid.UUID)(nil)).Return(false, nil)
		userRepo.On("Create", ctx, mock.AnythingOfType("*identity.User")).Return(nil)

		user, err := svc.Register(ctx, admin, tenantID, RegisterUserInput{
			Username:   "fixit",
			Email:      "fix@it.test",
			Password:   "secret123",
			Role:       identity.RoleContractor,
			SiteID:     &site.ID,
			Contractor: &identity.ContractorProfile{IsActiveContractor: true, CompanyName: "Fix It Ltd"},
		})
		require.NoError(t, err)
		assert.True(t, user.IsContractor())
		assert.Equal(t, "Fix It Ltd", user.Contractor.CompanyName)
		require.NotNil(t, user.SiteID)
		assert.Equal(t, site.ID, *user.SiteID)
	})

	t.Run("site from another tenant", func(t *testing.T) {
		svc, _, siteRepo, _ := newUserService(t)
		siteID := uuid.New()
		siteRepo.On("FindByID", ctx, tenantID, siteID).Return(nil, shared.ErrNotFound)

		_, err := svc.Register(ctx, admin, tenantID, RegisterUserInput{
			Username: "bob", Email: "bob@acme.test", Password: "secret123", SiteID: &siteID,
		})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "VALIDATION_ERROR", domainErr.Code)
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc, userRepo, _, _ := newUserService(t)
		userRepo.On("ExistsByUsername", ctx, tenantID, "bob", (*uuid.UUID)(nil)).Return(false, nil)
		userRepo.On("ExistsByEmail", ctx, tenantID, "bob@acme.test", (*uuid.UUID)(nil)).Return(true, nil)

		_, err := svc.Register(ctx, admin, tenantID, RegisterUserInput{
			Username: "bob", Email: "bob@acme.test", Password: "secret123",
		})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("non-admin is forbidden", func(t *testing.T) {
		svc, _, _, _ := newUserService(t)
		_, err := svc.Register(ctx, principal(tenantID, identity.RoleSiteManager), tenantID, RegisterUserInput{
			Username: "bob", Email: "bob@acme.test", Password: "secret123",
		})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("admin of another tenant", func(t *testing.T) {
		svc, _, _, _ := newUserService(t)
		_, err := svc.Register(ctx, principal(uuid.New(), identity.RoleAdmin), tenantID, RegisterUserInput{
			Username: "bob", Email: "bob@acme.test", Password: "secret123",
		})
		assert.Error(t, err)
	})
}

func TestUserService_Update(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	admin := principal(tenantID, identity.RoleAdmin)

	newUser := func(t *testing.T) *identity.User {
		u, err := identity.NewUser(tenantID, "carol", "carol@acme.test", "secret123", identity.RoleSiteManager)
		require.NoError(t, err)
		return u
	}

	t.Run("profile change keeps sessions", func(t *testing.T) {
		svc, userRepo, _, blacklist := newUserService(t)
		user := newUser(t)
		userRepo.On("FindByID", ctx, tenantID, user.ID).Return(user, nil)
		userRepo.On("ExistsByUsername", ctx, tenantID, "carol", &user.ID).Return(false, nil)
		userRepo.On("ExistsByEmail", ctx, tenantID, "carol@acme.test", &user.ID).Return(false, nil)
		userRepo.On("Update", ctx, user).Return(nil)

		first := "Caroline"
		updated, err := svc.Update(ctx, admin, tenantID, user.ID, UpdateUserInput{FirstName: &first})
		require.NoError(t, err)
		assert.Equal(t, "Caroline", updated.FirstName)

		revoked, err := blacklist.IsUserTokenInvalidated(ctx, user.ID.String(), time.Now().Add(-time.Minute))
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("role change revokes sessions", func(t *testing.T) {
		svc, userRepo, _, blacklist := newUserService(t)
		user := newUser(t)
		userRepo.On("FindByID", ctx, tenantID, user.ID).Return(user, nil)
		userRepo.On("ExistsByUsername", ctx, tenantID, "carol", &user.ID).Return(false, nil)
		userRepo.On("ExistsByEmail", ctx, tenantID, "carol@acme.test", &user.ID).Return(false, nil)
		userRepo.On("Update", ctx, user).Return(nil)

		role := identity.RoleContractor
		updated, err := svc.Update(ctx, admin, tenantID, user.ID, UpdateUserInput{Role: &role})
		require.NoError(t, err)
		assert.Equal(t, identity.RoleContractor, updated.Role)

		revoked, err := blacklist.IsUserTokenInvalidated(ctx, user.ID.String(), time.Now().Add(-time.Minute))
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("clear site", func(t *testing.T) {
		svc, userRepo, _, _ := newUserService(t)
		user := newUser(t)
		siteID := uuid.New()
		user.AssignSite(&siteID)
		userRepo.On("FindByID", ctx, tenantID, user.ID).Return(user, nil)
		userRepo.On("ExistsByUsername", ctx, tenantID, "carol", &user.ID).Return(false, nil)
		userRepo.On("ExistsByEmail", ctx, tenantID, "carol@acme.test", &user.ID).Return(false, nil)
		userRepo.On("Update", ctx, user).Return(nil)

		updated, err := svc.Update(ctx, admin, tenantID, user.ID, UpdateUserInput{ClearSite: true})
		require.NoError(t, err)
		assert.Nil(t, updated.SiteID)
	})

	t.Run("cannot deactivate self", func(t *testing.T) {
		svc, userRepo, _, _ := newUserService(t)
		user := newUser(t)
		self := identity.Principal{UserID: user.ID, TenantID: &tenantID, Role: identity.RoleAdmin}
		userRepo.On("FindByID", ctx, tenantID, user.ID).Return(user, nil)

		inactive := false
		_, err := svc.Update(ctx, self, tenantID, user.ID, UpdateUserInput{IsActive: &inactive})
		require.Error(t, err)
		userRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("weak password", func(t *testing.T) {
		svc, userRepo, _, _ := newUserService(t)
		user := newUser(t)
		userRepo.On("FindByID", ctx, tenantID, user.ID).Return(user, nil)

		weak := "short"
		_, err := svc.Update(ctx, admin, tenantID, user.ID, UpdateUserInput{Password: &weak})
		require.Error(t, err)
		userRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestUserService_Delete(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	admin := principal(tenantID, identity.RoleAdmin)

	t.Run("deletes and revokes", func(t *testing.T) {
		svc, userRepo, _, blacklist := newUserService(t)
		id := uuid.New()
		userRepo.On("Delete", ctx, tenantID, id).Return(nil)

		require.NoError(t, svc.Delete(ctx, admin, tenantID, id))
		revoked, err := blacklist.IsUserTokenInvalidated(ctx, id.String(), time.Now().Add(-time.Minute))
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("refuses self delete", func(t *testing.T) {
		svc, userRepo, _, _ := newUserService(t)
		err := svc.Delete(ctx, admin, tenantID, admin.UserID)
		require.Error(t, err)
		userRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing user", func(t *testing.T) {
		svc, userRepo, _, _ := newUserService(t)
		id := uuid.New()
		userRepo.On("Delete", ctx, tenantID, id).Return(shared.ErrNotFound)
		assert.ErrorIs(t, svc.Delete(ctx, admin, tenantID, id), shared.ErrNotFound)
	})
}

func TestUserService_List(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("caller without tenant sees nothing", func(t *testing.T) {
		svc, userRepo, _, _ := newUserService(t)
		p := identity.Principal{UserID: uuid.New(), Role: identity.RoleAdmin}

		page, err := svc.List(ctx, p, tenantID, identity.UserFilter{Page: shared.Page{Page: 1, PageSize: 20}})
		require.NoError(t, err)
		assert.Empty(t, page.Items)
		userRepo.AssertNotCalled(t, "FindAll", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("admin lists tenant users", func(t *testing.T) {
		svc, userRepo, _, _ := newUserService(t)
		filter := identity.UserFilter{Page: shared.Page{Page: 1, PageSize: 20}}
		u, err := identity.NewUser(tenantID, "dave", "dave@acme.test", "secret123", identity.RoleContractor)
		require.NoError(t, err)
		userRepo.On("FindAll", ctx, tenantID, filter).Return([]*identity.User{u}, int64(1), nil)

		page, err := svc.List(ctx, principal(tenantID, identity.RoleAdmin), tenantID, filter)
		require.NoError(t, err)
		assert.Len(t, page.Items, 1)
		assert.Equal(t, int64(1), page.Total)
	})
}
