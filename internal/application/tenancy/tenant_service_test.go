package tenancy

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/identity"
	"github.com/helpdesk/backend/internal/domain/shared"
	"github.com/helpdesk/backend/internal/domain/tenancy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTenantService_Resolve(t *testing.T) {
	tenants := new(MockTenantRepository)
	svc := NewTenantService(tenants, new(MockUserRepository), zap.NewNop())

	acme, err := tenancy.NewTenant("Acme", "acme", "")
	require.NoError(t, err)
	tenants.On("FindBySlug", mock.Anything, "acme").Return(acme, nil)
	tenants.On("FindBySlug", mock.Anything, "nope").Return(nil, shared.ErrNotFound)

	got, err := svc.Resolve(context.Background(), " ACME ")
	require.NoError(t, err)
	assert.Equal(t, acme.ID, got.ID)

	_, err = svc.Resolve(context.Background(), "nope")
	assert.ErrorIs(t, err, shared.ErrTenantNotFound)
}

func TestTenantService_Create(t *testing.T) {
	ctx := context.Background()
	admin := principal(uuid.New(), identity.RoleAdmin)

	t.Run("creates tenant with initial admin", func(t *testing.T) {
		tenants := new(MockTenantRepository)
		users := new(MockUserRepository)
		svc := NewTenantService(tenants, users, zap.NewNop())

		tenants.On("ExistsBySlug", ctx, "globex").Return(false, nil)
		tenants.On("Create", ctx, mock.AnythingOfType("*tenancy.Tenant")).Return(nil)
		users.On("Create", ctx, mock.AnythingOfType("*identity.User")).Return(nil)

		result, err := svc.Create(ctx, admin, CreateTenantInput{
			Name: "Globex",
			Slug: "globex",
			Admin: &InitialAdminInput{
				Username: "root", Email: "root@globex.com", Password: "password123",
				PhoneNumber: "+263771234567",
			},
		})
		require.NoError(t, err)
		require.NotNil(t, result.Admin)
		assert.Equal(t, identity.RoleAdmin, result.Admin.Role)
		assert.True(t, result.Admin.InTenant(result.Tenant.ID))
		assert.Equal(t, "+263771234567", result.Admin.PhoneNumber)
		users.AssertExpectations(t)
	})

	t.Run("invalid admin writes nothing", func(t *testing.T) {
		tenants := new(MockTenantRepository)
		svc := NewTenantService(tenants, new(MockUserRepository), zap.NewNop())

		_, err := svc.Create(ctx, admin, CreateTenantInput{
			Name: "Globex", Slug: "globex",
			Admin: &InitialAdminInput{Username: "root", Email: "not-an-email", Password: "password123"},
		})
		require.Error(t, err)
		tenants.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("duplicate slug", func(t *testing.T) {
		tenants := new(MockTenantRepository)
		svc := NewTenantService(tenants, new(MockUserRepository), zap.NewNop())
		tenants.On("ExistsBySlug", ctx, "globex").Return(true, nil)

		_, err := svc.Create(ctx, admin, CreateTenantInput{Name: "Globex", Slug: "globex"})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("reserved slug", func(t *testing.T) {
		svc := NewTenantService(new(MockTenantRepository), new(MockUserRepository), zap.NewNop())
		_, err := svc.Create(ctx, admin, CreateTenantInput{Name: "Auth", Slug: "auth"})
		require.Error(t, err)
	})

	t.Run("non admin and tenantless callers are refused", func(t *testing.T) {
		svc := NewTenantService(new(MockTenantRepository), new(MockUserRepository), zap.NewNop())

		_, err := svc.Create(ctx, principal(uuid.New(), identity.RoleSiteManager), CreateTenantInput{Name: "X", Slug: "xx"})
		assert.ErrorIs(t, err, shared.ErrForbidden)

		_, err = svc.Create(ctx, identity.Principal{UserID: uuid.New(), Role: identity.RoleAdmin}, CreateTenantInput{Name: "X", Slug: "xx"})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}

func TestTenantService_List(t *testing.T) {
	ctx := context.Background()
	tenants := new(MockTenantRepository)
	svc := NewTenantService(tenants, new(MockUserRepository), zap.NewNop())

	acme, _ := tenancy.NewTenant("Acme", "acme", "")
	page := shared.Page{Page: 1, PageSize: 20}
	tenants.On("FindAll", ctx, page).Return([]*tenancy.Tenant{acme}, int64(1), nil)

	result, err := svc.List(ctx, principal(uuid.New(), identity.RoleAdmin), page)
	require.NoError(t, err)
	assert.Len(t, result.Items, 1)
	assert.EqualValues(t, 1, result.Total)

	empty, err := svc.List(ctx, identity.Principal{UserID: uuid.New(), Role: identity.RoleAdmin}, page)
	require.NoError(t, err)
	assert.Empty(t, empty.Items)

	_, err = svc.List(ctx, principal(uuid.New(), identity.RoleContractor), page)
	assert.ErrorIs(t, err, shared.ErrForbidden)
}
