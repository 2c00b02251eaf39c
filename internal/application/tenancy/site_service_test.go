package tenancy

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/identity"
	"github.com/helpdesk/backend/internal/domain/shared"
	"github.com/helpdesk/backend/internal/domain/tenancy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSiteService_Create(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	sites := new(MockSiteRepository)
	svc := NewSiteService(sites, zap.NewNop())

	sites.On("ExistsBySlug", ctx, tenantID, "bulawayo", (*uuid.UUID)(nil)).Return(false, nil)
	sites.On("Create", ctx, mock.AnythingOfType("*tenancy.Site")).Return(nil)

	site, err := svc.Create(ctx, principal(tenantID, identity.RoleAdmin), tenantID, SiteInput{
		Name: "Bulawayo", Slug: "Bulawayo", Budget: decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	assert.Equal(t, "bulawayo", site.Slug)
	assert.Equal(t, tenantID, site.TenantID)

	sites.On("ExistsBySlug", ctx, tenantID, "taken", (*uuid.UUID)(nil)).Return(true, nil)
	_, err = svc.Create(ctx, principal(tenantID, identity.RoleAdmin), tenantID, SiteInput{Name: "Taken", Slug: "taken"})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	_, err = svc.Create(ctx, principal(tenantID, identity.RoleSiteManager), tenantID, SiteInput{Name: "X", Slug: "xx"})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestSiteService_UpdateExcludesSelfFromSlugCheck(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	sites := new(MockSiteRepository)
	svc := NewSiteService(sites, zap.NewNop())

	site, err := tenancy.NewSite(tenantID, "Mutare", "mutare", decimal.Zero)
	require.NoError(t, err)
	sites.On("FindByID", ctx, tenantID, site.ID).Return(site, nil)
	sites.On("ExistsBySlug", ctx, tenantID, "mutare-east", &site.ID).Return(false, nil)
	sites.On("Update", ctx, site).Return(nil)

	updated, err := svc.Update(ctx, principal(tenantID, identity.RoleAdmin), tenantID, site.ID, SiteInput{
		Name: "Mutare East", Slug: "mutare-east", Budget: decimal.NewFromInt(300),
	})
	require.NoError(t, err)
	assert.Equal(t, "Mutare East", updated.Name)
	sites.AssertExpectations(t)
}

func TestSiteService_ListAndTenantRules(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	sites := new(MockSiteRepository)
	svc := NewSiteService(sites, zap.NewNop())

	sites.On("FindAll", ctx, tenantID).Return([]*tenancy.Site{}, nil)

	_, err := svc.List(ctx, principal(tenantID, identity.RoleSiteManager), tenantID)
	require.NoError(t, err)

	_, err = svc.List(ctx, principal(uuid.New(), identity.RoleAdmin), tenantID)
	assert.ErrorIs(t, err, shared.ErrTenantMismatch)

	_, err = svc.List(ctx, principal(tenantID, identity.RoleContractor), tenantID)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	none, err := svc.List(ctx, identity.Principal{UserID: uuid.New(), Role: identity.RoleAdmin}, tenantID)
	require.NoError(t, err)
	assert.Empty(t, none)

	err = svc.Delete(ctx, identity.Principal{UserID: uuid.New(), Role: identity.RoleAdmin}, tenantID, uuid.New())
	assert.ErrorIs(t, err, shared.ErrTenantMismatch)
}
