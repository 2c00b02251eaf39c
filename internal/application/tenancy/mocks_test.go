package tenancy

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/identity"
	"github.com/helpdesk/backend/internal/domain/shared"
	"github.com/helpdesk/backend/internal/domain/tenancy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

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
	return args.Get(0).([]*tenancy.Tenant), args.Get(1).(int64), args.Error(2)
}

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *identity.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, u *identity.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*identity.User, error) {
	args := m.Called(ctx, tenantID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, tenantID uuid.UUID, username string) (*identity.User, error) {
	args := m.Called(ctx, tenantID, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*identity.User, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Get(0).([]*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByRole(ctx context.Context, tenantID uuid.UUID, role identity.Role) ([]*identity.User, error) {
	args := m.Called(ctx, tenantID, role)
	return args.Get(0).([]*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter identity.UserFilter) ([]*identity.User, int64, error) {
	args := m.Called(ctx, tenantID, filter)
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

// MockSiteRepository is a mock implementation of tenancy.SiteRepository
type MockSiteRepository struct {
	mock.Mock
}

func (m *MockSiteRepository) Create(ctx context.Context, s *tenancy.Site) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockSiteRepository) Update(ctx context.Context, s *tenancy.Site) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockSiteRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockSiteRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*tenancy.Site, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenancy.Site), args.Error(1)
}

func (m *MockSiteRepository) FindAll(ctx context.Context, tenantID uuid.UUID) ([]*tenancy.Site, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]*tenancy.Site), args.Error(1)
}

func (m *MockSiteRepository) ExistsBySlug(ctx context.Context, tenantID uuid.UUID, slug string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, slug, excludeID)
	return args.Bool(0), args.Error(1)
}

// MockSiteBudgetRepository is a mock implementation of tenancy.SiteBudgetRepository
type MockSiteBudgetRepository struct {
	mock.Mock
}

func (m *MockSiteBudgetRepository) Upsert(ctx context.Context, b *tenancy.SiteBudget) (*tenancy.SiteBudget, error) {
	args := m.Called(ctx, b)
	if fn, ok := args.Get(0).(func(context.Context, *tenancy.SiteBudget) *tenancy.SiteBudget); ok {
		return fn(ctx, b), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenancy.SiteBudget), args.Error(1)
}

func (m *MockSiteBudgetRepository) FindBySite(ctx context.Context, tenantID, siteID uuid.UUID, year *int) ([]*tenancy.SiteBudget, error) {
	args := m.Called(ctx, tenantID, siteID, year)
	return args.Get(0).([]*tenancy.SiteBudget), args.Error(1)
}

func (m *MockSiteBudgetRepository) FindForMonth(ctx context.Context, tenantID, siteID uuid.UUID, year, month int) (*tenancy.SiteBudget, error) {
	args := m.Called(ctx, tenantID, siteID, year, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenancy.SiteBudget), args.Error(1)
}

func (m *MockSiteBudgetRepository) FindLatest(ctx context.Context, tenantID, siteID uuid.UUID) (*tenancy.SiteBudget, error) {
	args := m.Called(ctx, tenantID, siteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenancy.SiteBudget), args.Error(1)
}

func (m *MockSiteBudgetRepository) SumByYear(ctx context.Context, tenantID uuid.UUID, year int) ([]tenancy.SiteBudgetTotal, error) {
	args := m.Called(ctx, tenantID, year)
	return args.Get(0).([]tenancy.SiteBudgetTotal), args.Error(1)
}

// MockSpendReader is a mock implementation of SpendReader
type MockSpendReader struct {
	mock.Mock
}

func (m *MockSpendReader) SumInvoiceAmountResolvedBetween(ctx context.Context, tenantID, siteID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, siteID, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func principal(tenantID uuid.UUID, role identity.Role) identity.Principal {
	return identity.Principal{UserID: uuid.New(), TenantID: &tenantID, Role: role}
}
