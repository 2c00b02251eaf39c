package ticket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/identity"
	"github.com/helpdesk/backend/internal/domain/inventory"
	"github.com/helpdesk/backend/internal/domain/shared"
	"github.com/helpdesk/backend/internal/domain/tenancy"
	"github.com/helpdesk/backend/internal/domain/ticket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockTicketRepository is a mock implementation of ticket.Repository
type MockTicketRepository struct {
	mock.Mock
}

func (m *MockTicketRepository) Create(ctx context.Context, t *ticket.Ticket) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockTicketRepository) Update(ctx context.Context, t *ticket.Ticket) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockTicketRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockTicketRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ticket.Ticket, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ticket.Ticket), args.Error(1)
}

func (m *MockTicketRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter ticket.Filter) ([]*ticket.Ticket, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*ticket.Ticket), args.Get(1).(int64), args.Error(2)
}

func (m *MockTicketRepository) Stats(ctx context.Context, tenantID uuid.UUID) (*ticket.Stats, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ticket.Stats), args.Error(1)
}

func (m *MockTicketRepository) SumInvoiceAmountResolvedBetween(ctx context.Context, tenantID, siteID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, siteID, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockTicketRepository) LinkAsset(ctx context.Context, tenantID, ticketID, assetID uuid.UUID) error {
	return m.Called(ctx, tenantID, ticketID, assetID).Error(0)
}

func (m *MockTicketRepository) UnlinkAsset(ctx context.Context, tenantID, ticketID, assetID uuid.UUID) error {
	return m.Called(ctx, tenantID, ticketID, assetID).Error(0)
}

// MockAttachmentRepository is a mock implementation of ticket.AttachmentRepository
type MockAttachmentRepository struct {
	mock.Mock
}

func (m *MockAttachmentRepository) Create(ctx context.Context, a *ticket.Attachment) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAttachmentRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockAttachmentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ticket.Attachment, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ticket.Attachment), args.Error(1)
}

func (m *MockAttachmentRepository) FindByTicket(ctx context.Context, tenantID, ticketID uuid.UUID) ([]*ticket.Attachment, error) {
	args := m.Called(ctx, tenantID, ticketID)
	return args.Get(0).([]*ticket.Attachment), args.Error(1)
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

// MockAssetRepository is a mock implementation of inventory.AssetRepository
type MockAssetRepository struct {
	mock.Mock
}

func (m *MockAssetRepository) Create(ctx context.Context, a *inventory.Asset) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAssetRepository) Update(ctx context.Context, a *inventory.Asset) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAssetRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*inventory.Asset, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Asset), args.Error(1)
}

func (m *MockAssetRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*inventory.Asset, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Get(0).([]*inventory.Asset), args.Error(1)
}

func (m *MockAssetRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter inventory.AssetFilter) ([]*inventory.Asset, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*inventory.Asset), args.Get(1).(int64), args.Error(2)
}

func (m *MockAssetRepository) ExistsByName(ctx context.Context, tenantID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, name, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAssetRepository) FindLogs(ctx context.Context, tenantID, assetID uuid.UUID) ([]*inventory.AssetLog, error) {
	args := m.Called(ctx, tenantID, assetID)
	return args.Get(0).([]*inventory.AssetLog), args.Error(1)
}

// recordingPublisher collects published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}
