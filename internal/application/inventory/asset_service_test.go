package inventory

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/identity"
	"github.com/helpdesk/backend/internal/domain/inventory"
	"github.com/helpdesk/backend/internal/domain/shared"
	"github.com/helpdesk/backend/internal/infrastructure/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

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

func newAssetService(t *testing.T) (*AssetService, *MockAssetRepository, *storage.MemoryStorage) {
	t.Helper()
	repo := new(MockAssetRepository)
	files := storage.NewMemoryStorage()
	return NewAssetService(repo, files, zaptest.NewLogger(t)), repo, files
}

func manager(tenantID uuid.UUID) identity.Principal {
	return identity.Principal{UserID: uuid.New(), TenantID: &tenantID, Role: identity.RoleSiteManager}
}

func TestAssetService_Create(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("initial stock is the first log entry", func(t *testing.T) {
		svc, repo, _ := newAssetService(t)
		repo.On("ExistsByName", ctx, tenantID, "Ladder", (*uuid.UUID)(nil)).Return(false, nil)
		repo.On("Create", ctx, mock.AnythingOfType("*inventory.Asset")).Return(nil)
		p := manager(tenantID)

		asset, err := svc.Create(ctx, p, tenantID, CreateAssetInput{Name: "Ladder", Quantity: 3, Unit: "pcs", Cost: decimal.NewFromInt(40)})
		require.NoError(t, err)
		require.Len(t, asset.PendingLogs(), 1)
		log := asset.PendingLogs()[0]
		assert.Equal(t, 3, log.Change)
		assert.Equal(t, 3, log.Quantity)
		assert.Equal(t, "pcs", log.Unit)
		assert.Equal(t, p.UserID, *asset.CreatedBy)
	})

	t.Run("duplicate name", func(t *testing.T) {
		svc, repo, _ := newAssetService(t)
		repo.On("ExistsByName", ctx, tenantID, "Ladder", (*uuid.UUID)(nil)).Return(true, nil)

		_, err := svc.Create(ctx, manager(tenantID), tenantID, CreateAssetInput{Name: "Ladder", Quantity: 1})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("quantity must be positive", func(t *testing.T) {
		svc, _, _ := newAssetService(t)
		_, err := svc.Create(ctx, manager(tenantID), tenantID, CreateAssetInput{Name: "Ladder", Quantity: 0})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("contractor cannot manage assets", func(t *testing.T) {
		svc, _, _ := newAssetService(t)
		p := identity.Principal{UserID: uuid.New(), TenantID: &tenantID, Role: identity.RoleContractor}
		_, err := svc.Create(ctx, p, tenantID, CreateAssetInput{Name: "Ladder", Quantity: 1})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}

func TestAssetService_Update(t *testing.T) {
	tenantID := uuid.New()

	newAsset := func(t *testing.T) *inventory.Asset {
		a, err := inventory.NewAsset(tenantID, "Drill", "SN-1", 5, decimal.NewFromInt(100), nil)
		require.NoError(t, err)
		a.ClearPendingLogs()
		return a
	}

	t.Run("quantity change logs once", func(t *testing.T) {
		svc, repo, _ := newAssetService(t)
		asset := newAsset(t)
		repo.On("FindByID", mock.Anything, tenantID, asset.ID).Return(asset, nil)
		repo.On("Update", mock.Anything, asset).Return(nil)

		qty := 2
		got, err := svc.Update(context.Background(), manager(tenantID), tenantID, asset.ID, UpdateAssetInput{Quantity: &qty, Unit: "box"})
		require.NoError(t, err)
		require.Len(t, got.PendingLogs(), 1)
		assert.Equal(t, -3, got.PendingLogs()[0].Change)
		assert.Equal(t, 2, got.PendingLogs()[0].Quantity)
		assert.Equal(t, "box", got.PendingLogs()[0].Unit)
	})

	t.Run("same quantity logs nothing", func(t *testing.T) {
		svc, repo, _ := newAssetService(t)
		asset := newAsset(t)
		repo.On("FindByID", mock.Anything, tenantID, asset.ID).Return(asset, nil)
		repo.On("Update", mock.Anything, asset).Return(nil)

		qty := 5
		cost := decimal.NewFromInt(120)
		got, err := svc.Update(context.Background(), manager(tenantID), tenantID, asset.ID, UpdateAssetInput{Quantity: &qty, Cost: &cost})
		require.NoError(t, err)
		assert.Empty(t, got.PendingLogs())
		assert.True(t, got.Cost.Equal(cost))
	})

	t.Run("rename into a taken name", func(t *testing.T) {
		svc, repo, _ := newAssetService(t)
		asset := newAsset(t)
		repo.On("FindByID", mock.Anything, tenantID, asset.ID).Return(asset, nil)
		repo.On("ExistsByName", mock.Anything, tenantID, "Saw", &asset.ID).Return(true, nil)

		name := "Saw"
		_, err := svc.Update(context.Background(), manager(tenantID), tenantID, asset.ID, UpdateAssetInput{Name: &name})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestAssetService_Disable(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	svc, repo, _ := newAssetService(t)
	asset, err := inventory.NewAsset(tenantID, "Drill", "", 1, decimal.Zero, nil)
	require.NoError(t, err)
	repo.On("FindByID", ctx, tenantID, asset.ID).Return(asset, nil)
	repo.On("Update", ctx, asset).Return(nil).Once()

	require.NoError(t, svc.Disable(ctx, manager(tenantID), tenantID, asset.ID))
	assert.True(t, asset.Disabled)

	require.NoError(t, svc.Disable(ctx, manager(tenantID), tenantID, asset.ID))
	repo.AssertNumberOfCalls(t, "Update", 1)
}

func TestAssetService_SetImage(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	svc, repo, files := newAssetService(t)
	asset, err := inventory.NewAsset(tenantID, "Drill", "", 1, decimal.Zero, nil)
	require.NoError(t, err)
	repo.On("FindByID", ctx, tenantID, asset.ID).Return(asset, nil)
	repo.On("Update", ctx, asset).Return(nil)

	_, err = svc.SetImage(ctx, manager(tenantID), tenantID, asset.ID, ImageUpload{Name: "a.png", ContentType: "image/png", Body: strings.NewReader("1")})
	require.NoError(t, err)
	first := asset.Image
	assert.True(t, files.Exists(first))

	_, err = svc.SetImage(ctx, manager(tenantID), tenantID, asset.ID, ImageUpload{Name: "b.jpg", ContentType: "image/jpeg", Body: strings.NewReader("2")})
	require.NoError(t, err)
	assert.False(t, files.Exists(first))
	assert.Equal(t, 1, files.Len())

	_, err = svc.SetImage(ctx, manager(tenantID), tenantID, asset.ID, ImageUpload{Name: "c.pdf", ContentType: "application/pdf", Body: strings.NewReader("3")})
	require.Error(t, err)
}

func TestAssetService_Logs(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	svc, repo, _ := newAssetService(t)
	id := uuid.New()
	repo.On("FindByID", ctx, tenantID, id).Return(nil, shared.ErrNotFound)

	_, err := svc.Logs(ctx, manager(tenantID), tenantID, id)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
