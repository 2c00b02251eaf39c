// Package tenancy holds the use cases of the tenant directory: tenants, sites
// and monthly site budgets.
package tenancy

import (
	"context"
	"errors"
	"fmt"

	"github.com/helpdesk/backend/internal/domain/identity"
	"github.com/helpdesk/backend/internal/domain/shared"
	"github.com/helpdesk/backend/internal/domain/tenancy"
	"go.uber.org/zap"
)

// TenantService handles tenant administration and slug resolution
type TenantService struct {
	tenantRepo tenancy.TenantRepository
	userRepo   identity.UserRepository
	logger     *zap.Logger
}

// NewTenantService creates a new TenantService
func NewTenantService(tenantRepo tenancy.TenantRepository, userRepo identity.UserRepository, logger *zap.Logger) *TenantService {
	return &TenantService{
		tenantRepo: tenantRepo,
		userRepo:   userRepo,
		logger:     logger,
	}
}

// Resolve looks a tenant up by its path slug
func (s *TenantService) Resolve(ctx context.Context, slug string) (*tenancy.Tenant, error) {
	t, err := s.tenantRepo.FindBySlug(ctx, tenancy.NormalizeSlug(slug))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrTenantNotFound
		}
		return nil, fmt.Errorf("find tenant: %w", err)
	}
	return t, nil
}

// List returns every tenant to an admin. Callers without a tenant see nothing.
func (s *TenantService) List(ctx context.Context, p identity.Principal, page shared.Page) (shared.Paginated[*tenancy.Tenant], error) {
	if identity.SeesNothing(p) {
		return shared.NewPaginated[*tenancy.Tenant](nil, 0, page), nil
	}
	if err := identity.AuthorizeRole(p, identity.ActionTenantManage); err != nil {
		return shared.Paginated[*tenancy.Tenant]{}, err
	}
	items, total, err := s.tenantRepo.FindAll(ctx, page)
	if err != nil {
		return shared.Paginated[*tenancy.Tenant]{}, fmt.Errorf("list tenants: %w", err)
	}
	return shared.NewPaginated(items, total, page), nil
}

// Create creates a tenant and, when requested, its first admin account. The admin
// is validated before anything is written.
func (s *TenantService) Create(ctx context.Context, p identity.Principal, input CreateTenantInput) (*CreateTenantResult, error) {
	if !p.HasTenant() {
		return nil, shared.ErrForbidden
	}
	if err := identity.AuthorizeRole(p, identity.ActionTenantManage); err != nil {
		return nil, err
	}

	t, err := tenancy.NewTenant(input.Name, input.Slug, input.Domain)
	if err != nil {
		return nil, err
	}

	var admin *identity.User
	if input.Admin != nil {
		admin, err = identity.NewUser(t.ID, input.Admin.Username, input.Admin.Email, input.Admin.Password, identity.RoleAdmin)
		if err != nil {
			return nil, err
		}
		if err := admin.SetProfile(input.Admin.FirstName, input.Admin.LastName, input.Admin.PhoneNumber); err != nil {
			return nil, err
		}
	}

	exists, err := s.tenantRepo.ExistsBySlug(ctx, t.Slug)
	if err != nil {
		return nil, fmt.Errorf("check tenant slug: %w", err)
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A tenant with this slug already exists")
	}

	if err := s.tenantRepo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create tenant: %w", err)
	}
	s.logger.Info("Tenant created",
		zap.String("tenant_id", t.ID.String()),
		zap.String("slug", t.Slug),
		zap.String("created_by", p.UserID.String()))

	if admin != nil {
		if err := s.userRepo.Create(ctx, admin); err != nil {
			s.logger.Error("Failed to create initial admin",
				zap.String("tenant_id", t.ID.String()),
				zap.Error(err))
			return nil, fmt.Errorf("create initial admin: %w", err)
		}
	}

	return &CreateTenantResult{Tenant: t, Admin: admin}, nil
}
