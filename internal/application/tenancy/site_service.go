package tenancy

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/identity"
	"github.com/helpdesk/backend/internal/domain/shared"
	"github.com/helpdesk/backend/internal/domain/tenancy"
	"go.uber.org/zap"
)

// SiteService handles site CRUD inside a tenant
type SiteService struct {
	siteRepo tenancy.SiteRepository
	logger   *zap.Logger
}

// NewSiteService creates a new SiteService
func NewSiteService(siteRepo tenancy.SiteRepository, logger *zap.Logger) *SiteService {
	return &SiteService{siteRepo: siteRepo, logger: logger}
}

// List returns the tenant's sites ordered by name
func (s *SiteService) List(ctx context.Context, p identity.Principal, tenantID uuid.UUID) ([]*tenancy.Site, error) {
	if identity.SeesNothing(p) {
		return []*tenancy.Site{}, nil
	}
	if err := identity.Authorize(p, tenantID, identity.ActionSiteView); err != nil {
		return nil, err
	}
	sites, err := s.siteRepo.FindAll(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	return sites, nil
}

// Get returns one site
func (s *SiteService) Get(ctx context.Context, p identity.Principal, tenantID, id uuid.UUID) (*tenancy.Site, error) {
	if err := identity.Authorize(p, tenantID, identity.ActionSiteView); err != nil {
		return nil, err
	}
	return s.siteRepo.FindByID(ctx, tenantID, id)
}

// Create adds a site to the tenant
func (s *SiteService) Create(ctx context.Context, p identity.Principal, tenantID uuid.UUID, input SiteInput) (*tenancy.Site, error) {
	if err := identity.Authorize(p, tenantID, identity.ActionSiteManage); err != nil {
		return nil, err
	}
	site, err := tenancy.NewSite(tenantID, input.Name, input.Slug, input.Budget)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, tenantID, site.Slug, nil); err != nil {
		return nil, err
	}
	if err := s.siteRepo.Create(ctx, site); err != nil {
		return nil, fmt.Errorf("create site: %w", err)
	}
	s.logger.Info("Site created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("site_id", site.ID.String()),
		zap.String("slug", site.Slug))
	return site, nil
}

// Update replaces a site's name, slug and default budget
func (s *SiteService) Update(ctx context.Context, p identity.Principal, tenantID, id uuid.UUID, input SiteInput) (*tenancy.Site, error) {
	if err := identity.Authorize(p, tenantID, identity.ActionSiteManage); err != nil {
		return nil, err
	}
	site, err := s.siteRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := site.Update(input.Name, input.Slug, input.Budget); err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, tenantID, site.Slug, &site.ID); err != nil {
		return nil, err
	}
	if err := s.siteRepo.Update(ctx, site); err != nil {
		return nil, fmt.Errorf("update site: %w", err)
	}
	return site, nil
}

// Delete removes a site. Its budgets go with it; tickets keep a null site.
func (s *SiteService) Delete(ctx context.Context, p identity.Principal, tenantID, id uuid.UUID) error {
	if err := identity.Authorize(p, tenantID, identity.ActionSiteManage); err != nil {
		return err
	}
	if err := s.siteRepo.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.logger.Info("Site deleted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("site_id", id.String()))
	return nil
}

func (s *SiteService) ensureSlugFree(ctx context.Context, tenantID uuid.UUID, slug string, excludeID *uuid.UUID) error {
	exists, err := s.siteRepo.ExistsBySlug(ctx, tenantID, slug, excludeID)
	if err != nil {
		return fmt.Errorf("check site slug: %w", err)
	}
	if exists {
		return shared.NewDomainError("ALREADY_EXISTS", "A site with this slug already exists")
	}
	return nil
}
