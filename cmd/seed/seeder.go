package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/identity"
	"github.com/helpdesk/backend/internal/domain/shared"
	"github.com/helpdesk/backend/internal/domain/tenancy"
	"github.com/helpdesk/backend/internal/domain/ticket"
	"github.com/helpdesk/backend/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultUserPassword = "password123"

// Options controls what the seeder creates
type Options struct {
	TenantSlug    string
	TenantName    string
	Sites         int
	Managers      int
	Contractors   int
	Tickets       int
	AdminEmail    string
	AdminUsername string
	AdminPassword string
	Year          int
}

// Result counts what a run touched
type Result struct {
	TenantID    uuid.UUID
	Sites       int
	Budgets     int
	Managers    int
	Contractors int
	Tickets     int
}

// Seeder fills one tenant with demo data. Existing tenants, sites and users are
// reused so the command can be run repeatedly; tickets are always added.
type Seeder struct {
	tenants tenancy.TenantRepository
	sites   tenancy.SiteRepository
	budgets tenancy.SiteBudgetRepository
	users   identity.UserRepository
	tickets ticket.Repository
	rnd     *rand.Rand
	logger  *zap.Logger
}

// NewSeeder builds a seeder over db, typically a transaction
func NewSeeder(db *gorm.DB, rnd *rand.Rand, logger *zap.Logger) *Seeder {
	return &Seeder{
		tenants: persistence.NewGormTenantRepository(db),
		sites:   persistence.NewGormSiteRepository(db),
		budgets: persistence.NewGormSiteBudgetRepository(db),
		users:   persistence.NewGormUserRepository(db),
		tickets: persistence.NewGormTicketRepository(db),
		rnd:     rnd,
		logger:  logger,
	}
}

// Run seeds the tenant described by opts
func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	tenant, err := s.tenant(ctx, opts)
	if err != nil {
		return nil, err
	}
	res := &Result{TenantID: tenant.ID}

	admin, err := s.user(ctx, tenant, opts.AdminUsername, opts.AdminEmail, opts.AdminPassword, identity.RoleAdmin, nil)
	if err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}
	s.logger.Info("Admin ready", zap.String("username", admin.Username))

	sites, err := s.seedSites(ctx, tenant, opts.Sites)
	if err != nil {
		return nil, err
	}
	res.Sites = len(sites)

	for _, site := range sites {
		for month := 1; month <= 12; month++ {
			budget, err := tenancy.NewSiteBudget(tenant.ID, site.ID, opts.Year, month, s.amount(5_000, 20_000))
			if err != nil {
				return nil, err
			}
			if _, err := s.budgets.Upsert(ctx, budget); err != nil {
				return nil, fmt.Errorf("seed budget %s %d-%02d: %w", site.Slug, opts.Year, month, err)
			}
			res.Budgets++
		}
	}

	managers := make([]*identity.User, 0, opts.Managers)
	for i := 1; i <= opts.Managers; i++ {
		site := s.pickSite(sites, 1)
		u, err := s.user(ctx, tenant, "manager"+strconv.Itoa(i),
			fmt.Sprintf("manager%d@%s.com", i, tenant.Slug), defaultUserPassword, identity.RoleSiteManager, site)
		if err != nil {
			return nil, fmt.Errorf("seed manager %d: %w", i, err)
		}
		managers = append(managers, u)
	}
	res.Managers = len(managers)

	contractors := make([]*identity.User, 0, opts.Contractors)
	for i := 1; i <= opts.Contractors; i++ {
		site := s.pickSite(sites, 0.7)
		u, err := s.user(ctx, tenant, "contractor"+strconv.Itoa(i),
			fmt.Sprintf("contractor%d@%s.com", i, tenant.Slug), defaultUserPassword, identity.RoleContractor, site)
		if err != nil {
			return nil, fmt.Errorf("seed contractor %d: %w", i, err)
		}
		contractors = append(contractors, u)
	}
	res.Contractors = len(contractors)

	authors := append(append([]*identity.User{}, managers...), contractors...)
	if len(authors) == 0 {
		authors = []*identity.User{admin}
	}
	for i := 1; i <= opts.Tickets; i++ {
		if err := s.seedTicket(ctx, tenant, i, sites, authors, contractors, admin); err != nil {
			return nil, fmt.Errorf("seed ticket %d: %w", i, err)
		}
		res.Tickets++
	}
	return res, nil
}

func (s *Seeder) tenant(ctx context.Context, opts Options) (*tenancy.Tenant, error) {
	t, err := s.tenants.FindBySlug(ctx, tenancy.NormalizeSlug(opts.TenantSlug))
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("find tenant: %w", err)
	}
	t, err = tenancy.NewTenant(opts.TenantName, opts.TenantSlug, "")
	if err != nil {
		return nil, err
	}
	if err := s.tenants.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create tenant: %w", err)
	}
	s.logger.Info("Tenant created", zap.String("slug", t.Slug))
	return t, nil
}

// user returns the tenant's user with username, creating it when missing. An
// existing user keeps its password but gets the requested role.
func (s *Seeder) user(ctx context.Context, tenant *tenancy.Tenant, username, email, password string, role identity.Role, site *uuid.UUID) (*identity.User, error) {
	u, err := s.users.FindByUsername(ctx, tenant.ID, username)
	switch {
	case err == nil:
		if u.Role != role {
			if err := u.SetRole(role); err != nil {
				return nil, err
			}
		}
		if site != nil {
			u.AssignSite(site)
		}
		return u, s.users.Update(ctx, u)
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}

	u, err = identity.NewUser(tenant.ID, username, email, password, role)
	if err != nil {
		return nil, err
	}
	u.AssignSite(site)
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Seeder) seedSites(ctx context.Context, tenant *tenancy.Tenant, count int) ([]*tenancy.Site, error) {
	existing, err := s.sites.FindAll(ctx, tenant.ID)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	bySlug := make(map[string]*tenancy.Site, len(existing))
	for _, site := range existing {
		bySlug[site.Slug] = site
	}

	sites := make([]*tenancy.Site, 0, count)
	for i := 1; i <= count; i++ {
		slug := "site-" + strconv.Itoa(i)
		if site, ok := bySlug[slug]; ok {
			sites = append(sites, site)
			continue
		}
		site, err := tenancy.NewSite(tenant.ID, "Site "+strconv.Itoa(i), slug, s.amount(50_000, 200_000))
		if err != nil {
			return nil, err
		}
		if err := s.sites.Create(ctx, site); err != nil {
			return nil, fmt.Errorf("create site %s: %w", slug, err)
		}
		sites = append(sites, site)
	}
	return sites, nil
}

// seedTicket creates a ticket and walks it through the lifecycle up to a random
// status, so every timestamp a real ticket would carry is set
func (s *Seeder) seedTicket(ctx context.Context, tenant *tenancy.Tenant, n int, sites []*tenancy.Site, authors, contractors []*identity.User, admin *identity.User) error {
	author := authors[s.rnd.IntN(len(authors))]
	t, err := ticket.NewTicket(tenant.ID, author.ID,
		"Ticket "+strconv.Itoa(n),
		fmt.Sprintf("Auto-generated ticket %d for tenant %s", n, tenant.Slug),
		ticket.AllPriorities[s.rnd.IntN(len(ticket.AllPriorities))],
		s.pickSite(sites, 1))
	if err != nil {
		return err
	}

	target := ticket.StatusOpen
	if len(contractors) > 0 && s.rnd.Float64() < 0.6 {
		target = ticket.AllStatuses[1+s.rnd.IntN(len(ticket.AllStatuses)-1)]
	}
	if target != ticket.StatusOpen {
		if err := s.advance(t, target, contractors[s.rnd.IntN(len(contractors))], admin); err != nil {
			return err
		}
	}
	return s.tickets.Create(ctx, t)
}

func (s *Seeder) advance(t *ticket.Ticket, target ticket.Status, contractor, admin *identity.User) error {
	if err := t.Assign(contractor, admin.ID); err != nil {
		return err
	}
	if err := t.Confirm(contractor.ID); err != nil {
		return err
	}
	if target == ticket.StatusAssigned {
		return nil
	}
	if err := t.StartWork(contractor.ID); err != nil {
		return err
	}
	if target == ticket.StatusInProgress {
		return nil
	}
	amount := s.amount(100, 5_000)
	if err := t.SetInvoiceAmount(&amount); err != nil {
		return err
	}
	if err := t.MarkResolved(contractor.ID, contractor.Role); err != nil {
		return err
	}
	if target == ticket.StatusResolved {
		return nil
	}
	rating := 1 + s.rnd.IntN(5)
	return t.Close(admin.ID, &rating, "")
}

// pickSite returns a random site id with probability p
func (s *Seeder) pickSite(sites []*tenancy.Site, p float64) *uuid.UUID {
	if len(sites) == 0 || s.rnd.Float64() >= p {
		return nil
	}
	id := sites[s.rnd.IntN(len(sites))].ID
	return &id
}

func (s *Seeder) amount(lo, hi int) decimal.Decimal {
	return decimal.NewFromInt(int64(lo + s.rnd.IntN(hi-lo+1)))
}
