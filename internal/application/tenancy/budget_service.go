package tenancy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/identity"
	"github.com/helpdesk/backend/internal/domain/shared"
	"github.com/helpdesk/backend/internal/domain/tenancy"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SpendReader sums the invoice amounts of tickets resolved at a site in [from, to)
type SpendReader interface {
	SumInvoiceAmountResolvedBetween(ctx context.Context, tenantID, siteID uuid.UUID, from, to time.Time) (decimal.Decimal, error)
}

// BudgetService handles monthly site budgets and spend aggregation
type BudgetService struct {
	siteRepo   tenancy.SiteRepository
	budgetRepo tenancy.SiteBudgetRepository
	spend      SpendReader
	logger     *zap.Logger
}

// NewBudgetService creates a new BudgetService
func NewBudgetService(
	siteRepo tenancy.SiteRepository,
	budgetRepo tenancy.SiteBudgetRepository,
	spend SpendReader,
	logger *zap.Logger,
) *BudgetService {
	return &BudgetService{
		siteRepo:   siteRepo,
		budgetRepo: budgetRepo,
		spend:      spend,
		logger:     logger,
	}
}

// Upsert writes the budget of one site-month. A write for the current calendar
// month also becomes the site's default budget.
func (s *BudgetService) Upsert(ctx context.Context, p identity.Principal, tenantID, siteID uuid.UUID, input BudgetInput) (*tenancy.SiteBudget, error) {
	if err := identity.Authorize(p, tenantID, identity.ActionBudgetManage); err != nil {
		return nil, err
	}
	site, err := s.siteRepo.FindByID(ctx, tenantID, siteID)
	if err != nil {
		return nil, err
	}
	budget, err := tenancy.NewSiteBudget(tenantID, site.ID, input.Year, input.Month, input.Amount)
	if err != nil {
		return nil, err
	}
	stored, err := s.budgetRepo.Upsert(ctx, budget)
	if err != nil {
		return nil, fmt.Errorf("upsert site budget: %w", err)
	}

	if stored.IsCurrentMonth(shared.Now()) {
		site.SyncBudget(stored.Amount)
		if err := s.siteRepo.Update(ctx, site); err != nil {
			return nil, fmt.Errorf("sync site budget: %w", err)
		}
	}

	s.logger.Info("Site budget saved",
		zap.String("tenant_id", tenantID.String()),
		zap.String("site_id", site.ID.String()),
		zap.Int("year", stored.Year),
		zap.Int("month", stored.Month),
		zap.String("amount", stored.Amount.StringFixed(2)))
	return stored, nil
}

// List returns a site's monthly budgets, optionally restricted to one year
func (s *BudgetService) List(ctx context.Context, p identity.Principal, tenantID, siteID uuid.UUID, year *int) ([]*tenancy.SiteBudget, error) {
	if identity.SeesNothing(p) {
		return []*tenancy.SiteBudget{}, nil
	}
	if err := identity.Authorize(p, tenantID, identity.ActionBudgetView); err != nil {
		return nil, err
	}
	if _, err := s.siteRepo.FindByID(ctx, tenantID, siteID); err != nil {
		return nil, err
	}
	return s.budgetRepo.FindBySite(ctx, tenantID, siteID, year)
}

// Summary reports budget, spend, remaining and utilization of a site for one month.
//
// With year and month the row for that month is used (no row means no budget).
// With only a year the latest row of that year is used. Without a period the
// latest row overall is current; a site with no rows reports its default budget
// for the current month.
func (s *BudgetService) Summary(ctx context.Context, p identity.Principal, tenantID, siteID uuid.UUID, q SummaryQuery) (*tenancy.BudgetSummary, error) {
	if err := identity.Authorize(p, tenantID, identity.ActionBudgetView); err != nil {
		return nil, err
	}
	site, err := s.siteRepo.FindByID(ctx, tenantID, siteID)
	if err != nil {
		return nil, err
	}

	year, month, amount, err := s.resolvePeriod(ctx, site, q)
	if err != nil {
		return nil, err
	}

	from, to := tenancy.MonthRange(year, month)
	spent, err := s.spend.SumInvoiceAmountResolvedBetween(ctx, tenantID, site.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("sum site spend: %w", err)
	}

	summary := tenancy.NewBudgetSummary(site.ID, year, month, amount, spent)
	return &summary, nil
}

func (s *BudgetService) resolvePeriod(ctx context.Context, site *tenancy.Site, q SummaryQuery) (int, int, decimal.Decimal, error) {
	now := shared.Now().UTC()

	if q.Month != nil {
		year := now.Year()
		if q.Year != nil {
			year = *q.Year
		}
		if err := tenancy.ValidatePeriod(year, *q.Month); err != nil {
			return 0, 0, decimal.Zero, err
		}
		row, err := s.budgetRepo.FindForMonth(ctx, site.TenantID, site.ID, year, *q.Month)
		switch {
		case err == nil:
			return year, *q.Month, row.Amount, nil
		case errors.Is(err, shared.ErrNotFound):
			return year, *q.Month, decimal.Zero, nil
		default:
			return 0, 0, decimal.Zero, fmt.Errorf("find site budget: %w", err)
		}
	}

	if q.Year != nil {
		if err := tenancy.ValidatePeriod(*q.Year, 1); err != nil {
			return 0, 0, decimal.Zero, err
		}
		rows, err := s.budgetRepo.FindBySite(ctx, site.TenantID, site.ID, q.Year)
		if err != nil {
			return 0, 0, decimal.Zero, fmt.Errorf("list site budgets: %w", err)
		}
		if len(rows) == 0 {
			return *q.Year, 12, decimal.Zero, nil
		}
		newest := rows[0]
		return newest.Year, newest.Month, newest.Amount, nil
	}

	latest, err := s.budgetRepo.FindLatest(ctx, site.TenantID, site.ID)
	switch {
	case err == nil:
		return latest.Year, latest.Month, latest.Amount, nil
	case errors.Is(err, shared.ErrNotFound):
		return now.Year(), int(now.Month()), site.Budget, nil
	default:
		return 0, 0, decimal.Zero, fmt.Errorf("find latest site budget: %w", err)
	}
}

// Overview returns one budget figure per site: the sum of the year's monthly rows
// when a year is given, otherwise each site's default budget.
func (s *BudgetService) Overview(ctx context.Context, p identity.Principal, tenantID uuid.UUID, year *int) ([]tenancy.SiteBudgetTotal, error) {
	if identity.SeesNothing(p) {
		return []tenancy.SiteBudgetTotal{}, nil
	}
	if err := identity.Authorize(p, tenantID, identity.ActionBudgetView); err != nil {
		return nil, err
	}
	if year != nil {
		if err := tenancy.ValidatePeriod(*year, 1); err != nil {
			return nil, err
		}
		return s.budgetRepo.SumByYear(ctx, tenantID, *year)
	}

	sites, err := s.siteRepo.FindAll(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	totals := make([]tenancy.SiteBudgetTotal, 0, len(sites))
	for _, site := range sites {
		totals = append(totals, tenancy.SiteBudgetTotal{
			SiteID:   site.ID,
			SiteName: site.Name,
			SiteSlug: site.Slug,
			Budget:   site.Budget,
		})
	}
	return totals, nil
}
