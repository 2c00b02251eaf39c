package tenancy

import (
	"time"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// SiteBudget is the budget amount of one site for one calendar month
type SiteBudget struct {
	shared.BaseEntity
	TenantID uuid.UUID
	SiteID   uuid.UUID
	Year     int
	Month    int
	Amount   decimal.Decimal
}

// NewSiteBudget validates and builds a monthly budget row
func NewSiteBudget(tenantID, siteID uuid.UUID, year, month int, amount decimal.Decimal) (*SiteBudget, error) {
	if err := ValidatePeriod(year, month); err != nil {
		return nil, err
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_BUDGET", "Budget amount cannot be negative")
	}
	return &SiteBudget{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		SiteID:     siteID,
		Year:       year,
		Month:      month,
		Amount:     amount.Round(2),
	}, nil
}

// IsCurrentMonth reports whether the row covers the month containing now
func (b *SiteBudget) IsCurrentMonth(now time.Time) bool {
	now = now.UTC()
	return b.Year == now.Year() && b.Month == int(now.Month())
}

// ValidatePeriod checks a year/month pair
func ValidatePeriod(year, month int) error {
	if year < 2000 || year > 9999 {
		return shared.NewDomainError("INVALID_YEAR", "Year must be between 2000 and 9999")
	}
	if month < 1 || month > 12 {
		return shared.NewDomainError("INVALID_MONTH", "Month must be between 1 and 12")
	}
	return nil
}

// MonthRange returns the half-open UTC interval [start, end) of a calendar month
func MonthRange(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// BudgetSummary is the spend position of a site for one month
type BudgetSummary struct {
	SiteID      uuid.UUID
	Year        int
	Month       int
	Budget      decimal.Decimal
	Spent       decimal.Decimal
	Remaining   decimal.Decimal
	Utilization decimal.Decimal // percent, two decimal places
}

// NewBudgetSummary derives remaining and utilization. Remaining may go negative;
// utilization is zero when there is no budget to divide by.
func NewBudgetSummary(siteID uuid.UUID, year, month int, budget, spent decimal.Decimal) BudgetSummary {
	utilization := decimal.Zero
	if budget.IsPositive() {
		utilization = spent.Div(budget).Mul(hundred).Round(2)
	}
	return BudgetSummary{
		SiteID:      siteID,
		Year:        year,
		Month:       month,
		Budget:      budget,
		Spent:       spent,
		Remaining:   budget.Sub(spent),
		Utilization: utilization,
	}
}

// SiteBudgetTotal is one row of the tenant budget overview
type SiteBudgetTotal struct {
	SiteID   uuid.UUID
	SiteName string
	SiteSlug string
	Budget   decimal.Decimal
}
