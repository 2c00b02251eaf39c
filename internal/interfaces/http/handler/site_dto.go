package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/tenancy"
	"github.com/shopspring/decimal"
)

// SiteRequest represents the request body for creating or replacing a site
type SiteRequest struct {
	Name   string          `json:"name" binding:"required,max=255"`
	Slug   string          `json:"slug" binding:"required,max=100"`
	Budget decimal.Decimal `json:"budget"`
}

// BudgetRequest writes one monthly budget
type BudgetRequest struct {
	Year   int             `json:"year" binding:"required,min=2000,max=2100"`
	Month  int             `json:"month" binding:"required,min=1,max=12"`
	Amount decimal.Decimal `json:"amount"`
}

// SiteResponse represents a site in API responses
type SiteResponse struct {
	ID        uuid.UUID       `json:"id"`
	TenantID  uuid.UUID       `json:"tenant_id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	Budget    decimal.Decimal `json:"budget"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func toSiteResponse(s *tenancy.Site) SiteResponse {
	return SiteResponse{
		ID:        s.ID,
		TenantID:  s.TenantID,
		Name:      s.Name,
		Slug:      s.Slug,
		Budget:    s.Budget,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func toSiteResponses(sites []*tenancy.Site) []SiteResponse {
	out := make([]SiteResponse, 0, len(sites))
	for _, s := range sites {
		out = append(out, toSiteResponse(s))
	}
	return out
}

// SiteBudgetResponse is one monthly budget row
type SiteBudgetResponse struct {
	ID        uuid.UUID       `json:"id"`
	SiteID    uuid.UUID       `json:"site_id"`
	Year      int             `json:"year"`
	Month     int             `json:"month"`
	Amount    decimal.Decimal `json:"amount"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func toSiteBudgetResponse(b *tenancy.SiteBudget) SiteBudgetResponse {
	return SiteBudgetResponse{
		ID:        b.ID,
		SiteID:    b.SiteID,
		Year:      b.Year,
		Month:     b.Month,
		Amount:    b.Amount,
		UpdatedAt: b.UpdatedAt,
	}
}

func toSiteBudgetResponses(budgets []*tenancy.SiteBudget) []SiteBudgetResponse {
	out := make([]SiteBudgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toSiteBudgetResponse(b))
	}
	return out
}

// BudgetSummaryResponse is the spend position of a site for one month
type BudgetSummaryResponse struct {
	SiteID      uuid.UUID       `json:"site_id"`
	Year        int             `json:"year"`
	Month       int             `json:"month"`
	Budget      decimal.Decimal `json:"budget"`
	Spent       decimal.Decimal `json:"spent"`
	Remaining   decimal.Decimal `json:"remaining"`
	Utilization decimal.Decimal `json:"utilization"`
}

func toBudgetSummaryResponse(s *tenancy.BudgetSummary) BudgetSummaryResponse {
	return BudgetSummaryResponse{
		SiteID:      s.SiteID,
		Year:        s.Year,
		Month:       s.Month,
		Budget:      s.Budget,
		Spent:       s.Spent,
		Remaining:   s.Remaining,
		Utilization: s.Utilization,
	}
}

// SiteBudgetTotalResponse is one row of the tenant budget overview
type SiteBudgetTotalResponse struct {
	SiteID   uuid.UUID       `json:"site_id"`
	SiteName string          `json:"site_name"`
	SiteSlug string          `json:"site_slug"`
	Budget   decimal.Decimal `json:"budget"`
}

func toSiteBudgetTotalResponses(rows []tenancy.SiteBudgetTotal) []SiteBudgetTotalResponse {
	out := make([]SiteBudgetTotalResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, SiteBudgetTotalResponse{
			SiteID:   r.SiteID,
			SiteName: r.SiteName,
			SiteSlug: r.SiteSlug,
			Budget:   r.Budget,
		})
	}
	return out
}
