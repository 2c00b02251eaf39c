package tenancy

import (
	"github.com/helpdesk/backend/internal/domain/identity"
	"github.com/helpdesk/backend/internal/domain/tenancy"
	"github.com/shopspring/decimal"
)

// CreateTenantInput contains the input for creating a tenant
type CreateTenantInput struct {
	Name   string
	Slug   string
	Domain string
	Admin  *InitialAdminInput // optional first account of the tenant
}

// InitialAdminInput describes the admin account created together with a tenant
type InitialAdminInput struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
}

// CreateTenantResult is the created tenant and its initial admin, if one was requested
type CreateTenantResult struct {
	Tenant *tenancy.Tenant
	Admin  *identity.User
}

// SiteInput contains the editable fields of a site
type SiteInput struct {
	Name   string
	Slug   string
	Budget decimal.Decimal
}

// BudgetInput is one monthly budget write
type BudgetInput struct {
	Year   int
	Month  int
	Amount decimal.Decimal
}

// SummaryQuery selects the period of a budget summary. Both fields are optional.
type SummaryQuery struct {
	Year  *int
	Month *int
}
