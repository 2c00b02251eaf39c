package tenancy

import (
	"regexp"
	"strings"

	"github.com/helpdesk/backend/internal/domain/shared"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// reservedSlugs collide with the global route segments mounted beside /:tenant_slug
var reservedSlugs = map[string]struct{}{
	"auth":     {},
	"tenants":  {},
	"webhooks": {},
	"health":   {},
	"metrics":  {},
}

// Tenant is an isolated organization and the root of all data scoping
type Tenant struct {
	shared.BaseAggregateRoot
	Name   string
	Slug   string
	Domain string
}

// NewTenant creates a new tenant
func NewTenant(name, slug, domain string) (*Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_TENANT_NAME", "Tenant name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_TENANT_NAME", "Tenant name cannot exceed 200 characters")
	}
	slug = NormalizeSlug(slug)
	if err := validateSlug(slug); err != nil {
		return nil, err
	}
	if _, reserved := reservedSlugs[slug]; reserved {
		return nil, shared.NewDomainError("INVALID_SLUG", "Slug is reserved")
	}
	domain = strings.ToLower(strings.TrimSpace(domain))
	if len(domain) > 200 {
		return nil, shared.NewDomainError("INVALID_DOMAIN", "Domain cannot exceed 200 characters")
	}

	return &Tenant{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Slug:              slug,
		Domain:            domain,
	}, nil
}

// NormalizeSlug lower-cases and trims a slug
func NormalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

func validateSlug(slug string) error {
	if slug == "" {
		return shared.NewDomainError("INVALID_SLUG", "Slug cannot be empty")
	}
	if len(slug) < 2 || len(slug) > 50 {
		return shared.NewDomainError("INVALID_SLUG", "Slug must be between 2 and 50 characters")
	}
	if !slugPattern.MatchString(slug) {
		return shared.NewDomainError("INVALID_SLUG", "Slug can only contain lowercase letters, numbers and hyphens")
	}
	return nil
}
