package identity

import (
	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/shared"
)

// Action names an operation guarded by the capability table
type Action string

const (
	ActionTenantManage Action = "tenant.manage"

	ActionSiteView     Action = "site.view"
	ActionSiteManage   Action = "site.manage"
	ActionBudgetView   Action = "budget.view"
	ActionBudgetManage Action = "budget.manage"

	ActionUserView    Action = "user.view"
	ActionUserManage  Action = "user.manage"
	ActionProfileView Action = "profile.view"

	ActionTicketView             Action = "ticket.view"
	ActionTicketCreate           Action = "ticket.create"
	ActionTicketUpdate           Action = "ticket.update"
	ActionTicketDelete           Action = "ticket.delete"
	ActionTicketAssign           Action = "ticket.assign"
	ActionTicketConfirm          Action = "ticket.confirm"
	ActionTicketStart            Action = "ticket.start"
	ActionTicketResolve          Action = "ticket.resolve"
	ActionTicketClose            Action = "ticket.close"
	ActionTicketStats            Action = "ticket.stats"
	ActionTicketAttachDocument   Action = "ticket.attach_document"
	ActionTicketUploadAttachment Action = "ticket.upload_attachment"
	ActionTicketLinkAsset        Action = "ticket.link_asset"

	ActionAssetView   Action = "asset.view"
	ActionAssetManage Action = "asset.manage"
)

var (
	everyone    = []Role{RoleAdmin, RoleSiteManager, RoleContractor}
	adminOnly   = []Role{RoleAdmin}
	managers    = []Role{RoleAdmin, RoleSiteManager}
	contractors = []Role{RoleContractor}
)

// capabilities maps every action to the roles allowed to perform it
var capabilities = map[Action][]Role{
	ActionTenantManage: adminOnly,

	ActionSiteView:     managers,
	ActionSiteManage:   adminOnly,
	ActionBudgetView:   managers,
	ActionBudgetManage: adminOnly,

	ActionUserView:    managers,
	ActionUserManage:  adminOnly,
	ActionProfileView: everyone,

	ActionTicketView:             everyone,
	ActionTicketCreate:           managers,
	ActionTicketUpdate:           managers,
	ActionTicketDelete:           adminOnly,
	ActionTicketAssign:           managers,
	ActionTicketConfirm:          contractors,
	ActionTicketStart:            contractors,
	ActionTicketResolve:          everyone,
	ActionTicketClose:            managers,
	ActionTicketStats:            managers,
	ActionTicketAttachDocument:   managers,
	ActionTicketUploadAttachment: everyone,
	ActionTicketLinkAsset:        managers,

	ActionAssetView:   everyone,
	ActionAssetManage: managers,
}

// RolesFor returns the roles allowed to perform the action
func RolesFor(action Action) []Role {
	return capabilities[action]
}

// Can reports whether the role may perform the action. Unknown actions are denied.
func Can(role Role, action Action) bool {
	for _, r := range capabilities[action] {
		if r == role {
			return true
		}
	}
	return false
}

// Principal is the authenticated caller as seen by the authorization gate
type Principal struct {
	UserID   uuid.UUID
	TenantID *uuid.UUID
	Role     Role
	Username string
}

// HasTenant reports whether the caller is scoped to a tenant
func (p Principal) HasTenant() bool {
	return p.TenantID != nil && *p.TenantID != uuid.Nil
}

// InTenant reports whether the caller belongs to the tenant
func (p Principal) InTenant(tenantID uuid.UUID) bool {
	return p.HasTenant() && *p.TenantID == tenantID
}

// CheckTenant enforces the tenant match rule alone
func CheckTenant(p Principal, tenantID uuid.UUID) error {
	if !p.InTenant(tenantID) {
		return shared.ErrTenantMismatch
	}
	return nil
}

// Authorize applies the tenant match rule and then the capability table
func Authorize(p Principal, tenantID uuid.UUID, action Action) error {
	if err := CheckTenant(p, tenantID); err != nil {
		return err
	}
	return AuthorizeRole(p, action)
}

// AuthorizeRole applies the capability table without a tenant check
func AuthorizeRole(p Principal, action Action) error {
	if !Can(p.Role, action) {
		return shared.ErrForbidden
	}
	return nil
}

// SeesNothing reports whether a list operation must return an empty result:
// callers without a tenant get no data instead of an error.
func SeesNothing(p Principal) bool {
	return !p.HasTenant()
}
