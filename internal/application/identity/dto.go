package identity

import (
	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/identity"
	"github.com/helpdesk/backend/internal/domain/tenancy"
	"github.com/helpdesk/backend/internal/infrastructure/auth"
)

// LoginInput contains the input for obtaining a token pair
type LoginInput struct {
	TenantSlug string
	Identifier string // username or email
	Password   string
}

// LoginResult contains the issued tokens and the authenticated account
type LoginResult struct {
	Tokens *auth.TokenPair
	Tenant *tenancy.Tenant
	User   *identity.User
}

// RegisterUserInput contains the input for creating a tenant user
type RegisterUserInput struct {
	Username    string
	Email       string
	Password    string
	Role        identity.Role
	FirstName   string
	LastName    string
	PhoneNumber string
	SiteID      *uuid.UUID
	Contractor  *identity.ContractorProfile
}

// UpdateUserInput contains the fields an admin may change; nil means unchanged
type UpdateUserInput struct {
	Username    *string
	Email       *string
	Password    *string
	Role        *identity.Role
	FirstName   *string
	LastName    *string
	PhoneNumber *string
	SiteID      *uuid.UUID
	ClearSite   bool
	IsActive    *bool
	Contractor  *identity.ContractorProfile
}

// RequestOTPInput asks for a password reset code
type RequestOTPInput struct {
	Identifier string
	Channel    identity.OTPChannel
}

// VerifyOTPInput checks a password reset code
type VerifyOTPInput struct {
	Identifier string
	Code       string
}

// ResetPasswordInput consumes a code and sets a new password
type ResetPasswordInput struct {
	Identifier  string
	Code        string
	NewPassword string
}
