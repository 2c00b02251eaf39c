package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Password cost for bcrypt
const bcryptCost = 12

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-.@+]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	letterRegex   = regexp.MustCompile(`[a-zA-Z]`)
	digitRegex    = regexp.MustCompile(`[0-9]`)
)

// ContractorProfile carries the company details of a contractor
type ContractorProfile struct {
	IsActiveContractor bool
	CompanyName        string
	ContactPerson      string
	ContactPhone       string
	Address            string
}

// User is a tenant member. TenantID is nil only for bootstrap accounts.
type User struct {
	shared.BaseAggregateRoot
	TenantID     *uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	FirstName    string
	LastName     string
	PhoneNumber  string
	SiteID       *uuid.UUID
	IsActive     bool
	Contractor   ContractorProfile
	LastLoginAt  *time.Time
}

// NewUser creates an active user inside a tenant
func NewUser(tenantID uuid.UUID, username, email, password string, role Role) (*User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(strings.TrimSpace(email)); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Role must be one of ADMIN, CONTRACTOR, SITE_MANAGER")
	}

	u := &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		TenantID:          &tenantID,
		Username:          strings.ToLower(strings.TrimSpace(username)),
		Email:             strings.ToLower(strings.TrimSpace(email)),
		Role:              role,
		IsActive:          true,
	}
	if role == RoleContractor {
		u.Contractor.IsActiveContractor = true
	}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	return u, nil
}

// HasTenant reports whether the user is scoped to a tenant
func (u *User) HasTenant() bool {
	return u.TenantID != nil
}

// InTenant reports whether the user belongs to the tenant
func (u *User) InTenant(tenantID uuid.UUID) bool {
	return u.TenantID != nil && *u.TenantID == tenantID
}

// IsContractor reports whether the user can be assigned tickets
func (u *User) IsContractor() bool {
	return u.Role == RoleContractor
}

// IsAdmin reports whether the user is a tenant admin
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// SetEmail sets the user's email
func (u *User) SetEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return err
	}
	u.Email = email
	u.Touch()
	u.IncrementVersion()
	return nil
}

// SetUsername sets the user's username
func (u *User) SetUsername(username string) error {
	if err := validateUsername(username); err != nil {
		return err
	}
	u.Username = strings.ToLower(strings.TrimSpace(username))
	u.Touch()
	u.IncrementVersion()
	return nil
}

// SetRole changes the user's role
func (u *User) SetRole(role Role) error {
	if !role.IsValid() {
		return shared.NewDomainError("INVALID_ROLE", "Role must be one of ADMIN, CONTRACTOR, SITE_MANAGER")
	}
	u.Role = role
	u.Touch()
	u.IncrementVersion()
	return nil
}

// SetProfile sets the personal contact fields
func (u *User) SetProfile(firstName, lastName, phone string) error {
	if len(firstName) > 150 || len(lastName) > 150 {
		return shared.NewDomainError("INVALID_NAME", "Names cannot exceed 150 characters")
	}
	if len(phone) > 32 {
		return shared.NewDomainError("INVALID_PHONE", "Phone number cannot exceed 32 characters")
	}
	u.FirstName = strings.TrimSpace(firstName)
	u.LastName = strings.TrimSpace(lastName)
	u.PhoneNumber = strings.TrimSpace(phone)
	u.Touch()
	u.IncrementVersion()
	return nil
}

// SetContractorProfile replaces the contractor metadata
func (u *User) SetContractorProfile(p ContractorProfile) {
	p.CompanyName = strings.TrimSpace(p.CompanyName)
	p.ContactPerson = strings.TrimSpace(p.ContactPerson)
	p.ContactPhone = strings.TrimSpace(p.ContactPhone)
	p.Address = strings.TrimSpace(p.Address)
	u.Contractor = p
	u.Touch()
	u.IncrementVersion()
}

// AssignSite sets or clears the user's site
func (u *User) AssignSite(siteID *uuid.UUID) {
	u.SiteID = siteID
	u.Touch()
	u.IncrementVersion()
}

// SetActive activates or deactivates the account
func (u *User) SetActive(active bool) {
	u.IsActive = active
	u.Touch()
	u.IncrementVersion()
}

// SetPassword validates and hashes a new password
func (u *User) SetPassword(newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	u.PasswordHash = string(hash)
	u.Touch()
	u.IncrementVersion()
	return nil
}

// VerifyPassword verifies if the provided password matches
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// CanLogin returns true if the account may obtain tokens
func (u *User) CanLogin() bool {
	return u.IsActive && u.HasTenant()
}

// RecordLogin stamps the last login time
func (u *User) RecordLogin() {
	now := shared.Now()
	u.LastLoginAt = &now
}

// FullName returns "first last", or empty when neither is set
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// DisplayName returns the full name if set, otherwise the username
func (u *User) DisplayName() string {
	if name := u.FullName(); name != "" {
		return name
	}
	return u.Username
}

// Principal returns the authorization view of the user
func (u *User) Principal() Principal {
	return Principal{UserID: u.ID, TenantID: u.TenantID, Role: u.Role, Username: u.Username}
}

// Validation functions

func validateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot be empty")
	}
	if len(username) < 3 {
		return shared.NewDomainError("INVALID_USERNAME", "Username must be at least 3 characters")
	}
	if len(username) > 150 {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot exceed 150 characters")
	}
	if !usernameRegex.MatchString(username) {
		return shared.NewDomainError("INVALID_USERNAME", "Username can only contain letters, numbers and . _ - @ +")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot be empty")
	}
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 128 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 128 characters")
	}
	if !letterRegex.MatchString(password) || !digitRegex.MatchString(password) {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must contain at least one letter and one number")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if len(email) > 254 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 254 characters")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}
