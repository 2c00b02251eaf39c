package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/shared"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	// FindByID finds a user within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*User, error)
	// FindByEmail finds a user by email within a tenant (case-insensitive)
	FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*User, error)
	// FindByUsername finds a user by username within a tenant (case-insensitive)
	FindByUsername(ctx context.Context, tenantID uuid.UUID, username string) (*User, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*User, error)
	FindByRole(ctx context.Context, tenantID uuid.UUID, role Role) ([]*User, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter UserFilter) ([]*User, int64, error)

	ExistsByUsername(ctx context.Context, tenantID uuid.UUID, username string, excludeID *uuid.UUID) (bool, error)
	ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string, excludeID *uuid.UUID) (bool, error)
}

// UserFilter contains filter options for querying users
type UserFilter struct {
	// Search keyword for username, email, or names
	Keyword  string
	Role     *Role
	SiteID   *uuid.UUID
	IsActive *bool
	shared.Page
}

// PasswordResetOTPRepository persists reset codes
type PasswordResetOTPRepository interface {
	Create(ctx context.Context, otp *PasswordResetOTP) error
	Update(ctx context.Context, otp *PasswordResetOTP) error
	// FindLatestUnusedByCode returns the newest unused code row of the user matching code
	FindLatestUnusedByCode(ctx context.Context, tenantID, userID uuid.UUID, code string) (*PasswordResetOTP, error)
	// FindLatestUnused returns the newest unused code row of the user, if any
	FindLatestUnused(ctx context.Context, tenantID, userID uuid.UUID) (*PasswordResetOTP, error)
	// CountSince counts codes issued to the user since t
	CountSince(ctx context.Context, tenantID, userID uuid.UUID, since time.Time) (int64, error)
	// ConsumeWithPassword marks the code used and stores the user's new password
	// hash in one transaction. A code already used by a concurrent request fails
	// with ErrOTPInvalid and the password is left unchanged.
	ConsumeWithPassword(ctx context.Context, otp *PasswordResetOTP, user *User) error
	// DeleteExpiredBefore removes the codes of every tenant that expired before t
	DeleteExpiredBefore(ctx context.Context, t time.Time) (int64, error)
}
