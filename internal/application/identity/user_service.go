package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/identity"
	"github.com/helpdesk/backend/internal/domain/shared"
	"github.com/helpdesk/backend/internal/domain/tenancy"
	"github.com/helpdesk/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// UserService handles user administration inside a tenant
type UserService struct {
	userRepo  identity.UserRepository
	siteRepo  tenancy.SiteRepository
	blacklist auth.TokenBlacklist
	revokeTTL time.Duration // how long a session revocation must outlive issued tokens
	logger    *zap.Logger
}

// NewUserService creates a new UserService. revokeTTL should be the refresh token lifetime.
func NewUserService(
	userRepo identity.UserRepository,
	siteRepo tenancy.SiteRepository,
	blacklist auth.TokenBlacklist,
	revokeTTL time.Duration,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:  userRepo,
		siteRepo:  siteRepo,
		blacklist: blacklist,
		revokeTTL: revokeTTL,
		logger:    logger,
	}
}

// Me returns the caller's own account
func (s *UserService) Me(ctx context.Context, p identity.Principal, tenantID uuid.UUID) (*identity.User, error) {
	if err := identity.Authorize(p, tenantID, identity.ActionProfileView); err != nil {
		return nil, err
	}
	return s.userRepo.FindByID(ctx, tenantID, p.UserID)
}

// List returns the tenant's users
func (s *UserService) List(ctx context.Context, p identity.Principal, tenantID uuid.UUID, filter identity.UserFilter) (shared.Paginated[*identity.User], error) {
	if identity.SeesNothing(p) {
		return shared.NewPaginated[*identity.User](nil, 0, filter.Page), nil
	}
	if err := identity.Authorize(p, tenantID, identity.ActionUserView); err != nil {
		return shared.Paginated[*identity.User]{}, err
	}
	users, total, err := s.userRepo.FindAll(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[*identity.User]{}, fmt.Errorf("list users: %w", err)
	}
	return shared.NewPaginated(users, total, filter.Page), nil
}

// Get returns one user of the tenant
func (s *UserService) Get(ctx context.Context, p identity.Principal, tenantID, id uuid.UUID) (*identity.User, error) {
	if err := identity.Authorize(p, tenantID, identity.ActionUserView); err != nil {
		return nil, err
	}
	return s.userRepo.FindByID(ctx, tenantID, id)
}

// Register creates a user inside the tenant. Tenant membership always comes from
// the path, never from the request body.
func (s *UserService) Register(ctx context.Context, p identity.Principal, tenantID uuid.UUID, input RegisterUserInput) (*identity.User, error) {
	if err := identity.Authorize(p, tenantID, identity.ActionUserManage); err != nil {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = identity.RoleSiteManager
	}
	user, err := identity.NewUser(tenantID, input.Username, input.Email, input.Password, role)
	if err != nil {
		return nil, err
	}
	if err := user.SetProfile(input.FirstName, input.LastName, input.PhoneNumber); err != nil {
		return nil, err
	}
	if input.Contractor != nil {
		user.SetContractorProfile(*input.Contractor)
	}
	if input.SiteID != nil {
		if err := s.ensureSite(ctx, tenantID, *input.SiteID); err != nil {
			return nil, err
		}
		user.AssignSite(input.SiteID)
	}

	if err := s.ensureUnique(ctx, tenantID, user.Username, user.Email, nil); err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("User registered",
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("role", user.Role.String()),
		zap.String("registered_by", p.UserID.String()))
	return user, nil
}

// Update applies an admin's changes to a user. Changing the password, role or
// active flag ends the user's existing sessions.
func (s *UserService) Update(ctx context.Context, p identity.Principal, tenantID, id uuid.UUID, input UpdateUserInput) (*identity.User, error) {
	if err := identity.Authorize(p, tenantID, identity.ActionUserManage); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	revoke := false
	if input.Username != nil {
		if err := user.SetUsername(*input.Username); err != nil {
			return nil, err
		}
	}
	if input.Email != nil {
		if err := user.SetEmail(*input.Email); err != nil {
			return nil, err
		}
	}
	if input.Password != nil {
		if err := user.SetPassword(*input.Password); err != nil {
			return nil, err
		}
		revoke = true
	}
	if input.Role != nil && *input.Role != user.Role {
		if err := user.SetRole(*input.Role); err != nil {
			return nil, err
		}
		revoke = true
	}
	if input.FirstName != nil || input.LastName != nil || input.PhoneNumber != nil {
		if err := user.SetProfile(
			valueOr(input.FirstName, user.FirstName),
			valueOr(input.LastName, user.LastName),
			valueOr(input.PhoneNumber, user.PhoneNumber),
		); err != nil {
			return nil, err
		}
	}
	if input.Contractor != nil {
		user.SetContractorProfile(*input.Contractor)
	}
	switch {
	case input.ClearSite:
		user.AssignSite(nil)
	case input.SiteID != nil:
		if err := s.ensureSite(ctx, tenantID, *input.SiteID); err != nil {
			return nil, err
		}
		user.AssignSite(input.SiteID)
	}
	if input.IsActive != nil && *input.IsActive != user.IsActive {
		if !*input.IsActive && user.ID == p.UserID {
			return nil, shared.NewDomainError("VALIDATION_ERROR", "You cannot deactivate your own account")
		}
		user.SetActive(*input.IsActive)
		revoke = revoke || !*input.IsActive
	}

	if err := s.ensureUnique(ctx, tenantID, user.Username, user.Email, &user.ID); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if revoke {
		s.revokeSessions(ctx, user.ID)
	}
	return user, nil
}

// Delete removes a user. Admins cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, p identity.Principal, tenantID, id uuid.UUID) error {
	if err := identity.Authorize(p, tenantID, identity.ActionUserManage); err != nil {
		return err
	}
	if id == p.UserID {
		return shared.NewDomainError("VALIDATION_ERROR", "You cannot delete your own account")
	}
	if err := s.userRepo.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.revokeSessions(ctx, id)
	s.logger.Info("User deleted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", id.String()),
		zap.String("deleted_by", p.UserID.String()))
	return nil
}

func (s *UserService) ensureUnique(ctx context.Context, tenantID uuid.UUID, username, email string, excludeID *uuid.UUID) error {
	exists, err := s.userRepo.ExistsByUsername(ctx, tenantID, username, excludeID)
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if exists {
		return shared.NewDomainError("ALREADY_EXISTS", "A user with this username already exists")
	}
	exists, err = s.userRepo.ExistsByEmail(ctx, tenantID, email, excludeID)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if exists {
		return shared.NewDomainError("ALREADY_EXISTS", "A user with this email already exists")
	}
	return nil
}

func (s *UserService) ensureSite(ctx context.Context, tenantID, siteID uuid.UUID) error {
	if _, err := s.siteRepo.FindByID(ctx, tenantID, siteID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("VALIDATION_ERROR", "Site does not belong to this tenant")
		}
		return err
	}
	return nil
}

func (s *UserService) revokeSessions(ctx context.Context, userID uuid.UUID) {
	if err := s.blacklist.AddUserTokensToBlacklist(ctx, userID.String(), s.revokeTTL); err != nil {
		s.logger.Warn("Failed to revoke user sessions", zap.String("user_id", userID.String()), zap.Error(err))
	}
}

func valueOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}
