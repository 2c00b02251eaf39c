// Package identity holds the account use cases: token issuance, user
// administration and OTP password reset.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/identity"
	"github.com/helpdesk/backend/internal/domain/shared"
	"github.com/helpdesk/backend/internal/domain/tenancy"
	"github.com/helpdesk/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// ErrInvalidCredentials is the single answer to every failed login or refresh
var ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "No active account found with the given credentials")

// AuthMetrics receives login and reset counters. A nil value disables recording.
type AuthMetrics interface {
	RecordLogin(success bool)
	RecordPasswordReset(channel string)
}

// AuthService issues, refreshes and revokes tokens
type AuthService struct {
	tenantRepo tenancy.TenantRepository
	userRepo   identity.UserRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	metrics    AuthMetrics
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	tenantRepo tenancy.TenantRepository,
	userRepo identity.UserRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	metrics AuthMetrics,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		tenantRepo: tenantRepo,
		userRepo:   userRepo,
		jwtService: jwtService,
		blacklist:  blacklist,
		metrics:    metrics,
		logger:     logger,
	}
}

// Login authenticates by tenant slug, username or email, and password
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	t, err := s.tenantRepo.FindBySlug(ctx, tenancy.NormalizeSlug(input.TenantSlug))
	if err != nil {
		s.logger.Warn("Login for unknown tenant", zap.String("tenant_slug", input.TenantSlug))
		return nil, s.loginFailed()
	}

	user, err := findByIdentifier(ctx, s.userRepo, t.ID, input.Identifier)
	if err != nil {
		s.logger.Warn("Login for unknown account",
			zap.String("tenant_slug", t.Slug),
			zap.String("identifier", input.Identifier))
		return nil, s.loginFailed()
	}
	if !user.CanLogin() || !user.VerifyPassword(input.Password) {
		s.logger.Warn("Login rejected",
			zap.String("tenant_slug", t.Slug),
			zap.String("user_id", user.ID.String()),
			zap.Bool("active", user.IsActive))
		return nil, s.loginFailed()
	}

	tokens, err := s.issue(user, t.Slug)
	if err != nil {
		return nil, err
	}

	user.RecordLogin()
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Warn("Failed to record last login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	if s.metrics != nil {
		s.metrics.RecordLogin(true)
	}
	s.logger.Info("User logged in",
		zap.String("tenant_slug", t.Slug),
		zap.String("user_id", user.ID.String()),
		zap.String("role", user.Role.String()))
	return &LoginResult{Tokens: tokens, Tenant: t, User: user}, nil
}

// Refresh trades a valid refresh token for a new pair. The presented refresh
// token is revoked so it cannot be replayed.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if revoked, err := s.isRevoked(ctx, claims); err != nil {
		return nil, fmt.Errorf("check token revocation: %w", err)
	} else if revoked {
		return nil, ErrInvalidCredentials
	}

	tenantID, err := claims.GetTenantUUID()
	if err != nil || tenantID == nil {
		return nil, ErrInvalidCredentials
	}
	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := s.userRepo.FindByID(ctx, *tenantID, userID)
	if err != nil || !user.CanLogin() {
		return nil, ErrInvalidCredentials
	}

	tokens, err := s.issue(user, claims.TenantSlug)
	if err != nil {
		return nil, err
	}
	if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
		s.logger.Warn("Failed to revoke used refresh token", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	return tokens, nil
}

// Logout revokes the presented access token
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" {
		return shared.ErrUnauthorized
	}
	if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	s.logger.Info("User logged out", zap.String("user_id", claims.UserID))
	return nil
}

// ValidateAccessToken checks signature, expiry and revocation of an access token
func (s *AuthService) ValidateAccessToken(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.jwtService.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}
	revoked, err := s.isRevoked(ctx, claims)
	if err != nil {
		return nil, fmt.Errorf("check token revocation: %w", err)
	}
	if revoked {
		return nil, auth.ErrTokenBlacklisted
	}
	return claims, nil
}

func (s *AuthService) isRevoked(ctx context.Context, claims *auth.Claims) (bool, error) {
	if claims.ID != "" {
		blacklisted, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil || blacklisted {
			return blacklisted, err
		}
	}
	return s.blacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.GetIssuedAtTime())
}

func (s *AuthService) issue(user *identity.User, tenantSlug string) (*auth.TokenPair, error) {
	tokens, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		TenantID:   user.TenantID,
		TenantSlug: tenantSlug,
		UserID:     user.ID,
		Username:   user.Username,
		Role:       user.Role.String(),
	})
	if err != nil {
		s.logger.Error("Failed to generate tokens", zap.String("user_id", user.ID.String()), zap.Error(err))
		return nil, fmt.Errorf("generate tokens: %w", err)
	}
	return tokens, nil
}

func (s *AuthService) loginFailed() error {
	if s.metrics != nil {
		s.metrics.RecordLogin(false)
	}
	return ErrInvalidCredentials
}

// findByIdentifier looks a user up by email first when the identifier looks like
// one, then by username, or the other way round.
func findByIdentifier(ctx context.Context, repo identity.UserRepository, tenantID uuid.UUID, identifier string) (*identity.User, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" {
		return nil, shared.ErrNotFound
	}

	lookups := []func(context.Context, uuid.UUID, string) (*identity.User, error){repo.FindByUsername, repo.FindByEmail}
	if strings.Contains(identifier, "@") {
		lookups[0], lookups[1] = lookups[1], lookups[0]
	}

	var lastErr error
	for _, find := range lookups {
		user, err := find(ctx, tenantID, identifier)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}
