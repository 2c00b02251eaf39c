package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/identity"
	"github.com/helpdesk/backend/internal/domain/shared"
	"github.com/helpdesk/backend/internal/infrastructure/auth"
	"github.com/helpdesk/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CodeDeliverer sends a reset code to the user over the chosen channel
type CodeDeliverer interface {
	DeliverResetCode(ctx context.Context, user *identity.User, channel identity.OTPChannel, code string) error
}

// PasswordResetConfig contains the reset policy
type PasswordResetConfig struct {
	MaxRequestsPerHour int
	RevokeTTL          time.Duration // refresh token lifetime
	// Retention keeps expired codes around before PurgeExpired removes them
	Retention time.Duration
}

// PasswordResetService implements the request, verify and reset steps of the OTP flow
type PasswordResetService struct {
	userRepo  identity.UserRepository
	otpRepo   identity.PasswordResetOTPRepository
	deliverer CodeDeliverer
	blacklist auth.TokenBlacklist
	metrics   AuthMetrics
	config    PasswordResetConfig
	logger    *zap.Logger
}

// NewPasswordResetService creates a new PasswordResetService
func NewPasswordResetService(
	userRepo identity.UserRepository,
	otpRepo identity.PasswordResetOTPRepository,
	deliverer CodeDeliverer,
	blacklist auth.TokenBlacklist,
	metrics AuthMetrics,
	config PasswordResetConfig,
	logger *zap.Logger,
) *PasswordResetService {
	return &PasswordResetService{
		userRepo:  userRepo,
		otpRepo:   otpRepo,
		deliverer: deliverer,
		blacklist: blacklist,
		metrics:   metrics,
		config:    config,
		logger:    logger,
	}
}

// PurgeExpired deletes codes that expired more than Retention ago. Codes inside
// the last hour always survive so the hourly request cap keeps counting them.
func (s *PasswordResetService) PurgeExpired(ctx context.Context) (int64, error) {
	retention := s.config.Retention
	if retention < time.Hour {
		retention = time.Hour
	}
	n, err := s.otpRepo.DeleteExpiredBefore(ctx, shared.Now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("purge reset codes: %w", err)
	}
	if n > 0 {
		s.logger.Info("Purged expired reset codes", zap.Int64("count", n))
	}
	return n, nil
}

// Request issues a code. Unknown, inactive and throttled accounts get the same
// silent success so the endpoint cannot be used to probe for accounts.
func (s *PasswordResetService) Request(ctx context.Context, tenantID uuid.UUID, input RequestOTPInput) error {
	if !input.Channel.IsValid() {
		return shared.NewDomainError("VALIDATION_ERROR", "Channel must be email or whatsapp")
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "password_reset", "request",
		telemetry.ID(telemetry.AttrTenantID, tenantID),
		telemetry.AttrChannel.String(string(input.Channel)),
	)
	defer span.End()

	user, err := findByIdentifier(ctx, s.userRepo, tenantID, input.Identifier)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			telemetry.RecordError(span, err)
			return fmt.Errorf("find user: %w", err)
		}
		s.logger.Info("Password reset requested for unknown account", zap.String("tenant_id", tenantID.String()))
		return nil
	}
	if !user.IsActive {
		s.logger.Info("Password reset requested for inactive account", zap.String("user_id", user.ID.String()))
		return nil
	}

	if s.config.MaxRequestsPerHour > 0 {
		count, err := s.otpRepo.CountSince(ctx, tenantID, user.ID, shared.Now().Add(-time.Hour))
		if err != nil {
			telemetry.RecordError(span, err)
			return fmt.Errorf("count reset codes: %w", err)
		}
		if count >= int64(s.config.MaxRequestsPerHour) {
			s.logger.Warn("Password reset throttled",
				zap.String("user_id", user.ID.String()),
				zap.Int64("issued_last_hour", count))
			return nil
		}
	}

	otp, err := identity.NewPasswordResetOTP(user, input.Channel)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	if err := s.otpRepo.Create(ctx, otp); err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("store reset code: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordPasswordReset(string(input.Channel))
	}

	if err := s.deliverer.DeliverResetCode(ctx, user, input.Channel, otp.Code); err != nil {
		s.logger.Warn("Failed to deliver reset code",
			zap.String("user_id", user.ID.String()),
			zap.String("channel", string(input.Channel)),
			zap.Error(err))
	}
	telemetry.SetOK(span)
	return nil
}

// Verify checks a code without consuming it
func (s *PasswordResetService) Verify(ctx context.Context, tenantID uuid.UUID, input VerifyOTPInput) error {
	_, _, err := s.check(ctx, tenantID, input.Identifier, input.Code)
	return err
}

// Reset validates the code, stores the new password, consumes the code and ends
// every existing session of the user.
func (s *PasswordResetService) Reset(ctx context.Context, tenantID uuid.UUID, input ResetPasswordInput) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "password_reset", "reset")
	defer span.End()

	user, otp, err := s.check(ctx, tenantID, input.Identifier, input.Code)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	if err := user.SetPassword(input.NewPassword); err != nil {
		return err
	}
	if err := s.otpRepo.ConsumeWithPassword(ctx, otp, user); err != nil {
		telemetry.RecordError(span, err)
		if errors.Is(err, identity.ErrOTPInvalid) {
			return err
		}
		return fmt.Errorf("reset password: %w", err)
	}

	if err := s.blacklist.AddUserTokensToBlacklist(ctx, user.ID.String(), s.config.RevokeTTL); err != nil {
		s.logger.Warn("Failed to revoke sessions after password reset",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
	}
	s.logger.Info("Password reset completed", zap.String("user_id", user.ID.String()))
	telemetry.SetOK(span)
	return nil
}

// check resolves the user and the code they presented. Failed guesses count
// against the user's latest outstanding code; once that budget is spent no code
// is accepted until a new one is requested.
func (s *PasswordResetService) check(ctx context.Context, tenantID uuid.UUID, identifier, code string) (*identity.User, *identity.PasswordResetOTP, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil, identity.ErrOTPInvalid
	}
	user, err := findByIdentifier(ctx, s.userRepo, tenantID, identifier)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil, identity.ErrOTPInvalid
		}
		return nil, nil, fmt.Errorf("find user: %w", err)
	}

	latest, err := s.otpRepo.FindLatestUnused(ctx, tenantID, user.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil, identity.ErrOTPInvalid
		}
		return nil, nil, fmt.Errorf("find reset code: %w", err)
	}
	if latest.Exhausted() {
		return nil, nil, identity.ErrOTPTooManyAttempts
	}

	otp, err := s.otpRepo.FindLatestUnusedByCode(ctx, tenantID, user.ID, code)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, nil, fmt.Errorf("find reset code: %w", err)
		}
		latest.RecordAttempt()
		if err := s.otpRepo.Update(ctx, latest); err != nil {
			s.logger.Warn("Failed to record reset code attempt", zap.String("user_id", user.ID.String()), zap.Error(err))
		}
		if latest.Exhausted() {
			return nil, nil, identity.ErrOTPTooManyAttempts
		}
		return nil, nil, identity.ErrOTPInvalid
	}

	if err := otp.Check(shared.Now()); err != nil {
		return nil, nil, err
	}
	return user, otp, nil
}
