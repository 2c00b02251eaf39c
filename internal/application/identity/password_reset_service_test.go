package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/identity"
	"github.com/helpdesk/backend/internal/domain/shared"
	"github.com/helpdesk/backend/internal/infrastructure/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type resetFixture struct {
	userRepo  *MockUserRepository
	otpRepo   *MockOTPRepository
	deliverer *MockDeliverer
	metrics   *MockMetrics
	blacklist *auth.InMemoryTokenBlacklist
	service   *PasswordResetService
	tenantID  uuid.UUID
	user      *identity.User
}

func newResetFixture(t *testing.T) *resetFixture {
	t.Helper()
	tenantID := uuid.New()
	user, err := identity.NewUser(tenantID, "erin", "erin@acme.test", "secret123", identity.RoleSiteManager)
	require.NoError(t, err)

	f := &resetFixture{
		userRepo:  new(MockUserRepository),
		otpRepo:   new(MockOTPRepository),
		deliverer: new(MockDeliverer),
		metrics:   new(MockMetrics),
		blacklist: auth.NewInMemoryTokenBlacklist(),
		tenantID:  tenantID,
		user:      user,
	}
	f.service = NewPasswordResetService(f.userRepo, f.otpRepo, f.deliverer, f.blacklist, f.metrics,
		PasswordResetConfig{MaxRequestsPerHour: 5, RevokeTTL: time.Hour}, zaptest.NewLogger(t))
	return f
}

func (f *resetFixture) issue(t *testing.T) *identity.PasswordResetOTP {
	t.Helper()
	otp, err := identity.NewPasswordResetOTP(f.user, identity.OTPChannelEmail)
	require.NoError(t, err)
	return otp
}

func TestPasswordResetService_Request(t *testing.T) {
	ctx := context.Background()

	t.Run("issues and delivers a code", func(t *testing.T) {
		f := newResetFixture(t)
		f.userRepo.On("FindByEmail", mock.Anything, f.tenantID, "erin@acme.test").Return(f.user, nil)
		f.otpRepo.On("CountSince", mock.Anything, f.tenantID, f.user.ID, mock.AnythingOfType("time.Time")).Return(int64(0), nil)
		f.otpRepo.On("Create", mock.Anything, mock.AnythingOfType("*identity.PasswordResetOTP")).Return(nil)
		f.metrics.On("RecordPasswordReset", "email").Return()
		f.deliverer.On("DeliverResetCode", mock.Anything, f.user, identity.OTPChannelEmail, mock.MatchedBy(func(code string) bool {
			return len(code) == identity.OTPLength
		})).Return(nil)

		err := f.service.Request(ctx, f.tenantID, RequestOTPInput{Identifier: "erin@acme.test", Channel: identity.OTPChannelEmail})
		require.NoError(t, err)
		f.otpRepo.AssertExpectations(t)
		f.deliverer.AssertExpectations(t)
		f.metrics.AssertExpectations(t)
	})

	t.Run("delivery failure is swallowed", func(t *testing.T) {
		f := newResetFixture(t)
		f.userRepo.On("FindByUsername", mock.Anything, f.tenantID, "erin").Return(f.user, nil)
		f.otpRepo.On("CountSince", mock.Anything, f.tenantID, f.user.ID, mock.Anything).Return(int64(0), nil)
		f.otpRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.metrics.On("RecordPasswordReset", "whatsapp").Return()
		f.deliverer.On("DeliverResetCode", mock.Anything, f.user, identity.OTPChannelWhatsApp, mock.Anything).Return(errors.New("provider down"))

		err := f.service.Request(ctx, f.tenantID, RequestOTPInput{Identifier: "erin", Channel: identity.OTPChannelWhatsApp})
		assert.NoError(t, err)
	})

	t.Run("unknown account looks like success", func(t *testing.T) {
		f := newResetFixture(t)
		f.userRepo.On("FindByUsername", mock.Anything, f.tenantID, "ghost").Return(nil, shared.ErrNotFound)
		f.userRepo.On("FindByEmail", mock.Anything, f.tenantID, "ghost").Return(nil, shared.ErrNotFound)

		err := f.service.Request(ctx, f.tenantID, RequestOTPInput{Identifier: "ghost", Channel: identity.OTPChannelEmail})
		assert.NoError(t, err)
		f.otpRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("inactive account looks like success", func(t *testing.T) {
		f := newResetFixture(t)
		f.user.SetActive(false)
		f.userRepo.On("FindByUsername", mock.Anything, f.tenantID, "erin").Return(f.user, nil)

		err := f.service.Request(ctx, f.tenantID, RequestOTPInput{Identifier: "erin", Channel: identity.OTPChannelEmail})
		assert.NoError(t, err)
		f.otpRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("throttled", func(t *testing.T) {
		f := newResetFixture(t)
		f.userRepo.On("FindByUsername", mock.Anything, f.tenantID, "erin").Return(f.user, nil)
		f.otpRepo.On("CountSince", mock.Anything, f.tenantID, f.user.ID, mock.Anything).Return(int64(5), nil)

		err := f.service.Request(ctx, f.tenantID, RequestOTPInput{Identifier: "erin", Channel: identity.OTPChannelEmail})
		assert.NoError(t, err)
		f.otpRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		f.deliverer.AssertNotCalled(t, "DeliverResetCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown channel", func(t *testing.T) {
		f := newResetFixture(t)
		err := f.service.Request(ctx, f.tenantID, RequestOTPInput{Identifier: "erin", Channel: "sms"})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestPasswordResetService_Verify(t *testing.T) {
	ctx := context.Background()

	t.Run("valid code", func(t *testing.T) {
		f := newResetFixture(t)
		otp := f.issue(t)
		f.userRepo.On("FindByUsername", mock.Anything, f.tenantID, "erin").Return(f.user, nil)
		f.otpRepo.On("FindLatestUnused", mock.Anything, f.tenantID, f.user.ID).Return(otp, nil)
		f.otpRepo.On("FindLatestUnusedByCode", mock.Anything, f.tenantID, f.user.ID, otp.Code).Return(otp, nil)

		assert.NoError(t, f.service.Verify(ctx, f.tenantID, VerifyOTPInput{Identifier: "erin", Code: otp.Code}))
		assert.False(t, otp.IsUsed)
	})

	t.Run("wrong code counts an attempt", func(t *testing.T) {
		f := newResetFixture(t)
		otp := f.issue(t)
		f.userRepo.On("FindByUsername", mock.Anything, f.tenantID, "erin").Return(f.user, nil)
		f.otpRepo.On("FindLatestUnused", mock.Anything, f.tenantID, f.user.ID).Return(otp, nil)
		f.otpRepo.On("FindLatestUnusedByCode", mock.Anything, f.tenantID, f.user.ID, "000000").Return(nil, shared.ErrNotFound)
		f.otpRepo.On("Update", mock.Anything, otp).Return(nil)

		err := f.service.Verify(ctx, f.tenantID, VerifyOTPInput{Identifier: "erin", Code: "000000"})
		assert.ErrorIs(t, err, identity.ErrOTPInvalid)
		assert.Equal(t, 1, otp.Attempts)
	})

	t.Run("last failed attempt locks the code", func(t *testing.T) {
		f := newResetFixture(t)
		otp := f.issue(t)
		otp.Attempts = identity.OTPMaxAttempts - 1
		f.userRepo.On("FindByUsername", mock.Anything, f.tenantID, "erin").Return(f.user, nil)
		f.otpRepo.On("FindLatestUnused", mock.Anything, f.tenantID, f.user.ID).Return(otp, nil)
		f.otpRepo.On("FindLatestUnusedByCode", mock.Anything, f.tenantID, f.user.ID, "000000").Return(nil, shared.ErrNotFound)
		f.otpRepo.On("Update", mock.Anything, otp).Return(nil)

		err := f.service.Verify(ctx, f.tenantID, VerifyOTPInput{Identifier: "erin", Code: "000000"})
		assert.ErrorIs(t, err, identity.ErrOTPTooManyAttempts)
	})

	t.Run("exhausted code rejects even the right code", func(t *testing.T) {
		f := newResetFixture(t)
		otp := f.issue(t)
		otp.Attempts = identity.OTPMaxAttempts
		f.userRepo.On("FindByUsername", mock.Anything, f.tenantID, "erin").Return(f.user, nil)
		f.otpRepo.On("FindLatestUnused", mock.Anything, f.tenantID, f.user.ID).Return(otp, nil)

		err := f.service.Verify(ctx, f.tenantID, VerifyOTPInput{Identifier: "erin", Code: otp.Code})
		assert.ErrorIs(t, err, identity.ErrOTPTooManyAttempts)
		f.otpRepo.AssertNotCalled(t, "FindLatestUnusedByCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("expired code", func(t *testing.T) {
		f := newResetFixture(t)
		otp := f.issue(t)
		otp.ExpiresAt = time.Now().Add(-time.Second)
		f.userRepo.On("FindByUsername", mock.Anything, f.tenantID, "erin").Return(f.user, nil)
		f.otpRepo.On("FindLatestUnused", mock.Anything, f.tenantID, f.user.ID).Return(otp, nil)
		f.otpRepo.On("FindLatestUnusedByCode", mock.Anything, f.tenantID, f.user.ID, otp.Code).Return(otp, nil)

		err := f.service.Verify(ctx, f.tenantID, VerifyOTPInput{Identifier: "erin", Code: otp.Code})
		assert.ErrorIs(t, err, identity.ErrOTPExpired)
	})

	t.Run("no outstanding code", func(t *testing.T) {
		f := newResetFixture(t)
		f.userRepo.On("FindByUsername", mock.Anything, f.tenantID, "erin").Return(f.user, nil)
		f.otpRepo.On("FindLatestUnused", mock.Anything, f.tenantID, f.user.ID).Return(nil, shared.ErrNotFound)

		err := f.service.Verify(ctx, f.tenantID, VerifyOTPInput{Identifier: "erin", Code: "123456"})
		assert.ErrorIs(t, err, identity.ErrOTPInvalid)
	})

	t.Run("unknown account", func(t *testing.T) {
		f := newResetFixture(t)
		f.userRepo.On("FindByUsername", mock.Anything, f.tenantID, "ghost").Return(nil, shared.ErrNotFound)
		f.userRepo.On("FindByEmail", mock.Anything, f.tenantID, "ghost").Return(nil, shared.ErrNotFound)

		err := f.service.Verify(ctx, f.tenantID, VerifyOTPInput{Identifier: "ghost", Code: "123456"})
		assert.ErrorIs(t, err, identity.ErrOTPInvalid)
	})
}

func TestPasswordResetService_Reset(t *testing.T) {
	ctx := context.Background()

	t.Run("sets password and revokes sessions", func(t *testing.T) {
		f := newResetFixture(t)
		otp := f.issue(t)
		f.userRepo.On("FindByUsername", mock.Anything, f.tenantID, "erin").Return(f.user, nil)
		f.otpRepo.On("FindLatestUnused", mock.Anything, f.tenantID, f.user.ID).Return(otp, nil)
		f.otpRepo.On("FindLatestUnusedByCode", mock.Anything, f.tenantID, f.user.ID, otp.Code).Return(otp, nil)
		f.otpRepo.On("ConsumeWithPassword", mock.Anything, otp, f.user).Return(nil)

		err := f.service.Reset(ctx, f.tenantID, ResetPasswordInput{Identifier: "erin", Code: otp.Code, NewPassword: "newpass456"})
		require.NoError(t, err)
		assert.True(t, f.user.VerifyPassword("newpass456"))

		revoked, err := f.blacklist.IsUserTokenInvalidated(ctx, f.user.ID.String(), time.Now().Add(-time.Minute))
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("weak password leaves the code unused", func(t *testing.T) {
		f := newResetFixture(t)
		otp := f.issue(t)
		f.userRepo.On("FindByUsername", mock.Anything, f.tenantID, "erin").Return(f.user, nil)
		f.otpRepo.On("FindLatestUnused", mock.Anything, f.tenantID, f.user.ID).Return(otp, nil)
		f.otpRepo.On("FindLatestUnusedByCode", mock.Anything, f.tenantID, f.user.ID, otp.Code).Return(otp, nil)

		err := f.service.Reset(ctx, f.tenantID, ResetPasswordInput{Identifier: "erin", Code: otp.Code, NewPassword: "short"})
		require.Error(t, err)
		f.otpRepo.AssertNotCalled(t, "ConsumeWithPassword", mock.Anything, mock.Anything, mock.Anything)
		assert.True(t, f.user.VerifyPassword("secret123"))
	})

	t.Run("concurrent consumption loses", func(t *testing.T) {
		f := newResetFixture(t)
		otp := f.issue(t)
		f.userRepo.On("FindByUsername", mock.Anything, f.tenantID, "erin").Return(f.user, nil)
		f.otpRepo.On("FindLatestUnused", mock.Anything, f.tenantID, f.user.ID).Return(otp, nil)
		f.otpRepo.On("FindLatestUnusedByCode", mock.Anything, f.tenantID, f.user.ID, otp.Code).Return(otp, nil)
		f.otpRepo.On("ConsumeWithPassword", mock.Anything, otp, f.user).Return(identity.ErrOTPInvalid)

		err := f.service.Reset(ctx, f.tenantID, ResetPasswordInput{Identifier: "erin", Code: otp.Code, NewPassword: "newpass456"})
		assert.ErrorIs(t, err, identity.ErrOTPInvalid)

		revoked, err := f.blacklist.IsUserTokenInvalidated(ctx, f.user.ID.String(), time.Now().Add(-time.Minute))
		require.NoError(t, err)
		assert.False(t, revoked)
	})
}

func TestPasswordResetService_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	restore := shared.Now
	shared.Now = func() time.Time { return now }
	defer func() { shared.Now = restore }()

	t.Run("uses the configured retention", func(t *testing.T) {
		f := newResetFixture(t)
		f.service.config.Retention = 24 * time.Hour
		f.otpRepo.On("DeleteExpiredBefore", mock.Anything, now.Add(-24*time.Hour)).Return(int64(3), nil)

		n, err := f.service.PurgeExpired(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)
	})

	t.Run("never reaches into the rate limit window", func(t *testing.T) {
		f := newResetFixture(t)
		f.service.config.Retention = time.Minute
		f.otpRepo.On("DeleteExpiredBefore", mock.Anything, now.Add(-time.Hour)).Return(int64(0), nil)

		_, err := f.service.PurgeExpired(ctx)
		require.NoError(t, err)
		f.otpRepo.AssertExpectations(t)
	})

	t.Run("repository error", func(t *testing.T) {
		f := newResetFixture(t)
		f.otpRepo.On("DeleteExpiredBefore", mock.Anything, mock.Anything).Return(int64(0), errors.New("db down"))

		_, err := f.service.PurgeExpired(ctx)
		assert.ErrorContains(t, err, "db down")
	})
}
