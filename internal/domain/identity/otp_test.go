package identity

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOTPUser(t *testing.T) *User {
	t.Helper()
	u, err := NewUser(uuid.New(), "someone", "a@b.co", "Password123", RoleSiteManager)
	require.NoError(t, err)
	return u
}

func TestNewPasswordResetOTP(t *testing.T) {
	user := newOTPUser(t)

	otp, err := NewPasswordResetOTP(user, OTPChannelEmail)

	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9]{6}$`), otp.Code)
	assert.Equal(t, user.ID, otp.UserID)
	assert.Equal(t, *user.TenantID, otp.TenantID)
	assert.Equal(t, OTPTTL, otp.ExpiresAt.Sub(otp.CreatedAt))
	assert.False(t, otp.IsUsed)
	assert.Zero(t, otp.Attempts)
}

func TestNewPasswordResetOTP_RejectsUnknownChannel(t *testing.T) {
	_, err := NewPasswordResetOTP(newOTPUser(t), OTPChannel("sms"))
	assert.Error(t, err)
}

func TestPasswordResetOTP_Check(t *testing.T) {
	otp, err := NewPasswordResetOTP(newOTPUser(t), OTPChannelWhatsApp)
	require.NoError(t, err)

	t.Run("valid before expiry", func(t *testing.T) {
		assert.NoError(t, otp.Check(otp.ExpiresAt.Add(-time.Second)))
	})

	t.Run("expired exactly at expires_at", func(t *testing.T) {
		assert.True(t, errors.Is(otp.Check(otp.ExpiresAt), ErrOTPExpired))
	})

	t.Run("used code is invalid and cannot be consumed twice", func(t *testing.T) {
		require.NoError(t, otp.MarkUsed())
		assert.True(t, errors.Is(otp.Check(otp.CreatedAt), ErrOTPInvalid))
		assert.True(t, errors.Is(otp.MarkUsed(), ErrOTPInvalid))
	})
}

func TestPasswordResetOTP_Attempts(t *testing.T) {
	otp, err := NewPasswordResetOTP(newOTPUser(t), OTPChannelEmail)
	require.NoError(t, err)

	for i := 0; i < OTPMaxAttempts-1; i++ {
		otp.RecordAttempt()
	}
	assert.False(t, otp.Exhausted())
	otp.RecordAttempt()
	assert.True(t, otp.Exhausted())
}

func TestGenerateNumericCode_PadsLeadingZeros(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateNumericCode(6)
		require.NoError(t, err)
		assert.Len(t, code, 6)
	}
}
