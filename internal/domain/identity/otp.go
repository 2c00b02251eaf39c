package identity

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/shared"
)

// OTP policy
const (
	OTPLength      = 6
	OTPTTL         = 10 * time.Minute
	OTPMaxAttempts = 5
)

// OTPChannel is the delivery channel of a reset code
type OTPChannel string

const (
	OTPChannelEmail    OTPChannel = "email"
	OTPChannelWhatsApp OTPChannel = "whatsapp"
)

// IsValid reports whether the channel is known
func (c OTPChannel) IsValid() bool {
	return c == OTPChannelEmail || c == OTPChannelWhatsApp
}

// OTP verification errors surfaced to the caller
var (
	ErrOTPInvalid         = shared.NewDomainError("INVALID_OTP", "invalid code")
	ErrOTPExpired         = shared.NewDomainError("OTP_EXPIRED", "code expired")
	ErrOTPTooManyAttempts = shared.NewDomainError("OTP_TOO_MANY_ATTEMPTS", "too many attempts, request a new code")
)

// PasswordResetOTP is a one-time numeric code authorizing a password reset
type PasswordResetOTP struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TenantID  uuid.UUID
	Code      string
	Channel   OTPChannel
	ExpiresAt time.Time
	Attempts  int
	IsUsed    bool
	CreatedAt time.Time
}

// NewPasswordResetOTP issues a fresh random code for the user
func NewPasswordResetOTP(user *User, channel OTPChannel) (*PasswordResetOTP, error) {
	if !channel.IsValid() {
		return nil, shared.NewDomainError("INVALID_CHANNEL", "Channel must be email or whatsapp")
	}
	if !user.HasTenant() {
		return nil, shared.NewDomainError("INVALID_USER", "User has no tenant")
	}
	code, err := GenerateNumericCode(OTPLength)
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}
	now := shared.Now()
	return &PasswordResetOTP{
		ID:        uuid.New(),
		UserID:    user.ID,
		TenantID:  *user.TenantID,
		Code:      code,
		Channel:   channel,
		ExpiresAt: now.Add(OTPTTL),
		CreatedAt: now,
	}, nil
}

// IsExpired reports whether now is at or past the expiry
func (o *PasswordResetOTP) IsExpired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}

// Check validates the code for use at time now
func (o *PasswordResetOTP) Check(now time.Time) error {
	if o.IsUsed {
		return ErrOTPInvalid
	}
	if o.IsExpired(now) {
		return ErrOTPExpired
	}
	return nil
}

// RecordAttempt counts a verification attempt
func (o *PasswordResetOTP) RecordAttempt() {
	o.Attempts++
}

// Exhausted reports whether the attempt budget is spent
func (o *PasswordResetOTP) Exhausted() bool {
	return o.Attempts >= OTPMaxAttempts
}

// MarkUsed consumes the code
func (o *PasswordResetOTP) MarkUsed() error {
	if o.IsUsed {
		return ErrOTPInvalid
	}
	o.IsUsed = true
	return nil
}

// GenerateNumericCode returns n uniformly random decimal digits
func GenerateNumericCode(n int) (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", n, v), nil
}
