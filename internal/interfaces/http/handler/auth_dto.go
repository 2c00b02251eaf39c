package handler

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/infrastructure/auth"
)

// =====================
// Auth Request DTOs
// =====================

// TokenRequest represents the request body for obtaining a token pair. The
// account may be named by identifier, email or username.
type TokenRequest struct {
	TenantSlug string `json:"tenant_slug" binding:"required,max=50"`
	Identifier string `json:"identifier" binding:"max=254"`
	Email      string `json:"email" binding:"max=254"`
	Username   string `json:"username" binding:"max=150"`
	Password   string `json:"password" binding:"required,max=128"`
}

// identifier returns the first account name supplied
func (r TokenRequest) identifier() string {
	for _, v := range []string{r.Identifier, r.Email, r.Username} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// RefreshTokenRequest represents the request body for token refresh
type RefreshTokenRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// =====================
// Auth Response DTOs
// =====================

// TokenResponse represents the token pair together with the account it was issued to
type TokenResponse struct {
	Access           string     `json:"access"`
	Refresh          string     `json:"refresh"`
	AccessExpiresAt  time.Time  `json:"access_expires_at"`
	RefreshExpiresAt time.Time  `json:"refresh_expires_at"`
	TokenType        string     `json:"token_type"`
	Tenant           string     `json:"tenant,omitempty"`
	TenantID         *uuid.UUID `json:"tenant_id,omitempty"`
	Role             string     `json:"role,omitempty"`
	UserID           *uuid.UUID `json:"user_id,omitempty"`
}

func toTokenResponse(pair *auth.TokenPair) TokenResponse {
	return TokenResponse{
		Access:           pair.AccessToken,
		Refresh:          pair.RefreshToken,
		AccessExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:        pair.TokenType,
	}
}
