package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/helpdesk/backend/internal/domain/identity"
	"github.com/helpdesk/backend/internal/infrastructure/auth"
	"github.com/helpdesk/backend/internal/infrastructure/logger"
	"github.com/helpdesk/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey  = "jwt_claims"
	PrincipalKey  = "principal"
	UserIDKey     = "user_id"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// errMissingCredentials is reported when no bearer token was presented
var errMissingCredentials = errors.New("missing bearer token")

// TokenValidator checks an access token, including revocation
type TokenValidator interface {
	ValidateAccessToken(ctx context.Context, token string) (*auth.Claims, error)
}

// JWTAuth requires a valid, unrevoked access token and stores the caller's
// claims and principal in the gin context
func JWTAuth(validator TokenValidator, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			authFailed(c, log, errMissingCredentials, "missing or malformed authorization header")
			return
		}

		claims, p, err := authenticate(c, validator, token)
		if err != nil {
			authFailed(c, log, err, "token validation failed")
			return
		}
		setCaller(c, claims, p)

		c.Next()
	}
}

// OptionalJWTAuth sets the caller when a valid bearer token is presented and
// lets the request through anonymously otherwise
func OptionalJWTAuth(validator TokenValidator, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			claims, p, err := authenticate(c, validator, token)
			if err == nil {
				setCaller(c, claims, p)
			} else {
				log.Debug("Ignoring invalid optional token",
					zap.String("path", c.Request.URL.Path),
					zap.Error(err))
			}
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, validator TokenValidator, token string) (*auth.Claims, identity.Principal, error) {
	claims, err := validator.ValidateAccessToken(c.Request.Context(), token)
	if err != nil {
		return nil, identity.Principal{}, err
	}
	p, err := principalFromClaims(claims)
	if err != nil {
		return nil, identity.Principal{}, auth.ErrInvalidClaims
	}
	return claims, p, nil
}

func setCaller(c *gin.Context, claims *auth.Claims, p identity.Principal) {
	c.Set(JWTClaimsKey, claims)
	c.Set(PrincipalKey, p)
	c.Set(UserIDKey, claims.UserID)
	c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), claims.UserID))
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader(AuthHeaderKey)
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	return token, token != ""
}

func principalFromClaims(claims *auth.Claims) (identity.Principal, error) {
	userID, err := claims.GetUserUUID()
	if err != nil {
		return identity.Principal{}, err
	}
	tenantID, err := claims.GetTenantUUID()
	if err != nil {
		return identity.Principal{}, err
	}
	role, err := identity.ParseRole(claims.Role)
	if err != nil {
		return identity.Principal{}, err
	}
	return identity.Principal{
		UserID:   userID,
		TenantID: tenantID,
		Role:     role,
		Username: claims.Username,
	}, nil
}

// authFailed answers 401 with a code that tells expired from revoked tokens
func authFailed(c *gin.Context, log *zap.Logger, err error, reason string) {
	log.Debug("JWT authentication failed",
		zap.String("reason", reason),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))

	code, message := dto.ErrCodeUnauthorized, "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenBlacklisted):
		code, message = dto.ErrCodeTokenRevoked, "Token has been revoked"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidTokenType),
		errors.Is(err, auth.ErrInvalidClaims), errors.Is(err, auth.ErrTokenNotYetValid):
		code, message = dto.ErrCodeTokenInvalid, "Invalid token"
	}
	abort(c, http.StatusUnauthorized, code, message)
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(JWTClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetPrincipal returns the authenticated caller
func GetPrincipal(c *gin.Context) (identity.Principal, bool) {
	if v, ok := c.Get(PrincipalKey); ok {
		if p, ok := v.(identity.Principal); ok {
			return p, true
		}
	}
	return identity.Principal{}, false
}
