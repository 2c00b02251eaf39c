package handler

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/identity"
	"github.com/helpdesk/backend/internal/domain/shared"
	"github.com/helpdesk/backend/internal/domain/tenancy"
	"github.com/helpdesk/backend/internal/interfaces/http/dto"
	"github.com/helpdesk/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

func newTestContext(method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// setCaller puts an authenticated principal and its tenant into the context
// the way JWTAuth and TenantGate would
func setCaller(c *gin.Context, role identity.Role) (identity.Principal, *tenancy.Tenant) {
	tenant := &tenancy.Tenant{BaseAggregateRoot: shared.NewBaseAggregateRoot(), Name: "Acme", Slug: "acme"}
	p := identity.Principal{UserID: uuid.New(), TenantID: &tenant.ID, Role: role}
	c.Set(middleware.PrincipalKey, p)
	c.Set(middleware.TenantKey, tenant)
	return p, tenant
}

type stubURLs map[string]string

func (s stubURLs) URL(_ context.Context, key string) (string, error) {
	if u, ok := s[key]; ok {
		return u, nil
	}
	return "", errors.New("no such key")
}

func TestBaseHandlerSuccess(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/")

	h.Success(c, map[string]string{"key": "value"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
}

func TestBaseHandlerSuccessWithMeta(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/")

	h.SuccessWithMeta(c, []string{"item1", "item2"}, 100, 1, 10)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(100), resp.Meta.Total)
	assert.Equal(t, 10, resp.Meta.TotalPages)
}

func TestBaseHandlerCreated(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodPost, "/")

	h.Created(c, map[string]string{"id": "123"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decodeResponse(t, w).Success)
}

func TestBaseHandlerNoContent(t *testing.T) {
	h := &BaseHandler{}

	router := gin.New()
	router.DELETE("/test", func(c *gin.Context) {
		h.NoContent(c)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/test", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.Bytes())
}

func TestBaseHandlerErrorMethods(t *testing.T) {
	tests := []struct {
		name         string
		method       func(*BaseHandler, *gin.Context)
		expectedCode int
		expectedErr  string
	}{
		{"BadRequest", func(h *BaseHandler, c *gin.Context) { h.BadRequest(c, "bad") }, http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"Forbidden", func(h *BaseHandler, c *gin.Context) { h.Forbidden(c, "no") }, http.StatusForbidden, dto.ErrCodeForbidden},
		{"Error", func(h *BaseHandler, c *gin.Context) {
			h.Error(c, http.StatusTooManyRequests, dto.ErrCodeRateLimited, "slow down")
		}, http.StatusTooManyRequests, dto.ErrCodeRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newTestContext(http.MethodGet, "/")

			tt.method(h, c)

			assert.Equal(t, tt.expectedCode, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.expectedErr, resp.Error.Code)
		})
	}
}

func TestBaseHandlerErrorWithRequestID(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/")
	c.Set(middleware.RequestIDKey, "req-42")

	h.BadRequest(c, "bad")

	assert.Equal(t, "req-42", decodeResponse(t, w).Error.RequestID)
}

func TestBaseHandlerValidationError(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodPost, "/")

	h.ValidationError(c, []dto.ValidationDetail{{Field: "title", Message: "This field is required"}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "title", resp.Error.Details[0].Field)
}

func TestBaseHandlerHandleError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedErr  string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"already exists", shared.ErrAlreadyExists, http.StatusConflict, dto.ErrCodeAlreadyExists},
		{"invalid input", shared.ErrInvalidInput, http.StatusBadRequest, dto.ErrCodeInvalidInput},
		{"unauthorized", shared.ErrUnauthorized, http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"forbidden", shared.ErrForbidden, http.StatusForbidden, dto.ErrCodeForbidden},
		{"invalid state", shared.ErrInvalidState, http.StatusUnprocessableEntity, dto.ErrCodeInvalidState},
		{"concurrency conflict", shared.ErrConcurrencyConflict, http.StatusConflict, dto.ErrCodeConcurrencyConflict},
		{"tenant mismatch", shared.ErrTenantMismatch, http.StatusForbidden, dto.ErrCodeTenantMismatch},
		{"wrapped domain error", fmt.Errorf("load ticket: %w", shared.ErrNotFound), http.StatusNotFound, dto.ErrCodeNotFound},
		{"unknown *_NOT_FOUND code", shared.NewDomainError("SITE_NOT_FOUND", "Site not found"), http.StatusNotFound, "SITE_NOT_FOUND"},
		{"unknown code defaults to 400", shared.NewDomainError("INVALID_MONTH", "Month must be between 1 and 12"), http.StatusBadRequest, "INVALID_MONTH"},
		{"plain error", errors.New("connection refused"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newTestContext(http.MethodGet, "/")

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.expectedCode, w.Code)
			resp := decodeResponse(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.expectedErr, resp.Error.Code)
		})
	}

	t.Run("internal details are hidden", func(t *testing.T) {
		h := &BaseHandler{}
		c, w := newTestContext(http.MethodGet, "/")

		h.HandleError(c, errors.New("pq: password authentication failed"))

		assert.NotContains(t, w.Body.String(), "password authentication")
	})

	t.Run("nil writes nothing", func(t *testing.T) {
		h := &BaseHandler{}
		c, w := newTestContext(http.MethodGet, "/")

		h.HandleError(c, nil)

		assert.Empty(t, w.Body.Bytes())
	})
}

func TestBaseHandlerBindJSON(t *testing.T) {
	type request struct {
		Title string `json:"title" binding:"required,max=5"`
	}

	tests := []struct {
		name        string
		body        string
		ok          bool
		expectedErr string
	}{
		{"valid", `{"title":"leak"}`, true, ""},
		{"malformed", `{"title":`, false, dto.ErrCodeInvalidJSON},
		{"wrong type", `{"title":42}`, false, dto.ErrCodeInvalidJSON},
		{"missing field", `{}`, false, dto.ErrCodeValidation},
		{"too long", `{"title":"burst pipe"}`, false, dto.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var req request
			ok := h.bindJSON(c, &req)

			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, "leak", req.Title)
				return
			}
			resp := decodeResponse(t, w)
			assert.Equal(t, tt.expectedErr, resp.Error.Code)
		})
	}
}

func TestBaseHandlerPathUUID(t *testing.T) {
	h := &BaseHandler{}

	t.Run("valid", func(t *testing.T) {
		id := uuid.New()
		c, _ := newTestContext(http.MethodGet, "/")
		c.Params = gin.Params{{Key: "id", Value: id.String()}}

		got, ok := h.pathUUID(c, "id")
		assert.True(t, ok)
		assert.Equal(t, id, got)
	})

	t.Run("malformed", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/")
		c.Params = gin.Params{{Key: "attachment_id", Value: "nope"}}

		_, ok := h.pathUUID(c, "attachment_id")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid attachment id", decodeResponse(t, w).Error.Message)
	})
}

func TestBaseHandlerScope(t *testing.T) {
	h := &BaseHandler{}

	t.Run("caller and tenant present", func(t *testing.T) {
		c, _ := newTestContext(http.MethodGet, "/")
		want, tenant := setCaller(c, identity.RoleAdmin)

		p, got, ok := h.scope(c)
		assert.True(t, ok)
		assert.Equal(t, want, p)
		assert.Equal(t, tenant, got)
	})

	t.Run("no caller", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/")

		_, _, ok := h.scope(c)
		assert.False(t, ok)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("no tenant", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/")
		c.Set(middleware.PrincipalKey, identity.Principal{UserID: uuid.New(), Role: identity.RoleAdmin})

		_, _, ok := h.scope(c)
		assert.False(t, ok)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestFileURL(t *testing.T) {
	files := stubURLs{
		"tickets/a.pdf": "/media/tickets/a.pdf",
		"tickets/b.pdf": "https://bucket.s3.amazonaws.com/tickets/b.pdf?sig=1",
	}

	t.Run("relative URLs get scheme and host", func(t *testing.T) {
		c, _ := newTestContext(http.MethodGet, "http://api.example.com/x")
		assert.Equal(t, "http://api.example.com/media/tickets/a.pdf", fileURL(c, files, "tickets/a.pdf"))
	})

	t.Run("forwarded proto wins", func(t *testing.T) {
		c, _ := newTestContext(http.MethodGet, "http://api.example.com/x")
		c.Request.Header.Set("X-Forwarded-Proto", "HTTPS, http")
		assert.Equal(t, "https://api.example.com/media/tickets/a.pdf", fileURL(c, files, "tickets/a.pdf"))
	})

	t.Run("tls request", func(t *testing.T) {
		c, _ := newTestContext(http.MethodGet, "http://api.example.com/x")
		c.Request.TLS = &tls.ConnectionState{}
		assert.Equal(t, "https://api.example.com/media/tickets/a.pdf", fileURL(c, files, "tickets/a.pdf"))
	})

	t.Run("absolute URLs untouched", func(t *testing.T) {
		c, _ := newTestContext(http.MethodGet, "/x")
		assert.Equal(t, "https://bucket.s3.amazonaws.com/tickets/b.pdf?sig=1", fileURL(c, files, "tickets/b.pdf"))
	})

	t.Run("empty key, missing store or lookup failure", func(t *testing.T) {
		c, _ := newTestContext(http.MethodGet, "/x")
		assert.Empty(t, fileURL(c, files, ""))
		assert.Empty(t, fileURL(c, nil, "tickets/a.pdf"))
		assert.Empty(t, fileURL(c, files, "missing"))
	})
}

func TestOptionalInt(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/?year=2024&month=x")

	year, err := optionalInt(c, "year")
	require.NoError(t, err)
	require.NotNil(t, year)
	assert.Equal(t, 2024, *year)

	missing, err := optionalInt(c, "page")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = optionalInt(c, "month")
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, dto.ErrCodeInvalidInput, domainErr.Code)
}
