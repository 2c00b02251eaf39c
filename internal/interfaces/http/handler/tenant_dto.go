package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/tenancy"
)

// =====================
// Tenant Request DTOs
// =====================

// CreateTenantRequest represents the request body for creating a tenant
type CreateTenantRequest struct {
	Name   string               `json:"name" binding:"required,min=1,max=200"`
	Slug   string               `json:"slug" binding:"required,min=2,max=50"`
	Domain string               `json:"domain" binding:"omitempty,max=255"`
	Admin  *InitialAdminRequest `json:"admin"`
}

// InitialAdminRequest describes the first admin account of a new tenant
type InitialAdminRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=150"`
	Email       string `json:"email" binding:"required,email,max=254"`
	Password    string `json:"password" binding:"required,min=8,max=128"`
	FirstName   string `json:"first_name" binding:"max=150"`
	LastName    string `json:"last_name" binding:"max=150"`
	PhoneNumber string `json:"phone_number" binding:"max=20"`
}

// TenantListQuery represents query parameters for listing tenants
type TenantListQuery struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// =====================
// Tenant Response DTOs
// =====================

// TenantResponse represents a tenant in API responses
type TenantResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Domain    string    `json:"domain"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateTenantResponse is the created tenant and its initial admin, if any
type CreateTenantResponse struct {
	Tenant TenantResponse `json:"tenant"`
	Admin  *UserResponse  `json:"admin,omitempty"`
}

func toTenantResponse(t *tenancy.Tenant) TenantResponse {
	return TenantResponse{
		ID:        t.ID,
		Name:      t.Name,
		Slug:      t.Slug,
		Domain:    t.Domain,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func toTenantResponses(tenants []*tenancy.Tenant) []TenantResponse {
	out := make([]TenantResponse, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, toTenantResponse(t))
	}
	return out
}
