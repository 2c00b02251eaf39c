package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/identity"
)

// =====================
// User Request DTOs
// =====================

// ContractorRequest carries a contractor's company details. It replaces the
// stored profile as a whole.
type ContractorRequest struct {
	IsActiveContractor bool   `json:"is_active_contractor"`
	CompanyName        string `json:"company_name" binding:"max=255"`
	ContactPerson      string `json:"contact_person" binding:"max=255"`
	ContactPhone       string `json:"contact_phone" binding:"max=20"`
	Address            string `json:"address" binding:"max=1000"`
}

func (r *ContractorRequest) toProfile() *identity.ContractorProfile {
	if r == nil {
		return nil
	}
	return &identity.ContractorProfile{
		IsActiveContractor: r.IsActiveContractor,
		CompanyName:        r.CompanyName,
		ContactPerson:      r.ContactPerson,
		ContactPhone:       r.ContactPhone,
		Address:            r.Address,
	}
}

// RegisterUserRequest represents the request body for creating a tenant user
type RegisterUserRequest struct {
	Username    string             `json:"username" binding:"required,min=3,max=150"`
	Email       string             `json:"email" binding:"required,email,max=254"`
	Password    string             `json:"password" binding:"required,min=8,max=128"`
	Role        string             `json:"role" binding:"omitempty,oneof=ADMIN CONTRACTOR SITE_MANAGER"`
	FirstName   string             `json:"first_name" binding:"max=150"`
	LastName    string             `json:"last_name" binding:"max=150"`
	PhoneNumber string             `json:"phone_number" binding:"max=20"`
	SiteID      *uuid.UUID         `json:"site_id"`
	Contractor  *ContractorRequest `json:"contractor"`
}

// UpdateUserRequest represents the request body for updating a user; omitted fields stay unchanged
type UpdateUserRequest struct {
	Username    *string            `json:"username" binding:"omitempty,min=3,max=150"`
	Email       *string            `json:"email" binding:"omitempty,email,max=254"`
	Password    *string            `json:"password" binding:"omitempty,min=8,max=128"`
	Role        *string            `json:"role" binding:"omitempty,oneof=ADMIN CONTRACTOR SITE_MANAGER"`
	FirstName   *string            `json:"first_name" binding:"omitempty,max=150"`
	LastName    *string            `json:"last_name" binding:"omitempty,max=150"`
	PhoneNumber *string            `json:"phone_number" binding:"omitempty,max=20"`
	SiteID      *uuid.UUID         `json:"site_id"`
	ClearSite   bool               `json:"clear_site"`
	IsActive    *bool              `json:"is_active"`
	Contractor  *ContractorRequest `json:"contractor"`
}

// UserListQuery represents query parameters for listing users
type UserListQuery struct {
	Search   string `form:"search" binding:"max=100"`
	Role     string `form:"role" binding:"omitempty,oneof=ADMIN CONTRACTOR SITE_MANAGER"`
	SiteID   string `form:"site_id" binding:"omitempty,uuid"`
	IsActive *bool  `form:"is_active"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// =====================
// User Response DTOs
// =====================

// UserResponse represents a user in API responses. The password hash is never exposed.
type UserResponse struct {
	ID                 uuid.UUID  `json:"id"`
	TenantID           *uuid.UUID `json:"tenant_id"`
	Username           string     `json:"username"`
	Email              string     `json:"email"`
	Role               string     `json:"role"`
	FirstName          string     `json:"first_name"`
	LastName           string     `json:"last_name"`
	FullName           string     `json:"full_name"`
	PhoneNumber        string     `json:"phone_number"`
	SiteID             *uuid.UUID `json:"site_id"`
	IsActive           bool       `json:"is_active"`
	IsActiveContractor bool       `json:"is_active_contractor"`
	CompanyName        string     `json:"company_name,omitempty"`
	ContactPerson      string     `json:"contact_person,omitempty"`
	ContactPhone       string     `json:"contact_phone,omitempty"`
	Address            string     `json:"address,omitempty"`
	LastLoginAt        *time.Time `json:"last_login_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func toUserResponse(u *identity.User) UserResponse {
	return UserResponse{
		ID:                 u.ID,
		TenantID:           u.TenantID,
		Username:           u.Username,
		Email:              u.Email,
		Role:               u.Role.String(),
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		FullName:           u.FullName(),
		PhoneNumber:        u.PhoneNumber,
		SiteID:             u.SiteID,
		IsActive:           u.IsActive,
		IsActiveContractor: u.Contractor.IsActiveContractor,
		CompanyName:        u.Contractor.CompanyName,
		ContactPerson:      u.Contractor.ContactPerson,
		ContactPhone:       u.Contractor.ContactPhone,
		Address:            u.Contractor.Address,
		LastLoginAt:        u.LastLoginAt,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

func toUserResponses(users []*identity.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}
