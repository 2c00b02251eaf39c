package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/identity"
)

// UserModel is the persistence model of identity.User
type UserModel struct {
	AggregateModel
	TenantID           *uuid.UUID    `gorm:"type:uuid;index;uniqueIndex:uq_users_tenant_username;uniqueIndex:uq_users_tenant_email"`
	Username           string        `gorm:"type:varchar(150);not null;uniqueIndex:uq_users_tenant_username"`
	Email              string        `gorm:"type:varchar(254);not null;uniqueIndex:uq_users_tenant_email"`
	PasswordHash       string        `gorm:"type:varchar(255);not null"`
	Role               identity.Role `gorm:"type:varchar(20);not null;default:'SITE_MANAGER'"`
	FirstName          string        `gorm:"type:varchar(150)"`
	LastName           string        `gorm:"type:varchar(150)"`
	PhoneNumber        string        `gorm:"type:varchar(32)"`
	SiteID             *uuid.UUID    `gorm:"type:uuid;index"`
	IsActive           bool          `gorm:"not null;default:true"`
	IsActiveContractor bool          `gorm:"not null;default:false"`
	CompanyName        string        `gorm:"type:varchar(255)"`
	ContactPerson      string        `gorm:"type:varchar(255)"`
	ContactPhone       string        `gorm:"type:varchar(32)"`
	Address            string        `gorm:"type:text"`
	LastLoginAt        *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the model to an identity.User
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseAggregateRoot: m.toAggregate(),
		TenantID:          m.TenantID,
		Username:          m.Username,
		Email:             m.Email,
		PasswordHash:      m.PasswordHash,
		Role:              m.Role,
		FirstName:         m.FirstName,
		LastName:          m.LastName,
		PhoneNumber:       m.PhoneNumber,
		SiteID:            m.SiteID,
		IsActive:          m.IsActive,
		Contractor: identity.ContractorProfile{
			IsActiveContractor: m.IsActiveContractor,
			CompanyName:        m.CompanyName,
			ContactPerson:      m.ContactPerson,
			ContactPhone:       m.ContactPhone,
			Address:            m.Address,
		},
		LastLoginAt: m.LastLoginAt,
	}
}

// UserModelFromDomain builds a model from an identity.User
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		TenantID:           u.TenantID,
		Username:           u.Username,
		Email:              u.Email,
		PasswordHash:       u.PasswordHash,
		Role:               u.Role,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		PhoneNumber:        u.PhoneNumber,
		SiteID:             u.SiteID,
		IsActive:           u.IsActive,
		IsActiveContractor: u.Contractor.IsActiveContractor,
		CompanyName:        u.Contractor.CompanyName,
		ContactPerson:      u.Contractor.ContactPerson,
		ContactPhone:       u.Contractor.ContactPhone,
		Address:            u.Contractor.Address,
		LastLoginAt:        u.LastLoginAt,
	}
	m.fromAggregate(u.BaseAggregateRoot)
	return m
}

// PasswordResetOTPModel is the persistence model of identity.PasswordResetOTP
type PasswordResetOTPModel struct {
	ID        uuid.UUID           `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID           `gorm:"type:uuid;not null;index"`
	TenantID  uuid.UUID           `gorm:"type:uuid;not null;index"`
	Code      string              `gorm:"type:varchar(6);not null"`
	Channel   identity.OTPChannel `gorm:"type:varchar(10);not null"`
	ExpiresAt time.Time           `gorm:"not null"`
	Attempts  int                 `gorm:"not null;default:0"`
	IsUsed    bool                `gorm:"not null;default:false"`
	CreatedAt time.Time           `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (PasswordResetOTPModel) TableName() string {
	return "password_reset_otps"
}

// ToDomain converts the model to an identity.PasswordResetOTP
func (m *PasswordResetOTPModel) ToDomain() *identity.PasswordResetOTP {
	return &identity.PasswordResetOTP{
		ID:        m.ID,
		UserID:    m.UserID,
		TenantID:  m.TenantID,
		Code:      m.Code,
		Channel:   m.Channel,
		ExpiresAt: m.ExpiresAt,
		Attempts:  m.Attempts,
		IsUsed:    m.IsUsed,
		CreatedAt: m.CreatedAt,
	}
}

// PasswordResetOTPModelFromDomain builds a model from an identity.PasswordResetOTP
func PasswordResetOTPModelFromDomain(o *identity.PasswordResetOTP) *PasswordResetOTPModel {
	return &PasswordResetOTPModel{
		ID:        o.ID,
		UserID:    o.UserID,
		TenantID:  o.TenantID,
		Code:      o.Code,
		Channel:   o.Channel,
		ExpiresAt: o.ExpiresAt,
		Attempts:  o.Attempts,
		IsUsed:    o.IsUsed,
		CreatedAt: o.CreatedAt,
	}
}
