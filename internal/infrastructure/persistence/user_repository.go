package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/identity"
	"github.com/helpdesk/backend/internal/domain/shared"
	"github.com/helpdesk/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormUserRepository implements identity.UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create inserts a user
func (r *GormUserRepository) Create(ctx context.Context, user *identity.User) error {
	return translateError(r.db.WithContext(ctx).Create(models.UserModelFromDomain(user)).Error)
}

// Update saves every column of the user
func (r *GormUserRepository) Update(ctx context.Context, user *identity.User) error {
	query := r.db.WithContext(ctx).Model(&models.UserModel{}).Where("id = ?", user.ID)
	if user.TenantID != nil {
		query = query.Scopes(TenantScope(*user.TenantID))
	}
	m := models.UserModelFromDomain(user)
	result := query.Updates(map[string]any{
		"username":             m.Username,
		"email":                m.Email,
		"password_hash":        m.PasswordHash,
		"role":                 m.Role,
		"first_name":           m.FirstName,
		"last_name":            m.LastName,
		"phone_number":         m.PhoneNumber,
		"site_id":              m.SiteID,
		"is_active":            m.IsActive,
		"is_active_contractor": m.IsActiveContractor,
		"company_name":         m.CompanyName,
		"contact_person":       m.ContactPerson,
		"contact_phone":        m.ContactPhone,
		"address":              m.Address,
		"last_login_at":        m.LastLoginAt,
		"version":              m.Version,
		"updated_at":           m.UpdatedAt,
	})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a user of the tenant
func (r *GormUserRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		Delete(&models.UserModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a user within a tenant
func (r *GormUserRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.User, error) {
	var m models.UserModel
	if err := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindByEmail finds a user by email within a tenant
func (r *GormUserRepository) FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*identity.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, shared.ErrNotFound
	}
	return r.findOne(ctx, tenantID, "LOWER(email) = ?", strings.ToLower(email))
}

// FindByUsername finds a user by username within a tenant
func (r *GormUserRepository) FindByUsername(ctx context.Context, tenantID uuid.UUID, username string) (*identity.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, shared.ErrNotFound
	}
	return r.findOne(ctx, tenantID, "LOWER(username) = ?", strings.ToLower(username))
}

func (r *GormUserRepository) findOne(ctx context.Context, tenantID uuid.UUID, cond string, arg any) (*identity.User, error) {
	var m models.UserModel
	if err := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		Where(cond, arg).
		First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindByIDs loads the tenant's users among ids; missing ids are skipped
func (r *GormUserRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*identity.User, error) {
	if len(ids) == 0 {
		return []*identity.User{}, nil
	}
	return r.findMany(r.db.WithContext(ctx).Scopes(TenantScope(tenantID)).Where("id IN ?", ids))
}

// FindByRole lists the tenant's active users holding role
func (r *GormUserRepository) FindByRole(ctx context.Context, tenantID uuid.UUID, role identity.Role) ([]*identity.User, error) {
	return r.findMany(r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		Where("role = ? AND is_active = ?", role, true).
		Order("username ASC"))
}

func (r *GormUserRepository) findMany(query *gorm.DB) ([]*identity.User, error) {
	var rows []models.UserModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	users := make([]*identity.User, len(rows))
	for i := range rows {
		users[i] = rows[i].ToDomain()
	}
	return users, nil
}

// FindAll lists the tenant's users with filtering and pagination
func (r *GormUserRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter identity.UserFilter) ([]*identity.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.UserModel{}).Scopes(TenantScope(tenantID))

	if filter.Keyword != "" {
		p := containsPattern(filter.Keyword)
		query = query.Where(
			`(LOWER(username) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\' OR LOWER(first_name) LIKE ? ESCAPE '\' OR LOWER(last_name) LIKE ? ESCAPE '\')`,
			p, p, p, p)
	}
	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	if filter.SiteID != nil {
		query = query.Where("site_id = ?", *filter.SiteID)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	users, err := r.findMany(query.Order("username ASC").Scopes(Paginate(filter.Page)))
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// ExistsByUsername checks for a case-insensitive username clash in the tenant
func (r *GormUserRepository) ExistsByUsername(ctx context.Context, tenantID uuid.UUID, username string, excludeID *uuid.UUID) (bool, error) {
	return r.exists(ctx, tenantID, "LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username)), excludeID)
}

// ExistsByEmail checks for a case-insensitive email clash in the tenant
func (r *GormUserRepository) ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string, excludeID *uuid.UUID) (bool, error) {
	return r.exists(ctx, tenantID, "LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email)), excludeID)
}

func (r *GormUserRepository) exists(ctx context.Context, tenantID uuid.UUID, cond string, arg any, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.UserModel{}).Scopes(TenantScope(tenantID)).Where(cond, arg)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GormPasswordResetOTPRepository implements identity.PasswordResetOTPRepository using GORM
type GormPasswordResetOTPRepository struct {
	db *gorm.DB
}

// NewGormPasswordResetOTPRepository creates a new GormPasswordResetOTPRepository
func NewGormPasswordResetOTPRepository(db *gorm.DB) *GormPasswordResetOTPRepository {
	return &GormPasswordResetOTPRepository{db: db}
}

// Create inserts a reset code
func (r *GormPasswordResetOTPRepository) Create(ctx context.Context, otp *identity.PasswordResetOTP) error {
	return translateError(r.db.WithContext(ctx).Create(models.PasswordResetOTPModelFromDomain(otp)).Error)
}

// Update writes the attempt counter and used flag
func (r *GormPasswordResetOTPRepository) Update(ctx context.Context, otp *identity.PasswordResetOTP) error {
	result := r.db.WithContext(ctx).
		Model(&models.PasswordResetOTPModel{}).
		Scopes(TenantScope(otp.TenantID)).
		Where("id = ?", otp.ID).
		Updates(map[string]any{"attempts": otp.Attempts, "is_used": otp.IsUsed})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindLatestUnusedByCode returns the newest unused row of the user with the code
func (r *GormPasswordResetOTPRepository) FindLatestUnusedByCode(ctx context.Context, tenantID, userID uuid.UUID, code string) (*identity.PasswordResetOTP, error) {
	return r.latest(r.db.WithContext(ctx).Where("code = ?", code), tenantID, userID)
}

// FindLatestUnused returns the user's newest unused row
func (r *GormPasswordResetOTPRepository) FindLatestUnused(ctx context.Context, tenantID, userID uuid.UUID) (*identity.PasswordResetOTP, error) {
	return r.latest(r.db.WithContext(ctx), tenantID, userID)
}

func (r *GormPasswordResetOTPRepository) latest(query *gorm.DB, tenantID, userID uuid.UUID) (*identity.PasswordResetOTP, error) {
	var m models.PasswordResetOTPModel
	if err := query.
		Scopes(TenantScope(tenantID)).
		Where("user_id = ? AND is_used = ?", userID, false).
		Order("created_at DESC").
		Take(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// CountSince counts codes issued to the user at or after since
func (r *GormPasswordResetOTPRepository) CountSince(ctx context.Context, tenantID, userID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PasswordResetOTPModel{}).
		Scopes(TenantScope(tenantID)).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&count).Error
	return count, err
}

// DeleteExpiredBefore removes expired codes across tenants
func (r *GormPasswordResetOTPRepository) DeleteExpiredBefore(ctx context.Context, t time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", t).
		Delete(&models.PasswordResetOTPModel{})
	return result.RowsAffected, result.Error
}

// ConsumeWithPassword flips is_used only while it is still false, then writes the
// password hash. Both happen in one transaction.
func (r *GormPasswordResetOTPRepository) ConsumeWithPassword(ctx context.Context, otp *identity.PasswordResetOTP, user *identity.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.PasswordResetOTPModel{}).
			Scopes(TenantScope(otp.TenantID)).
			Where("id = ? AND is_used = ?", otp.ID, false).
			Updates(map[string]any{"attempts": otp.Attempts, "is_used": true})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return identity.ErrOTPInvalid
		}

		result = tx.Model(&models.UserModel{}).
			Scopes(TenantScope(otp.TenantID)).
			Where("id = ?", user.ID).
			Updates(map[string]any{
				"password_hash": user.PasswordHash,
				"version":       user.Version,
				"updated_at":    user.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		otp.IsUsed = true
		return nil
	})
}
