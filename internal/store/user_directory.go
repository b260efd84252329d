package store

import (
	"context"
	"time"

	"schoolhub/internal/authz"
	"schoolhub/internal/database"
	"schoolhub/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserDirectory keeps users in the database the router assigns to their
// tenant. Every query is also filtered by tenant id, so tenants sharing a
// database never see each other's users.
type UserDirectory struct {
	router *database.Router
}

// NewUserDirectory creates a UserDirectory.
func NewUserDirectory(router *database.Router) *UserDirectory {
	return &UserDirectory{router: router}
}

func (d *UserDirectory) db(ctx context.Context, tenant *models.Tenant) (*gorm.DB, error) {
	db, err := d.router.ForTenant(tenant)
	if err != nil {
		return nil, err
	}
	return db.WithContext(ctx), nil
}

func (d *UserDirectory) findOne(ctx context.Context, tenant *models.Tenant, cond string, value interface{}) (*models.User, error) {
	db, err := d.db(ctx, tenant)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := db.Where("tenant_id = ? AND "+cond, tenant.ID, value).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername matches the username case-insensitively.
func (d *UserDirectory) FindByUsername(ctx context.Context, tenant *models.Tenant, username string) (*models.User, error) {
	return d.findOne(ctx, tenant, "LOWER(username) = LOWER(?)", username)
}

// FindByEmail matches the email case-insensitively.
func (d *UserDirectory) FindByEmail(ctx context.Context, tenant *models.Tenant, email string) (*models.User, error) {
	return d.findOne(ctx, tenant, "LOWER(email) = LOWER(?)", email)
}

// FindByID returns user id of tenant.
func (d *UserDirectory) FindByID(ctx context.Context, tenant *models.Tenant, id uuid.UUID) (*models.User, error) {
	return d.findOne(ctx, tenant, "id = ?", id)
}

// Create inserts user into tenant.
func (d *UserDirectory) Create(ctx context.Context, tenant *models.Tenant, user *models.User) error {
	db, err := d.db(ctx, tenant)
	if err != nil {
		return err
	}
	user.TenantID = tenant.ID
	return db.Omit(clause.Associations).Create(user).Error
}

// RoleNames lists the names of the user's roles, sorted.
func (d *UserDirectory) RoleNames(ctx context.Context, tenant *models.Tenant, user *models.User) ([]string, error) {
	db, err := d.db(ctx, tenant)
	if err != nil {
		return nil, err
	}
	var names []string
	err = db.Model(&models.Role{}).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ? AND roles.tenant_id = ?", user.ID, tenant.ID).
		Order("roles.name").
		Pluck("roles.name", &names).Error
	return names, err
}

// Claims returns the claims granted to user directly.
func (d *UserDirectory) Claims(ctx context.Context, tenant *models.Tenant, user *models.User) (authz.ClaimSet, error) {
	db, err := d.db(ctx, tenant)
	if err != nil {
		return nil, err
	}
	var rows []models.UserClaim
	if err := db.Where("user_id = ?", user.ID).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	set := make(authz.ClaimSet, 0, len(rows))
	for _, r := range rows {
		set = append(set, authz.NewClaim(authz.ClaimType(r.ClaimType), r.ClaimValue))
	}
	return set, nil
}

// IsInRole reports whether user holds roleName.
func (d *UserDirectory) IsInRole(ctx context.Context, tenant *models.Tenant, user *models.User, roleName string) (bool, error) {
	db, err := d.db(ctx, tenant)
	if err != nil {
		return false, err
	}
	var count int64
	err = db.Model(&models.UserRole{}).
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("user_roles.user_id = ? AND roles.tenant_id = ? AND roles.name = ?", user.ID, tenant.ID, roleName).
		Count(&count).Error
	return count > 0, err
}

// AddToRole makes user a member of roleName. Existing membership is kept.
func (d *UserDirectory) AddToRole(ctx context.Context, tenant *models.Tenant, user *models.User, roleName string) error {
	db, err := d.db(ctx, tenant)
	if err != nil {
		return err
	}
	var role models.Role
	if err := db.Where("tenant_id = ? AND name = ?", tenant.ID, roleName).First(&role).Error; err != nil {
		return err
	}
	link := models.UserRole{UserID: user.ID, RoleID: role.ID}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error
}

// RemoveFromRole drops the user's membership of roleName. Removing a role the
// user does not hold is not an error.
func (d *UserDirectory) RemoveFromRole(ctx context.Context, tenant *models.Tenant, user *models.User, roleName string) error {
	db, err := d.db(ctx, tenant)
	if err != nil {
		return err
	}
	var role models.Role
	if err := db.Where("tenant_id = ? AND name = ?", tenant.ID, roleName).First(&role).Error; err != nil {
		return err
	}
	return db.Where("user_id = ? AND role_id = ?", user.ID, role.ID).Delete(&models.UserRole{}).Error
}

// SetRefreshToken overwrites the stored refresh token.
func (d *UserDirectory) SetRefreshToken(ctx context.Context, tenant *models.Tenant, userID uuid.UUID, token string, expiresAt time.Time) error {
	db, err := d.db(ctx, tenant)
	if err != nil {
		return err
	}
	return db.Model(&models.User{}).
		Where("id = ? AND tenant_id = ?", userID, tenant.ID).
		Updates(map[string]interface{}{
			"refresh_token":             token,
			"refresh_token_expiry_time": expiresAt,
		}).Error
}

// RotateRefreshToken swaps current for next only if current is still stored.
func (d *UserDirectory) RotateRefreshToken(ctx context.Context, tenant *models.Tenant, userID uuid.UUID, current, next string, expiresAt time.Time) (bool, error) {
	db, err := d.db(ctx, tenant)
	if err != nil {
		return false, err
	}
	result := db.Model(&models.User{}).
		Where("id = ? AND tenant_id = ? AND refresh_token = ?", userID, tenant.ID, current).
		Updates(map[string]interface{}{
			"refresh_token":             next,
			"refresh_token_expiry_time": expiresAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// PurgeRefreshTokens clears refresh tokens that expired before cutoff.
func (d *UserDirectory) PurgeRefreshTokens(ctx context.Context, tenant *models.Tenant, cutoff time.Time) (int64, error) {
	db, err := d.db(ctx, tenant)
	if err != nil {
		return 0, err
	}
	result := db.Model(&models.User{}).
		Where("tenant_id = ? AND refresh_token <> '' AND refresh_token_expiry_time < ?", tenant.ID, cutoff).
		Updates(map[string]interface{}{
			"refresh_token":             "",
			"refresh_token_expiry_time": nil,
		})
	return result.RowsAffected, result.Error
}
