package store

import (
	"context"

	"schoolhub/internal/authz"
	"schoolhub/internal/database"
	"schoolhub/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoleDirectory keeps roles and their claims next to the tenant's users.
type RoleDirectory struct {
	router *database.Router
}

// NewRoleDirectory creates a RoleDirectory.
func NewRoleDirectory(router *database.Router) *RoleDirectory {
	return &RoleDirectory{router: router}
}

func (d *RoleDirectory) db(ctx context.Context, tenant *models.Tenant) (*gorm.DB, error) {
	db, err := d.router.ForTenant(tenant)
	if err != nil {
		return nil, err
	}
	return db.WithContext(ctx), nil
}

// FindByName returns the tenant's role called name.
func (d *RoleDirectory) FindByName(ctx context.Context, tenant *models.Tenant, name string) (*models.Role, error) {
	db, err := d.db(ctx, tenant)
	if err != nil {
		return nil, err
	}
	var role models.Role
	if err := db.Where("tenant_id = ? AND name = ?", tenant.ID, name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// FindByID returns role id if it belongs to tenant.
func (d *RoleDirectory) FindByID(ctx context.Context, tenant *models.Tenant, id uuid.UUID) (*models.Role, error) {
	db, err := d.db(ctx, tenant)
	if err != nil {
		return nil, err
	}
	var role models.Role
	if err := db.Where("tenant_id = ? AND id = ?", tenant.ID, id).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// List returns the tenant's roles ordered by name.
func (d *RoleDirectory) List(ctx context.Context, tenant *models.Tenant) ([]models.Role, error) {
	db, err := d.db(ctx, tenant)
	if err != nil {
		return nil, err
	}
	var roles []models.Role
	err = db.Where("tenant_id = ?", tenant.ID).Order("name").Find(&roles).Error
	return roles, err
}

// Create inserts role into tenant.
func (d *RoleDirectory) Create(ctx context.Context, tenant *models.Tenant, role *models.Role) error {
	db, err := d.db(ctx, tenant)
	if err != nil {
		return err
	}
	role.TenantID = tenant.ID
	return db.Omit(clause.Associations).Create(role).Error
}

// Claims returns every claim of role in insertion order.
func (d *RoleDirectory) Claims(ctx context.Context, tenant *models.Tenant, role *models.Role) (authz.ClaimSet, error) {
	db, err := d.db(ctx, tenant)
	if err != nil {
		return nil, err
	}
	var rows []models.RoleClaim
	if err := db.Where("role_id = ?", role.ID).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	set := make(authz.ClaimSet, 0, len(rows))
	for _, r := range rows {
		set = append(set, authz.NewClaim(authz.ClaimType(r.ClaimType), r.ClaimValue))
	}
	return set, nil
}

// AddClaim inserts the claim unless the role already holds it.
func (d *RoleDirectory) AddClaim(ctx context.Context, tenant *models.Tenant, role *models.Role, claim *models.RoleClaim) error {
	db, err := d.db(ctx, tenant)
	if err != nil {
		return err
	}
	claim.RoleID = role.ID
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(claim).Error
}

// ReplaceClaims swaps every claim of claimType held by role for claims in one
// transaction. Claims of other types are left alone.
func (d *RoleDirectory) ReplaceClaims(ctx context.Context, tenant *models.Tenant, role *models.Role, claimType string, claims []models.RoleClaim) error {
	db, err := d.db(ctx, tenant)
	if err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ? AND claim_type = ?", role.ID, claimType).
			Delete(&models.RoleClaim{}).Error; err != nil {
			return err
		}
		if len(claims) == 0 {
			return nil
		}
		for i := range claims {
			claims[i].RoleID = role.ID
			claims[i].ClaimType = claimType
		}
		return tx.Create(&claims).Error
	})
}
