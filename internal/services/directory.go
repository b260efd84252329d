package services

import (
	"context"
	"time"

	"schoolhub/internal/authz"
	"schoolhub/internal/models"
	"schoolhub/pkg/pagination"

	"github.com/google/uuid"
)

// Lookups return gorm.ErrRecordNotFound when nothing matches.

// TenantStore is the tenant directory.
type TenantStore interface {
	FindByID(ctx context.Context, id string) (*models.Tenant, error)
	List(ctx context.Context, page pagination.Params) ([]models.Tenant, int64, error)
	ListAll(ctx context.Context) ([]models.Tenant, error)
	Create(ctx context.Context, tenant *models.Tenant) error
	Save(ctx context.Context, tenant *models.Tenant) error
}

// UserDirectory manages users inside one tenant's partition.
type UserDirectory interface {
	FindByUsername(ctx context.Context, tenant *models.Tenant, username string) (*models.User, error)
	FindByEmail(ctx context.Context, tenant *models.Tenant, email string) (*models.User, error)
	FindByID(ctx context.Context, tenant *models.Tenant, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, tenant *models.Tenant, user *models.User) error
	RoleNames(ctx context.Context, tenant *models.Tenant, user *models.User) ([]string, error)
	Claims(ctx context.Context, tenant *models.Tenant, user *models.User) (authz.ClaimSet, error)
	IsInRole(ctx context.Context, tenant *models.Tenant, user *models.User, roleName string) (bool, error)
	AddToRole(ctx context.Context, tenant *models.Tenant, user *models.User, roleName string) error
	RemoveFromRole(ctx context.Context, tenant *models.Tenant, user *models.User, roleName string) error

	// SetRefreshToken overwrites the stored refresh token unconditionally.
	SetRefreshToken(ctx context.Context, tenant *models.Tenant, userID uuid.UUID, token string, expiresAt time.Time) error
	// RotateRefreshToken replaces current with next only if current is still
	// the stored value. It reports whether the swap happened.
	RotateRefreshToken(ctx context.Context, tenant *models.Tenant, userID uuid.UUID, current, next string, expiresAt time.Time) (bool, error)
	// PurgeRefreshTokens clears refresh tokens that expired before cutoff.
	PurgeRefreshTokens(ctx context.Context, tenant *models.Tenant, cutoff time.Time) (int64, error)
}

// RoleDirectory manages roles and role claims inside one tenant's partition.
type RoleDirectory interface {
	FindByName(ctx context.Context, tenant *models.Tenant, name string) (*models.Role, error)
	FindByID(ctx context.Context, tenant *models.Tenant, id uuid.UUID) (*models.Role, error)
	List(ctx context.Context, tenant *models.Tenant) ([]models.Role, error)
	Create(ctx context.Context, tenant *models.Tenant, role *models.Role) error
	Claims(ctx context.Context, tenant *models.Tenant, role *models.Role) (authz.ClaimSet, error)
	AddClaim(ctx context.Context, tenant *models.Tenant, role *models.Role, claim *models.RoleClaim) error
	// ReplaceClaims swaps all claims of claimType on role for claims.
	ReplaceClaims(ctx context.Context, tenant *models.Tenant, role *models.Role, claimType string, claims []models.RoleClaim) error
}
