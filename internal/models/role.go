package models

import (
	"time"

	"github.com/google/uuid"
)

// Default roles every tenant gets.
const (
	RoleAdmin = "Admin"
	RoleBasic = "Basic"
)

// Role is tenant-partitioned; the name is unique within a tenant.
type Role struct {
	BaseModel
	TenantID    string `json:"tenantId" gorm:"not null;size:64;uniqueIndex:idx_roles_tenant_name"`
	Name        string `json:"name" gorm:"not null;size:100;uniqueIndex:idx_roles_tenant_name"`
	Description string `json:"description" gorm:"size:255"`

	Claims []RoleClaim `json:"claims,omitempty" gorm:"foreignKey:RoleID"`
}

func (r *Role) TableName() string {
	return "roles"
}

// RoleClaim attaches one claim to a role. Permission claims use claim type
// "Permission" and the permission name as value.
type RoleClaim struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	RoleID      uuid.UUID `json:"roleId" gorm:"type:uuid;not null;uniqueIndex:idx_role_claims_unique"`
	ClaimType   string    `json:"claimType" gorm:"not null;size:100;uniqueIndex:idx_role_claims_unique"`
	ClaimValue  string    `json:"claimValue" gorm:"not null;size:255;uniqueIndex:idx_role_claims_unique"`
	Description string    `json:"description" gorm:"size:255"`
	Group       string    `json:"group" gorm:"column:claim_group;size:100"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (RoleClaim) TableName() string {
	return "role_claims"
}
