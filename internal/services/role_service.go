package services

import (
	"context"
	"errors"

	"schoolhub/internal/authz"
	"schoolhub/internal/models"
	"schoolhub/internal/permissions"
	apperrors "schoolhub/pkg/errors"
	"schoolhub/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Messages returned by role administration.
const (
	MsgRoleNotFound        = "Role not found."
	MsgAdminRoleImmutable  = "Not allowed to modify Permissions for this Role."
	msgPermissionsNotSaved = "Failed to update role permissions."
)

// RolePermission is one catalog permission and whether the role holds it.
type RolePermission struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Group       string `json:"group"`
	Enabled     bool   `json:"enabled"`
}

// RolePermissions lists every permission a role could hold in its tenant.
type RolePermissions struct {
	RoleID      uuid.UUID        `json:"roleId"`
	RoleName    string           `json:"roleName"`
	Permissions []RolePermission `json:"permissions"`
}

// UpdateRolePermissionsRequest names the complete set of permissions the role
// should hold afterwards.
type UpdateRolePermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

// RoleService manages the permission claims attached to a tenant's roles.
type RoleService struct {
	roles        RoleDirectory
	rootTenantID string
}

// NewRoleService creates a RoleService. Only rootTenantID may grant root-tier
// permissions.
func NewRoleService(roles RoleDirectory, rootTenantID string) *RoleService {
	return &RoleService{roles: roles, rootTenantID: rootTenantID}
}

// List returns the tenant's roles.
func (s *RoleService) List(ctx context.Context, tenant *models.Tenant) ([]models.Role, error) {
	if tenant == nil {
		return nil, apperrors.Unauthorized()
	}
	return s.roles.List(ctx, tenant)
}

// GetPermissions returns every permission assignable in tenant, flagged with
// whether role id holds it.
func (s *RoleService) GetPermissions(ctx context.Context, tenant *models.Tenant, id uuid.UUID) (*RolePermissions, error) {
	role, err := s.find(ctx, tenant, id)
	if err != nil {
		return nil, err
	}

	held, err := s.roles.Claims(ctx, tenant, role)
	if err != nil {
		return nil, err
	}

	assignable := s.assignable(tenant)
	out := &RolePermissions{
		RoleID:      role.ID,
		RoleName:    role.Name,
		Permissions: make([]RolePermission, 0, len(assignable)),
	}
	for _, p := range assignable {
		out.Permissions = append(out.Permissions, RolePermission{
			Name:        p.Name(),
			Description: p.Description,
			Group:       p.Group,
			Enabled:     held.Has(authz.ClaimPermission, p.Name()),
		})
	}
	return out, nil
}

// UpdatePermissions replaces the role's permission claims with req. The
// Admin role is fixed. Every name must be a catalog permission the tenant
// may grant; nothing is written otherwise.
func (s *RoleService) UpdatePermissions(ctx context.Context, tenant *models.Tenant, id uuid.UUID, req UpdateRolePermissionsRequest) (*RolePermissions, error) {
	role, err := s.find(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	if role.Name == models.RoleAdmin {
		return nil, apperrors.Conflict(MsgAdminRoleImmutable)
	}

	claims, err := s.claimsFor(tenant, req.Permissions)
	if err != nil {
		return nil, err
	}

	if err := s.roles.ReplaceClaims(ctx, tenant, role, string(authz.ClaimPermission), claims); err != nil {
		logger.ForTenant(tenant.ID).WithError(err).WithField("role", role.Name).Error("Replacing role permissions failed")
		return nil, apperrors.Identity(msgPermissionsNotSaved)
	}
	logger.ForTenant(tenant.ID).WithField("role", role.Name).Infof("Role permissions updated (%d)", len(claims))

	return s.GetPermissions(ctx, tenant, id)
}

func (s *RoleService) claimsFor(tenant *models.Tenant, names []string) ([]models.RoleClaim, error) {
	seen := make(map[string]struct{}, len(names))
	claims := make([]models.RoleClaim, 0, len(names))
	var problems []string
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		p, ok := permissions.Lookup(name)
		switch {
		case !ok:
			problems = append(problems, "Permission '"+name+"' does not exist.")
			continue
		case p.IsRoot && tenant.ID != s.rootTenantID:
			problems = append(problems, "Permission '"+name+"' is not available to this tenant.")
			continue
		}
		claims = append(claims, models.RoleClaim{
			ClaimValue:  name,
			Description: p.Description,
			Group:       p.Group,
		})
	}
	if len(problems) > 0 {
		return nil, apperrors.Validation(problems...)
	}
	return claims, nil
}

func (s *RoleService) find(ctx context.Context, tenant *models.Tenant, id uuid.UUID) (*models.Role, error) {
	if tenant == nil {
		return nil, apperrors.Unauthorized()
	}
	role, err := s.roles.FindByID(ctx, tenant, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound(MsgRoleNotFound)
	}
	return role, err
}

// assignable is the slice of the catalog a role in tenant may hold. The root
// tier is reserved for the root tenant.
func (s *RoleService) assignable(tenant *models.Tenant) []permissions.Permission {
	if tenant.ID == s.rootTenantID {
		return permissions.All()
	}
	return permissions.Admin()
}
