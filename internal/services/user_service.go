package services

import (
	"context"
	"errors"
	"strings"

	"schoolhub/internal/models"
	apperrors "schoolhub/pkg/errors"
	"schoolhub/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Messages returned by user role administration.
const (
	MsgUserNotFound      = "User not found."
	MsgAdminRoleRequired = "Cannot remove Admin Role for the tenant's admin user."
	msgUserRolesNotSaved = "Failed to update user roles."
)

// UserRole is one of the tenant's roles and whether the user holds it.
type UserRole struct {
	RoleID      uuid.UUID `json:"roleId"`
	RoleName    string    `json:"roleName" binding:"required"`
	Description string    `json:"description"`
	Enabled     bool      `json:"enabled"`
}

// UpdateUserRolesRequest sets membership for each listed role. Roles left out
// are not touched.
type UpdateUserRolesRequest struct {
	UserRoles []UserRole `json:"userRoles" binding:"required,dive"`
}

// UserService reads users and manages their role memberships.
type UserService struct {
	users UserDirectory
	roles RoleDirectory
}

// NewUserService creates a UserService.
func NewUserService(users UserDirectory, roles RoleDirectory) *UserService {
	return &UserService{users: users, roles: roles}
}

// GetByID returns user id of tenant.
func (s *UserService) GetByID(ctx context.Context, tenant *models.Tenant, id uuid.UUID) (*models.User, error) {
	if tenant == nil {
		return nil, apperrors.Unauthorized()
	}
	user, err := s.users.FindByID(ctx, tenant, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound(MsgUserNotFound)
	}
	return user, err
}

// GetRoles lists every role of the tenant, flagged with whether the user
// holds it.
func (s *UserService) GetRoles(ctx context.Context, tenant *models.Tenant, id uuid.UUID) ([]UserRole, error) {
	user, err := s.GetByID(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	return s.rolesOf(ctx, tenant, user)
}

func (s *UserService) rolesOf(ctx context.Context, tenant *models.Tenant, user *models.User) ([]UserRole, error) {
	roles, err := s.roles.List(ctx, tenant)
	if err != nil {
		return nil, err
	}
	names, err := s.users.RoleNames(ctx, tenant, user)
	if err != nil {
		return nil, err
	}
	held := make(map[string]bool, len(names))
	for _, n := range names {
		held[n] = true
	}

	out := make([]UserRole, 0, len(roles))
	for _, r := range roles {
		out = append(out, UserRole{
			RoleID:      r.ID,
			RoleName:    r.Name,
			Description: r.Description,
			Enabled:     held[r.Name],
		})
	}
	return out, nil
}

// UpdateRoles adds or removes the user from each role in req. Every role is
// checked before anything changes. The tenant's own admin user always keeps
// the Admin role.
func (s *UserService) UpdateRoles(ctx context.Context, tenant *models.Tenant, id uuid.UUID, req UpdateUserRolesRequest) ([]UserRole, error) {
	user, err := s.GetByID(ctx, tenant, id)
	if err != nil {
		return nil, err
	}

	for _, r := range req.UserRoles {
		_, err := s.roles.FindByName(ctx, tenant, r.RoleName)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Role '" + r.RoleName + "' not found.")
		}
		if err != nil {
			return nil, err
		}
		if r.RoleName == models.RoleAdmin && !r.Enabled && isTenantAdmin(tenant, user) {
			return nil, apperrors.Conflict(MsgAdminRoleRequired)
		}
	}

	log := logger.ForTenant(tenant.ID).WithField("user", user.Username)
	for _, r := range req.UserRoles {
		var err error
		if r.Enabled {
			err = s.users.AddToRole(ctx, tenant, user, r.RoleName)
		} else {
			err = s.users.RemoveFromRole(ctx, tenant, user, r.RoleName)
		}
		if err != nil {
			log.WithError(err).WithField("role", r.RoleName).Error("Updating role membership failed")
			return nil, apperrors.Identity(msgUserRolesNotSaved)
		}
	}
	log.Info("User roles updated")

	return s.rolesOf(ctx, tenant, user)
}

func isTenantAdmin(tenant *models.Tenant, user *models.User) bool {
	return tenant.Email != "" && strings.EqualFold(tenant.Email, user.Email)
}
