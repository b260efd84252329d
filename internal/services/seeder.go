package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"schoolhub/internal/authz"
	"schoolhub/internal/models"
	"schoolhub/internal/permissions"
	"schoolhub/pkg/config"
	"schoolhub/pkg/logger"

	"gorm.io/gorm"
)

// Seeder provisions the root tenant and, for every tenant, the default roles
// with their permission claims and the tenant's admin user. Every step checks
// before it writes, so a run interrupted halfway is finished by the next one.
type Seeder struct {
	tenants TenantStore
	users   UserDirectory
	roles   RoleDirectory
	cfg     config.TenancyConfig
	now     func() time.Time
}

// NewSeeder creates a Seeder using cfg for the root tenant and admin defaults.
func NewSeeder(tenants TenantStore, users UserDirectory, roles RoleDirectory, cfg config.TenancyConfig) *Seeder {
	return &Seeder{
		tenants: tenants,
		users:   users,
		roles:   roles,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Run seeds the root tenant and then every tenant in the directory.
func (s *Seeder) Run(ctx context.Context) error {
	log := logger.GetLogger()
	log.Info("Starting seed...")

	if _, err := s.EnsureRootTenant(ctx); err != nil {
		return fmt.Errorf("seed root tenant: %w", err)
	}

	tenants, err := s.tenants.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}
	for i := range tenants {
		if err := s.SeedTenant(ctx, &tenants[i]); err != nil {
			return fmt.Errorf("seed tenant %s: %w", tenants[i].ID, err)
		}
	}

	log.WithField("tenants", len(tenants)).Info("Seed completed")
	return nil
}

// EnsureRootTenant creates the root tenant on first boot.
func (s *Seeder) EnsureRootTenant(ctx context.Context) (*models.Tenant, error) {
	root, err := s.tenants.FindByID(ctx, s.cfg.RootID)
	if err == nil {
		return root, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	root = &models.Tenant{
		ID:         s.cfg.RootID,
		Identifier: s.cfg.RootID,
		Name:       s.cfg.RootName,
		Email:      s.cfg.RootEmail,
		FirstName:  s.cfg.AdminFirstName,
		LastName:   s.cfg.AdminLastName,
		IsActive:   true,
		ValidUpTo:  s.now().UTC().AddDate(2, 0, 0),
	}
	if err := s.tenants.Create(ctx, root); err != nil {
		return nil, err
	}
	logger.ForTenant(root.ID).Info("Root tenant created")
	return root, nil
}

// SeedTenant makes sure tenant has its default roles, their permissions and
// an admin user.
func (s *Seeder) SeedTenant(ctx context.Context, tenant *models.Tenant) error {
	for _, name := range []string{models.RoleAdmin, models.RoleBasic} {
		role, err := s.ensureRole(ctx, tenant, name)
		if err != nil {
			return err
		}

		var grant []permissions.Permission
		switch name {
		case models.RoleAdmin:
			grant = permissions.Admin()
			if tenant.ID == s.cfg.RootID {
				grant = append(grant, permissions.Root()...)
			}
		case models.RoleBasic:
			grant = permissions.Basic()
		}
		if err := s.assignPermissions(ctx, tenant, role, grant); err != nil {
			return err
		}
	}

	return s.ensureAdminUser(ctx, tenant)
}

func (s *Seeder) ensureRole(ctx context.Context, tenant *models.Tenant, name string) (*models.Role, error) {
	role, err := s.roles.FindByName(ctx, tenant, name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	role = &models.Role{Name: name, Description: name + " Role"}
	if err := s.roles.Create(ctx, tenant, role); err != nil {
		return nil, err
	}
	logger.ForTenant(tenant.ID).WithField("role", name).Info("Role created")
	return role, nil
}

func (s *Seeder) assignPermissions(ctx context.Context, tenant *models.Tenant, role *models.Role, grant []permissions.Permission) error {
	current, err := s.roles.Claims(ctx, tenant, role)
	if err != nil {
		return err
	}

	for _, p := range grant {
		name := p.Name()
		if current.Has(authz.ClaimPermission, name) {
			continue
		}
		claim := &models.RoleClaim{
			ClaimType:   string(authz.ClaimPermission),
			ClaimValue:  name,
			Description: p.Description,
			Group:       p.Group,
		}
		if err := s.roles.AddClaim(ctx, tenant, role, claim); err != nil {
			return err
		}
		current = append(current, authz.PermissionClaim(name))
	}
	return nil
}

func (s *Seeder) ensureAdminUser(ctx context.Context, tenant *models.Tenant) error {
	if tenant.Email == "" {
		return nil
	}

	user, err := s.users.FindByEmail(ctx, tenant, tenant.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = &models.User{
			Username:             tenant.Email,
			Email:                tenant.Email,
			FirstName:            s.cfg.AdminFirstName,
			LastName:             s.cfg.AdminLastName,
			IsActive:             true,
			EmailConfirmed:       true,
			PhoneNumberConfirmed: true,
		}
		if err := user.SetPassword(s.cfg.DefaultPassword); err != nil {
			return err
		}
		if err := s.users.Create(ctx, tenant, user); err != nil {
			return err
		}
		logger.ForTenant(tenant.ID).WithField("user", user.Username).Info("Admin user created")
	} else if err != nil {
		return err
	}

	inRole, err := s.users.IsInRole(ctx, tenant, user, models.RoleAdmin)
	if err != nil {
		return err
	}
	if inRole {
		return nil
	}
	return s.users.AddToRole(ctx, tenant, user, models.RoleAdmin)
}
