package services

import (
	"context"
	"errors"
	"time"

	"schoolhub/internal/models"
	apperrors "schoolhub/pkg/errors"
	"schoolhub/pkg/logger"
	"schoolhub/pkg/pagination"

	"gorm.io/gorm"
)

// CreateTenantRequest is the payload for provisioning a tenant.
type CreateTenantRequest struct {
	ID               string    `json:"id" binding:"required,max=64,alphanum"`
	Name             string    `json:"name" binding:"required,max=100"`
	ConnectionString string    `json:"connectionString"`
	Email            string    `json:"email" binding:"required,email"`
	FirstName        string    `json:"firstName" binding:"max=100"`
	LastName         string    `json:"lastName" binding:"max=100"`
	ValidUpTo        time.Time `json:"validUpTo" binding:"required"`
	IsActive         bool      `json:"isActive"`
}

// UpgradeSubscriptionRequest moves a tenant's subscription end date.
type UpgradeSubscriptionRequest struct {
	NewExpiryDate time.Time `json:"newExpiryDate" binding:"required"`
}

// TenantInvalidator drops cached copies of a tenant.
type TenantInvalidator interface {
	Invalidate(ctx context.Context, id string)
}

// TenantService administers tenants: provisioning, activation and
// subscription changes.
type TenantService struct {
	tenants      TenantStore
	seeder       *Seeder
	cache        TenantInvalidator
	rootTenantID string
}

// NewTenantService creates a TenantService.
func NewTenantService(tenants TenantStore, seeder *Seeder, cache TenantInvalidator, rootTenantID string) *TenantService {
	return &TenantService{
		tenants:      tenants,
		seeder:       seeder,
		cache:        cache,
		rootTenantID: rootTenantID,
	}
}

// Create provisions a tenant and seeds its roles and admin user.
func (s *TenantService) Create(ctx context.Context, req CreateTenantRequest) (*models.Tenant, error) {
	_, err := s.tenants.FindByID(ctx, req.ID)
	if err == nil {
		return nil, apperrors.Conflict("Tenant with id " + req.ID + " already exists.")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	tenant := &models.Tenant{
		ID:               req.ID,
		Identifier:       req.ID,
		Name:             req.Name,
		ConnectionString: req.ConnectionString,
		Email:            req.Email,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		ValidUpTo:        req.ValidUpTo.UTC(),
		IsActive:         req.IsActive,
	}
	if err := s.tenants.Create(ctx, tenant); err != nil {
		return nil, err
	}
	if err := s.seeder.SeedTenant(ctx, tenant); err != nil {
		return nil, err
	}

	logger.ForTenant(tenant.ID).Info("Tenant provisioned")
	return tenant, nil
}

// List returns one page of tenants.
func (s *TenantService) List(ctx context.Context, page pagination.Params) ([]models.Tenant, int64, error) {
	return s.tenants.List(ctx, page)
}

// GetByID returns tenant id, or NotFound.
func (s *TenantService) GetByID(ctx context.Context, id string) (*models.Tenant, error) {
	tenant, err := s.tenants.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Tenant not found.")
	}
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

// Activate marks tenant id active and drops its cached copy.
func (s *TenantService) Activate(ctx context.Context, id string) (*models.Tenant, error) {
	return s.update(ctx, id, func(t *models.Tenant) error {
		if t.IsActive {
			return apperrors.Conflict("Tenant is already active.")
		}
		t.Activate()
		return nil
	})
}

// Deactivate marks tenant id inactive. The root tenant is refused.
func (s *TenantService) Deactivate(ctx context.Context, id string) (*models.Tenant, error) {
	return s.update(ctx, id, func(t *models.Tenant) error {
		if t.ID == s.rootTenantID {
			return apperrors.Conflict("The root tenant cannot be deactivated.")
		}
		if !t.IsActive {
			return apperrors.Conflict("Tenant is already inactive.")
		}
		t.Deactivate()
		return nil
	})
}

// UpgradeSubscription moves the tenant's subscription end date forward.
func (s *TenantService) UpgradeSubscription(ctx context.Context, id string, req UpgradeSubscriptionRequest) (*models.Tenant, error) {
	return s.update(ctx, id, func(t *models.Tenant) error {
		if !req.NewExpiryDate.After(t.ValidUpTo) {
			return apperrors.Validation("New expiry date must be later than the current one.")
		}
		t.ExtendTo(req.NewExpiryDate.UTC())
		return nil
	})
}

func (s *TenantService) update(ctx context.Context, id string, change func(*models.Tenant) error) (*models.Tenant, error) {
	tenant, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := change(tenant); err != nil {
		return nil, err
	}
	if err := s.tenants.Save(ctx, tenant); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
	logger.ForTenant(id).WithField("active", tenant.IsActive).
		WithField("validUpTo", tenant.ValidUpTo).Info("Tenant updated")
	return tenant, nil
}
