package store

import (
	"context"

	"schoolhub/internal/models"
	"schoolhub/pkg/pagination"

	"gorm.io/gorm"
)

// TenantStore reads and writes the tenants table of the shared database.
type TenantStore struct {
	db *gorm.DB
}

// NewTenantStore creates a TenantStore on the shared database.
func NewTenantStore(db *gorm.DB) *TenantStore {
	return &TenantStore{db: db}
}

// FindByID returns tenant id.
func (s *TenantStore) FindByID(ctx context.Context, id string) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&tenant).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

// List returns one page of tenants, oldest first, and the total count.
func (s *TenantStore) List(ctx context.Context, page pagination.Params) ([]models.Tenant, int64, error) {
	var tenants []models.Tenant
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Tenant{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("created_at ASC").Scopes(page.Scope()).Find(&tenants).Error
	if err != nil {
		return nil, 0, err
	}
	return tenants, total, nil
}

// ListAll returns every tenant, oldest first.
func (s *TenantStore) ListAll(ctx context.Context) ([]models.Tenant, error) {
	var tenants []models.Tenant
	err := s.db.WithContext(ctx).Order("created_at ASC").Find(&tenants).Error
	return tenants, err
}

// Create inserts tenant.
func (s *TenantStore) Create(ctx context.Context, tenant *models.Tenant) error {
	return s.db.WithContext(ctx).Create(tenant).Error
}

// Save writes every field of tenant.
func (s *TenantStore) Save(ctx context.Context, tenant *models.Tenant) error {
	return s.db.WithContext(ctx).Save(tenant).Error
}
