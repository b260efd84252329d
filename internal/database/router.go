package database

import (
	"fmt"
	"sync"

	"schoolhub/internal/models"
	"schoolhub/pkg/logger"

	"gorm.io/gorm"
)

// Opener connects to a tenant database and prepares its schema.
type Opener func(connectionString string) (*gorm.DB, error)

// Router picks the database a tenant's users and roles live in. Tenants
// without a connection string share the directory database; the others get
// one pool per distinct connection string, opened on first use.
type Router struct {
	shared *gorm.DB
	open   Opener

	mu    sync.Mutex
	pools map[string]*gorm.DB
}

// NewRouter creates a Router over shared. open connects dedicated tenant
// databases; a nil open sends every tenant to shared.
func NewRouter(shared *gorm.DB, open Opener) *Router {
	return &Router{
		shared: shared,
		open:   open,
		pools:  make(map[string]*gorm.DB),
	}
}

// Shared returns the directory database.
func (r *Router) Shared() *gorm.DB {
	return r.shared
}

// ForTenant returns the database holding tenant's data.
func (r *Router) ForTenant(tenant *models.Tenant) (*gorm.DB, error) {
	if tenant == nil || tenant.ConnectionString == "" || r.open == nil {
		return r.shared, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if db, ok := r.pools[tenant.ConnectionString]; ok {
		return db, nil
	}
	db, err := r.open(tenant.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("open database for tenant %s: %w", tenant.ID, err)
	}
	r.pools[tenant.ConnectionString] = db
	logger.ForTenant(tenant.ID).Info("Opened dedicated tenant database")
	return db, nil
}

// Close closes every dedicated pool. The shared database is left alone.
func (r *Router) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for cs, db := range r.pools {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.Close()
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
		delete(r.pools, cs)
	}
	return firstErr
}
