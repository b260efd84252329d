package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"schoolhub/pkg/logger"

	"github.com/robfig/cron/v3"
)

// refreshGrace is how long an expired refresh token stays on the user row
// before the purge clears it.
const refreshGrace = 24 * time.Hour

// HousekeepingScheduler periodically clears long-expired refresh tokens in
// every tenant. Validation never relies on it: expired tokens are rejected
// whether or not they have been purged.
type HousekeepingScheduler struct {
	tenants TenantStore
	users   UserDirectory
	spec    string
	cron    *cron.Cron
	now     func() time.Time

	mu      sync.Mutex
	running bool
}

// NewHousekeepingScheduler creates a scheduler running the purge on the cron
// spec.
func NewHousekeepingScheduler(tenants TenantStore, users UserDirectory, spec string) *HousekeepingScheduler {
	return &HousekeepingScheduler{
		tenants: tenants,
		users:   users,
		spec:    spec,
		cron:    cron.New(),
		now:     time.Now,
	}
}

// Start schedules the purge. It fails on an invalid spec.
func (s *HousekeepingScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("housekeeping scheduler already running")
	}
	if _, err := s.cron.AddFunc(s.spec, func() {
		if _, err := s.PurgeRefreshTokens(context.Background()); err != nil {
			logger.GetLogger().WithError(err).Error("Refresh token purge failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid housekeeping cron spec %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.running = true
	logger.GetLogger().WithField("spec", s.spec).Info("Housekeeping scheduler started")
	return nil
}

// Stop halts the scheduler and waits for a running purge.
func (s *HousekeepingScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	logger.GetLogger().Info("Housekeeping scheduler stopped")
}

// PurgeRefreshTokens clears refresh tokens that expired more than a day ago.
// A failing tenant is logged and skipped; the first error is returned.
func (s *HousekeepingScheduler) PurgeRefreshTokens(ctx context.Context) (int64, error) {
	tenants, err := s.tenants.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := s.now().UTC().Add(-refreshGrace)
	var total int64
	var firstErr error
	for i := range tenants {
		n, err := s.users.PurgeRefreshTokens(ctx, &tenants[i], cutoff)
		if err != nil {
			logger.ForTenant(tenants[i].ID).WithError(err).Warn("Refresh token purge failed for tenant")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		total += n
	}

	if total > 0 {
		logger.GetLogger().WithField("cleared", total).Info("Expired refresh tokens purged")
	}
	return total, firstErr
}
