package services

import (
	"context"
	"testing"
	"time"

	"schoolhub/internal/models"
	apperrors "schoolhub/pkg/errors"
	"schoolhub/pkg/pagination"
)

type tenantFixture struct {
	svc     *TenantService
	seed    *seedFixture
	invalid *recordingInvalidator
}

func newTenantFixture(tenants ...*models.Tenant) *tenantFixture {
	seed := newSeedFixture(tenants...)
	inv := &recordingInvalidator{}
	return &tenantFixture{
		svc:     NewTenantService(seed.tenants, seed.seeder, inv, rootID),
		seed:    seed,
		invalid: inv,
	}
}

func TestTenantCreateSeedsTenant(t *testing.T) {
	f := newTenantFixture()
	tenant, err := f.svc.Create(context.Background(), CreateTenantRequest{
		ID:        "alpha",
		Name:      "Alpha School",
		Email:     "head@alpha.test",
		ValidUpTo: time.Now().AddDate(1, 0, 0),
		IsActive:  true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tenant.Identifier != "alpha" {
		t.Fatalf("identifier not derived from id: %+v", tenant)
	}
	if len(f.seed.roles.roles["alpha"]) != 2 || f.seed.users.count() != 1 {
		t.Fatalf("tenant not seeded")
	}

	_, err = f.svc.Create(context.Background(), CreateTenantRequest{ID: "alpha", Name: "Again", Email: "x@y.z"})
	if !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Fatalf("expected Conflict on duplicate id, got %v", err)
	}
}

func TestTenantGetByIDNotFound(t *testing.T) {
	f := newTenantFixture()
	if _, err := f.svc.GetByID(context.Background(), "ghost"); !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestTenantActivation(t *testing.T) {
	f := newTenantFixture(
		&models.Tenant{ID: rootID, IsActive: true},
		&models.Tenant{ID: "alpha", IsActive: false},
	)
	ctx := context.Background()

	tenant, err := f.svc.Activate(ctx, "alpha")
	if err != nil || !tenant.IsActive {
		t.Fatalf("Activate: %v %+v", err, tenant)
	}
	if _, err := f.svc.Activate(ctx, "alpha"); !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Fatalf("second Activate should conflict, got %v", err)
	}

	if _, err := f.svc.Deactivate(ctx, "alpha"); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	stored, _ := f.seed.tenants.FindByID(ctx, "alpha")
	if stored.IsActive {
		t.Fatalf("deactivation not saved")
	}

	if _, err := f.svc.Deactivate(ctx, rootID); !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Fatalf("root deactivation should conflict, got %v", err)
	}

	if len(f.invalid.ids) != 2 || f.invalid.ids[0] != "alpha" {
		t.Fatalf("cache not invalidated on change: %v", f.invalid.ids)
	}
}

func TestTenantUpgradeSubscription(t *testing.T) {
	now := time.Now().UTC()
	f := newTenantFixture(&models.Tenant{ID: "alpha", IsActive: true, ValidUpTo: now})
	ctx := context.Background()

	_, err := f.svc.UpgradeSubscription(ctx, "alpha", UpgradeSubscriptionRequest{NewExpiryDate: now.Add(-time.Hour)})
	if !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Fatalf("expected Validation for earlier date, got %v", err)
	}

	target := now.AddDate(0, 6, 0)
	tenant, err := f.svc.UpgradeSubscription(ctx, "alpha", UpgradeSubscriptionRequest{NewExpiryDate: target})
	if err != nil {
		t.Fatalf("UpgradeSubscription: %v", err)
	}
	if !tenant.ValidUpTo.Equal(target) {
		t.Fatalf("ValidUpTo = %v, want %v", tenant.ValidUpTo, target)
	}
}

func TestTenantList(t *testing.T) {
	f := newTenantFixture(&models.Tenant{ID: "a"}, &models.Tenant{ID: "b"}, &models.Tenant{ID: "c"})
	items, total, err := f.svc.List(context.Background(), pagination.Normalize(2, 2))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 || len(items) != 1 || items[0].ID != "c" {
		t.Fatalf("unexpected page %v total=%d", items, total)
	}
}

func TestHousekeepingPurgesAcrossTenants(t *testing.T) {
	alpha := &models.Tenant{ID: "alpha"}
	beta := &models.Tenant{ID: "beta"}
	f := newSeedFixture(alpha, beta)
	ctx := context.Background()

	stale := time.Now().Add(-72 * time.Hour)
	recent := time.Now().Add(-time.Hour)
	for _, u := range []struct {
		tenant *models.Tenant
		expiry time.Time
	}{{alpha, stale}, {beta, stale}, {beta, recent}} {
		expiry := u.expiry
		_ = f.users.Create(ctx, u.tenant, &models.User{Username: u.tenant.ID + expiry.String(), RefreshToken: "t", RefreshTokenExpiryTime: &expiry})
	}

	h := NewHousekeepingScheduler(f.tenants, f.users, "@hourly")
	n, err := h.PurgeRefreshTokens(ctx)
	if err != nil {
		t.Fatalf("PurgeRefreshTokens: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 purged, got %d", n)
	}
}

func TestHousekeepingRejectsBadSpec(t *testing.T) {
	h := NewHousekeepingScheduler(newMemTenants(), newMemUsers(newMemRoles()), "not a spec")
	if err := h.Start(); err == nil {
		h.Stop()
		t.Fatalf("expected error for invalid cron spec")
	}
}
