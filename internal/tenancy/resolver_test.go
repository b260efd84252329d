package tenancy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"schoolhub/internal/authz"
	"schoolhub/internal/models"
	"schoolhub/pkg/cache"
	"schoolhub/pkg/jwt"

	"gorm.io/gorm"
)

const secret = "0123456789abcdef0123456789abcdef"

type fakeStore struct {
	tenants map[string]*models.Tenant
	calls   int
}

func (s *fakeStore) FindByID(_ context.Context, id string) (*models.Tenant, error) {
	s.calls++
	t, ok := s.tenants[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *t
	return &copied, nil
}

type memCache struct {
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (m *memCache) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.data[key]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *memCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func newResolver(store *fakeStore, c cache.Cache) *Resolver {
	return NewResolver("tenant", store, jwt.NewManager(secret, time.Hour), c, time.Minute)
}

func tokenFor(t *testing.T, tenant string, now time.Time) string {
	t.Helper()
	m := jwt.NewManager(secret, time.Hour).WithClock(func() time.Time { return now })
	token, _, err := m.Generate(authz.ClaimSet{
		authz.NewClaim(authz.ClaimNameIdentifier, "u-1"),
		authz.NewClaim(authz.ClaimTenant, tenant),
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return token
}

func TestIdentifierPrefersHeader(t *testing.T) {
	r := newResolver(&fakeStore{}, nil)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("tenant", "alpha")
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, "beta", time.Now()))
	if got := r.Identifier(req); got != "alpha" {
		t.Fatalf("Identifier = %q, want alpha", got)
	}

	req.Header.Del("tenant")
	if got := r.Identifier(req); got != "beta" {
		t.Fatalf("Identifier = %q, want beta from claim", got)
	}
}

func TestIdentifierFromExpiredToken(t *testing.T) {
	r := newResolver(&fakeStore{}, nil)
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, "beta", time.Now().Add(-3*time.Hour)))
	if got := r.Identifier(req); got != "beta" {
		t.Fatalf("Identifier = %q, want beta", got)
	}

	req.Header.Set("Authorization", "Bearer not-a-token")
	if got := r.Identifier(req); got != "" {
		t.Fatalf("garbage token yielded %q", got)
	}
}

func TestResolveRequest(t *testing.T) {
	store := &fakeStore{tenants: map[string]*models.Tenant{"alpha": {ID: "alpha", IsActive: true}}}
	r := newResolver(store, nil)

	req := httptest.NewRequest("GET", "/", nil)
	if _, err := r.ResolveRequest(req); !errors.Is(err, ErrNoTenant) {
		t.Fatalf("expected ErrNoTenant, got %v", err)
	}

	req.Header.Set("tenant", "ghost")
	if _, err := r.ResolveRequest(req); !errors.Is(err, ErrTenantNotFound) {
		t.Fatalf("expected ErrTenantNotFound, got %v", err)
	}

	req.Header.Set("tenant", "alpha")
	tenant, err := r.ResolveRequest(req)
	if err != nil || tenant.ID != "alpha" {
		t.Fatalf("unexpected %v %v", tenant, err)
	}
}

func TestResolveUsesCacheUntilInvalidated(t *testing.T) {
	store := &fakeStore{tenants: map[string]*models.Tenant{"alpha": {ID: "alpha", IsActive: true}}}
	r := newResolver(store, newMemCache())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := r.Resolve(ctx, "alpha"); err != nil {
			t.Fatalf("Resolve: %v", err)
		}
	}
	if store.calls != 1 {
		t.Fatalf("expected one store hit, got %d", store.calls)
	}

	store.tenants["alpha"].IsActive = false
	r.Invalidate(ctx, "alpha")
	tenant, err := r.Resolve(ctx, "alpha")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tenant.IsActive || store.calls != 2 {
		t.Fatalf("stale tenant served after invalidation: %+v calls=%d", tenant, store.calls)
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	if _, ok := FromContext(ctx); ok {
		t.Fatalf("empty context reported a tenant")
	}
	ctx = WithTenant(ctx, &models.Tenant{ID: "alpha"})
	tenant, ok := FromContext(ctx)
	if !ok || tenant.ID != "alpha" {
		t.Fatalf("tenant lost: %v %v", tenant, ok)
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":  "abc",
		"bearer abc ": "abc",
		"Basic abc":   "",
		"abc":         "",
		"":            "",
	}
	for in, want := range cases {
		if got := BearerToken(in); got != want {
			t.Fatalf("BearerToken(%q) = %q, want %q", in, got, want)
		}
	}
}
