package tenancy

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"schoolhub/internal/models"
	"schoolhub/pkg/cache"
	"schoolhub/pkg/jwt"
	"schoolhub/pkg/logger"

	"gorm.io/gorm"
)

var (
	ErrNoTenant       = errors.New("tenancy: no tenant identifier on request")
	ErrTenantNotFound = errors.New("tenancy: tenant not found")
)

// TenantLookup finds a tenant by id.
type TenantLookup interface {
	FindByID(ctx context.Context, id string) (*models.Tenant, error)
}

// TokenParser recovers claims from a signed token without checking its
// lifetime.
type TokenParser interface {
	ParseExpired(token string) (*jwt.Claims, error)
}

// Resolver works out which tenant a request is for. The tenant header wins;
// without it the tenant claim of a presented bearer token is used.
type Resolver struct {
	header string
	store  TenantLookup
	tokens TokenParser
	cache  cache.Cache
	ttl    time.Duration
}

// NewResolver creates a Resolver reading the tenant from header. Resolved
// tenants are cached for ttl; a nil cache disables caching.
func NewResolver(header string, store TenantLookup, tokens TokenParser, c cache.Cache, ttl time.Duration) *Resolver {
	if c == nil {
		c = cache.Nop{}
	}
	return &Resolver{
		header: header,
		store:  store,
		tokens: tokens,
		cache:  c,
		ttl:    ttl,
	}
}

// Identifier returns the tenant id named by the request, or "".
func (r *Resolver) Identifier(req *http.Request) string {
	if id := strings.TrimSpace(req.Header.Get(r.header)); id != "" {
		return id
	}
	return r.ClaimedTenant(BearerToken(req.Header.Get("Authorization")))
}

// ClaimedTenant returns the tenant claim of a well signed token, expired or
// not. Unparsable tokens yield "".
func (r *Resolver) ClaimedTenant(token string) string {
	if token == "" || r.tokens == nil {
		return ""
	}
	claims, err := r.tokens.ParseExpired(token)
	if err != nil {
		return ""
	}
	return claims.Tenant
}

// ResolveRequest resolves the tenant named by req.
func (r *Resolver) ResolveRequest(req *http.Request) (*models.Tenant, error) {
	id := r.Identifier(req)
	if id == "" {
		return nil, ErrNoTenant
	}
	return r.Resolve(req.Context(), id)
}

// Resolve loads tenant id, going through the cache first.
func (r *Resolver) Resolve(ctx context.Context, id string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.cache.Get(ctx, cacheKey(id), &tenant)
	if err == nil {
		return &tenant, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		logger.ForTenant(id).WithError(err).Warn("Tenant cache read failed")
	}

	found, err := r.store.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, cacheKey(id), found, r.ttl); err != nil {
		logger.ForTenant(id).WithError(err).Warn("Tenant cache write failed")
	}
	return found, nil
}

// Invalidate drops the cached copy of tenant id.
func (r *Resolver) Invalidate(ctx context.Context, id string) {
	if err := r.cache.Delete(ctx, cacheKey(id)); err != nil {
		logger.ForTenant(id).WithError(err).Warn("Tenant cache invalidation failed")
	}
}

func cacheKey(id string) string {
	return "tenant:" + id
}
