package tenancy

import (
	"context"
	"strings"

	"schoolhub/internal/models"
)

type ctxKey struct{}

// WithTenant stores the resolved tenant in ctx.
func WithTenant(ctx context.Context, tenant *models.Tenant) context.Context {
	return context.WithValue(ctx, ctxKey{}, tenant)
}

// FromContext returns the tenant resolved for the current request, if any.
func FromContext(ctx context.Context) (*models.Tenant, bool) {
	tenant, ok := ctx.Value(ctxKey{}).(*models.Tenant)
	return tenant, ok && tenant != nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
