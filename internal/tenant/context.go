package tenant

import (
	"context"

	"github.com/noah-isme/backend-boka/internal/tenantctx"
)

// WithTenant returns a context carrying the tenant identifier.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return tenantctx.WithTenant(ctx, tenantID)
}

// From reads the tenant identifier placed in the context by the resolver
// middleware. The second return is false when no tenant was resolved.
func From(ctx context.Context) (string, bool) {
	return tenantctx.From(ctx)
}

// PrefixKey namespaces a cache or queue key under a tenant so two tenants
// never share an entry.
func PrefixKey(tenantID, key string) string {
	return tenantctx.PrefixKey(tenantID, key)
}
