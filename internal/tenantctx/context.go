package tenantctx

import (
	"context"
	"strings"
)

type contextKey struct{}

// WithTenant returns a context carrying the tenant identifier.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, contextKey{}, tenantID)
}

// From reads the tenant identifier placed in the context by the resolver
// middleware. The second return is false when no tenant was resolved.
func From(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, _ := ctx.Value(contextKey{}).(string)
	id = strings.TrimSpace(id)
	return id, id != ""
}

// PrefixKey namespaces a cache or queue key under a tenant so two tenants
// never share an entry.
func PrefixKey(tenantID, key string) string {
	if tenantID == "" {
		return key
	}
	return tenantID + ":" + key
}
