package obs

import "context"

type routePatternKey struct{}

// WithRoutePattern tags the context with the matched chi route pattern so
// logs and metrics report "/api/v1/forms/{slug}" instead of raw paths.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, routePatternKey{}, pattern)
}

// RoutePatternFromContext returns the matched route pattern, or "".
func RoutePatternFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	pattern, _ := ctx.Value(routePatternKey{}).(string)
	return pattern
}
