package tenant

import (
	"net"
	"net/http"
	"strings"
)

// Resolver extracts the tenant slug from incoming requests. The header takes
// precedence so embedded widgets can name the tenant explicitly; otherwise
// the leftmost subdomain under RootDomain is used. DefaultTenant covers
// single-tenant installs and local development.
type Resolver struct {
	HeaderName    string
	RootDomain    string
	DefaultTenant string
}

// NewResolver builds a Resolver. An empty headerName falls back to
// "X-Tenant-ID".
func NewResolver(headerName, rootDomain, defaultTenant string) *Resolver {
	if headerName == "" {
		headerName = "X-Tenant-ID"
	}
	return &Resolver{
		HeaderName:    headerName,
		RootDomain:    strings.ToLower(strings.TrimSpace(rootDomain)),
		DefaultTenant: strings.TrimSpace(defaultTenant),
	}
}

// Middleware resolves the tenant and stores it in the request context.
// Requests that resolve to nothing pass through untagged; handlers reject
// them with TENANT_REQUIRED.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	if r == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := r.Resolve(req)
		if id == "" {
			id = r.DefaultTenant
		}
		if id != "" {
			req = req.WithContext(WithTenant(req.Context(), id))
		}
		next.ServeHTTP(w, req)
	})
}

// Resolve returns the tenant slug for the request, or "" when none applies.
func (r *Resolver) Resolve(req *http.Request) string {
	if r == nil || req == nil {
		return ""
	}
	if id := strings.TrimSpace(req.Header.Get(r.HeaderName)); id != "" {
		return id
	}
	host := stripPort(req.Host)
	if host == "" {
		return ""
	}
	return r.subdomain(strings.ToLower(host))
}

func (r *Resolver) subdomain(host string) string {
	if r.RootDomain != "" {
		if host == r.RootDomain {
			return ""
		}
		rest, ok := strings.CutSuffix(host, "."+r.RootDomain)
		if !ok {
			return ""
		}
		host = rest
	}
	first, _, _ := strings.Cut(host, ".")
	return first
}

func stripPort(hostport string) string {
	hostport = strings.TrimSpace(hostport)
	if hostport == "" {
		return ""
	}
	// Bracketed IPv6 literal.
	if strings.HasPrefix(hostport, "[") {
		if end := strings.Index(hostport, "]"); end > 1 {
			return hostport[1:end]
		}
	}
	if host, _, err := net.SplitHostPort(hostport); err == nil {
		return host
	}
	if host, _, found := strings.Cut(hostport, ":"); found && strings.Count(hostport, ":") == 1 {
		return host
	}
	return hostport
}
