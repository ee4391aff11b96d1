// Package tenant derives the active clinic tenant and backend base URL from
// the runtime environment.
//
// Each clinic lives on its own subdomain (norte.dentavia.clinic -> "norte").
// A bare or local host maps to the sentinel PublicTenant, which routes to the
// shared public schema used for clinic signup and administration.
package tenant

import (
	"context"
	"strings"

	"github.com/dentavia/portal/internal/config"
)

// PublicTenant is the sentinel tenant id used when no clinic subdomain is
// detected.
const PublicTenant = "public"

// Info is a display snapshot of the resolved tenant context.
type Info struct {
	TenantID   string `json:"tenantId"`
	Subdomain  string `json:"subdomain"`
	APIBaseURL string `json:"apiBaseUrl"`
	Hostname   string `json:"hostname"`
}

// Resolver resolves tenant id and API base URL. Configuration is re-read on
// every call so that overrides changed between calls take effect immediately.
type Resolver struct {
	load func() *config.Config
}

// NewResolver creates a resolver backed by config.Load.
func NewResolver() *Resolver {
	return &Resolver{load: config.Load}
}

// NewResolverWithLoader creates a resolver with a custom config loader.
// Tests substitute a loader returning a fixed Config.
func NewResolverWithLoader(load func() *config.Config) *Resolver {
	return &Resolver{load: load}
}

// TenantID returns the tenant identifier for the current environment.
// Resolution order: explicit override, subdomain alias map, raw subdomain,
// sentinel.
func (r *Resolver) TenantID() string {
	cfg := r.load()
	if cfg.TenantOverride != "" {
		return cfg.TenantOverride
	}

	sub := extractSubdomain(cfg.Hostname)
	if sub == "" {
		return PublicTenant
	}
	if alias, ok := cfg.TenantAliases[sub]; ok {
		return alias
	}
	return sub
}

// APIBaseURL returns the backend base URL, preferring the configured
// override and falling back to the environment default.
func (r *Resolver) APIBaseURL() string {
	cfg := r.load()
	if cfg.APIBaseURL != "" {
		return strings.TrimRight(cfg.APIBaseURL, "/")
	}
	if cfg.IsProduction() {
		return config.DefaultProductionAPIURL
	}
	return config.DefaultDevelopmentAPIURL
}

// IsPublicSchema reports whether the portal runs on the shared public schema.
func (r *Resolver) IsPublicSchema() bool {
	return r.TenantID() == PublicTenant
}

// Info returns the full resolved tenant context for display. Subdomain is
// empty when no clinic subdomain was detected.
func (r *Resolver) Info() Info {
	cfg := r.load()
	sub := extractSubdomain(cfg.Hostname)
	return Info{
		TenantID:   r.TenantID(),
		Subdomain:  sub,
		APIBaseURL: r.APIBaseURL(),
		Hostname:   cfg.Hostname,
	}
}

// extractSubdomain returns the clinic subdomain of host, or "" when the host
// has no tenant label (bare domain, www, localhost, loopback, empty).
func extractSubdomain(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return ""
	}
	// Strip a port if present.
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	if host == "localhost" || host == "127.0.0.1" {
		return ""
	}

	parts := strings.Split(host, ".")
	if len(parts) < 3 || parts[0] == "www" {
		return ""
	}
	return parts[0]
}

type ctxKey string

const tenantKey ctxKey = "portal.tenant_id"

// WithTenant stores the tenant id in context.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantKey, tenantID)
}

// FromContext extracts the tenant id if present.
func FromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(tenantKey)
	if val == nil {
		return "", false
	}
	tenantID, ok := val.(string)
	return tenantID, ok && tenantID != ""
}
