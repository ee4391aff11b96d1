// Package config reads portal configuration from environment variables.
//
// Config is intentionally cheap to load: the tenant resolver and request
// client re-read it per call so that an override changed mid-process (tests,
// dev tenant switching) takes effect on the next request.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment defaults. The backend URL default depends on whether the
// portal runs in production.
const (
	DefaultProductionAPIURL  = "https://api.dentavia.clinic"
	DefaultDevelopmentAPIURL = "http://localhost:8000"
	DefaultTimeout           = 10 * time.Second
)

// Config holds portal configuration
type Config struct {
	Env             string
	APIBaseURL      string // explicit override; empty means use the env default
	Hostname        string // hostname the portal is served from, drives tenant detection
	TenantOverride  string // forces a tenant id regardless of hostname (dev only)
	TenantAliases   map[string]string
	RequestTimeout  time.Duration
	RateLimit       int // outbound requests per second; 0 disables throttling
	Debug           bool
	LogLevel        string
	SessionFile     string // path for the persistent token store; empty selects in-memory
	RedisAddr       string // non-empty selects the redis-backed token store
	RedisPassword   string
	MonitorInterval time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Env:             getEnv("PORTAL_ENV", "development"),
		APIBaseURL:      getEnv("PORTAL_API_URL", getEnv("PORTAL_API_BASE_URL", "")),
		Hostname:        getEnv("PORTAL_HOSTNAME", ""),
		TenantOverride:  getEnv("PORTAL_TENANT", ""),
		TenantAliases:   parseAliases(getEnv("PORTAL_TENANT_ALIASES", "")),
		RequestTimeout:  getEnvAsDuration("PORTAL_TIMEOUT", DefaultTimeout),
		RateLimit:       getEnvAsInt("PORTAL_RATE_LIMIT", 0),
		Debug:           getEnvAsBool("PORTAL_DEBUG", false),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		SessionFile:     getEnv("PORTAL_SESSION_FILE", ""),
		RedisAddr:       getEnv("PORTAL_REDIS_ADDR", ""),
		RedisPassword:   getEnv("PORTAL_REDIS_PASSWORD", ""),
		MonitorInterval: getEnvAsDuration("PORTAL_MONITOR_INTERVAL", 30*time.Second),
	}
}

// IsProduction reports whether the portal runs against the production backend.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// parseAliases parses "subdomain=tenant,subdomain2=tenant2" pairs.
// Malformed entries are skipped.
func parseAliases(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	aliases := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || key == "" || value == "" {
			continue
		}
		aliases[strings.ToLower(key)] = value
	}
	if len(aliases) == 0 {
		return nil
	}
	return aliases
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
