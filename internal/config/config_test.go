package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Env != "development" {
		t.Errorf("expected development env, got %s", cfg.Env)
	}
	if cfg.IsProduction() {
		t.Error("expected IsProduction to be false by default")
	}
	if cfg.APIBaseURL != "" {
		t.Errorf("expected empty API override, got %s", cfg.APIBaseURL)
	}
	if cfg.RequestTimeout != DefaultTimeout {
		t.Errorf("expected default timeout %v, got %v", DefaultTimeout, cfg.RequestTimeout)
	}
	if cfg.RateLimit != 0 {
		t.Errorf("expected throttling disabled by default, got %d", cfg.RateLimit)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORTAL_ENV", "production")
	t.Setenv("PORTAL_API_URL", "https://backend.example.com")
	t.Setenv("PORTAL_HOSTNAME", "norte.dentavia.clinic")
	t.Setenv("PORTAL_TIMEOUT", "5s")
	t.Setenv("PORTAL_RATE_LIMIT", "10")
	t.Setenv("PORTAL_DEBUG", "true")

	cfg := Load()

	if !cfg.IsProduction() {
		t.Error("expected IsProduction to be true")
	}
	if cfg.APIBaseURL != "https://backend.example.com" {
		t.Errorf("unexpected API URL: %s", cfg.APIBaseURL)
	}
	if cfg.Hostname != "norte.dentavia.clinic" {
		t.Errorf("unexpected hostname: %s", cfg.Hostname)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", cfg.RequestTimeout)
	}
	if cfg.RateLimit != 10 {
		t.Errorf("expected 10 rps rate limit, got %d", cfg.RateLimit)
	}
	if !cfg.Debug {
		t.Error("expected debug to be enabled")
	}
}

func TestLegacyAPIBaseURLVariable(t *testing.T) {
	t.Setenv("PORTAL_API_BASE_URL", "https://legacy.example.com")

	cfg := Load()
	if cfg.APIBaseURL != "https://legacy.example.com" {
		t.Errorf("expected fallback to PORTAL_API_BASE_URL, got %s", cfg.APIBaseURL)
	}
}

func TestParseAliases(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]string
	}{
		{"empty", "", nil},
		{"single", "clinicademo1=clinica_demo", map[string]string{"clinicademo1": "clinica_demo"}},
		{
			"multiple with spaces",
			"clinicademo1=clinica_demo, clinicaabc=clinica_abc",
			map[string]string{"clinicademo1": "clinica_demo", "clinicaabc": "clinica_abc"},
		},
		{"malformed entries skipped", "broken,=x,y=", nil},
		{"uppercase key folded", "ClinicaABC=clinica_abc", map[string]string{"clinicaabc": "clinica_abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseAliases(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d aliases, got %d (%v)", len(tt.want), len(got), got)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("alias %s: expected %s, got %s", k, v, got[k])
				}
			}
		})
	}
}
