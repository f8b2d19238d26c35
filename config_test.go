package contactbook

import (
	"testing"
	"time"

	"github.com/buildgroup/contactbook/token"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "defaults with secret",
			mutate:    func(c *Config) {},
			wantValid: true,
		},
		{
			name: "HS512 accepted",
			mutate: func(c *Config) {
				c.Token.Algorithm = token.AlgHS512
			},
			wantValid: true,
		},
		{
			name: "missing secret",
			mutate: func(c *Config) {
				c.Token.Secret = ""
			},
			wantValid: false,
		},
		{
			name: "unknown algorithm",
			mutate: func(c *Config) {
				c.Token.Algorithm = "RS256"
			},
			wantValid: false,
		},
		{
			name: "refresh not longer than access",
			mutate: func(c *Config) {
				c.Token.RefreshTTL = c.Token.AccessTTL
			},
			wantValid: false,
		},
		{
			name: "negative leeway",
			mutate: func(c *Config) {
				c.Token.Leeway = -time.Second
			},
			wantValid: false,
		},
		{
			name: "zero cache TTL",
			mutate: func(c *Config) {
				c.Cache.TTL = 0
			},
			wantValid: false,
		},
		{
			name: "zero login budget",
			mutate: func(c *Config) {
				c.RateLimit.Login.Limit = 0
			},
			wantValid: false,
		},
		{
			name: "zero contact_create window",
			mutate: func(c *Config) {
				c.RateLimit.ContactCreate.Window = 0
			},
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Token.Secret = "test-secret"
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tt.wantValid && err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}
}

func TestConfigFillDefaults(t *testing.T) {
	cfg := Config{}
	cfg.Token.Secret = "test-secret"
	cfg.RateLimit.Login = RouteLimit{Limit: 10, Window: time.Minute}
	cfg.fillDefaults()

	if cfg.Token.Algorithm != token.AlgHS256 {
		t.Fatalf("expected HS256 default, got %q", cfg.Token.Algorithm)
	}
	if cfg.Token.RefreshTTL != 7*24*time.Hour {
		t.Fatalf("unexpected refresh TTL %v", cfg.Token.RefreshTTL)
	}
	if cfg.Password.Memory == 0 {
		t.Fatal("expected argon2id defaults to be filled")
	}
	if cfg.Cache.TTL != 600*time.Second {
		t.Fatalf("unexpected cache TTL %v", cfg.Cache.TTL)
	}
	if cfg.RateLimit.Login.Limit != 10 {
		t.Fatal("explicit login budget was overwritten")
	}
	if cfg.RateLimit.RequestEmail.Limit != 1 {
		t.Fatalf("unexpected request_email budget %d", cfg.RateLimit.RequestEmail.Limit)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("filled config should validate: %v", err)
	}
}
