package contactbook

import (
	"errors"
	"time"

	"github.com/buildgroup/contactbook/token"
)

// Config carries every tunable of the engine. Zero fields are filled from
// DefaultConfig by the builder; Validate rejects anything still unusable.
// A Config is set once at startup and treated as immutable afterwards.
type Config struct {
	Token     TokenConfig
	Password  PasswordConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
}

// TokenConfig drives the signed-token codec. Secret has no default and must
// be provided by the operator.
type TokenConfig struct {
	Secret     string
	Algorithm  token.Algorithm
	Issuer     string
	Leeway     time.Duration
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ConfirmTTL time.Duration
}

// PasswordConfig holds the argon2id cost parameters. Memory is in KiB.
type PasswordConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// CacheConfig controls the advisory user-snapshot cache.
type CacheConfig struct {
	Prefix string
	TTL    time.Duration
}

// RouteLimit is one fixed-window budget: at most Limit requests per Window.
type RouteLimit struct {
	Limit  int
	Window time.Duration
}

// RateLimitConfig holds the per-route budgets enforced by the HTTP layer.
type RateLimitConfig struct {
	Prefix        string
	Login         RouteLimit
	RequestEmail  RouteLimit
	ContactCreate RouteLimit
	ContactRead   RouteLimit
	UserRead      RouteLimit
}

// DefaultConfig returns the baseline configuration. Everything except the
// token secret is usable as-is.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			Algorithm:  token.AlgHS256,
			Issuer:     "contactbook",
			Leeway:     0,
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
			ConfirmTTL: 24 * time.Hour,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Cache: CacheConfig{
			Prefix: "uc",
			TTL:    600 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Prefix:        "rl",
			Login:         RouteLimit{Limit: 2, Window: 5 * time.Second},
			RequestEmail:  RouteLimit{Limit: 1, Window: 5 * time.Second},
			ContactCreate: RouteLimit{Limit: 1, Window: 10 * time.Second},
			ContactRead:   RouteLimit{Limit: 2, Window: 5 * time.Second},
			UserRead:      RouteLimit{Limit: 2, Window: 5 * time.Second},
		},
	}
}

// Validate checks the configuration before any collaborator is built. The
// engine refuses to start on the first violation rather than limping along
// with a partial setup.
func (c *Config) Validate() error {
	if c.Token.Secret == "" {
		return errors.New("config: token secret is required")
	}
	switch c.Token.Algorithm {
	case token.AlgHS256, token.AlgHS512:
	default:
		return errors.New("config: token algorithm must be HS256 or HS512")
	}
	if c.Token.AccessTTL <= 0 || c.Token.RefreshTTL <= 0 || c.Token.ConfirmTTL <= 0 {
		return errors.New("config: token TTLs must be positive")
	}
	if c.Token.RefreshTTL <= c.Token.AccessTTL {
		return errors.New("config: refresh TTL must exceed access TTL")
	}
	if c.Token.Leeway < 0 {
		return errors.New("config: token leeway must not be negative")
	}
	if c.Cache.TTL <= 0 {
		return errors.New("config: cache TTL must be positive")
	}
	for _, rl := range []struct {
		name  string
		limit RouteLimit
	}{
		{"login", c.RateLimit.Login},
		{"request_email", c.RateLimit.RequestEmail},
		{"contact_create", c.RateLimit.ContactCreate},
		{"contact_read", c.RateLimit.ContactRead},
		{"user_read", c.RateLimit.UserRead},
	} {
		if rl.limit.Limit <= 0 {
			return errors.New("config: rate limit for " + rl.name + " must be positive")
		}
		if rl.limit.Window <= 0 {
			return errors.New("config: rate window for " + rl.name + " must be positive")
		}
	}
	return nil
}

// fillDefaults overlays DefaultConfig onto unset fields so callers only
// specify what they change.
func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if c.Token.Algorithm == "" {
		c.Token.Algorithm = def.Token.Algorithm
	}
	if c.Token.Issuer == "" {
		c.Token.Issuer = def.Token.Issuer
	}
	if c.Token.AccessTTL == 0 {
		c.Token.AccessTTL = def.Token.AccessTTL
	}
	if c.Token.RefreshTTL == 0 {
		c.Token.RefreshTTL = def.Token.RefreshTTL
	}
	if c.Token.ConfirmTTL == 0 {
		c.Token.ConfirmTTL = def.Token.ConfirmTTL
	}
	if c.Password.Memory == 0 {
		c.Password = def.Password
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = def.Cache.Prefix
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = def.Cache.TTL
	}
	if c.RateLimit.Prefix == "" {
		c.RateLimit.Prefix = def.RateLimit.Prefix
	}
	if c.RateLimit.Login == (RouteLimit{}) {
		c.RateLimit.Login = def.RateLimit.Login
	}
	if c.RateLimit.RequestEmail == (RouteLimit{}) {
		c.RateLimit.RequestEmail = def.RateLimit.RequestEmail
	}
	if c.RateLimit.ContactCreate == (RouteLimit{}) {
		c.RateLimit.ContactCreate = def.RateLimit.ContactCreate
	}
	if c.RateLimit.ContactRead == (RouteLimit{}) {
		c.RateLimit.ContactRead = def.RateLimit.ContactRead
	}
	if c.RateLimit.UserRead == (RouteLimit{}) {
		c.RateLimit.UserRead = def.RateLimit.UserRead
	}
}
