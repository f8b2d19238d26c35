package contactbook

import (
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/buildgroup/contactbook/internal/rate"
	"github.com/buildgroup/contactbook/password"
	"github.com/buildgroup/contactbook/token"
	"github.com/buildgroup/contactbook/usercache"
)

// Builder assembles an Engine from its collaborators. A builder is used
// once; Build wires the codec, hasher, cache and limiter from the config
// and fails fast on anything missing or invalid.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	users  UserStore
	mailer Mailer
	logger *slog.Logger

	built bool
}

// New returns a builder preloaded with DefaultConfig.
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the configuration. Unset fields are filled from
// DefaultConfig during Build.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis sets the Redis client backing the user cache and the rate
// limiter.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserStore sets the account persistence collaborator.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.users = store
	return b
}

// WithMailer sets the confirmation-mail collaborator. Optional; without it
// the engine logs a warning instead of sending.
func (b *Builder) WithMailer(m Mailer) *Builder {
	b.mailer = m
	return b
}

// WithLogger sets the structured logger. Defaults to slog.Default.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// Build validates the configuration and returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.users == nil {
		return nil, errors.New("user store required")
	}

	cfg := b.config
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	codec, err := token.New(token.Config{
		Secret:    []byte(cfg.Token.Secret),
		Algorithm: cfg.Token.Algorithm,
		Issuer:    cfg.Token.Issuer,
		Leeway:    cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.New(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:  cfg,
		codec:   codec,
		hasher:  hasher,
		cache:   usercache.New(b.redis, cfg.Cache.Prefix, cfg.Cache.TTL),
		limiter: rate.New(b.redis, cfg.RateLimit.Prefix),
		users:   b.users,
		mailer:  b.mailer,
		logger:  logger,
		metrics: NewMetrics(),
	}

	b.built = true
	return engine, nil
}
