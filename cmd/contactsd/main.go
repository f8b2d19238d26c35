// Command contactsd runs the contact-book HTTP service: PostgreSQL
// persistence, Redis cache and rate limiting, SMTP confirmation mail and
// the Fiber API under /api.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"

	"github.com/buildgroup/contactbook"
	"github.com/buildgroup/contactbook/contacts"
	"github.com/buildgroup/contactbook/httpapi"
	"github.com/buildgroup/contactbook/mailer"
	"github.com/buildgroup/contactbook/postgres"
	"github.com/buildgroup/contactbook/token"
)

type config struct {
	Addr        string        `env:"ADDR" envDefault:":8000"`
	DatabaseDSN string        `env:"DATABASE_DSN,required"`
	RedisAddr   string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB     int           `env:"REDIS_DB" envDefault:"0"`
	TokenSecret string        `env:"TOKEN_SECRET,required"`
	TokenAlg    string        `env:"TOKEN_ALGORITHM" envDefault:"HS256"`
	AccessTTL   time.Duration `env:"ACCESS_TTL" envDefault:"15m"`
	RefreshTTL  time.Duration `env:"REFRESH_TTL" envDefault:"168h"`
	ConfirmTTL  time.Duration `env:"CONFIRM_TTL" envDefault:"24h"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	MailFrom     string `env:"MAIL_FROM"`
	BaseURL      string `env:"BASE_URL" envDefault:"http://localhost:8000"`
	MailBuffer   int    `env:"MAIL_BUFFER" envDefault:"64"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	if err := run(logger); err != nil {
		logger.Error("contactsd exited", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := postgres.Migrate(ctx, cfg.DatabaseDSN); err != nil {
		return err
	}
	store, err := postgres.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer store.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return err
	}

	// Without SMTP settings the confirmation mail lands in the log, which
	// is the local development mode.
	var sender mailer.Sender
	if cfg.SMTPHost != "" {
		sender, err = mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
			BaseURL:  cfg.BaseURL,
		})
		if err != nil {
			return err
		}
	} else {
		logger.Warn("SMTP_HOST not set, confirmation mail goes to the log")
		sender = mailer.LogSender{Logger: logger}
	}
	dispatcher := mailer.NewDispatcher(sender, cfg.MailBuffer, logger)
	defer dispatcher.Close()

	engineCfg := contactbook.DefaultConfig()
	engineCfg.Token.Secret = cfg.TokenSecret
	engineCfg.Token.Algorithm = token.Algorithm(cfg.TokenAlg)
	engineCfg.Token.AccessTTL = cfg.AccessTTL
	engineCfg.Token.RefreshTTL = cfg.RefreshTTL
	engineCfg.Token.ConfirmTTL = cfg.ConfirmTTL

	engine, err := contactbook.New().
		WithConfig(engineCfg).
		WithRedis(redisClient).
		WithUserStore(store.Users()).
		WithMailer(dispatcher).
		WithLogger(logger).
		Build()
	if err != nil {
		return err
	}

	app := httpapi.New(engine, contacts.NewService(store.Contacts(), logger), logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		errCh <- app.Listen(cfg.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
