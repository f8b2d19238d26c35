package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/buildgroup/contactbook"
	"github.com/buildgroup/contactbook/memstore"
)

type dropMailer struct{}

func (dropMailer) SendConfirmation(context.Context, string, string, string) error { return nil }

func setup(t *testing.T, role contactbook.Role) (*contactbook.Engine, string, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	// No retries and a short dial timeout so an outage test observes the
	// failure immediately instead of sitting in the client's backoff.
	client := redis.NewClient(&redis.Options{
		Addr:        mr.Addr(),
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	})
	t.Cleanup(func() { _ = client.Close() })

	store := memstore.NewUserStore()
	cfg := contactbook.DefaultConfig()
	cfg.Token.Secret = "test-secret"
	cfg.Password = contactbook.PasswordConfig{Memory: 8192, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 16}

	eng, err := contactbook.New().
		WithConfig(cfg).
		WithRedis(client).
		WithUserStore(store).
		WithMailer(dropMailer{}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	ctx := context.Background()
	if _, err := eng.Signup(ctx, contactbook.SignupInput{Username: "john", Email: "eva@i.ua", Password: "123456789"}); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if err := store.SetConfirmed(ctx, "eva@i.ua"); err != nil {
		t.Fatalf("SetConfirmed: %v", err)
	}
	if err := store.SetRole("eva@i.ua", role); err != nil {
		t.Fatalf("SetRole: %v", err)
	}

	pair, err := eng.Login(ctx, "eva@i.ua", "123456789")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	// Login warmed the cache before the role change; drop it so the guard
	// observes the store.
	mr.FlushAll()
	return eng, pair.AccessToken, mr
}

func doRequest(t *testing.T, app *fiber.App, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func pingApp(handlers ...fiber.Handler) *fiber.App {
	app := fiber.New()
	handlers = append(handlers, func(c *fiber.Ctx) error { return c.SendString("pong") })
	app.Get("/ping", handlers...)
	return app
}

func TestGuardRejectsBadTokens(t *testing.T) {
	eng, token, _ := setup(t, contactbook.RoleUser)
	app := pingApp(Guard(eng))

	if resp := doRequest(t, app, ""); resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("no header: status = %d", resp.StatusCode)
	}
	if resp := doRequest(t, app, token+"x"); resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("tampered token: status = %d", resp.StatusCode)
	}

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Token "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("wrong scheme: status = %d", resp.StatusCode)
	}
}

func TestGuardInjectsUser(t *testing.T) {
	eng, token, _ := setup(t, contactbook.RoleUser)

	app := fiber.New()
	app.Get("/ping", Guard(eng), func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			t.Error("CurrentUser returned nil inside guarded route")
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(user.Email)
	})

	resp := doRequest(t, app, token)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestRequireRoles(t *testing.T) {
	for _, tt := range []struct {
		role contactbook.Role
		want int
	}{
		{contactbook.RoleUser, fiber.StatusForbidden},
		{contactbook.RoleModerator, fiber.StatusOK},
		{contactbook.RoleAdmin, fiber.StatusOK},
	} {
		t.Run(string(tt.role), func(t *testing.T) {
			eng, token, _ := setup(t, tt.role)
			app := pingApp(Guard(eng), RequireRoles(contactbook.RoleAdmin, contactbook.RoleModerator))
			if resp := doRequest(t, app, token); resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	eng, token, mr := setup(t, contactbook.RoleUser)
	limit := contactbook.RouteLimit{Limit: 1, Window: 5 * time.Second}
	app := pingApp(Guard(eng), RateLimit(eng, "ping", limit, nil))

	if resp := doRequest(t, app, token); resp.StatusCode != fiber.StatusOK {
		t.Fatalf("first request: status = %d", resp.StatusCode)
	}
	if resp := doRequest(t, app, token); resp.StatusCode != fiber.StatusTooManyRequests {
		t.Fatalf("second request: status = %d, want 429", resp.StatusCode)
	}

	mr.FastForward(6 * time.Second)
	if resp := doRequest(t, app, token); resp.StatusCode != fiber.StatusOK {
		t.Fatalf("after window: status = %d", resp.StatusCode)
	}
}

func TestRateLimitFailsOpen(t *testing.T) {
	eng, token, mr := setup(t, contactbook.RoleUser)
	limit := contactbook.RouteLimit{Limit: 1, Window: 5 * time.Second}

	// Resolve once while Redis is up so the guard path works after the
	// outage too (it degrades to persistence).
	app := pingApp(Guard(eng), RateLimit(eng, "ping", limit, nil))
	if resp := doRequest(t, app, token); resp.StatusCode != fiber.StatusOK {
		t.Fatalf("warmup: status = %d", resp.StatusCode)
	}

	mr.Close()
	if resp := doRequest(t, app, token); resp.StatusCode != fiber.StatusOK {
		t.Fatalf("redis down: status = %d, want 200 (fail open)", resp.StatusCode)
	}
}
