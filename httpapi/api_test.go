package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildgroup/contactbook"
	"github.com/buildgroup/contactbook/contacts"
	"github.com/buildgroup/contactbook/memstore"
)

type captureMailer struct {
	mu     sync.Mutex
	tokens map[string]string // email -> latest confirm token
}

func (m *captureMailer) SendConfirmation(_ context.Context, email, _, confirmToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[email] = confirmToken
	return nil
}

func (m *captureMailer) tokenFor(t *testing.T, email string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, ok := m.tokens[email]
	require.True(t, ok, "no confirmation mail for %s", email)
	return tok
}

type testApp struct {
	app    *fiber.App
	mailer *captureMailer
	users  *memstore.UserStore
}

func newTestApp(t *testing.T, mutate func(*contactbook.Config)) *testApp {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := contactbook.DefaultConfig()
	cfg.Token.Secret = "test-secret"
	cfg.Password = contactbook.PasswordConfig{Memory: 8192, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 16}
	// Generous budgets so ordinary flows never trip the limiter; the
	// dedicated rate-limit test lowers them again.
	cfg.RateLimit.Login = contactbook.RouteLimit{Limit: 100, Window: cfg.RateLimit.Login.Window}
	cfg.RateLimit.RequestEmail = contactbook.RouteLimit{Limit: 100, Window: cfg.RateLimit.RequestEmail.Window}
	cfg.RateLimit.ContactCreate = contactbook.RouteLimit{Limit: 100, Window: cfg.RateLimit.ContactCreate.Window}
	cfg.RateLimit.ContactRead = contactbook.RouteLimit{Limit: 100, Window: cfg.RateLimit.ContactRead.Window}
	cfg.RateLimit.UserRead = contactbook.RouteLimit{Limit: 100, Window: cfg.RateLimit.UserRead.Window}
	if mutate != nil {
		mutate(&cfg)
	}

	users := memstore.NewUserStore()
	mailer := &captureMailer{tokens: map[string]string{}}
	eng, err := contactbook.New().
		WithConfig(cfg).
		WithRedis(client).
		WithUserStore(users).
		WithMailer(mailer).
		Build()
	require.NoError(t, err)

	svc := contacts.NewService(memstore.NewContactStore(), nil)
	return &testApp{
		app:    New(eng, svc, nil),
		mailer: mailer,
		users:  users,
	}
}

func (ta *testApp) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (ta *testApp) register(t *testing.T, email, password string) {
	t.Helper()
	resp := ta.do(t, http.MethodPost, "/api/auth/signup", "", signupRequest{
		Username: email, Email: email, Password: password,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = ta.do(t, http.MethodGet, "/api/auth/confirmed_email/"+ta.mailer.tokenFor(t, email), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func (ta *testApp) login(t *testing.T, email, password string) tokenResponse {
	t.Helper()
	resp := ta.do(t, http.MethodPost, "/api/auth/login", "", loginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[tokenResponse](t, resp)
}

func TestSignupFlow(t *testing.T) {
	ta := newTestApp(t, nil)

	resp := ta.do(t, http.MethodPost, "/api/auth/signup", "", signupRequest{
		Username: "john", Email: "eva@i.ua", Password: "123456789",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decode[signupResponse](t, resp)
	assert.Equal(t, "eva@i.ua", body.User.Email)
	assert.False(t, body.User.Confirmed)

	// Same identity again conflicts.
	resp = ta.do(t, http.MethodPost, "/api/auth/signup", "", signupRequest{
		Username: "john", Email: "eva@i.ua", Password: "123456789",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Account already exists", decode[errorResponse](t, resp).Detail)
}

func TestLoginErrorMessages(t *testing.T) {
	ta := newTestApp(t, nil)
	resp := ta.do(t, http.MethodPost, "/api/auth/signup", "", signupRequest{
		Username: "john", Email: "eva@i.ua", Password: "123456789",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	tests := []struct {
		name   string
		req    loginRequest
		detail string
	}{
		{"unknown user", loginRequest{Email: "ghost@i.ua", Password: "x"}, "Invalid user"},
		{"unconfirmed", loginRequest{Email: "eva@i.ua", Password: "123456789"}, "Email not confirmed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ta.do(t, http.MethodPost, "/api/auth/login", "", tt.req)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, tt.detail, decode[errorResponse](t, resp).Detail)
		})
	}

	// Confirm, then a wrong password gets its own message.
	resp = ta.do(t, http.MethodGet, "/api/auth/confirmed_email/"+ta.mailer.tokenFor(t, "eva@i.ua"), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = ta.do(t, http.MethodPost, "/api/auth/login", "", loginRequest{Email: "eva@i.ua", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid pass", decode[errorResponse](t, resp).Detail)
}

func TestMeAndLogout(t *testing.T) {
	ta := newTestApp(t, nil)
	ta.register(t, "eva@i.ua", "123456789")
	pair := ta.login(t, "eva@i.ua", "123456789")

	resp := ta.do(t, http.MethodGet, "/api/users/me", pair.AccessToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	me := decode[userResponse](t, resp)
	assert.Equal(t, "eva@i.ua", me.Email)
	assert.Equal(t, "user", me.Role)

	resp = ta.do(t, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = ta.do(t, http.MethodPost, "/api/auth/logout", pair.AccessToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	// The refresh token died with the logout.
	resp = ta.do(t, http.MethodGet, "/api/auth/refresh_token", pair.RefreshToken, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRefreshEndpoint(t *testing.T) {
	ta := newTestApp(t, nil)
	ta.register(t, "eva@i.ua", "123456789")
	pair := ta.login(t, "eva@i.ua", "123456789")

	resp := ta.do(t, http.MethodGet, "/api/auth/refresh_token", pair.RefreshToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	next := decode[tokenResponse](t, resp)
	assert.Equal(t, "bearer", next.TokenType)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// Replaying the old refresh token is reuse.
	resp = ta.do(t, http.MethodGet, "/api/auth/refresh_token", pair.RefreshToken, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestContactLifecycle(t *testing.T) {
	ta := newTestApp(t, nil)
	ta.register(t, "eva@i.ua", "123456789")
	pair := ta.login(t, "eva@i.ua", "123456789")
	token := pair.AccessToken

	resp := ta.do(t, http.MethodPost, "/api/contacts/", token, contactRequest{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Birthday: "1815-12-10",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[contactResponse](t, resp)
	assert.Equal(t, "1815-12-10", created.Birthday)

	resp = ta.do(t, http.MethodGet, "/api/contacts/"+created.ID, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ta.do(t, http.MethodPut, "/api/contacts/"+created.ID, token, contactRequest{
		FirstName: "Ada", LastName: "King",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "King", decode[contactResponse](t, resp).LastName)

	resp = ta.do(t, http.MethodGet, "/api/contacts/search?q=ada", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]contactResponse](t, resp), 1)

	resp = ta.do(t, http.MethodDelete, "/api/contacts/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, created.ID, decode[contactResponse](t, resp).ID)

	resp = ta.do(t, http.MethodGet, "/api/contacts/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not found", decode[errorResponse](t, resp).Detail)
}

func TestContactOwnerIsolation(t *testing.T) {
	ta := newTestApp(t, nil)
	ta.register(t, "eva@i.ua", "123456789")
	ta.register(t, "bob@i.ua", "987654321")
	eva := ta.login(t, "eva@i.ua", "123456789").AccessToken
	bob := ta.login(t, "bob@i.ua", "987654321").AccessToken

	resp := ta.do(t, http.MethodPost, "/api/contacts/", eva, contactRequest{FirstName: "Ada"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[contactResponse](t, resp)

	resp = ta.do(t, http.MethodGet, "/api/contacts/"+created.ID, bob, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = ta.do(t, http.MethodGet, "/api/contacts/", bob, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]contactResponse](t, resp))
}

func TestListAllRequiresElevatedRole(t *testing.T) {
	ta := newTestApp(t, nil)
	ta.register(t, "eva@i.ua", "123456789")
	ta.register(t, "admin@i.ua", "adminpass")
	require.NoError(t, ta.users.SetRole("admin@i.ua", contactbook.RoleAdmin))

	user := ta.login(t, "eva@i.ua", "123456789").AccessToken
	admin := ta.login(t, "admin@i.ua", "adminpass").AccessToken

	resp := ta.do(t, http.MethodPost, "/api/contacts/", user, contactRequest{FirstName: "Ada"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = ta.do(t, http.MethodGet, "/api/contacts/all", user, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Operation forbidden", decode[errorResponse](t, resp).Detail)

	resp = ta.do(t, http.MethodGet, "/api/contacts/all", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]contactResponse](t, resp), 1)
}

func TestLoginRateLimit(t *testing.T) {
	ta := newTestApp(t, func(cfg *contactbook.Config) {
		cfg.RateLimit.Login = contactbook.RouteLimit{Limit: 2, Window: contactbook.DefaultConfig().RateLimit.Login.Window}
	})

	var last int
	for i := 0; i < 3; i++ {
		resp := ta.do(t, http.MethodPost, "/api/auth/login", "", loginRequest{Email: "ghost@i.ua", Password: "x"})
		last = resp.StatusCode
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestRequestEmailNeverDiscloses(t *testing.T) {
	ta := newTestApp(t, nil)

	for _, email := range []string{"ghost@i.ua", "eva@i.ua"} {
		resp := ta.do(t, http.MethodPost, "/api/auth/request_email", "", emailRequest{Email: email})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Check your email for confirmation.", decode[messageResponse](t, resp).Message)
	}
}

func TestBadRequestBodies(t *testing.T) {
	ta := newTestApp(t, nil)
	ta.register(t, "eva@i.ua", "123456789")
	token := ta.login(t, "eva@i.ua", "123456789").AccessToken

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", bytes.NewBufferString("{not json"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ta.do(t, http.MethodPost, "/api/contacts/", token, contactRequest{FirstName: "Ada", Birthday: "12/10/1815"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ta.do(t, http.MethodPost, "/api/contacts/", token, contactRequest{LastName: "NoFirst"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	ta := newTestApp(t, nil)

	resp := ta.do(t, http.MethodGet, "/api/healthchecker", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ta.register(t, "eva@i.ua", "123456789")
	ta.login(t, "eva@i.ua", "123456789")

	resp = ta.do(t, http.MethodGet, "/api/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	counters := decode[map[string]uint64](t, resp)
	assert.Equal(t, uint64(1), counters["signup_success"])
	assert.Equal(t, uint64(1), counters["login_success"])
}
