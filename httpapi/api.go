// Package httpapi assembles the Fiber application: route registration,
// request/response DTOs and the mapping from engine errors onto HTTP
// statuses.
package httpapi

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/buildgroup/contactbook"
	"github.com/buildgroup/contactbook/contacts"
	"github.com/buildgroup/contactbook/middleware"
)

// Server bundles the collaborators behind the HTTP surface.
type Server struct {
	engine   *contactbook.Engine
	contacts *contacts.Service
	logger   *slog.Logger
}

// New builds the Fiber app with every route registered under /api.
func New(engine *contactbook.Engine, contactsSvc *contacts.Service, logger *slog.Logger) *fiber.App {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{engine: engine, contacts: contactsSvc, logger: logger}

	app := fiber.New(fiber.Config{
		ErrorHandler: s.errorHandler,
	})
	app.Use(recover.New())

	cfg := engine.Config()
	guard := middleware.Guard(engine)

	api := app.Group("/api")
	api.Get("/healthchecker", s.handleHealth)
	api.Get("/metrics", s.handleMetrics)

	auth := api.Group("/auth")
	auth.Post("/signup", s.handleSignup)
	auth.Post("/login",
		middleware.RateLimit(engine, "login", cfg.RateLimit.Login, logger),
		s.handleLogin)
	auth.Get("/refresh_token", s.handleRefresh)
	auth.Get("/confirmed_email/:token", s.handleConfirmEmail)
	auth.Post("/request_email",
		middleware.RateLimit(engine, "request_email", cfg.RateLimit.RequestEmail, logger),
		s.handleRequestEmail)
	auth.Post("/logout", guard, s.handleLogout)

	users := api.Group("/users", guard)
	users.Get("/me",
		middleware.RateLimit(engine, "user_read", cfg.RateLimit.UserRead, logger),
		s.handleMe)

	readLimit := middleware.RateLimit(engine, "contact_read", cfg.RateLimit.ContactRead, logger)
	cts := api.Group("/contacts", guard)
	cts.Get("/", readLimit, s.handleListContacts)
	cts.Get("/all",
		middleware.RequireRoles(contactbook.RoleAdmin, contactbook.RoleModerator),
		readLimit, s.handleListAllContacts)
	cts.Get("/search", readLimit, s.handleSearchContacts)
	cts.Get("/birthdays", readLimit, s.handleBirthdays)
	cts.Post("/",
		middleware.RateLimit(engine, "contact_create", cfg.RateLimit.ContactCreate, logger),
		s.handleCreateContact)
	cts.Get("/:id", readLimit, s.handleGetContact)
	cts.Put("/:id", s.handleUpdateContact)
	cts.Delete("/:id", s.handleDeleteContact)

	return app
}

// errorHandler maps the engine's error taxonomy onto HTTP statuses. The
// login rejections keep their distinct messages; token failures collapse
// into one generic 401.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(errorResponse{Detail: fe.Message})
	}

	status := fiber.StatusInternalServerError
	detail := "Internal server error"
	switch {
	case errors.Is(err, contactbook.ErrInvalidUser):
		status, detail = fiber.StatusUnauthorized, "Invalid user"
	case errors.Is(err, contactbook.ErrEmailNotConfirmed):
		status, detail = fiber.StatusUnauthorized, "Email not confirmed"
	case errors.Is(err, contactbook.ErrInvalidPassword):
		status, detail = fiber.StatusUnauthorized, "Invalid pass"
	case errors.Is(err, contactbook.ErrUnauthorized):
		status, detail = fiber.StatusUnauthorized, "Could not validate credentials"
	case errors.Is(err, contactbook.ErrForbidden):
		status, detail = fiber.StatusForbidden, "Operation forbidden"
	case errors.Is(err, contactbook.ErrAccountExists):
		status, detail = fiber.StatusConflict, "Account already exists"
	case errors.Is(err, contactbook.ErrNotFound):
		status, detail = fiber.StatusNotFound, "Not found"
	case errors.Is(err, contacts.ErrInvalid):
		status, detail = fiber.StatusBadRequest, err.Error()
	default:
		s.logger.Error("request failed", "path", c.Path(), "err", err)
	}
	return c.Status(status).JSON(errorResponse{Detail: detail})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Welcome to the contact book API"})
}

func (s *Server) handleMetrics(c *fiber.Ctx) error {
	snap := s.engine.MetricsSnapshot()
	out := make(map[string]uint64, len(snap.Counters))
	for id, v := range snap.Counters {
		out[id.Name()] = v
	}
	return c.JSON(out)
}
