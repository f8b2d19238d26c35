package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/buildgroup/contactbook"
	"github.com/buildgroup/contactbook/internal/rate"
)

// RateLimit enforces a fixed-window budget for one route. The identity is
// the authenticated user's ID when Guard already ran, the client IP
// otherwise. A Redis outage fails open: the request proceeds with a
// warning rather than turning a cache failure into a denial of service.
func RateLimit(engine *contactbook.Engine, route string, limit contactbook.RouteLimit, logger *slog.Logger) fiber.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *fiber.Ctx) error {
		identity := c.IP()
		if user := CurrentUser(c); user != nil {
			identity = user.ID
		}
		err := engine.Limiter().Allow(c.UserContext(), identity, route, limit.Limit, limit.Window)
		switch {
		case err == nil:
			return c.Next()
		case errors.Is(err, rate.ErrRateLimited):
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests, try again later")
		default:
			logger.Warn("rate limiter unavailable, failing open", "route", route, "err", err)
			return c.Next()
		}
	}
}
