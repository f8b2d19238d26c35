package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/buildgroup/contactbook"
)

// userKey is the Locals slot holding the resolved *contactbook.User.
const userKey = "auth.user"

// Guard authenticates the bearer access token and stores the resolved user
// in the request locals. Requests without a valid token stop here with 401.
func Guard(engine *contactbook.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Not authenticated")
		}
		user, err := engine.ResolveUser(c.UserContext(), token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Could not validate credentials")
		}
		c.Locals(userKey, user)
		return c.Next()
	}
}

// RequireRoles gates a route to the given roles. It must run after Guard.
func RequireRoles(roles ...contactbook.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := contactbook.Authorize(CurrentUser(c), roles...); err != nil {
			return fiber.NewError(fiber.StatusForbidden, "Operation forbidden")
		}
		return c.Next()
	}
}

// CurrentUser returns the user stored by Guard, or nil outside a guarded
// route.
func CurrentUser(c *fiber.Ctx) *contactbook.User {
	user, _ := c.Locals(userKey).(*contactbook.User)
	return user
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return ""
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
