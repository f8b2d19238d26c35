package httpapi

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/buildgroup/contactbook"
	"github.com/buildgroup/contactbook/middleware"
)

func (s *Server) handleSignup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	user, err := s.engine.Signup(c.UserContext(), contactbook.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(signupResponse{
		User:   newUserResponse(user),
		Detail: "User successfully created. Check your email for confirmation.",
	})
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	pair, err := s.engine.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(newTokenResponse(pair))
}

// handleRefresh reads the refresh token from the Authorization header, the
// same bearer slot the access token normally occupies.
func (s *Server) handleRefresh(c *fiber.Ctx) error {
	token := bearerFromHeader(c)
	if token == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Not authenticated")
	}
	pair, err := s.engine.Refresh(c.UserContext(), token)
	if err != nil {
		return err
	}
	return c.JSON(newTokenResponse(pair))
}

func (s *Server) handleConfirmEmail(c *fiber.Ctx) error {
	if err := s.engine.ConfirmEmail(c.UserContext(), c.Params("token")); err != nil {
		return err
	}
	return c.JSON(messageResponse{Message: "Email confirmed"})
}

func (s *Server) handleRequestEmail(c *fiber.Ctx) error {
	var req emailRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := s.engine.RequestConfirmation(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.JSON(messageResponse{Message: "Check your email for confirmation."})
}

func (s *Server) handleLogout(c *fiber.Ctx) error {
	if err := s.engine.Logout(c.UserContext(), bearerFromHeader(c)); err != nil {
		return err
	}
	return c.JSON(messageResponse{Message: "Logged out"})
}

func (s *Server) handleMe(c *fiber.Ctx) error {
	return c.JSON(newUserResponse(middleware.CurrentUser(c)))
}

func bearerFromHeader(c *fiber.Ctx) string {
	scheme, token, found := strings.Cut(c.Get(fiber.HeaderAuthorization), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
