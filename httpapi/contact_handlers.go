package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/buildgroup/contactbook/middleware"
)

func (s *Server) handleListContacts(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	list, err := s.contacts.List(c.UserContext(), user.ID, c.QueryInt("skip"), c.QueryInt("limit"))
	if err != nil {
		return err
	}
	return c.JSON(newContactListResponse(list))
}

func (s *Server) handleListAllContacts(c *fiber.Ctx) error {
	list, err := s.contacts.ListAll(c.UserContext(), c.QueryInt("skip"), c.QueryInt("limit"))
	if err != nil {
		return err
	}
	return c.JSON(newContactListResponse(list))
}

func (s *Server) handleGetContact(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	contact, err := s.contacts.Get(c.UserContext(), user.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(newContactResponse(contact))
}

func (s *Server) handleCreateContact(c *fiber.Ctx) error {
	var req contactRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	in, err := req.toInput()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Birthday must be YYYY-MM-DD")
	}
	user := middleware.CurrentUser(c)
	contact, err := s.contacts.Create(c.UserContext(), user.ID, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(newContactResponse(contact))
}

func (s *Server) handleUpdateContact(c *fiber.Ctx) error {
	var req contactRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	in, err := req.toInput()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Birthday must be YYYY-MM-DD")
	}
	user := middleware.CurrentUser(c)
	contact, err := s.contacts.Update(c.UserContext(), user.ID, c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(newContactResponse(contact))
}

func (s *Server) handleDeleteContact(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	contact, err := s.contacts.Delete(c.UserContext(), user.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(newContactResponse(contact))
}

func (s *Server) handleSearchContacts(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	list, err := s.contacts.Search(c.UserContext(), user.ID, c.Query("q"), c.QueryInt("skip"), c.QueryInt("limit"))
	if err != nil {
		return err
	}
	return c.JSON(newContactListResponse(list))
}

func (s *Server) handleBirthdays(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	list, err := s.contacts.UpcomingBirthdays(c.UserContext(), user.ID, c.QueryInt("days", 7))
	if err != nil {
		return err
	}
	return c.JSON(newContactListResponse(list))
}
