package httpapi

import (
	"github.com/foxseedlab/debaide/internal/user"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) Register(c *fiber.Ctx) error {
	username, err := requiredParam(c, "username")
	if err != nil {
		return err
	}
	email, err := requiredParam(c, "email")
	if err != nil {
		return err
	}
	password, err := requiredParam(c, "password")
	if err != nil {
		return err
	}
	resp, err := h.users.Register(c.UserContext(), username, email, password)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (h *Handler) Login(c *fiber.Ctx) error {
	username, err := requiredParam(c, "username")
	if err != nil {
		return err
	}
	password, err := requiredParam(c, "password")
	if err != nil {
		return err
	}
	resp, err := h.users.Login(c.UserContext(), username, password)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (h *Handler) Me(c *fiber.Ctx) error {
	return c.JSON(user.Me(currentUser(c)))
}

func (h *Handler) Stats(c *fiber.Ctx) error {
	resp, err := h.users.Stats(c.UserContext(), currentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
