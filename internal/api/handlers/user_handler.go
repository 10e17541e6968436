package handlers

import (
	"github.com/finnholt/beamcast/internal/service"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	s service.UserService
}

func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{s: service}
}

func (h *UserHandler) Info(c *fiber.Ctx) error {
	userID := GetUserID(c)

	user, err := h.s.GetUserInfo(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to get user info",
		})
	}

	return c.Status(fiber.StatusOK).JSON(user)
}
