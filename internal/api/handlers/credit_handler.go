package handlers

import (
	"github.com/finnholt/beamcast/internal/service"
	"github.com/gofiber/fiber/v2"
)

type CreditHandler struct {
	s service.CreditService
}

func NewCreditHandler(service service.CreditService) *CreditHandler {
	return &CreditHandler{s: service}
}

// Balance returns the current balance; with ?action= it also answers whether
// the balance covers that action.
func (h *CreditHandler) Balance(c *fiber.Ctx) error {
	userID := GetUserID(c)

	if action := c.Query("action"); action != "" {
		check, err := h.s.Check(c.Context(), userID, action)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusOK).JSON(check)
	}

	balance, err := h.s.Balance(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to get balance",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"balance": balance,
	})
}

func (h *CreditHandler) History(c *fiber.Ctx) error {
	userID := GetUserID(c)
	limit := c.QueryInt("limit", 0)

	entries, err := h.s.History(c.Context(), userID, limit)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list transactions",
		})
	}

	return c.Status(fiber.StatusOK).JSON(entries)
}
