package handlers

import (
	"github.com/finnholt/beamcast/internal/service"
	"github.com/gofiber/fiber/v2"
)

type BillingHandler struct {
	s service.BillingService
}

func NewBillingHandler(service service.BillingService) *BillingHandler {
	return &BillingHandler{s: service}
}

// Webhook receives Stripe events. Returning non-2xx makes Stripe redeliver,
// so only genuine processing failures surface as errors.
func (h *BillingHandler) Webhook(c *fiber.Ctx) error {
	signature := c.Get("Stripe-Signature")

	if err := h.s.HandleEvent(c.Context(), c.Body(), signature); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
