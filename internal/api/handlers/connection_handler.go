package handlers

import (
	"context"
	"log/slog"

	"github.com/finnholt/beamcast/internal/service"
	"github.com/finnholt/beamcast/internal/transfer"
	"github.com/gofiber/fiber/v2"
)

type ConnectionHandler struct {
	s service.ConnectionService
}

func NewConnectionHandler(service service.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{s: service}
}

func (h *ConnectionHandler) Connect(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var cc transfer.ConnectionCreation
	if err := c.BodyParser(&cc); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	connectionID, err := h.s.Connect(c.Context(), userID, &cc)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"connection_id": connectionID,
	})
}

func (h *ConnectionHandler) ListConnections(c *fiber.Ctx) error {
	userID := GetUserID(c)

	connections, err := h.s.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list connections",
		})
	}

	return c.Status(fiber.StatusOK).JSON(connections)
}

func (h *ConnectionHandler) Pause(c *fiber.Ctx) error {
	return h.apply(c, h.s.Pause, "Connection paused")
}

func (h *ConnectionHandler) Resume(c *fiber.Ctx) error {
	return h.apply(c, h.s.Resume, "Connection resumed")
}

func (h *ConnectionHandler) Disconnect(c *fiber.Ctx) error {
	return h.apply(c, h.s.Disconnect, "Connection removed")
}

func (h *ConnectionHandler) apply(c *fiber.Ctx, op func(ctx context.Context, userID, connectionID int64) error, message string) error {
	userID := GetUserID(c)
	connectionID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid connection id",
		})
	}

	if err := op(c.Context(), userID, int64(connectionID)); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": message,
	})
}
