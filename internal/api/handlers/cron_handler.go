package handlers

import (
	"crypto/subtle"

	config "github.com/finnholt/beamcast/configs"
	job "github.com/finnholt/beamcast/internal/jobs"
	"github.com/gofiber/fiber/v2"
)

// CronHandler lets an external scheduler drive the sweep when the process
// cannot rely on its own cron (serverless deployments).
type CronHandler struct {
	cfg     config.Config
	sweeper *job.ScheduledPostsJob
}

func NewCronHandler(cfg config.Config, sweeper *job.ScheduledPostsJob) *CronHandler {
	return &CronHandler{cfg: cfg, sweeper: sweeper}
}

func (h *CronHandler) PublishDue(c *fiber.Ctx) error {
	secret := c.Get("X-Cron-Secret")
	if h.cfg.CronSecret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(h.cfg.CronSecret)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid cron secret",
		})
	}

	limit := c.QueryInt("limit", 0)
	processed, err := h.sweeper.SweepOnce(c.Context(), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"processed": processed,
	})
}
