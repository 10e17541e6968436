package handlers

import (
	"fmt"
	"time"

	config "github.com/finnholt/beamcast/configs"
	"github.com/finnholt/beamcast/internal/service"
	"github.com/finnholt/beamcast/internal/transfer"
	"github.com/finnholt/beamcast/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

const sessionDuration = 24 * time.Hour

type AuthHandler struct {
	s   service.AuthService
	cfg config.Config
}

func NewAuthHandler(cfg config.Config, service service.AuthService) *AuthHandler {
	return &AuthHandler{s: service, cfg: cfg}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req transfer.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	userID, err := h.s.Register(c.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return h.issueSession(c, userID, fiber.StatusCreated)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req transfer.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	userID, err := h.s.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return h.issueSession(c, userID, fiber.StatusOK)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:   h.cfg.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Logged out",
	})
}

func (h *AuthHandler) issueSession(c *fiber.Ctx, userID int64, status int) error {
	token, err := utils.GenerateToken(h.cfg.SecretKey, fmt.Sprintf("%d", userID), sessionDuration)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteNoneMode,
		Path:     "/",
		Expires:  time.Now().Add(sessionDuration),
	})

	return c.Status(status).JSON(fiber.Map{
		"user_id": userID,
		"token":   token,
	})
}
