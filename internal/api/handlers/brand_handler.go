package handlers

import (
	"log/slog"

	"github.com/finnholt/beamcast/internal/service"
	"github.com/finnholt/beamcast/internal/transfer"
	"github.com/gofiber/fiber/v2"
)

type BrandHandler struct {
	s service.BrandService
}

func NewBrandHandler(service service.BrandService) *BrandHandler {
	return &BrandHandler{s: service}
}

func (h *BrandHandler) CreateBrand(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var bc transfer.BrandCreation
	if err := c.BodyParser(&bc); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	brandID, err := h.s.Create(c.Context(), userID, &bc)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"brand_id": brandID,
	})
}

func (h *BrandHandler) ListBrands(c *fiber.Ctx) error {
	userID := GetUserID(c)

	brands, err := h.s.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list brand profiles",
		})
	}

	return c.Status(fiber.StatusOK).JSON(brands)
}

func (h *BrandHandler) UpdateBrand(c *fiber.Ctx) error {
	userID := GetUserID(c)
	brandID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid brand id",
		})
	}

	var bc transfer.BrandCreation
	if err := c.BodyParser(&bc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	if err := h.s.Update(c.Context(), userID, int64(brandID), &bc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Brand profile updated",
	})
}

func (h *BrandHandler) RemoveBrand(c *fiber.Ctx) error {
	userID := GetUserID(c)
	brandID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid brand id",
		})
	}

	if err := h.s.Remove(c.Context(), userID, int64(brandID)); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Brand profile removed",
	})
}
