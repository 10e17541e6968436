package handlers

import (
	"errors"
	"log/slog"

	"github.com/finnholt/beamcast/internal/queue"
	"github.com/finnholt/beamcast/internal/service"
	"github.com/finnholt/beamcast/internal/transfer"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
)

type PostHandler struct {
	s           service.PostService
	publisher   service.PublishService
	AsynqClient *asynq.Client
}

func NewPostHandler(service service.PostService, publisher service.PublishService, asynqClient *asynq.Client) *PostHandler {
	return &PostHandler{s: service, publisher: publisher, AsynqClient: asynqClient}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var pc transfer.PostCreation
	if err := c.BodyParser(&pc); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	postID, delay, previews, err := h.s.CreatePost(c.Context(), userID, &pc)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if !pc.Draft {
		err = queue.EnqueuePost(h.AsynqClient, queue.PublishPostPayload{PostID: postID}, delay)
		if err != nil {
			slog.Error(err.Error())
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Error scheduling post",
			})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"post_id":  postID,
		"previews": previews,
	})
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.QueryInt("id", 0)

	if postID != 0 {
		post, err := h.s.PostInfo(c.Context(), int64(postID), userID)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusOK).JSON(post)
	}

	posts, err := h.s.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list posts",
		})
	}
	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post id",
		})
	}

	if err := h.s.Remove(c.Context(), userID, int64(postID)); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Post removed",
	})
}

// PublishNow runs the publish pipeline synchronously, skipping the schedule.
func (h *PostHandler) PublishNow(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post id",
		})
	}

	if _, err := h.s.PostInfo(c.Context(), int64(postID), userID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	summary, err := h.publisher.Publish(c.Context(), int64(postID))
	if err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, service.ErrInsufficientCredits) {
			status = fiber.StatusPaymentRequired
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(summary)
}
