package feed

import (
	"errors"

	"gallery/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the feed.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers the feed routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/feed")
	group.Get("/", h.HandleSnapshot)
	group.Post("/next", h.HandleNext)
	group.Post("/retry", h.HandleRetry)
	group.Post("/items/:id/retry", h.HandleRetryItem)
}

// HandleSnapshot returns the visible feed.
func (h *Handler) HandleSnapshot(c *fiber.Ctx) error {
	return c.JSON(h.service.Current().Snapshot())
}

// HandleNext loads the next page.
func (h *Handler) HandleNext(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)
	f := h.service.Current()

	added, err := f.LoadNext(c.UserContext())
	if err != nil {
		l.Warn("Loading next page failed", zap.Error(err))
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"added": added,
		"done":  f.Done(),
	})
}

// HandleRetry resumes a halted feed.
func (h *Handler) HandleRetry(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)
	f := h.service.Current()

	added, err := f.Retry(c.UserContext())
	if err != nil {
		l.Warn("Feed retry failed", zap.Error(err))
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"added": added,
		"done":  f.Done(),
	})
}

// HandleRetryItem re-resolves the URL of a single item.
func (h *Handler) HandleRetryItem(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)
	id := c.Params("id")

	item, err := h.service.Current().RetryItem(c.UserContext(), id)
	if err != nil {
		l.Warn("Item retry failed", zap.String("image_id", id), zap.Error(err))
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(item)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnknownItem):
		return fiber.StatusNotFound
	case errors.Is(err, ErrHalted), errors.Is(err, ErrClosed):
		return fiber.StatusConflict
	case errors.Is(err, ErrPageFailed):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
