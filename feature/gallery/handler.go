package gallery

import (
	"context"
	"errors"

	"gallery/core/logger"
	"gallery/feature/gallery/models"
	"gallery/feature/gallery/store"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ImageGetter loads one image record.
type ImageGetter interface {
	GetImage(ctx context.Context, id string) (*models.ImageRecord, error)
}

// URLResolver resolves storage keys to display URLs.
type URLResolver interface {
	Resolve(ctx context.Context, key string) (string, bool)
}

// Handler handles HTTP requests for single images.
type Handler struct {
	images   ImageGetter
	resolver URLResolver
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler. resolver may be nil.
func NewHandler(images ImageGetter, resolver URLResolver, logger *zap.Logger) *Handler {
	return &Handler{images: images, resolver: resolver, logger: logger}
}

// RegisterRoutes registers the image routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/images/:id", h.HandleGet)
}

// HandleGet returns one image record with its display URL when it resolves.
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	id := c.Params("id")
	img, err := h.images.GetImage(c.UserContext(), id)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		logger.WithRayID(h.logger, c).Error("Failed to load image", zap.String("image_id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}

	resp := fiber.Map{"image": img}
	if h.resolver != nil {
		if url, ok := h.resolver.Resolve(c.UserContext(), img.StoragePath); ok {
			resp["display_url"] = url
		}
	}
	return c.JSON(resp)
}
