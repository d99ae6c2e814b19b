package likes

import (
	"context"
	"errors"

	"gallery/core/logger"
	"gallery/feature/gallery/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// LikedLister lists the images a user likes.
type LikedLister interface {
	LikedImages(ctx context.Context, userID string) ([]models.ImageRecord, error)
}

// Handler handles HTTP requests for likes.
type Handler struct {
	store  *Store
	lister LikedLister
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(store *Store, lister LikedLister, logger *zap.Logger) *Handler {
	return &Handler{store: store, lister: lister, logger: logger}
}

// RegisterRoutes registers the likes routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/likes")
	group.Get("/", h.HandleList)
	group.Get("/count", h.HandleCount)
	group.Post("/reconcile", h.HandleReconcile)
	group.Get("/:id", h.HandleIsLiked)
	group.Post("/:id/toggle", h.HandleToggle)
}

// HandleIsLiked returns the displayed like state of one image.
func (h *Handler) HandleIsLiked(c *fiber.Ctx) error {
	id := c.Params("id")
	return c.JSON(fiber.Map{"image_id": id, "liked": h.store.IsLiked(id)})
}

// HandleToggle flips the like of one image.
func (h *Handler) HandleToggle(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)
	id := c.Params("id")

	if err := h.store.Toggle(c.UserContext(), id); err != nil {
		l.Warn("Toggle failed", zap.String("image_id", id), zap.Error(err))
		status := fiber.StatusBadGateway
		if errors.Is(err, ErrNoSession) {
			status = fiber.StatusUnauthorized
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
			"liked": h.store.IsLiked(id),
		})
	}

	return c.JSON(fiber.Map{
		"image_id": id,
		"liked":    h.store.IsLiked(id),
		"count":    h.store.LikedCount(),
	})
}

// HandleCount returns the liked counter.
func (h *Handler) HandleCount(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"count": h.store.LikedCount()})
}

type reconcileRequest struct {
	IDs []string `json:"ids"`
}

// HandleReconcile refreshes the like state of the given ids from the server.
// Partial failures are reported but do not fail the request.
func (h *Handler) HandleReconcile(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	var req reconcileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	err := h.store.Reconcile(c.UserContext(), req.IDs)
	switch {
	case errors.Is(err, ErrNoSession):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrPartialReconcile):
		l.Warn("Reconcile partially failed", zap.Error(err))
		return c.JSON(fiber.Map{"status": "partial", "error": err.Error(), "count": h.store.LikedCount()})
	case err != nil:
		l.Error("Reconcile failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"status": "ok", "count": h.store.LikedCount()})
}

// HandleList returns the images liked by the signed-in user.
func (h *Handler) HandleList(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	user := h.store.UserID()
	if user == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": ErrNoSession.Error()})
	}

	images, err := h.lister.LikedImages(c.UserContext(), user)
	if err != nil {
		l.Error("Listing liked images failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"images": images})
}
