package integrity

import (
	"gallery/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/", h.HandleImageCheck)
}

// HandleImageCheck compares stored objects with image records.
func (h *Handler) HandleImageCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Starting image integrity check")

	report, err := h.service.CheckImages(c.UserContext())
	if err != nil {
		l.Error("Image integrity check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if !report.Healthy() {
		l.Warn("Image integrity issues detected",
			zap.Strings("missing_objects", report.MissingObjects),
			zap.Int("orphans", len(report.Orphans)))
	}

	return c.JSON(fiber.Map{
		"status": statusOf(report),
		"report": report,
	})
}

func statusOf(r *Report) string {
	if r.Healthy() {
		return "ok"
	}
	return "issues"
}
