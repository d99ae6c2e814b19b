package account

import (
	"gallery/core/logger"
	"gallery/core/session"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the session.
type Handler struct {
	sessions *session.Manager
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(sessions *session.Manager, logger *zap.Logger) *Handler {
	return &Handler{sessions: sessions, logger: logger}
}

// RegisterRoutes registers the session routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/session")
	group.Get("/", h.HandleCurrent)
	group.Post("/", h.HandleSignIn)
	group.Delete("/", h.HandleSignOut)
}

// HandleCurrent returns the signed-in user.
func (h *Handler) HandleCurrent(c *fiber.Ctx) error {
	user, ok := h.sessions.CurrentUserID()
	return c.JSON(fiber.Map{"user_id": user, "signed_in": ok})
}

type signInRequest struct {
	UserID string `json:"user_id"`
}

// HandleSignIn signs a user in, replacing any previous session.
func (h *Handler) HandleSignIn(c *fiber.Ctx) error {
	var req signInRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id is required"})
	}

	h.sessions.SignIn(req.UserID)
	logger.WithRayID(h.logger, c).Info("Signed in", zap.String("user_id", req.UserID))
	return c.JSON(fiber.Map{"user_id": req.UserID, "signed_in": true})
}

// HandleSignOut clears the session.
func (h *Handler) HandleSignOut(c *fiber.Ctx) error {
	h.sessions.SignOut()
	logger.WithRayID(h.logger, c).Info("Signed out")
	return c.SendStatus(fiber.StatusNoContent)
}
