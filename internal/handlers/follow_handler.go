package handlers

import (
	"net/http"

	"github.com/anonto42/nano-feed/backend/internal/middleware"
	"github.com/anonto42/nano-feed/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow-related HTTP requests
type FollowHandler struct {
	engagement *services.EngagementService
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(engagement *services.EngagementService) *FollowHandler {
	return &FollowHandler{engagement: engagement}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.ToggleFollow)
}

// ToggleFollow follows the user, or unfollows when the caller already does.
func (h *FollowHandler) ToggleFollow(c echo.Context) error {
	targetID, err := paramID(c, "id", "User")
	if err != nil {
		return err
	}
	following, err := h.engagement.ToggleFollow(c.Request().Context(), middleware.UserID(c), targetID)
	if err != nil {
		return err
	}

	message := "User unfollowed"
	if following {
		message = "User followed"
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"message":     message,
		"isFollowing": following,
	})
}
