package handlers

import (
	"net/http"

	"github.com/anonto42/nano-feed/backend/internal/middleware"
	"github.com/anonto42/nano-feed/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// UserHandler handles user profile HTTP requests
type UserHandler struct {
	identity *services.IdentityService
	posts    *services.PostService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(identity *services.IdentityService, posts *services.PostService) *UserHandler {
	return &UserHandler{identity: identity, posts: posts}
}

// RegisterUserRoutes registers user profile, search and suggestion routes
func (h *UserHandler) RegisterUserRoutes(g *echo.Group) {
	g.GET("/users/search/:query", h.SearchUsers)
	g.GET("/users/suggestions/for-you", h.GetSuggestions)
	g.GET("/users/:id", h.GetProfile)
}

// GetProfile returns the user with follow counts and the posts the caller
// may read.
func (h *UserHandler) GetProfile(c echo.Context) error {
	userID, err := paramID(c, "id", "User")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	viewerID := middleware.UserID(c)

	profile, err := h.identity.Profile(ctx, viewerID, userID)
	if err != nil {
		return err
	}
	posts, err := h.posts.ProfilePosts(ctx, viewerID, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"user":    profile,
		"posts":   posts,
	})
}

func (h *UserHandler) SearchUsers(c echo.Context) error {
	users, err := h.identity.Search(c.Request().Context(), c.Param("query"), middleware.UserID(c), queryInt(c, "limit"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "users": users})
}

func (h *UserHandler) GetSuggestions(c echo.Context) error {
	users, err := h.identity.Suggestions(c.Request().Context(), middleware.UserID(c), queryInt(c, "limit"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "suggestions": users})
}
