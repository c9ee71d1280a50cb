package handlers

import (
	"net/http"
	"time"

	"github.com/anonto42/nano-feed/backend/internal/middleware"
	"github.com/anonto42/nano-feed/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FeedHandler serves the home feed and the trending list.
type FeedHandler struct {
	feed *services.FeedService
	now  func() time.Time
}

func NewFeedHandler(feed *services.FeedService) *FeedHandler {
	return &FeedHandler{feed: feed, now: time.Now}
}

// RegisterFeedRoutes registers feed routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/posts", h.GetFeed)
	g.GET("/posts/trending", h.GetTrending)
}

// GetFeed returns ?page (default 1) of the caller's feed, ?limit posts per page.
func (h *FeedHandler) GetFeed(c echo.Context) error {
	posts, err := h.feed.Feed(c.Request().Context(), middleware.UserID(c), queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "posts": posts})
}

func (h *FeedHandler) GetTrending(c echo.Context) error {
	posts, err := h.feed.Trending(c.Request().Context(), middleware.UserID(c), h.now())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "posts": posts})
}
