package router

import (
	"github.com/anonto42/nano-feed/backend/internal/auth"
	"github.com/anonto42/nano-feed/backend/internal/handlers"
	"github.com/anonto42/nano-feed/backend/internal/media"
	"github.com/anonto42/nano-feed/backend/internal/middleware"
	"github.com/anonto42/nano-feed/backend/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Dependencies are the collaborators the routes are built from.
type Dependencies struct {
	Identity      *services.IdentityService
	Posts         *services.PostService
	Feed          *services.FeedService
	Engagement    *services.EngagementService
	Notifications *services.NotificationService

	Tokens *auth.JWTManager
	// Verifier checks session credentials. It is Tokens alone, or Tokens
	// followed by Firebase.
	Verifier auth.Verifier
	Firebase *auth.FirebaseVerifier

	Media media.Store
	// UploadDir is served under /uploads when set.
	UploadDir    string
	SecureCookie bool
}

// SetupRoutes configures all application routes
func SetupRoutes(e *echo.Echo, d *Dependencies) {
	e.GET("/health", handlers.HealthCheck)
	if d.UploadDir != "" {
		e.Static("/uploads", d.UploadDir)
	}

	api := e.Group("/api")
	api.GET("/health", handlers.HealthCheck)

	requireAuth := middleware.Authenticate(d.Verifier, d.Identity)

	authHandler := handlers.NewAuthHandler(d.Identity, d.Tokens, d.Firebase, d.SecureCookie)
	authHandler.RegisterAuthRoutes(api.Group("/auth"), requireAuth)

	protected := api.Group("", requireAuth)

	handlers.NewFeedHandler(d.Feed).RegisterFeedRoutes(protected)
	handlers.NewPostHandler(d.Posts).RegisterPostRoutes(protected)
	handlers.NewLikeHandler(d.Engagement).RegisterLikeRoutes(protected)
	handlers.NewCommentHandler(d.Engagement).RegisterCommentRoutes(protected)
	handlers.NewFollowHandler(d.Engagement).RegisterFollowRoutes(protected)
	handlers.NewUserHandler(d.Identity, d.Posts).RegisterUserRoutes(protected)
	handlers.NewNotificationHandler(d.Notifications).RegisterNotificationRoutes(protected)
	handlers.NewMediaHandler(d.Media).RegisterMediaRoutes(protected)

	logrus.WithField("routes", len(e.Routes())).Info("All routes configured")
}
