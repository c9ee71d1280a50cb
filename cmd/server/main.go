package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/nano-feed/backend/internal/auth"
	"github.com/anonto42/nano-feed/backend/internal/handlers"
	"github.com/anonto42/nano-feed/backend/internal/media"
	"github.com/anonto42/nano-feed/backend/internal/metrics"
	"github.com/anonto42/nano-feed/backend/internal/repositories"
	"github.com/anonto42/nano-feed/backend/internal/router"
	"github.com/anonto42/nano-feed/backend/internal/services"
	"github.com/anonto42/nano-feed/backend/internal/validators"
	"github.com/anonto42/nano-feed/backend/pkg/config"
	"github.com/anonto42/nano-feed/backend/pkg/firebase"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	config.SetupLogging(cfg)

	db, err := config.InitDB(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB()

	ctx := context.Background()

	postRepo := repositories.NewMongoPostRepository(db.MongoDB)
	if err := postRepo.EnsureIndexes(ctx); err != nil {
		logrus.Fatalf("Failed to create MongoDB indexes: %v", err)
	}
	userRepo := repositories.NewPostgresUserRepository(db.Postgres)
	followRepo := repositories.NewPostgresFollowRepository(db.Postgres)
	notificationRepo := repositories.NewPostgresNotificationRepository(db.Postgres)

	// Firebase is optional unless it is the auth provider.
	var firebaseApp *firebase.App
	if cfg.FirebaseCredentialsPath != "" {
		firebaseApp, err = firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, cfg.FirebaseStorageBucket)
		if err != nil {
			if cfg.AuthProvider == config.AuthProviderFirebase {
				logrus.Fatalf("Failed to initialize Firebase: %v", err)
			}
			logrus.WithError(err).Warn("Firebase disabled")
			firebaseApp = nil
		}
	}

	var store media.Store
	if firebaseApp != nil && firebaseApp.Bucket != nil {
		store = media.NewFirebaseStore(firebaseApp.Bucket, firebaseApp.BucketName, "uploads/")
	} else {
		local, err := media.NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL)
		if err != nil {
			logrus.Fatalf("Failed to prepare upload directory: %v", err)
		}
		store = local
	}

	identity := services.NewIdentityService(userRepo, followRepo, auth.NewBcryptHasher(), store)
	notifications := services.NewNotificationService(notificationRepo, userRepo)
	deps := &router.Dependencies{
		Identity:      identity,
		Posts:         services.NewPostService(postRepo, userRepo, followRepo),
		Feed:          services.NewFeedService(postRepo, userRepo, followRepo),
		Engagement:    services.NewEngagementService(postRepo, userRepo, identity, notifications),
		Notifications: notifications,
		Tokens:        auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL()),
		Media:         store,
		SecureCookie:  cfg.IsProduction(),
	}
	if _, ok := store.(*media.LocalStore); ok {
		deps.UploadDir = cfg.UploadDir
	}

	verifiers := auth.Chain{deps.Tokens}
	if firebaseApp != nil {
		deps.Firebase = auth.NewFirebaseVerifier(firebaseApp.AuthClient, identity.ResolveFirebaseUID)
		if cfg.AuthProvider == config.AuthProviderFirebase {
			verifiers = append(verifiers, deps.Firebase)
		}
	}
	deps.Verifier = verifiers

	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = handlers.ErrorHandler

	config.SetupMiddleware(e, cfg, handlers.StatusOf)
	router.SetupRoutes(e, deps)

	metricsServer := metrics.NewServer(":" + cfg.MetricsPort)
	go func() {
		logrus.WithField("port", cfg.MetricsPort).Info("Starting metrics server")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Error("Metrics server stopped")
		}
	}()

	go func() {
		logrus.WithField("port", cfg.Port).Info("Starting HTTP server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("HTTP server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("HTTP server shutdown failed")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Metrics server shutdown failed")
	}
}
