package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/anonto42/nano-feed/backend/internal/auth"
	"github.com/anonto42/nano-feed/backend/internal/middleware"
	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	identity     *services.IdentityService
	tokens       *auth.JWTManager
	firebase     *auth.FirebaseVerifier
	secureCookie bool
}

// NewAuthHandler creates a new AuthHandler. firebase may be nil, which
// disables the Firebase login exchange.
func NewAuthHandler(identity *services.IdentityService, tokens *auth.JWTManager, firebase *auth.FirebaseVerifier, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		identity:     identity,
		tokens:       tokens,
		firebase:     firebase,
		secureCookie: secureCookie,
	}
}

// RegisterAuthRoutes registers authentication-related routes. Routes acting on
// the current user run behind requireAuth.
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/firebase-login", h.FirebaseLogin)
	g.POST("/logout", h.Logout)
	g.GET("/me", h.Me, requireAuth)
	g.PUT("/profile", h.UpdateProfile, requireAuth)
	g.PUT("/avatar", h.UpdateAvatar, requireAuth)
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return models.NewValidationError("Invalid request payload")
	}

	user, err := h.identity.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return h.respondWithSession(c, http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.identity.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return h.respondWithSession(c, http.StatusOK, user)
}

// FirebaseLogin exchanges a Firebase ID token for a local session, creating
// or linking the account on first use.
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	if h.firebase == nil {
		return models.NewInvalidOperationError("Firebase login is not enabled")
	}
	var req models.FirebaseLoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	identity, err := h.firebase.Identify(ctx, req.IDToken)
	if err != nil {
		return err
	}
	user, err := h.identity.LoginWithFirebase(ctx, identity, req.Username)
	if err != nil {
		return err
	}
	return h.respondWithSession(c, http.StatusOK, user)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(h.cookie("", -1))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Logged out successfully",
	})
}

func (h *AuthHandler) Me(c echo.Context) error {
	user, err := h.identity.FindByID(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": user})
}

func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return models.NewValidationError("Invalid request payload")
	}

	user, err := h.identity.UpdateProfile(c.Request().Context(), middleware.UserID(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": user})
}

// UpdateAvatar replaces the avatar with the multipart "avatar" file.
func (h *AuthHandler) UpdateAvatar(c echo.Context) error {
	file, err := c.FormFile("avatar")
	if err != nil {
		return models.NewValidationError("avatar file is required")
	}
	if file.Size > services.MaxAvatarBytes {
		return models.NewValidationError("Avatar must be at most 5 MB")
	}
	src, err := file.Open()
	if err != nil {
		return models.NewValidationError("avatar file could not be read")
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, services.MaxAvatarBytes+1))
	if err != nil {
		return models.NewValidationError("avatar file could not be read")
	}

	user, err := h.identity.UpdateAvatar(c.Request().Context(), middleware.UserID(c), data, file.Header.Get(echo.HeaderContentType))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": user})
}

func (h *AuthHandler) respondWithSession(c echo.Context, status int, user *models.User) error {
	token, err := h.tokens.Generate(user.ID)
	if err != nil {
		return models.NewStorageError(err)
	}
	c.SetCookie(h.cookie(token, int(h.tokens.TTL()/time.Second)))
	return c.JSON(status, echo.Map{
		"success": true,
		"user":    user,
		"token":   token,
	})
}

func (h *AuthHandler) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	}
}
