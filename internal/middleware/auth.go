package middleware

import (
	"context"
	"strings"

	"github.com/anonto42/nano-feed/backend/internal/auth"
	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// TokenCookie is the httpOnly cookie carrying the session token.
const TokenCookie = "token"

const userIDKey = "userID"

// UserFinder looks a user up by id.
type UserFinder interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// Authenticate requires a credential in the token cookie or an
// "Authorization: Bearer" header. The credential must verify and name a user
// that still exists; the user id is then stored on the context.
func Authenticate(verifier auth.Verifier, users UserFinder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := tokenFrom(c)
			if token == "" {
				return models.NewUnauthorizedError("Not authorized, no token")
			}

			ctx := c.Request().Context()
			userID, err := verifier.Verify(ctx, token)
			if err != nil {
				return err
			}
			if _, err := users.FindByID(ctx, userID); err != nil {
				if models.IsNotFound(err) {
					return models.NewUnauthorizedError("Not authorized, user not found")
				}
				return err
			}

			c.Set(userIDKey, userID)
			return next(c)
		}
	}
}

// UserID returns the id stored by Authenticate, or 0 outside it.
func UserID(c echo.Context) uint {
	id, _ := c.Get(userIDKey).(uint)
	return id
}

func tokenFrom(c echo.Context) string {
	if cookie, err := c.Cookie(TokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
