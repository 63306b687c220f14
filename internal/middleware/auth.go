package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/chatkit/internal/auth"
	"github.com/nfrund/chatkit/internal/domain"
)

// UserContextKey is the echo context key the authenticated user is
// stored under.
const UserContextKey = "user"

// CurrentUser returns the authenticated user set by RequireAuth, or nil
// on an unprotected route.
func CurrentUser(c echo.Context) *domain.User {
	user, _ := c.Get(UserContextKey).(*domain.User)
	return user
}

// RequireAuth resolves the session cookie to a user and stores it on the
// context. Requests without a valid session get a 401; a token that no
// longer verifies also has its cookie cleared so the client stops
// replaying it.
func RequireAuth(authService *auth.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(auth.CookieName)
			if err != nil || cookie.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized - No Token Provided")
			}

			user, err := authService.Authenticate(c.Request().Context(), cookie.Value)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken):
					auth.ClearCookie(c)
					return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized - Invalid Token")
				case errors.Is(err, auth.ErrUserNotFound):
					auth.ClearCookie(c)
					return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized - User Not Found")
				default:
					slog.Error("Failed to authenticate request", "error", err)
					return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
				}
			}

			c.Set(UserContextKey, user)
			return next(c)
		}
	}
}
