package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/chatkit/internal/auth"
	"github.com/nfrund/chatkit/internal/domain"
	"github.com/nfrund/chatkit/internal/middleware"
)

// ImageResolver resolves an inline image payload to a stored URL.
type ImageResolver interface {
	Save(ctx context.Context, payload string) (string, error)
}

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	users  domain.UserRepository
	issuer *auth.Issuer
	images ImageResolver
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users domain.UserRepository, issuer *auth.Issuer, images ImageResolver) *AuthHandler {
	return &AuthHandler{
		users:  users,
		issuer: issuer,
		images: images,
	}
}

// Signup handles POST /api/auth/signup. On success the session cookie is
// set and the created user is returned without its password hash.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request payload"})
	}

	input := &domain.NewUser{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
	}
	if err := input.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
	}

	user, err := h.users.Create(c.Request().Context(), input)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Email already exists"})
		}
		slog.Error("Failed to create user", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal Server Error"})
	}

	token, err := h.issuer.Issue(user.Key())
	if err != nil {
		slog.Error("Failed to issue session token", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal Server Error"})
	}
	auth.SetCookie(c, token, h.issuer.TTL())

	return c.JSON(http.StatusCreated, NewUserResponse(user))
}

// Login handles POST /api/auth/login. Unknown emails and wrong passwords
// produce the same response, so the endpoint cannot be used to probe for
// registered addresses.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request payload"})
	}

	user, err := h.users.VerifyPassword(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid credentials"})
		}
		slog.Error("Failed to verify credentials", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal Server Error"})
	}

	token, err := h.issuer.Issue(user.Key())
	if err != nil {
		slog.Error("Failed to issue session token", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal Server Error"})
	}
	auth.SetCookie(c, token, h.issuer.TTL())

	return c.JSON(http.StatusOK, NewUserResponse(user))
}

// Logout handles POST /api/auth/logout by expiring the session cookie.
// Stateless sessions have nothing to revoke server-side.
func (h *AuthHandler) Logout(c echo.Context) error {
	auth.ClearCookie(c)
	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// UpdateProfile handles PUT /api/auth/update-profile, storing a new
// profile picture for the authenticated user.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	user := middleware.CurrentUser(c)

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Profile pic is required"})
	}

	avatarURL, err := h.images.Save(c.Request().Context(), req.ProfilePic)
	if err != nil {
		if domain.IsValidation(err) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		}
		slog.Error("Failed to store profile picture", "error", err, "user_id", user.Key())
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal Server Error"})
	}

	updated, err := h.users.UpdateAvatar(c.Request().Context(), user.Key(), avatarURL)
	if err != nil {
		// Account deleted after the middleware resolved it: the session
		// is no longer backed by a user, so treat it like any dead session.
		if errors.Is(err, domain.ErrNotFound) {
			auth.ClearCookie(c)
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized - User Not Found"})
		}
		slog.Error("Failed to update profile picture", "error", err, "user_id", user.Key())
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal Server Error"})
	}

	return c.JSON(http.StatusOK, NewUserResponse(updated))
}

// Check handles GET /api/auth/check, returning the authenticated user so
// clients can restore their session on reload.
func (h *AuthHandler) Check(c echo.Context) error {
	return c.JSON(http.StatusOK, NewUserResponse(middleware.CurrentUser(c)))
}
