package chat

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/chatkit/internal/domain"
	"github.com/nfrund/chatkit/internal/middleware"
)

// SendMessageRequest is the payload for sending a message. Both fields
// are optional individually; the service rejects payloads with neither.
type SendMessageRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

// Handler exposes the messaging endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates a messaging Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Contacts handles GET /api/messages/users, returning every other user
// for the conversation sidebar.
func (h *Handler) Contacts(c echo.Context) error {
	user := middleware.CurrentUser(c)

	contacts, err := h.service.Contacts(c.Request().Context(), user.Key())
	if err != nil {
		slog.Error("Failed to list contacts", "error", err, "user_id", user.Key())
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
	}
	return c.JSON(http.StatusOK, contacts)
}

// Conversation handles GET /api/messages/:userId, returning the full
// exchange between the caller and the named user in creation order.
func (h *Handler) Conversation(c echo.Context) error {
	user := middleware.CurrentUser(c)
	otherID := c.Param("userId")

	messages, err := h.service.Conversation(c.Request().Context(), user.Key(), otherID)
	if err != nil {
		slog.Error("Failed to load conversation", "error", err, "user_id", user.Key())
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
	}
	return c.JSON(http.StatusOK, messages)
}

// Send handles POST /api/messages/send/:userId.
func (h *Handler) Send(c echo.Context) error {
	user := middleware.CurrentUser(c)
	receiverID := c.Param("userId")

	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	msg, err := h.service.Send(c.Request().Context(), user.Key(), receiverID, req.Text, req.Image)
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			return echo.NewHTTPError(http.StatusBadRequest, vErr.Error())
		}
		slog.Error("Failed to send message", "error", err, "user_id", user.Key())
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
	}
	return c.JSON(http.StatusOK, msg)
}
