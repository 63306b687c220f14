package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/chatkit/internal/middleware"
)

// RegisterRoutes sets up all the application routes.
func (s *Server) RegisterRoutes() {
	rateLimiter := middleware.RateLimiter()
	requireAuth := middleware.RequireAuth(s.authService)

	s.E.GET("/health", s.healthHandler)

	authGroup := s.E.Group("/api/auth")
	authGroup.POST("/signup", s.authHandler.Signup, rateLimiter)
	authGroup.POST("/login", s.authHandler.Login, rateLimiter)
	authGroup.POST("/logout", s.authHandler.Logout)
	authGroup.PUT("/update-profile", s.authHandler.UpdateProfile, requireAuth)
	authGroup.GET("/check", s.authHandler.Check, requireAuth)

	messageGroup := s.E.Group("/api/messages", requireAuth)
	messageGroup.GET("/users", s.chatHandler.Contacts)
	messageGroup.GET("/:userId", s.chatHandler.Conversation)
	messageGroup.POST("/send/:userId", s.chatHandler.Send)

	s.E.GET("/ws", s.bridge.Handler())

	// Uploaded images are served straight from the image store's
	// filesystem, so the store stays the single owner of the directory.
	uploads := http.StripPrefix("/uploads/", http.FileServer(s.images.HTTPFileSystem()))
	s.E.GET("/uploads/*", echo.WrapHandler(uploads))

	// Optionally serve a built frontend from the same process.
	if s.Cfg.StaticDir != "" {
		s.E.Static("/", s.Cfg.StaticDir)
	}
}

// healthHandler reports liveness plus the realtime connection count.
func (s *Server) healthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":      "ok",
		"connections": s.bridge.ConnectedCount(),
	})
}
