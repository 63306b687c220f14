package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/afero"
	"github.com/surrealdb/surrealdb.go"

	"github.com/nfrund/chatkit/internal/auth"
	"github.com/nfrund/chatkit/internal/chat"
	"github.com/nfrund/chatkit/internal/config"
	"github.com/nfrund/chatkit/internal/database"
	"github.com/nfrund/chatkit/internal/handlers"
	"github.com/nfrund/chatkit/internal/logging"
	"github.com/nfrund/chatkit/internal/presence"
	"github.com/nfrund/chatkit/internal/pubsub"
	"github.com/nfrund/chatkit/internal/storage"
	"github.com/nfrund/chatkit/internal/ws"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	E   *echo.Echo
	DB  *surrealdb.DB
	Cfg *config.Config

	bus      *pubsub.WatermillBus
	registry *presence.Registry
	bridge   *ws.Bridge
	fanout   *chat.Fanout

	authService *auth.Service
	authHandler *handlers.AuthHandler
	chatHandler *chat.Handler
	images      *storage.ImageStore
}

// New creates a new Server instance with every dependency wired.
func New() *Server {
	logging.New()
	cfg := config.New()

	db, err := database.NewDB(context.Background(), cfg)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	bus := pubsub.NewWatermillBus()
	registry := presence.NewRegistry(bus)
	bridge := ws.NewBridge(registry)

	images := storage.NewImageStore(afero.NewOsFs(), cfg.UploadDir, cfg.AppBaseURL)

	userStore := database.NewSurrealUserStore(db)
	messageStore := database.NewSurrealMessageStore(db)

	issuer := auth.NewIssuer(cfg.SessionSecret, cfg.SessionTTL)
	authService := auth.NewService(issuer, userStore)
	authHandler := handlers.NewAuthHandler(userStore, issuer, images)

	chatService := chat.NewService(messageStore, userStore, images, bus)
	chatHandler := chat.NewHandler(chatService)
	fanout := chat.NewFanout(registry, bridge)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewValidator()
	e.HTTPErrorHandler = httpErrorHandler
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowCredentials: true,
	}))

	return &Server{
		E:           e,
		DB:          db,
		Cfg:         cfg,
		bus:         bus,
		registry:    registry,
		bridge:      bridge,
		fanout:      fanout,
		authService: authService,
		authHandler: authHandler,
		chatHandler: chatHandler,
		images:      images,
	}
}

// httpErrorHandler renders every unhandled error as the API's JSON error
// shape. Unexpected errors get a generic body so internals never leak.
func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "Internal Server Error"
	if httpErr, ok := err.(*echo.HTTPError); ok {
		code = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		}
	}
	if code == http.StatusInternalServerError {
		slog.Error("Unhandled request error", "error", err, "path", c.Request().URL.Path)
		message = "Internal Server Error"
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, handlers.ErrorResponse{Message: message})
}
