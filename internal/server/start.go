package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Start runs the HTTP server and the realtime subscribers, blocking until
// an interrupt or terminate signal triggers a graceful shutdown.
func (s *Server) Start() {
	subCtx, cancelSubs := context.WithCancel(context.Background())
	defer cancelSubs()

	if err := s.bridge.Start(subCtx, s.bus); err != nil {
		slog.Error("Failed to start presence subscriber", "error", err)
		os.Exit(1)
	}
	if err := s.fanout.Start(subCtx, s.bus); err != nil {
		slog.Error("Failed to start message fanout", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := s.E.Start(s.Cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server stopped unexpectedly", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.E.Shutdown(ctx); err != nil {
		slog.Error("Failed to shut down HTTP server cleanly", "error", err)
	}
	cancelSubs()
	if err := s.bus.Close(); err != nil {
		slog.Error("Failed to close message bus", "error", err)
	}
	s.DB.Close(ctx)
}
