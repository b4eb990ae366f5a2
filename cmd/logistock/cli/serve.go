package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/logistock/logistock/internal/app"
)

func runServe(s *session, args []string) error {
	if _, err := positional(s, "serve", args); err != nil {
		return err
	}
	logger := s.opts.Logger
	if app.InTestMode() {
		logger.Info("test mode detected, skipping http server startup")
		return nil
	}

	ctx, stop := context.WithCancel(s.ctx)
	defer stop()

	handler, cleanup := s.rt.Server(s.notifier)
	defer cleanup()

	cfg := s.rt.Config
	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      handler,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.Int("products", s.rt.Service.Len()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
		return err
	}
	return nil
}
