package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/angeloszaimis/frontend/config"
	"github.com/angeloszaimis/frontend/internal/backend"
	"github.com/angeloszaimis/frontend/internal/handler"
	"github.com/angeloszaimis/frontend/internal/healthcheck"
	"github.com/angeloszaimis/frontend/internal/httpserver"
	"github.com/angeloszaimis/frontend/internal/metrics"
	"github.com/angeloszaimis/frontend/internal/page"
	"github.com/angeloszaimis/frontend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Server.Environment != config.EnvProd, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	mux, err := buildRouter(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to build router", slog.Any("err", err))
		os.Exit(1)
	}

	srv, err := httpserver.New(cfg.Server.Address(), mux, log,
		httpserver.WithBackendTimeout(cfg.Backend.TimeoutDuration()))
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)

	go func() {
		srvErrCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during shutdown", slog.Any("err", err))
		}
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error starting frontend", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

// buildRouter wires the backend, metrics, background monitor and page into
// the frontend's routes. Background work stops when ctx is cancelled.
func buildRouter(ctx context.Context, cfg *config.Config, log *slog.Logger) (*http.ServeMux, error) {
	b, err := initializeBackend(cfg, log)
	if err != nil {
		return nil, err
	}

	interval, err := time.ParseDuration(cfg.HealthCheck.Interval)
	if err != nil {
		return nil, err
	}

	collector := metrics.NewCollector(cfg.Metrics.BufferSize, log)
	collector.Start(ctx)

	go healthcheck.HealthCheck(ctx, b, interval, collector, log)

	pageHandler, err := page.New(log, page.View{
		Title:       "Frontend",
		DataPath:    handler.DataPath,
		MessagePath: handler.MessagePath,
		HealthPath:  handler.HealthPath,
	})
	if err != nil {
		return nil, err
	}

	proxyHandler := handler.NewProxyHandler(log, b, collector)

	return setupRouter(proxyHandler, pageHandler, collector, b.URL().String()), nil
}

func initializeBackend(cfg *config.Config, log *slog.Logger) (*backend.Backend, error) {
	u, err := url.Parse(cfg.Backend.URL)
	if err != nil {
		log.Error("Failed to parse backend URL",
			slog.String("url", cfg.Backend.URL),
			slog.String("error", err.Error()))
		return nil, err
	}

	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend URL %q must have a scheme and host", cfg.Backend.URL)
	}

	timeout := cfg.Backend.TimeoutDuration()
	log.Info("Proxying to backend",
		slog.String("backend", u.String()),
		slog.Duration("timeout", timeout))

	return backend.New(u, timeout), nil
}
