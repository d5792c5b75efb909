package healthcheck

import (
	"context"
	"log/slog"
	"time"

	"github.com/angeloszaimis/frontend/internal/backend"
	"github.com/angeloszaimis/frontend/internal/metrics"
)

// HealthCheck periodically probes the backend's /health endpoint until ctx is
// cancelled. The observed state is recorded on the backend and reported to
// collector on every transition. It never changes how requests are proxied.
func HealthCheck(
	ctx context.Context,
	b *backend.Backend,
	interval time.Duration,
	collector *metrics.Collector,
	logger *slog.Logger,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Health check stopped",
				slog.String("backend", b.URL().String()))
			return

		case <-ticker.C:
			check(ctx, b, collector, logger)
		}
	}
}

func check(ctx context.Context, b *backend.Backend, collector *metrics.Collector, logger *slog.Logger) {
	err := b.Probe(ctx)
	if err != nil && ctx.Err() != nil {
		return
	}

	healthy := err == nil
	if !b.SetHealthy(healthy) {
		return
	}

	collector.Emit(metrics.MetricEvent{
		Type:      metrics.EventHealthChanged,
		Timestamp: time.Now(),
		Healthy:   healthy,
	})

	if healthy {
		logger.Info("Backend is back up",
			slog.String("backend", b.URL().String()))
	} else {
		logger.Warn("Backend is down",
			slog.String("backend", b.URL().String()),
			slog.Any("err", err))
	}
}
