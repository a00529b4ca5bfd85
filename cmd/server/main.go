package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/rawready/internal/config"
	"github.com/JonMunkholm/rawready/internal/core"
	"github.com/JonMunkholm/rawready/internal/logging"
	"github.com/JonMunkholm/rawready/internal/metrics"
	"github.com/JonMunkholm/rawready/internal/report"
	"github.com/JonMunkholm/rawready/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"data_root", cfg.Scan.DataRoot,
		"rules_path", cfg.Scan.RulesPath,
		"scan_workers", cfg.Scan.Workers,
		"scan_max_concurrent", cfg.Scan.MaxConcurrent,
		"metrics_enabled", cfg.Metrics.Enabled,
	)

	sandbox, err := core.NewSandbox(cfg.Scan.DataRoot)
	if err != nil {
		slog.Error("failed to open data root", "error", err)
		os.Exit(1)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	builder := report.NewBuilder(sandbox, cfg.Scan.RulesPath,
		report.WithWorkers(cfg.Scan.Workers),
		report.WithMetrics(m),
	)

	// A broken rule document is reported per request; log it early too
	if set, err := builder.Rules(); err != nil {
		slog.Warn("rule document unavailable", "path", cfg.Scan.RulesPath, "error", err)
	} else {
		slog.Info("rules loaded", "count", set.Len(), "types", set.Types())
	}

	limiter := core.NewScanLimiter(cfg.Scan.MaxConcurrent, cfg.Scan.MaxWait)
	server := web.NewServer(builder, web.Options{
		RequestTimeout: cfg.Server.RequestTimeout,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Limiter:        limiter,
		Metrics:        m,
	})

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := limiter.Status(); status.Active > 0 {
			slog.Info("waiting for scans to complete", "active", status.Active)
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(cfg.Server); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}
