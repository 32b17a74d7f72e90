package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/inonewetrust/signalapi/server/internal/api"
	"github.com/inonewetrust/signalapi/server/internal/auth"
	"github.com/inonewetrust/signalapi/server/internal/config"
	"github.com/inonewetrust/signalapi/server/internal/metrics"
	"github.com/inonewetrust/signalapi/server/internal/middleware"
	"github.com/inonewetrust/signalapi/server/internal/signal"
	"github.com/inonewetrust/signalapi/server/internal/signal/signalobs"
	"github.com/inonewetrust/signalapi/server/internal/telemetry"
	"github.com/inonewetrust/signalapi/server/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "path to config file; leave empty to run on defaults")
	envFile := flag.String("env-file", ".env", "optional dotenv file loaded before the config")
	flag.Parse()

	// A missing .env is normal outside local development.
	envErr := godotenv.Load(*envFile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	level := new(slog.LevelVar)
	level.Set(cfg.Server.Log.SlogLevel())
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if envErr != nil {
		slog.Debug("no dotenv file loaded", "path", *envFile, "err", envErr)
	}

	guard := auth.New(cfg.Server.Auth.EffectiveHeader(), cfg.Server.Auth.Key())
	origins := cfg.Server.Origins()

	slog.Info("signalapi starting",
		"config", *configPath,
		"http_port", cfg.Server.HTTPPort,
		"profile", cfg.Server.Profile,
		"version", cfg.Server.Version,
		"auth_enabled", guard.Enabled(),
		"cors_origins", origins,
		"rate_limit_rps", cfg.Server.RateLimit.RPS,
		"tracing", cfg.Server.Tracing.Enabled,
	)

	ctx, cancel := ossignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := telemetry.Init(cfg.Server.Tracing.Enabled, cfg.Server.Version, os.Stdout)
	if err != nil {
		slog.Error("failed to init tracing", "err", err)
		os.Exit(1)
	}

	reg := metrics.New()
	src := signalobs.Wrap(signal.NewPlaceholder(), reg)

	// Stream hub: pushes the lucky picks to WebSocket clients every interval.
	hub := ws.New(src, cfg.Server.Stream.Interval, origins)
	go hub.Run(ctx)

	// The log level applies live; other changes are reported and wait for a
	// restart. The guard keeps its startup state.
	if *configPath != "" {
		go func() {
			err := config.Watch(ctx, *configPath, func(next *config.Config) {
				level.Set(next.Server.Log.SlogLevel())
				changed := config.Diff(cfg, next)
				if len(changed) == 0 {
					return
				}
				slog.Info("config change detected",
					"changed", changed,
					"restart_required", config.RestartRequired(changed),
				)
			})
			if err != nil {
				slog.Error("config watch stopped", "err", err)
			}
		}()
	}

	handler := api.New(src,
		api.WithGuard(guard),
		api.WithRateLimit(middleware.RateLimit(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst)),
		api.WithStream(hub),
		api.WithMetrics(reg),
		api.WithVersion(cfg.Server.Version),
		api.WithRoot(cfg.Server.Profile == config.ProfileDev),
	)

	root := middleware.Chain(handler,
		middleware.RequestID,
		middleware.Observe(reg, api.RouteOf),
		middleware.CORS(origins),
	)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("signalapi shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("tracing shutdown failed", "err", err)
	}
}
