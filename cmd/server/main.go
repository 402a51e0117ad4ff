// Package main is the entry point for the Jambushrusti server. It loads
// configuration, establishes database connections, runs migrations, wires
// together all plugins, and starts the HTTP server.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jambushrusti/platform/internal/app"
	"github.com/jambushrusti/platform/internal/config"
	"github.com/jambushrusti/platform/internal/database"
	"github.com/jambushrusti/platform/internal/notify"
	"github.com/jambushrusti/platform/internal/plugins/auth"
)

func main() {
	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	// Configure structured logging based on environment.
	setupLogging(cfg)

	slog.Info("starting Jambushrusti",
		slog.String("env", cfg.Env),
		slog.Int("port", cfg.Port),
	)

	// --- Connect to MariaDB ---
	db, err := database.NewMariaDB(cfg.Database)
	if err != nil {
		slog.Error("failed to connect to MariaDB", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to MariaDB")

	// --- Run Migrations ---
	if err := database.RunMigrations(db, "db/migrations"); err != nil {
		slog.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// --- Connect to Redis ---
	rdb, err := database.NewRedis(cfg.Redis)
	if err != nil {
		slog.Error("failed to connect to Redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer rdb.Close()
	slog.Info("connected to Redis")

	// --- Session layer ---
	// The store owns session persistence; the manager owns the in-process
	// cache and the invalidation subscription. A failed subscription does
	// not abort startup: the manager degrades to pass-through resolution.
	userRepo := auth.NewUserRepository(db)
	resolver := auth.NewIdentityResolver(userRepo)
	store := auth.NewSessionStore(rdb, cfg.Auth.SessionTTL)

	sessions := auth.NewManager(store, resolver, rdb)
	if err := sessions.Start(context.Background()); err != nil {
		slog.Warn("session manager running degraded", slog.Any("error", err))
	}
	defer sessions.Close()

	// --- Outbound notifications ---
	var notifier notify.Notifier
	if cfg.Mail.Enabled() {
		notifier = notify.NewSMTPNotifier(cfg.Mail)
		slog.Info("mail notifications enabled", slog.String("host", cfg.Mail.Host))
	} else {
		notifier = notify.NewLogNotifier()
		slog.Info("mail not configured, notifications will be logged only")
	}

	// --- Create Application ---
	application := app.New(cfg, db, rdb, sessions, notifier)
	app.RegisterRoutes(application, store)

	// --- Graceful Shutdown ---
	// Listen for interrupt/term signals to drain connections cleanly.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		slog.Info("shutting down server...")

		// Give in-flight requests 10 seconds to complete.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := application.Echo.Shutdown(ctx); err != nil {
			slog.Error("server forced shutdown", slog.Any("error", err))
		}
	}()

	// --- Start Server ---
	if err := application.Start(); err != nil {
		// Echo returns http.ErrServerClosed on graceful shutdown, which is expected.
		slog.Info("server stopped", slog.Any("reason", err))
	}
}

// setupLogging configures the global slog logger based on the environment.
// Development uses text format for readability. Production uses JSON for
// structured log aggregation.
func setupLogging(cfg *config.Config) {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	slog.SetDefault(slog.New(handler))
}
