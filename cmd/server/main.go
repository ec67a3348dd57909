/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leave management server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Read configuration (env vars, flag overrides)
  2. Initialize the global logger
  3. Open the snapshot store (JSON files or SQLite)
  4. Build the engine, seeding the default admin on first boot
  5. Configure the HTTP router
  6. Start the server with graceful shutdown

CONFIGURATION:
  ADDRESS / -a            address and port (default localhost:8080)
  DATA_DIR / -d           JSON snapshot directory (default ./data)
  STORE / -s              snapshot backend: json or sqlite
  SQLITE_PATH / -db       SQLite database path
  LOG_LVL / -l            log level
  ADMIN_USERNAME/PASSWORD default admin credentials (seeded on empty state)
  MIN_ADVANCE_DAYS        advance-notice bound for start dates
  MAX_HORIZON_DAYS        horizon bound for start dates

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - leave/engine.go: Core engine
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/leave-engine/api"
	"github.com/warp/leave-engine/auth"
	"github.com/warp/leave-engine/config"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/logger"
	"github.com/warp/leave-engine/store/snapshot"
	"github.com/warp/leave-engine/store/sqlite"
)

func main() {
	cfg := config.New()

	if err := logger.Init(cfg.LogLvl); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	log := zap.L()

	snapshots, cleanup, err := openSnapshotStore(cfg)
	if err != nil {
		log.Fatal("failed to open snapshot store", zap.Error(err))
	}
	defer cleanup()

	adminHash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		log.Fatal("failed to hash admin password", zap.Error(err))
	}

	engine, err := leave.New(leave.Config{
		Policy: leave.Policy{
			MinAdvanceDays: cfg.MinAdvanceDays,
			MaxHorizonDays: cfg.MaxHorizonDays,
		},
		Snapshots: snapshots,
		Admin: leave.User{
			Username:     cfg.AdminUsername,
			PasswordHash: adminHash,
			Email:        "admin@company.com",
			Department:   "Administration",
			IsAdmin:      true,
		},
	})
	if err != nil {
		log.Fatal("failed to initialize engine", zap.Error(err))
	}

	handler := api.NewHandler(engine)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("address", cfg.Address), zap.String("store", cfg.Store))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

func openSnapshotStore(cfg *config.Config) (leave.SnapshotStore, func(), error) {
	switch cfg.Store {
	case "sqlite":
		store, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	case "json":
		store, err := snapshot.New(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q (use json or sqlite)", cfg.Store)
	}
}
