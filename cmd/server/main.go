// Package main is the entry point for the events website.
//
// Configuration comes from the environment (and an optional .env file); see
// internal/config. All actual logic lives in internal/server and below.
package main

import (
	"log/slog"
	"os"

	"github.com/sakif/events/internal/config"
	"github.com/sakif/events/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	logger := cfg.Logger()
	slog.SetDefault(logger)

	// === 3. DATABASE DIRECTORY ===
	// A file DSN such as file:data/events.db needs its directory to exist
	// before SQLite can create the file.
	if dir := cfg.DataDir(); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// === 4. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (Ctrl+C, SIGTERM, or the
	// database becoming unreachable).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
