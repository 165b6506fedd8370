// Command setup drops and recreates the database schema.
//
//	go run ./cmd/setup            drop, then create
//	go run ./cmd/setup -keep      create only (existing tables are kept)
//	go run ./cmd/setup -seed      also insert example events and an admin
//
// The admin password is read from ADMIN_PASSWORD and defaults to a
// development-only value.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/sakif/events/internal/apperror"
	"github.com/sakif/events/internal/auth"
	"github.com/sakif/events/internal/config"
	sqliteRepo "github.com/sakif/events/internal/repository/sqlite"
	"github.com/sakif/events/internal/service"
)

const defaultAdminPassword = "123123123"

var exampleEvents = []service.EventInput{
	{
		Name:        "Forritarahittingur í febrúar",
		Description: "Forritarar hittast í febrúar og forrita saman eitthvað frábært.",
		Location:    "Reykjavík",
	},
	{
		Name:        "Hönnuðahittingur í mars",
		Description: "Spennandi hittingur hönnuða í Hönnunarmars.",
		Location:    "Hafnarfjörður",
	},
	{
		Name:        "Verkefnastjórahittingur í apríl",
		Description: "Virkilega vel verkefnastýrður hittingur.",
		Location:    "Kópavogur",
		URL:         "https://example.org/verkefnastjorn",
	},
}

func main() {
	keep := flag.Bool("keep", false, "do not drop existing tables first")
	seed := flag.Bool("seed", false, "insert example events and an admin account")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := cfg.Logger()

	if err := run(context.Background(), cfg, logger, *keep, *seed); err != nil {
		logger.Error("setup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("setup complete")
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger, keep, seed bool) error {
	if dir := cfg.DataDir(); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqliteRepo.New(cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		return err
	}
	defer db.Close()

	if !keep {
		if err := db.DropSchema(ctx, cfg.DropSchemaFile); err != nil {
			return err
		}
		logger.Info("schema dropped")
	}

	if err := db.CreateSchema(ctx, cfg.SchemaFile); err != nil {
		return err
	}
	logger.Info("schema created")

	if !seed {
		return nil
	}
	return seedData(ctx, db, logger)
}

func seedData(ctx context.Context, db *sqliteRepo.DB, logger *slog.Logger) error {
	events := service.NewEventService(db, db, logger)
	for _, in := range exampleEvents {
		event, err := events.Create(ctx, in)
		if errors.Is(err, apperror.ErrConflict) {
			logger.Info("event already exists", slog.String("name", in.Name))
			continue
		}
		if err != nil {
			return fmt.Errorf("seeding event %q: %w", in.Name, err)
		}
		logger.Info("event created", slog.String("slug", event.Slug))
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = defaultAdminPassword
	}

	accounts := service.NewAuthService(db, auth.NewPasswordService(), logger)
	_, err := accounts.CreateAccount(ctx, "Stjórnandi", "admin", password, true)
	switch {
	case errors.Is(err, apperror.ErrConflict):
		logger.Info("admin account already exists")
	case err != nil:
		return fmt.Errorf("seeding admin account: %w", err)
	default:
		logger.Info("admin account created", slog.String("username", "admin"))
	}
	return nil
}
