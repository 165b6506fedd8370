// Package config reads the process configuration from the environment.
//
// An optional .env file in the working directory is loaded first with
// godotenv. Variables already set in the environment win over the file, so a
// deployment can always override a checked-in .env.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment names accepted in APP_ENV (or NODE_ENV).
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// ErrMissingDatabaseURL is returned by Load when DATABASE_URL is empty.
var ErrMissingDatabaseURL = errors.New("config: DATABASE_URL is not set")

// Config holds everything the binaries need from the environment.
type Config struct {
	Env            string
	Port           int
	DatabaseURL    string
	DBMaxConns     int
	SessionSecret  []byte
	SchemaFile     string
	DropSchemaFile string
}

// Load reads .env (if present) and the environment.
//
// DATABASE_URL is required. SESSION_SECRET is required in production; in any
// other environment a random secret is generated, which means sessions do not
// survive a restart.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: reading .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function. Load uses os.Getenv; tests
// pass a map.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Env:            environment(getenv),
		Port:           8080,
		DatabaseURL:    strings.TrimSpace(getenv("DATABASE_URL")),
		DBMaxConns:     1,
		SchemaFile:     getenv("SCHEMA_FILE"),
		DropSchemaFile: getenv("DROP_SCHEMA_FILE"),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, ErrMissingDatabaseURL
	}

	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("config: invalid PORT %q", v)
		}
		cfg.Port = port
	}

	if v := getenv("DB_MAX_CONNS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("config: invalid DB_MAX_CONNS %q", v)
		}
		cfg.DBMaxConns = n
	}

	switch secret := getenv("SESSION_SECRET"); {
	case secret != "":
		cfg.SessionSecret = []byte(secret)
	case cfg.Env == Production:
		return Config{}, errors.New("config: SESSION_SECRET is required in production")
	default:
		random, err := randomSecret()
		if err != nil {
			return Config{}, err
		}
		cfg.SessionSecret = random
	}

	return cfg, nil
}

// IsProduction reports whether cookies should be marked Secure and logs
// emitted as JSON.
func (c Config) IsProduction() bool { return c.Env == Production }

// DataDir returns the directory a file-backed DATABASE_URL lives in, or ""
// for in-memory databases. The server and setup binaries create it before
// opening the pool.
func (c Config) DataDir() string {
	dsn := c.DatabaseURL
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return ""
	}
	dsn = strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(dsn, '?'); i >= 0 {
		dsn = dsn[:i]
	}
	if dir := filepath.Dir(dsn); dir != "." {
		return dir
	}
	return ""
}

// Logger returns the slog logger for the configured environment:
// text at Debug in development, JSON at Info in production, and only errors
// under test.
func (c Config) Logger() *slog.Logger {
	switch c.Env {
	case Production:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case Test:
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

func environment(getenv func(string) string) string {
	env := getenv("APP_ENV")
	if env == "" {
		env = getenv("NODE_ENV")
	}
	switch env = strings.ToLower(strings.TrimSpace(env)); env {
	case Production, Test:
		return env
	default:
		return Development
	}
}

func randomSecret() ([]byte, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("config: generating session secret: %w", err)
	}
	return []byte(hex.EncodeToString(buf)), nil
}
