// Package server wires the dependency graph and runs the HTTP server.
//
// New is the composition root:
//
//	sqlite.DB → services → handlers → chi routes
//
// The database pool is created here, handed to every service that needs it,
// and closed by Start when the server stops. Nothing else holds a pool.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/events/internal/auth"
	"github.com/sakif/events/internal/config"
	"github.com/sakif/events/internal/handler"
	"github.com/sakif/events/internal/middleware"
	sqliteRepo "github.com/sakif/events/internal/repository/sqlite"
	"github.com/sakif/events/internal/service"
	"github.com/sakif/events/internal/validation"
	"github.com/sakif/events/web"
)

const (
	defaultWatchInterval = 30 * time.Second

	// watchFailures is how many pings in a row may fail before the pool is
	// declared dead and the process exits.
	watchFailures = 3
)

// Server owns the router and the database pool.
type Server struct {
	router        *chi.Mux
	config        config.Config
	logger        *slog.Logger
	db            *sqliteRepo.DB
	passwords     *auth.PasswordService
	watchInterval time.Duration
}

// Option adjusts a Server before its routes are built.
type Option func(*Server)

// WithPasswordCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithPasswordCost(cost int) Option {
	return func(s *Server) { s.passwords = auth.NewPasswordServiceWithCost(cost) }
}

// WithWatchInterval sets how often the pool watchdog pings the database.
func WithWatchInterval(d time.Duration) Option {
	return func(s *Server) { s.watchInterval = d }
}

// New opens the database, makes sure the schema exists and builds the routes.
func New(cfg config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.CreateSchema(context.Background(), cfg.SchemaFile); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	s := &Server{
		router:        chi.NewRouter(),
		config:        cfg,
		logger:        logger,
		db:            db,
		passwords:     auth.NewPasswordService(),
		watchInterval: defaultWatchInterval,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler returns the root handler, for tests and for embedding.
func (s *Server) Handler() http.Handler { return s.router }

// DB returns the pool the server owns.
func (s *Server) DB() *sqliteRepo.DB { return s.db }

// setupRoutes registers every route.
//
//	GET  /                     event list
//	GET  /static/*             embedded assets
//	GET  /login, POST /login   login form
//	GET  /logout
//	GET  /register, POST /register
//	     /admin/...            admin only
//	GET  /{slug}               event detail
//	POST /{slug}               register for the event
//	GET  /{slug}/delete        unregister
//	GET  /{slug}/thanks        confirmation
//
// chi matches static segments before {slug}, so an event can never shadow
// /login and friends; the service also refuses those names as slugs.
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.SessionSecret)
	if err != nil {
		return err
	}
	sessions := auth.NewSessions(tokens, s.config.IsProduction())

	render, err := handler.NewRenderer(web.Templates, sessions, s.logger)
	if err != nil {
		return err
	}
	validate := validation.New()

	eventService := service.NewEventService(s.db, s.db, s.logger)
	registrationService := service.NewRegistrationService(s.db, s.db, s.logger)
	authService := service.NewAuthService(s.db, s.passwords, s.logger)

	events := handler.NewEventHandler(eventService, registrationService, render, s.logger)
	users := handler.NewUserHandler(authService, sessions, render, s.logger)
	admin := handler.NewAdminHandler(eventService, render, s.logger)

	r := s.router
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(sessions.LoadUser(s.db, s.logger))

	r.NotFound(render.NotFound)

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(web.Static)))

	r.Get("/", events.HandleIndex)

	r.Get("/login", users.HandleLoginForm)
	r.Post("/login", users.HandleLogin)
	r.Get("/logout", users.HandleLogout)
	r.Get("/register", users.HandleRegisterForm)
	r.With(
		middleware.SanitizeXSS(handler.AccountFields...),
		middleware.Trim(handler.AccountFields...),
		validation.Middleware(validate, handler.BindAccount),
	).Post("/register", users.HandleRegister)

	eventForm := chi.Chain(
		middleware.SanitizeXSS(handler.EventFields...),
		middleware.Trim(handler.EventFields...),
		validation.Middleware(validate, handler.BindEvent),
	)
	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.RequireAdmin(render.Error))
		r.Get("/", admin.HandleIndex)
		r.With(eventForm...).Post("/", admin.HandleCreate)
		r.Get("/{slug}", admin.HandleEdit)
		r.With(eventForm...).Post("/{slug}", admin.HandleUpdate)
		r.Post("/{slug}/delete", admin.HandleDelete)
	})

	r.Get("/{slug}", events.HandleShow)
	r.With(
		middleware.SanitizeXSS(handler.RegistrationFields...),
		validation.Middleware(validate, handler.BindRegistration),
		middleware.Trim(handler.RegistrationFields...),
	).Post("/{slug}", events.HandleRegister)
	r.Get("/{slug}/delete", events.HandleUnregister)
	r.Get("/{slug}/thanks", events.HandleThanks)

	return nil
}

// Start serves until SIGINT/SIGTERM, the listener fails, or the pool
// watchdog gives up. It always closes the database before returning.
// A non-nil error means the process should exit non-zero.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("env", s.config.Env),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	poolErrors := make(chan error, 1)
	go func() { poolErrors <- s.watchPool(ctx) }()

	var result error
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case err := <-poolErrors:
		s.logger.Error("database pool lost, shutting down", slog.String("error", err.Error()))
		result = fmt.Errorf("database pool: %w", err)

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Join(result, fmt.Errorf("graceful shutdown failed: %w", err))
	}
	s.logger.Info("server stopped")
	return result
}

// watchPool pings the database every watchInterval and returns an error once
// watchFailures pings in a row have failed. It returns nil when ctx ends.
func (s *Server) watchPool(ctx context.Context) error {
	ticker := time.NewTicker(s.watchInterval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := s.db.Ping(pingCtx)
		cancel()

		if err == nil {
			failures = 0
			continue
		}
		if ctx.Err() != nil {
			return nil
		}

		failures++
		s.logger.Warn("database ping failed",
			slog.Int("failures", failures),
			slog.String("error", err.Error()),
		)
		if failures >= watchFailures {
			return err
		}
	}
}
