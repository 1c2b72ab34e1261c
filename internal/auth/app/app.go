package app

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

	httpapi "github.com/aussiebroadwan/gatekeeper/internal/auth/http"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/service"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/throttle"
	"github.com/aussiebroadwan/gatekeeper/pkg/cryptox"
	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
	"github.com/aussiebroadwan/gatekeeper/pkg/slogx"
	"github.com/redis/go-redis/v9"
)

// BuildVersion is overridden at build time via -ldflags "-X ...app.BuildVersion=...".
var BuildVersion = "v0.1.0"

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	redis    *redis.Client // nil unless REDIS_ADDR is set
	throttle throttle.Throttle

	// Services
	tokenService  *service.TokenService
	authService   *service.AuthService
	userService   *service.UserService
	authenticator *service.RequestAuthenticator

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "gatekeeper-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}

	if err := app.initThrottle(ctx); err != nil {
		app.closeResources()
		return nil, err
	}

	if err := app.initServices(); err != nil {
		app.closeResources()
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("auth service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"driver", app.cfg.DatabaseDriver,
		"shared_throttle", app.redis != nil,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		app.closeResources()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.closeResources(); err != nil {
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// Handler exposes the router, mainly for in-process tests.
func (app *Application) Handler() http.Handler { return app.router }

func (app *Application) closeResources() error {
	var errs []error

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
			errs = append(errs, err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database", "error", err)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// initDatabase opens the configured driver and applies migrations
func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)

	switch app.cfg.DatabaseDriver {
	case DriverPostgres:
		db, err = postgres.NewStore(ctx, app.cfg.DatabaseURL)
	default:
		db, err = sqlite.NewStore(sqlite.FileDSN(app.cfg.DatabaseFile))
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		app.db = nil
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

// initThrottle picks the shared redis backend when configured, otherwise a
// per-process window.
func (app *Application) initThrottle(ctx context.Context) error {
	cfg := throttle.Config{
		MaxAttempts: app.cfg.LoginMaxAttempts,
		Window:      app.cfg.LoginWindow,
	}

	if app.cfg.LoginMaxAttempts == 0 {
		app.logger.Warn("login throttling disabled")
		app.throttle = throttle.Nop{}
		return nil
	}

	if app.cfg.RedisAddr == "" {
		app.throttle = throttle.NewMemory(cfg)
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     app.cfg.RedisAddr,
		Password: app.cfg.RedisPassword,
		DB:       app.cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to reach redis at %s: %w", app.cfg.RedisAddr, err)
	}

	t, err := throttle.NewRedis(client, cfg)
	if err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to initialize login throttle: %w", err)
	}

	app.redis = client
	app.throttle = t
	app.logger.Info("login throttle shared through redis", "addr", app.cfg.RedisAddr)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	secret, err := LoadTokenSecret(app.cfg)
	if err != nil {
		return fmt.Errorf("failed to load token secret: %w", err)
	}

	app.tokenService, err = service.NewTokenService(secret, service.TokenConfig{
		Issuer: app.cfg.Issuer,
		TTL:    app.cfg.TokenTTL,
		Leeway: app.cfg.TokenLeeway,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	pepper, err := cryptox.LoadOrCreatePepper(app.cfg.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}

	passwords, err := cryptox.NewPasswordEncoder(app.cfg.PasswordScheme, pepper, app.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to initialize password encoder: %w", err)
	}

	identities := store.NewIdentityStore(app.db)

	app.authService = &service.AuthService{
		Identities:            identities,
		Passwords:             passwords,
		Tokens:                app.tokenService,
		Throttle:              app.throttle,
		DefaultAuthorities:    app.cfg.DefaultAuthorities,
		AssignableAuthorities: app.cfg.AssignableAuthorities,
	}
	if err := app.authService.Init(); err != nil {
		return fmt.Errorf("failed to initialize auth service: %w", err)
	}
	app.userService = &service.UserService{Store: app.db}
	app.authenticator = &service.RequestAuthenticator{
		Tokens:     app.tokenService,
		Identities: identities,
	}

	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	publicPaths := httpx.MustPathMatcher(app.cfg.PublicPaths...)
	app.logger.Info("public paths configured", "patterns", publicPaths.Patterns())

	router := httpapi.NewRouter(
		BuildVersion,
		app.db,
		publicPaths,
		app.cfg.RateLimits,
		app.logger,
	)

	// Wire services to router
	router.AuthService = app.authService
	router.TokenService = app.tokenService
	router.UserService = app.userService
	router.Authenticator = app.authenticator
	if app.redis != nil {
		client := app.redis
		router.ThrottlePing = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
