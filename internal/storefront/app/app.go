package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/http"
	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/service"
	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/session"
	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/store"
	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/store/drivers/sqlite"
	"github.com/kyoya-oga/enterprise-ec-demo/pkg/jwtx"
	"github.com/kyoya-oga/enterprise-ec-demo/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the storefront auth service with all its
// dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db        store.Store
	blacklist session.Blacklist

	tokenService        *service.TokenService
	userService         *service.UserService
	resolver            *service.SessionResolver
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "storefront-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initBlacklist(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	if cfg.SeedDemoData && !cfg.IsProduction() {
		ctx := slogx.WithContext(context.Background(), app.logger)
		if err := app.userService.SeedDemoUsers(ctx); err != nil {
			app.logger.Warn("demo user seeding failed", "error", err)
		}
	}

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("storefront auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
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

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down storefront auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if closer, ok := app.blacklist.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			app.logger.Error("error closing blacklist backend", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("storefront auth service stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initBlacklist() error {
	if app.cfg.RedisAddr == "" {
		app.blacklist = session.NewMemory(app.logger)
		app.logger.Info("using in-process blacklist; revocation is per-instance only")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	bl, err := session.NewRedis(ctx, session.RedisConfig{
		Addr:     app.cfg.RedisAddr,
		Password: app.cfg.RedisPassword,
		DB:       app.cfg.RedisDB,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to redis blacklist: %w", err)
	}
	app.blacklist = bl
	app.logger.Info("using redis blacklist", "addr", app.cfg.RedisAddr)
	return nil
}

func (app *Application) initServices() error {
	tokens, err := service.NewTokenService(
		[]byte(app.cfg.JWTSecret),
		[]byte(app.cfg.JWTRefreshSecret),
		app.cfg.Issuer,
		app.cfg.Audience,
		app.cfg.AccessTokenTTL,
		app.cfg.RefreshTokenTTL,
		app.db,
		app.blacklist,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}
	app.tokenService = tokens

	accessVerifier, err := jwtx.NewVerifier([]byte(app.cfg.JWTSecret), app.cfg.Issuer, app.cfg.Audience)
	if err != nil {
		return fmt.Errorf("failed to initialize access verifier: %w", err)
	}

	app.userService = &service.UserService{Store: app.db}
	app.resolver = &service.SessionResolver{
		Verifier:  accessVerifier,
		Blacklist: app.blacklist,
		Users:     app.db.Users(),
	}
	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.blacklist,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		httpapi.CookieBinding{Secure: app.cfg.IsProduction()},
		app.db,
		app.blacklist,
		BuildVersion,
		app.logger,
	)

	router.Resolver = app.resolver
	router.TokenService = app.tokenService
	router.UserService = app.userService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
