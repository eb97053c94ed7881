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

	httpapi "github.com/JanssenProject/jans-sub054/internal/authz/http"
	"github.com/JanssenProject/jans-sub054/internal/authz/requestobject"
	"github.com/JanssenProject/jans-sub054/internal/authz/service"
	"github.com/JanssenProject/jans-sub054/internal/authz/store"
	"github.com/JanssenProject/jans-sub054/internal/authz/store/drivers/redis"
	"github.com/JanssenProject/jans-sub054/internal/authz/store/drivers/sqlite"
	"github.com/JanssenProject/jans-sub054/pkg/cryptox"
	"github.com/JanssenProject/jans-sub054/pkg/jwtx"
	"github.com/JanssenProject/jans-sub054/pkg/slogx"
)

const (
	// BuildVersion is overridden at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the authorization server together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db         store.Store
	pars       store.PARs
	redisPars  *redis.PARStore // nil unless the redis PAR store is selected
	sealer     *cryptox.Sealer
	keyManager *jwtx.KeyManager

	// Services
	clients             *service.ClientRegistry
	parService          *service.ParService
	authorizeService    *service.AuthorizeService
	tokenService        *service.TokenService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates an Application with every dependency initialized.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "authz-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(app.cfg.PepperFile)

	sealer, ephemeral, err := cryptox.LoadSealer(cfg.MasterKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load master key: %w", err)
	}
	if ephemeral {
		app.logger.Warn("no master key configured, sealed secrets will not survive a restart")
		if cfg.KeyStorageMode == KeyStoragePersistent {
			return nil, errors.New("persistent key storage requires a master key")
		}
	}
	app.sealer = sealer

	// Database first, persistent keys live in it
	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := app.initParStore(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	keyManager, err := InitKeys(ctx, app.cfg, app.db, app.sealer, app.logger)
	if err != nil {
		app.closeStores()
		return nil, fmt.Errorf("failed to initialize JWT keys: %w", err)
	}
	app.keyManager = keyManager

	if cfg.ClientsFile != "" {
		nc, nu, err := LoadSeedFile(ctx, cfg.ClientsFile, app.db, app.sealer)
		if err != nil {
			app.closeStores()
			return nil, fmt.Errorf("failed to seed clients: %w", err)
		}
		app.logger.Info("seed applied", "file", cfg.ClientsFile, "clients", nc, "users", nu)
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Handler returns the root HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("authz service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"issuer", app.cfg.Issuer,
		"mode", app.cfg.ServerMode,
		"fapi", app.cfg.FAPI,
		"par_store", app.cfg.ParStoreDriver,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			app.closeStores()
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

// Shutdown drains in-flight requests, stops housekeeping and closes the stores.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down authz service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.closeStores(); err != nil {
		return err
	}

	app.logger.Info("authz service stopped")
	return nil
}

func (app *Application) closeStores() error {
	var errs []error
	if app.redisPars != nil {
		if err := app.redisPars.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
			errs = append(errs, err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// initDatabase opens the SQLite store and applies migrations.
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

// initParStore picks where pushed authorization requests live. Redis lets
// several instances share them.
func (app *Application) initParStore(ctx context.Context) error {
	if app.cfg.ParStoreDriver != ParStoreRedis {
		app.pars = app.db.PARs()
		return nil
	}

	rp, err := redis.NewPARStore(ctx, redis.Config{
		Addr:     app.cfg.RedisAddr,
		Username: app.cfg.RedisUsername,
		Password: app.cfg.RedisPassword,
		DB:       app.cfg.RedisDB,
	})
	if err != nil {
		return fmt.Errorf("failed to connect PAR store: %w", err)
	}
	app.redisPars = rp
	app.pars = rp

	app.logger.Info("redis PAR store connected", "addr", app.cfg.RedisAddr, "db", app.cfg.RedisDB)
	return nil
}

// initServices builds the engine. Every service receives the same Config.
func (app *Application) initServices() {
	cfg := app.cfg.ServiceConfig()

	app.clients = &service.ClientRegistry{Store: app.db, Sealer: app.sealer}
	grants := &service.GrantRegistry{Store: app.db, Config: cfg}
	users := &service.UserAuthenticator{Store: app.db}

	app.parService = &service.ParService{
		PARs:      app.pars,
		Clients:   app.clients,
		Validator: requestobject.NewValidator(cfg.Issuer, app.keyManager),
		Config:    cfg,
	}
	app.authorizeService = &service.AuthorizeService{
		Clients: app.clients,
		Pars:    app.parService,
		Grants:  grants,
		Users:   users,
		Config:  cfg,
	}
	app.tokenService = &service.TokenService{
		Store:   app.db,
		Clients: app.clients,
		Grants:  grants,
		Issuer:  &service.TokenIssuer{Keys: app.keyManager, Config: cfg},
		Users:   users,
		DPoP:    &service.DPoPValidator{},
		Config:  cfg,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.pars,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP builds the router and the HTTP server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keyManager,
		BuildVersion,
		app.db,
		app.cfg.RequestTimeout,
		app.logger,
	)

	router.Clients = app.clients
	router.ParService = app.parService
	router.AuthorizeService = app.authorizeService
	router.TokenService = app.tokenService
	router.RateLimits = app.cfg.RateLimits
	if app.redisPars != nil {
		router.ReadinessChecks["redis"] = app.redisPars.Ping
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
