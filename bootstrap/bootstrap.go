// Package bootstrap wires all dependencies and starts the opsml
// server.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/opsml/opsml/adapters/clock"
	"github.com/opsml/opsml/adapters/hasher"
	"github.com/opsml/opsml/adapters/idgen"
	"github.com/opsml/opsml/adapters/metrics"
	"github.com/opsml/opsml/adapters/remote"
	"github.com/opsml/opsml/adapters/sqlite"
	"github.com/opsml/opsml/app"
	"github.com/opsml/opsml/config"
	_ "github.com/opsml/opsml/docs"
	"github.com/opsml/opsml/ports"
	"github.com/opsml/opsml/web"
)

// App represents the running application.
type App struct {
	Config     config.Config
	Logger     zerolog.Logger
	DB         *sqlite.DB
	HTTPServer *http.Server
	Metrics    *metrics.Collector

	Registry  *app.RegistryService
	Artifacts *app.ArtifactService
}

// New creates and initializes the application from config.
func New(cfg config.Config) (*App, error) {
	logger := setupLogger(cfg.Logging)
	logger.Info().
		Str("backend", cfg.Storage.Backend).
		Str("registry_mode", cfg.Registry.Mode).
		Msg("initializing opsml server")

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(prometheus.DefaultRegisterer),
	}

	ctx := context.Background()

	store, err := a.initCardStore(ctx)
	if err != nil {
		return nil, err
	}

	storage, err := app.NewStorageClient(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	a.Registry = app.NewRegistryService(store, idgen.UUID{}, a.Metrics, logger)
	a.Artifacts = app.NewArtifactService(storage, cfg.Limits.DownloadChunkSize, logger)

	handler := web.NewHandler(web.Deps{
		Registry:  a.Registry,
		Artifacts: a.Artifacts,
		Storage:   cfg.Storage,
		Limits:    cfg.Limits,
		Auth:      cfg.Auth,
		Hasher:    hasher.NewBcrypt(0),
		Metrics:   a.Metrics,
		Logger:    logger,
	})

	a.HTTPServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return a, nil
}

// initCardStore opens the local database or a remote registry client
// depending on the configured mode.
func (a *App) initCardStore(ctx context.Context) (ports.CardStore, error) {
	if a.Config.Registry.Mode == config.RegistryModeAPI {
		client := remote.NewClient(remote.ClientConfig{
			BaseURL: a.Config.Registry.ServerURL,
			Token:   a.Config.Storage.Token,
		})
		a.Logger.Info().Str("server", a.Config.Registry.ServerURL).Msg("registry in api mode")
		return remote.NewCardStore(client), nil
	}

	db, err := sqlite.Open(a.Config.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	a.DB = db
	a.Logger.Info().Str("dsn", a.Config.Database.DSN).Msg("database ready")
	return sqlite.NewCardStore(db, clock.Real{}), nil
}

// Run starts the HTTP server and blocks until a shutdown signal.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().Str("addr", a.HTTPServer.Addr).Msg("server listening")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application. In-flight transfers get
// the shutdown timeout to finish.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
