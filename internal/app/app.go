package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	goi18n "github.com/nicksnyder/go-i18n/i18n"
	cfg "github.com/webitel/form-exporter/config"
	"github.com/webitel/form-exporter/internal/cache"
	rediscache "github.com/webitel/form-exporter/internal/cache/redis"
	"github.com/webitel/form-exporter/internal/errors"
	"github.com/webitel/form-exporter/internal/locale"
	"github.com/webitel/form-exporter/internal/model"
	"github.com/webitel/form-exporter/internal/service"
	"github.com/webitel/form-exporter/internal/store"
	"github.com/webitel/form-exporter/internal/store/postgres"
	"github.com/webitel/form-exporter/internal/store/sqldb"
)

type App struct {
	Config   *cfg.AppConfig
	log      *slog.Logger
	shutdown func(ctx context.Context) error
	Store    store.Store
	Cache    cache.Cache
	T        goi18n.TranslateFunc
	Exporter service.ExportService
}

// New creates a fully initialized App. opts are passed to the export
// service after the ones derived from config.
func New(config *cfg.AppConfig, shutdown func(ctx context.Context) error, opts ...service.Option) (*App, error) {
	app := &App{
		Config:   config,
		shutdown: shutdown,
		log:      slog.Default().With(slog.String("service", model.AppServiceName)),
	}

	if err := app.initLocale(); err != nil {
		return nil, err
	}
	if err := app.initStore(); err != nil {
		return nil, err
	}
	if err := app.initRedis(); err != nil {
		return nil, err
	}
	if err := app.initExporter(opts); err != nil {
		app.closeCache()
		return nil, err
	}

	return app, nil
}

// --------- Private init methods ---------

func (app *App) initLocale() error {
	T, err := locale.Tfunc(app.Config.Export.Lang)
	if err != nil {
		return errors.InvalidArgument(fmt.Sprintf("Unsupported language %q", app.Config.Export.Lang),
			errors.WithID("config.export.lang"), errors.WithCause(err))
	}
	app.T = T
	return nil
}

func (app *App) initStore() error {
	if app.Config.Database == nil {
		return errors.New("database config is nil")
	}
	if _, err := store.NewTables(app.Config.Database.TablePrefix); err != nil {
		return errors.InvalidArgument(fmt.Sprintf("Invalid table prefix %q", app.Config.Database.TablePrefix),
			errors.WithID("config.database.table_prefix"), errors.WithCause(err))
	}
	if app.Config.Database.Driver == "postgres" {
		app.Store = postgres.New(app.Config.Database)
		return nil
	}
	s, err := sqldb.New(app.Config.Database)
	if err != nil {
		return errors.New("unable to initialize store", errors.WithCause(err))
	}
	app.Store = s
	return nil
}

// initRedis enables the run registry only when an address is configured.
func (app *App) initRedis() error {
	if app.Config.Redis == nil || app.Config.Redis.Addr == "" {
		return nil
	}
	redisCache, err := rediscache.NewRedisCache(
		app.Config.Redis.Addr,
		app.Config.Redis.Password,
		app.Config.Redis.DB,
		app.Config.Redis.LockTTL,
	)
	if err != nil {
		return errors.New("unable to initialize Redis", errors.WithCause(err))
	}
	app.Cache = redisCache
	return nil
}

func (app *App) initExporter(opts []service.Option) error {
	forms := app.Store.Forms()
	if forms == nil {
		return errors.Internal("form store is not available")
	}

	base := []service.Option{
		service.WithOutput(os.Stdout),
		service.WithTranslator(app.T),
		service.WithBaseDir(app.Config.Export.BaseDir),
		service.WithTimeLayout(app.Config.Export.TimeLayout),
	}

	exporter, err := service.NewExportService(forms, app.Cache, app.log, append(base, opts...)...)
	if err != nil {
		return err
	}
	app.Exporter = exporter
	return nil
}

// Start opens the store and runs the configured export once.
func (app *App) Start(ctx context.Context) (*model.ExportResult, error) {
	if err := app.Store.Open(); err != nil {
		return nil, errors.Internal("failed to open store", errors.WithID("app.store.open"), errors.WithCause(err))
	}

	export := app.Config.Export
	return app.Exporter.Export(ctx, service.RawRequest{
		FormID:    export.FormID,
		FilePath:  export.FilePath,
		StartDate: export.StartDate,
		EndDate:   export.EndDate,
	})
}

// Stop releases the store, the cache and the telemetry pipeline.
func (app *App) Stop() error {
	slog.Debug("form_exporter.main.stop_starting")

	if app.Store != nil {
		if err := app.Store.Close(); err != nil {
			slog.Error("form_exporter.main.store_close_error", slog.String("error", err.Error()))
		}
	}

	app.closeCache()

	if app.shutdown != nil {
		if err := app.shutdown(context.Background()); err != nil {
			slog.Error("form_exporter.main.shutdown_hook_error", slog.String("error", err.Error()))
		}
	}

	slog.Debug("form_exporter.main.stop_complete")
	return nil
}

func (app *App) closeCache() {
	if app.Cache == nil {
		return
	}
	if err := app.Cache.Close(); err != nil {
		slog.Error("form_exporter.main.cache_close_error", slog.String("error", err.Error()))
	}
	app.Cache = nil
}
