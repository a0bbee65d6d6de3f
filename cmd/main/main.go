package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	goi18n "github.com/nicksnyder/go-i18n/i18n"
	conf "github.com/webitel/form-exporter/config"
	"github.com/webitel/form-exporter/internal/app"
	"github.com/webitel/form-exporter/internal/errors"
	"github.com/webitel/form-exporter/internal/locale"
	"github.com/webitel/form-exporter/internal/model"
	logging "github.com/webitel/form-exporter/internal/otel"
	"google.golang.org/grpc/codes"

	// ------------ logging ------------ //
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	// -------------------- plugin(s) -------------------- //
	_ "github.com/webitel/webitel-go-kit/infra/otel/sdk/log/otlp"
	_ "github.com/webitel/webitel-go-kit/infra/otel/sdk/log/stdout"
	_ "github.com/webitel/webitel-go-kit/infra/otel/sdk/trace/otlp"
	_ "github.com/webitel/webitel-go-kit/infra/otel/sdk/trace/stdout"
)

// Run executes one export with the process arguments and returns the exit
// status.
func Run() (code int) {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			slog.Error("[PANIC RECOVER]", slog.Any("err", panicErr), slog.String("stack", string(debug.Stack())))
			code = 1
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	config, err := conf.LoadConfig(os.Args[1:])
	if err != nil {
		return fail(os.Stderr, err, nil)
	}

	// slog + OTEL logging
	service := resource.NewSchemaless(
		semconv.ServiceName(model.AppServiceName),
		semconv.ServiceVersion(model.CurrentVersion),
		semconv.ServiceNamespace(model.NamespaceName),
	)
	shutdown, err := logging.Setup(ctx, service)
	if err != nil {
		slog.Error("form_exporter.main.telemetry_setup_error", slog.String("error", err.Error()))
	}

	// Initialize the application
	application, err := initApp(config, shutdown)
	if err != nil {
		return fail(os.Stderr, err, translator(config.Export.Lang))
	}
	defer application.Stop()

	// Initialize signal handling for graceful shutdown
	initSignals(cancel)

	slog.Debug("form_exporter.main.configuration_loaded",
		slog.String("db_driver", config.Database.Driver),
		slog.String("form_id", config.Export.FormID),
		slog.String("file_path", config.Export.FilePath),
		slog.Bool("run_registry", config.Redis.Addr != ""),
	)

	// Start the application
	slog.Info("form_exporter.main.starting_application")
	if _, err = application.Start(ctx); err != nil {
		return fail(os.Stderr, err, application.T)
	}
	return 0
}

// initApp builds the App. Until it exists nothing else owns shutdown, so a
// failed build flushes the telemetry pipeline itself.
func initApp(config *conf.AppConfig, shutdown func(context.Context) error) (*app.App, error) {
	application, err := app.New(config, shutdown)
	if err != nil {
		if shutdown != nil {
			if shutdownErr := shutdown(context.Background()); shutdownErr != nil {
				slog.Error("form_exporter.main.shutdown_hook_error", slog.String("error", shutdownErr.Error()))
			}
		}
		return nil, err
	}
	return application, nil
}

func initSignals(cancel context.CancelFunc) {
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		s := <-sigch
		slog.Info("form_exporter.main.received_kill_signal",
			slog.String("signal", s.String()),
			slog.String("status", "cancelling export"),
		)
		cancel()
	}()
}

// fail prints the user facing message of err and maps its code to the
// exit status.
func fail(w io.Writer, err error, T goi18n.TranslateFunc) int {
	slog.Error("form_exporter.main.export_failed", slog.String("error", errors.Details(err)))
	errors.Translate(err, T)
	fmt.Fprintln(w, errors.Message(err))
	return ExitCode(err)
}

// ExitCode classifies err: 2 for bad input, 3 for a missing forms plugin,
// 4 when there is nothing to export and 1 otherwise.
func ExitCode(err error) int {
	switch errors.Code(err) {
	case codes.OK:
		return 0
	case codes.InvalidArgument:
		return 2
	case codes.FailedPrecondition:
		return 3
	case codes.NotFound:
		return 4
	default:
		return 1
	}
}

func translator(lang string) goi18n.TranslateFunc {
	T, err := locale.Tfunc(lang)
	if err != nil {
		return nil
	}
	return T
}
