package logging

import (
	"context"
	"log/slog"
	"os"

	"github.com/webitel/form-exporter/internal/model"
	slogutil "github.com/webitel/webitel-go-kit/infra/otel/log/bridge/slog"
	otelsdk "github.com/webitel/webitel-go-kit/infra/otel/sdk"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/sdk/resource"

	_ "github.com/webitel/webitel-go-kit/infra/otel/sdk/log/otlp"
	_ "github.com/webitel/webitel-go-kit/infra/otel/sdk/log/stdout"
)

// Setup routes slog.Default() through OpenTelemetry and returns the
// shutdown func of the telemetry pipeline. The level is read from
// OTEL_LOG_LEVEL and defaults to warn so that notices stay readable.
func Setup(ctx context.Context, service *resource.Resource) (func(context.Context) error, error) {
	var verbose slog.LevelVar
	verbose.Set(slog.LevelWarn)
	if input := os.Getenv("OTEL_LOG_LEVEL"); input != "" {
		_ = verbose.UnmarshalText([]byte(input))
	}

	shutdown, err := otelsdk.Configure(
		ctx,
		otelsdk.WithResource(service),
		otelsdk.WithLogBridge(func() {
			// Redirect slog.Default() to OpenTelemetry
			stdlog := slog.New(
				slogutil.WithLevel(
					&verbose,
					otelslog.NewHandler(model.AppServiceName),
				),
			)
			slog.SetDefault(stdlog)
		}),
	)
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "form_exporter.main.telemetry_configured")
	return shutdown, nil
}
