package observability

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/caseforge/caseforge-backend/internal/platform/envutil"
	"github.com/caseforge/caseforge-backend/internal/platform/logger"
)

type Config struct {
	ServiceName string
	Environment string
	Version     string
}

var (
	initOnce sync.Once
	shutdown func(context.Context) error
)

// Init wires the global tracer provider. Tracing is off unless OTEL_ENABLED
// is set; with no OTLP endpoint configured, spans go to stdout. Returns a
// shutdown func (nil when tracing is disabled).
func Init(ctx context.Context, log *logger.Logger, cfg Config) func(context.Context) error {
	initOnce.Do(func() {
		if !envutil.Bool("OTEL_ENABLED", false) {
			return
		}
		serviceName := strings.TrimSpace(cfg.ServiceName)
		if serviceName == "" {
			serviceName = "caseforge"
		}
		res, err := resource.New(ctx, resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(strings.TrimSpace(cfg.Version)),
			attribute.String("deployment.environment", strings.TrimSpace(cfg.Environment)),
		))
		if err != nil {
			log.Warn("otel resource init failed, continuing", "error", err)
		}

		exporter, expErr := newExporter(ctx, log)
		if expErr != nil {
			log.Warn("otel exporter init failed, continuing", "error", expErr)
		}
		opts := []sdktrace.TracerProviderOption{
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio()))),
			sdktrace.WithResource(res),
		}
		if exporter != nil {
			opts = append(opts, sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)))
		}
		tp := sdktrace.NewTracerProvider(opts...)
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
		shutdown = tp.Shutdown
		log.Info("otel tracing initialized", "service", serviceName)
	})
	return shutdown
}

func sampleRatio() float64 {
	ratio := 0.1
	if v := envutil.String("OTEL_SAMPLER_RATIO", ""); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			ratio = f
		}
	}
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1
	}
	return ratio
}

func newExporter(ctx context.Context, log *logger.Logger) (sdktrace.SpanExporter, error) {
	endpoint := envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	if endpoint == "" {
		log.Warn("otel using stdout exporter, no OTLP endpoint configured")
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	}
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
	if envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false) {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return otlptracehttp.New(ctx, opts...)
}
