package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes gateway-level instruments.
type Metrics struct {
	cacheHits         metric.Int64Counter
	cacheMisses       metric.Int64Counter
	connectFailures   metric.Int64Counter
	evictions         metric.Int64Counter
	provisionRuns     metric.Int64Counter
	provisionDuration metric.Float64Histogram
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the gateway metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "tenantgate"
	}
	meter := provider.Meter(name)

	cacheHits, err := meter.Int64Counter("tenantgate_router_cache_hits_total")
	if err != nil {
		return nil, err
	}
	cacheMisses, err := meter.Int64Counter("tenantgate_router_cache_misses_total")
	if err != nil {
		return nil, err
	}
	connectFailures, err := meter.Int64Counter("tenantgate_router_connect_failures_total")
	if err != nil {
		return nil, err
	}
	evictions, err := meter.Int64Counter("tenantgate_router_evictions_total")
	if err != nil {
		return nil, err
	}
	provisionRuns, err := meter.Int64Counter("tenantgate_provision_runs_total")
	if err != nil {
		return nil, err
	}
	provisionDuration, err := meter.Float64Histogram(
		"tenantgate_provision_duration_seconds",
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		cacheHits:         cacheHits,
		cacheMisses:       cacheMisses,
		connectFailures:   connectFailures,
		evictions:         evictions,
		provisionRuns:     provisionRuns,
		provisionDuration: provisionDuration,
	}, nil
}

// RecordCacheHit increments router cache hit counts.
func (m *Metrics) RecordCacheHit(ctx context.Context) {
	if m == nil {
		return
	}
	m.cacheHits.Add(ctx, 1)
}

// RecordCacheMiss increments router cache miss counts.
func (m *Metrics) RecordCacheMiss(ctx context.Context) {
	if m == nil {
		return
	}
	m.cacheMisses.Add(ctx, 1)
}

// RecordConnectFailure increments tenant connect failure counts.
func (m *Metrics) RecordConnectFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.connectFailures.Add(ctx, 1)
}

// RecordEviction increments router eviction counts.
func (m *Metrics) RecordEviction(ctx context.Context) {
	if m == nil {
		return
	}
	m.evictions.Add(ctx, 1)
}

// RecordProvision records one provisioning run with its outcome and duration.
func (m *Metrics) RecordProvision(ctx context.Context, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))
	m.provisionRuns.Add(ctx, 1, attrs)
	m.provisionDuration.Record(ctx, elapsed.Seconds(), attrs)
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}
