// Package telemetry sets up OpenTelemetry metrics for rtreectl and exposes
// them in the Prometheus format.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"
)

// Config holds all the configuration for the telemetry system.
type Config struct {
	// Enabled toggles metrics on or off.
	Enabled bool `yaml:"enabled"`
	// ServiceName is the name of the service reported with the metrics.
	ServiceName string `yaml:"service_name"`
	// Addr is the address on which to serve the /metrics endpoint, e.g.
	// ":9464". When empty no server is started, but Handler still works.
	Addr string `yaml:"addr"`
}

// Telemetry represents the active telemetry components.
type Telemetry struct {
	MeterProvider *sdkmetric.MeterProvider
	Meter         metric.Meter
	// Handler serves the collected metrics. It's nil when telemetry is
	// disabled.
	Handler http.Handler
	// Addr is the address the metrics server is listening on, if any.
	Addr string
}

// ShutdownFunc gracefully shuts down the metrics server and meter provider.
type ShutdownFunc func(ctx context.Context) error

// New initialises OpenTelemetry metrics backed by a Prometheus exporter. The
// exporter writes to its own registry, so several Telemetry values can live in
// one process.
func New(config Config, log *zap.Logger) (*Telemetry, ShutdownFunc, error) {
	if !config.Enabled {
		return &Telemetry{
			Meter: noop.NewMeterProvider().Meter(""),
		}, func(ctx context.Context) error { return nil }, nil
	}
	if config.ServiceName == "" {
		config.ServiceName = "rtreectl"
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(config.ServiceName),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create resource: %w", err)
	}

	registry := prom.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	tel := &Telemetry{
		MeterProvider: meterProvider,
		Meter:         meterProvider.Meter(config.ServiceName),
		Handler:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}

	var server *http.Server
	if config.Addr != "" {
		// Listen up front so that a bad address fails here rather than in
		// the background.
		ln, err := net.Listen("tcp", config.Addr)
		if err != nil {
			_ = meterProvider.Shutdown(context.Background())
			return nil, nil, fmt.Errorf("failed to listen on %s: %w", config.Addr, err)
		}
		tel.Addr = ln.Addr().String()

		mux := http.NewServeMux()
		mux.Handle("/metrics", tel.Handler)
		server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", zap.Error(err))
			}
		}()
		log.Info("serving metrics", zap.String("addr", tel.Addr))
	}

	shutdown := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if server != nil {
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("failed to shutdown metrics server: %w", err)
			}
		}
		if err := meterProvider.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown meter provider: %w", err)
		}
		return nil
	}

	return tel, shutdown, nil
}
