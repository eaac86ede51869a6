package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// TelemetryConfig controls how metrics are exported.
type TelemetryConfig struct {
	Enabled      bool
	ServiceName  string
	OtlpEndpoint string
	OtlpInsecure bool
}

// Setup configures OpenTelemetry metrics with a Prometheus exporter and an
// optional OTLP push exporter. It returns a Recorder, the Prometheus HTTP
// handler, and a shutdown function.
func Setup(ctx context.Context, cfg TelemetryConfig) (*Recorder, http.Handler, func(context.Context) error, error) {
	if !cfg.Enabled {
		return NewRecorder(), nil, func(context.Context) error { return nil }, nil
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = "scoresync"
	}

	reg := prometheus.NewRegistry()
	promExp, err := promexporter.New(promexporter.WithRegisterer(reg))
	if err != nil {
		return nil, nil, nil, err
	}

	opts := []sdkmetric.Option{sdkmetric.WithReader(promExp)}

	if cfg.OtlpEndpoint != "" {
		otlpOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.OtlpEndpoint)}
		if cfg.OtlpInsecure {
			otlpOpts = append(otlpOpts, otlpmetrichttp.WithInsecure())
		}
		otlpExp, err := otlpmetrichttp.New(ctx, otlpOpts...)
		if err != nil {
			return nil, nil, nil, err
		}
		opts = append(opts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(otlpExp, sdkmetric.WithInterval(15*time.Second))))
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)),
	)
	if err != nil {
		return nil, nil, nil, err
	}
	opts = append(opts, sdkmetric.WithResource(res))

	provider := sdkmetric.NewMeterProvider(opts...)

	inst, err := newOtelInstruments(provider)
	if err != nil {
		return nil, nil, nil, err
	}

	rec := newRecorder(inst)
	shutdown := func(c context.Context) error {
		return provider.Shutdown(c)
	}

	return rec, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), shutdown, nil
}

type otelInstruments struct {
	ctx              context.Context
	reconnects       metric.Int64Counter
	framesTotal      metric.Int64Counter
	framesDropped    metric.Int64Counter
	commandsTotal    metric.Int64Counter
	commandFailures  metric.Int64Counter
	backendCalls     metric.Int64Counter
	backendErrors    metric.Int64Counter
	backendLatencyMs metric.Float64Histogram
	requests         metric.Int64Counter
	requestLatencyMs metric.Float64Histogram
}

func newOtelInstruments(provider metric.MeterProvider) (*otelInstruments, error) {
	meter := provider.Meter("scoresync")

	reconnects, err := meter.Int64Counter("socket_reconnects_total")
	if err != nil {
		return nil, err
	}
	framesTotal, err := meter.Int64Counter("socket_frames_total")
	if err != nil {
		return nil, err
	}
	framesDropped, err := meter.Int64Counter("socket_frames_dropped_total")
	if err != nil {
		return nil, err
	}
	commandsTotal, err := meter.Int64Counter("socket_commands_total")
	if err != nil {
		return nil, err
	}
	commandFailures, err := meter.Int64Counter("socket_command_failures_total")
	if err != nil {
		return nil, err
	}
	backendCalls, err := meter.Int64Counter("backend_calls_total")
	if err != nil {
		return nil, err
	}
	backendErrors, err := meter.Int64Counter("backend_errors_total")
	if err != nil {
		return nil, err
	}
	backendLatency, err := meter.Float64Histogram("backend_call_duration_ms")
	if err != nil {
		return nil, err
	}
	requests, err := meter.Int64Counter("http_requests_total")
	if err != nil {
		return nil, err
	}
	requestLatency, err := meter.Float64Histogram("http_request_duration_ms")
	if err != nil {
		return nil, err
	}

	return &otelInstruments{
		ctx:              context.Background(),
		reconnects:       reconnects,
		framesTotal:      framesTotal,
		framesDropped:    framesDropped,
		commandsTotal:    commandsTotal,
		commandFailures:  commandFailures,
		backendCalls:     backendCalls,
		backendErrors:    backendErrors,
		backendLatencyMs: backendLatency,
		requests:         requests,
		requestLatencyMs: requestLatency,
	}, nil
}

func (o *otelInstruments) recordReconnect() {
	if o == nil {
		return
	}
	o.reconnects.Add(o.ctx, 1)
}

func (o *otelInstruments) recordFrame(frameType string, err error) {
	if o == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(AttrFrameType, frameType))
	o.framesTotal.Add(o.ctx, 1, attrs)
	if err != nil {
		o.framesDropped.Add(o.ctx, 1, attrs)
	}
}

func (o *otelInstruments) recordCommand(commandType string, err error) {
	if o == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(AttrFrameType, commandType))
	if err != nil {
		o.commandFailures.Add(o.ctx, 1, attrs)
		return
	}
	o.commandsTotal.Add(o.ctx, 1, attrs)
}

func (o *otelInstruments) recordBackendCall(operation string, duration time.Duration, err error) {
	if o == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(AttrOperation, operation))
	o.backendCalls.Add(o.ctx, 1, attrs)
	o.backendLatencyMs.Record(o.ctx, float64(duration.Milliseconds()), attrs)
	if err != nil {
		o.backendErrors.Add(o.ctx, 1, attrs)
	}
}

func (o *otelInstruments) recordHTTPRequest(method, path string, status int, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrMethod, method),
		attribute.String(AttrPath, path),
		attribute.Int(AttrStatus, status),
	)
	o.requests.Add(o.ctx, 1, attrs)
	o.requestLatencyMs.Record(o.ctx, float64(duration.Milliseconds()), attrs)
}
