package telemetry

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	serviceName    = "mindengage-interview"
	serviceVersion = "1.0.0"
)

type Config struct {
	Endpoint string
	Enabled  bool
	Insecure bool
}

func LoadConfig() Config {
	enabled, _ := strconv.ParseBool(os.Getenv("OTEL_ENABLED"))
	insecure, _ := strconv.ParseBool(os.Getenv("OTEL_INSECURE"))
	return Config{
		Endpoint: os.Getenv("OTEL_ENDPOINT"),
		Enabled:  enabled,
		Insecure: insecure,
	}
}

// Exporter counts engine events as OTEL metrics.
type Exporter struct {
	shutdown    func(context.Context) error
	entered     metric.Int64Counter
	transitions metric.Int64Counter
	submissions metric.Int64Counter
}

// New starts an OTLP/gRPC metrics pipeline. It returns NoOp when disabled.
func New(ctx context.Context, cfg Config) (Recorder, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return NoOp{}, nil
	}
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts,
			otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
			otlpmetricgrpc.WithInsecure())
	}
	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)
	e, err := NewWithProvider(provider)
	if err != nil {
		return nil, err
	}
	e.shutdown = provider.Shutdown
	return e, nil
}

// NewWithProvider builds instruments on an existing provider.
func NewWithProvider(mp metric.MeterProvider) (*Exporter, error) {
	meter := mp.Meter(serviceName)
	entered, err := meter.Int64Counter("interview_sessions_entered_total",
		metric.WithDescription("Session entries by bootstrap outcome"),
		metric.WithUnit("{session}"))
	if err != nil {
		return nil, fmt.Errorf("creating entered counter: %w", err)
	}
	transitions, err := meter.Int64Counter("interview_transitions_total",
		metric.WithDescription("Cursor transitions by cause and outcome"),
		metric.WithUnit("{transition}"))
	if err != nil {
		return nil, fmt.Errorf("creating transitions counter: %w", err)
	}
	submissions, err := meter.Int64Counter("interview_submissions_total",
		metric.WithDescription("Submission attempts by outcome"),
		metric.WithUnit("{submission}"))
	if err != nil {
		return nil, fmt.Errorf("creating submissions counter: %w", err)
	}
	return &Exporter{entered: entered, transitions: transitions, submissions: submissions}, nil
}

func (e *Exporter) SessionEntered(ctx context.Context, kind string) {
	e.entered.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (e *Exporter) Transition(ctx context.Context, cause, outcome string) {
	e.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cause", cause),
		attribute.String("outcome", outcome)))
}

func (e *Exporter) Submission(ctx context.Context, outcome string) {
	e.submissions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// Close flushes pending metrics.
func (e *Exporter) Close(ctx context.Context) error {
	if e.shutdown == nil {
		return nil
	}
	return e.shutdown(ctx)
}
