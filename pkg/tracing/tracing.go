// Package tracing sets up OpenTelemetry trace export for visit lifecycles.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/odvcencio/detour/pkg/visit"
)

// TracerProvider holds the OpenTelemetry tracer provider
type TracerProvider struct {
	provider *sdktrace.TracerProvider
}

// NewTracerProvider creates a new OpenTelemetry tracer provider
func NewTracerProvider(serviceName string) (*TracerProvider, error) {
	// Create stdout exporter for development
	exporter, err := stdouttrace.New(
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	// Create resource with service information
	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String("1.0.0"),
			attribute.String("environment", "development"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	// Set global tracer provider
	otel.SetTracerProvider(provider)

	return &TracerProvider{
		provider: provider,
	}, nil
}

// Shutdown gracefully shuts down the tracer provider
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	return tp.provider.Shutdown(ctx)
}

// Tracer returns the tracer for visit instrumentation
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartVisitSpan starts a span covering one visit from start to a terminal
// state. The caller ends the span when the visit finishes.
func StartVisitSpan(ctx context.Context, visitID, location, action string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "visit",
		trace.WithAttributes(
			AttrVisitID.String(visitID),
			AttrVisitLocation.String(location),
			AttrVisitAction.String(action),
		),
	)
}

// AddEvent adds an event to the current span
func AddEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
}

// EndSpan ends the current span, if one is recording
func EndSpan(ctx context.Context) {
	span := trace.SpanFromContext(ctx)
	span.End()
}

// SetAttributes sets attributes on the current span
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attrs...)
}

// Common attribute keys for visit tracing
var (
	AttrVisitID       = attribute.Key("detour.visit.id")
	AttrVisitLocation = attribute.Key("detour.visit.location")
	AttrVisitAction   = attribute.Key("detour.visit.action")
	AttrVisitState    = attribute.Key("detour.visit.state")
	AttrVisitKind     = attribute.Key("detour.visit.kind")

	AttrRequestStatusCode = attribute.Key("detour.request.status_code")
	AttrRedirectLocation  = attribute.Key("detour.redirect.location")
)
