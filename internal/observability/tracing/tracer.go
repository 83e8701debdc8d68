package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "wpdesk"

// GetTracer returns the tracer used for server and outbound client spans.
// It is resolved from the global provider on every call so that a provider
// installed after package init still takes effect.
//
//	ctx, span := tracing.GetTracer().Start(ctx, "wordpress.list_posts")
//	defer span.End()
func GetTracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// Setup installs an SDK tracer provider and the W3C trace-context propagator
// as process globals. A nil exporter keeps spans in-process only, which still
// gives every request a trace ID for log correlation.
func Setup(version string, exporter sdktrace.SpanExporter) (shutdown func(context.Context) error) {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", instrumentationName),
			attribute.String("service.version", version),
		)),
	}
	if exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}
	tp := sdktrace.NewTracerProvider(opts...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp.Shutdown
}
