// Package trace opens OpenTelemetry spans named after the module
// pipeline's steps. The engine opens one span per Realm.ImportModule call
// (StepImport) and one per Realm.CommonJSRequire call (StepLoad); the
// resolve, link and evaluate steps inside them get no spans of their own.
package trace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName is the tracer name registered with the global
// TracerProvider; embedders without a provider installed get otel's
// no-op tracer, so tracing is always safe to call.
const InstrumentationName = "github.com/lightsourceengine/jjs-go/module"

// Tracer returns the package-scoped tracer, resolved against whatever
// TracerProvider is currently installed globally (otel.SetTracerProvider).
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// Step names mirror the module pipeline's named operations.
const (
	StepResolve  = "module.resolve"
	StepLoad     = "module.load"
	StepLink     = "module.link"
	StepEvaluate = "module.evaluate"
	StepImport   = "module.import"
)

// StartStep opens a span for a pipeline step tagged with the specifier
// and module kind, returning the derived context and a finisher. The
// finisher must be called exactly once, typically via defer.
func StartStep(ctx context.Context, step string, specifier string, kind string) (context.Context, func(err error)) {
	ctx, span := Tracer().Start(ctx, step, trace.WithAttributes(
		attribute.String("module.specifier", specifier),
		attribute.String("module.kind", kind),
	))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}
