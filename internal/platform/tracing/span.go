package tracing

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

var noopSpan = trace.SpanFromContext(context.Background())

// StartChild opens a span only under an existing valid parent. Untraced requests,
// such as filtered health checks, get a no-op span instead of a detached root.
func StartChild(ctx context.Context, tracer trace.Tracer, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if name == "" || !trace.SpanFromContext(ctx).SpanContext().IsValid() {
		return ctx, noopSpan
	}
	return tracer.Start(ctx, name, opts...)
}
