package usecase

import (
	"context"

	"github.com/riskibarqy/athlete-network/internal/platform/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var usecaseTracer = otel.Tracer("athlete-network/internal/usecase")

func startUsecaseSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracing.StartChild(ctx, usecaseTracer, name, trace.WithSpanKind(trace.SpanKindInternal))
}
