package httpapi

import (
	"context"
	"strings"

	"github.com/riskibarqy/athlete-network/internal/platform/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var apiTracer = otel.Tracer("athlete-network/internal/interfaces/httpapi")

// startSpan only records handler spans; middleware and response helpers share the request span.
func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if !shouldCreateHTTPAPISpan(name) {
		return tracing.StartChild(ctx, apiTracer, "")
	}
	return tracing.StartChild(ctx, apiTracer, name)
}

func shouldCreateHTTPAPISpan(name string) bool {
	return strings.HasPrefix(name, "httpapi.Handler.")
}
