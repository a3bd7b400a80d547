package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"go.opentelemetry.io/otel/trace"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"":        LevelInfo,
		"DEBUG":   LevelDebug,
		"warning": LevelWarn,
		" error ": LevelError,
	}
	for raw, want := range cases {
		got, err := ParseLevel(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got != want {
			t.Fatalf("parse %q: want %s got %s", raw, want, got)
		}
	}

	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatalf("expected error for unsupported level")
	}
}

func TestLogger_InfoContextAddsTraceFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONWriter(&buf, LevelDebug).With("component", "test")

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	logger.InfoContext(ctx, "membership added", "club_id", "c1", "error", errors.New("none"))

	var line map[string]any
	if err := sonic.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if line["msg"] != "membership added" {
		t.Fatalf("unexpected msg: %v", line["msg"])
	}
	if line["club_id"] != "c1" || line["component"] != "test" {
		t.Fatalf("missing structured fields: %v", line)
	}
	if line["trace_id"] != traceID.String() || line["span_id"] != spanID.String() {
		t.Fatalf("missing trace fields: %v", line)
	}
}

func TestLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONWriter(&buf, LevelWarn)

	logger.Info("dropped")
	logger.Warn("kept")

	if strings.Contains(buf.String(), "dropped") {
		t.Fatalf("info line should be filtered at warn level: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "kept") {
		t.Fatalf("warn line missing: %s", buf.String())
	}
}

func TestLogger_NilReceiverFallsBackToDefault(t *testing.T) {
	var logger *Logger
	logger.Info("no panic")
	logger.WarnContext(context.Background(), "no panic either")
}

func TestLogger_NamedAndEnabled(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONWriter(&buf, LevelInfo).Named("notifier").Named("qstash")

	if logger.Enabled(LevelDebug) {
		t.Fatalf("debug should be disabled at info level")
	}
	if !logger.Enabled(LevelError) {
		t.Fatalf("error should be enabled at info level")
	}

	logger.Info("delivered")

	var line map[string]any
	if err := sonic.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if line["logger"] != "notifier.qstash" {
		t.Fatalf("unexpected logger name: %v", line["logger"])
	}
}

func TestLogger_OddArgsAndNonStringKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONWriter(&buf, LevelInfo)

	logger.Warn("odd args", 42, "value", "dangling")

	var line map[string]any
	if err := sonic.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if line["arg"] != "value" {
		t.Fatalf("expected non-string key to map to arg, got %v", line)
	}
	if v, ok := line["dangling"]; !ok || v != nil {
		t.Fatalf("expected dangling key with null value, got %v", line)
	}
}
