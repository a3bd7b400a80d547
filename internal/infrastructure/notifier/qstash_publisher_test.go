package notifier

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/athlete-network/internal/domain/notification"
	"github.com/riskibarqy/athlete-network/internal/platform/logging"
	"github.com/riskibarqy/athlete-network/internal/platform/resilience"
)

func sampleEvent() notification.Event {
	return notification.Event{
		Type:       notification.EventApplicationSubmitted,
		ActorID:    "player-1",
		Recipients: []string{"admin-1"},
		SubjectID:  "app-1",
		Data:       map[string]string{"opportunity_id": "opp-1"},
		OccurredAt: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestQStashPublisher_PublishesEvent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v2/publish/https://hooks.example.com") ||
			!strings.HasSuffix(r.URL.Path, "/v1/notifications") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer qstash-token" {
			t.Errorf("unexpected authorization: %s", got)
		}
		if got := r.Header.Get("Upstash-Retries"); got != "3" {
			t.Errorf("unexpected retries header: %s", got)
		}
		if got := r.Header.Get("Upstash-Deduplication-Id"); !strings.HasPrefix(got, "application-submitted-app-1-") {
			t.Errorf("unexpected deduplication id: %s", got)
		}
		if got := r.Header.Get("Upstash-Forward-X-Internal-Token"); got != "hook-secret" {
			t.Errorf("unexpected forward token: %s", got)
		}

		raw, _ := io.ReadAll(r.Body)
		var payload eventPayload
		if err := sonic.Unmarshal(raw, &payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if payload.Type != "application.submitted" || payload.Recipients[0] != "admin-1" || payload.Data["opportunity_id"] != "opp-1" {
			t.Errorf("unexpected payload: %+v", payload)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	publisher := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:       srv.URL,
		Token:         "qstash-token",
		TargetBaseURL: "https://hooks.example.com",
		Retries:       3,
		ForwardToken:  "hook-secret",
	}, logging.NewNop())

	if err := publisher.Publish(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
}

func TestQStashPublisher_InvalidTargetIsNotTransient(t *testing.T) {
	t.Parallel()

	publisher := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:       "https://qstash.example.com",
		TargetBaseURL: "ftp://hooks.example.com",
	}, logging.NewNop())

	err := publisher.Publish(context.Background(), sampleEvent())
	if err == nil {
		t.Fatalf("expected invalid target error")
	}
	if isQStashCircuitFailure(err) {
		t.Fatalf("expected configuration error to not trip the breaker: %v", err)
	}
}

func TestQStashPublisher_BreakerOpensOnServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	publisher := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:       srv.URL,
		TargetBaseURL: "https://hooks.example.com",
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	}, logging.NewNop())

	for i := 0; i < 2; i++ {
		if err := publisher.Publish(context.Background(), sampleEvent()); !isQStashCircuitFailure(err) {
			t.Fatalf("expected transient failure, got %v", err)
		}
	}
	if err := publisher.Publish(context.Background(), sampleEvent()); !crerr.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", calls.Load())
	}
}

func TestDeduplicationKey(t *testing.T) {
	event := sampleEvent()
	first := deduplicationKey(event)
	if first != deduplicationKey(event) {
		t.Fatalf("expected stable key")
	}
	if strings.ContainsAny(first, ".:/") {
		t.Fatalf("unexpected characters in key: %s", first)
	}

	event.OccurredAt = event.OccurredAt.Add(time.Second)
	if deduplicationKey(event) == first {
		t.Fatalf("expected distinct key for a later transition")
	}

	event.SubjectID = ""
	if deduplicationKey(event) != "" {
		t.Fatalf("expected empty key without subject")
	}
}

func TestBuildQStashCurlPreviewMasksSecrets(t *testing.T) {
	preview := buildQStashCurlPreview("https://qstash.example.com/v2/publish/x", 2, "dedupe-1", `{"a":"it's"}`, true)
	if strings.Contains(preview, "qstash-token") || !strings.Contains(preview, "Bearer ***") {
		t.Fatalf("expected masked authorization: %s", preview)
	}
	if !strings.Contains(preview, "Upstash-Forward-X-Internal-Token: ***") {
		t.Fatalf("expected masked forward token: %s", preview)
	}
	if !strings.Contains(preview, `'"'"'`) {
		t.Fatalf("expected shell-quoted body: %s", preview)
	}
}
