package directory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/athlete-network/internal/domain/user"
	"github.com/riskibarqy/athlete-network/internal/platform/logging"
	"github.com/riskibarqy/athlete-network/internal/platform/resilience"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, breaker resilience.CircuitBreakerConfig, maxRetries int) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(ClientConfig{
		BaseURL:        srv.URL,
		APIKey:         "directory-key",
		Timeout:        2 * time.Second,
		MaxRetries:     maxRetries,
		Logger:         logging.NewNop(),
		CircuitBreaker: breaker,
	})
	client.retryWaitFn = func(int) time.Duration { return time.Millisecond }
	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, payload any) {
	t.Helper()

	raw, err := sonic.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

func TestClientGetProfile_ParsesProfile(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if r.URL.Path != "/v1/users/user-7" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "directory-key" {
			t.Errorf("unexpected api key: %s", got)
		}
		writeJSON(t, w, http.StatusOK, map[string]any{
			"data": map[string]any{
				"id":      "user-7",
				"name":    " Dani Pratama ",
				"role":    "AGENT",
				"city":    "Bandung",
				"country": "ID",
			},
		})
	}, resilience.CircuitBreakerConfig{}, 0)

	profile, found, err := client.GetProfile(context.Background(), "user-7")
	if err != nil {
		t.Fatalf("get profile failed: %v", err)
	}
	if !found {
		t.Fatalf("expected profile to be found")
	}
	if profile.Role != user.RoleAgent || profile.Name != "Dani Pratama" || profile.City != "Bandung" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestClientGetProfile_UnknownRoleFallsBackToOther(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"data": map[string]any{"id": "user-8", "role": "referee"}})
	}, resilience.CircuitBreakerConfig{}, 0)

	profile, found, err := client.GetProfile(context.Background(), "user-8")
	if err != nil || !found {
		t.Fatalf("expected profile, got found=%v err=%v", found, err)
	}
	if profile.Role != user.RoleOther {
		t.Fatalf("expected role other, got %s", profile.Role)
	}
}

func TestClientGetProfile_NotFound(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]any{"error": "not found"})
	}, resilience.CircuitBreakerConfig{}, 0)

	_, found, err := client.GetProfile(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("expected no error for unknown user, got %v", err)
	}
	if found {
		t.Fatalf("expected unknown user")
	}
}

func TestClientGetProfile_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"data": map[string]any{"id": "user-9", "role": "player"}})
	}, resilience.CircuitBreakerConfig{}, 2)

	profile, found, err := client.GetProfile(context.Background(), "user-9")
	if err != nil || !found {
		t.Fatalf("expected profile after retry, got found=%v err=%v", found, err)
	}
	if profile.Role != user.RolePlayer {
		t.Fatalf("unexpected role: %s", profile.Role)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
}

func TestClientGetProfile_ClientErrorIsNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}, resilience.CircuitBreakerConfig{}, 3)

	_, _, err := client.GetProfile(context.Background(), "user-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if isCircuitFailure(err) {
		t.Fatalf("expected non-transient error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", calls.Load())
	}
}

func TestClientGetProfile_CircuitOpensOnTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}, resilience.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
		HalfOpenMaxReq:   1,
	}, 0)

	for i := 0; i < 2; i++ {
		_, _, err := client.GetProfile(context.Background(), "user-1")
		if !isCircuitFailure(err) {
			t.Fatalf("expected transient failure, got %v", err)
		}
	}

	_, _, err := client.GetProfile(context.Background(), "user-1")
	if !crerr.Is(err, errDirectoryOpen) || !crerr.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected breaker to short-circuit the third call, got %d calls", calls.Load())
	}
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base string
		path string
		want string
	}{
		{base: "http://accounts.local/", path: "/v1/users", want: "http://accounts.local/v1/users"},
		{base: "http://accounts.local", path: "v1/users/", want: "http://accounts.local/v1/users"},
		{base: "http://accounts.local", path: "https://profiles.local/users", want: "https://profiles.local/users"},
		{base: "http://accounts.local/", path: "", want: "http://accounts.local"},
	}

	for _, tc := range tests {
		if got := buildURL(tc.base, tc.path); got != tc.want {
			t.Errorf("buildURL(%q, %q) = %q, want %q", tc.base, tc.path, got, tc.want)
		}
	}
}
