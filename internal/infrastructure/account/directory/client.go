package directory

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/athlete-network/internal/domain/user"
	"github.com/riskibarqy/athlete-network/internal/platform/logging"
	"github.com/riskibarqy/athlete-network/internal/platform/resilience"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultProfilePath = "/v1/users"
	defaultTimeout     = 5 * time.Second
	maxResponseBytes   = 1 << 20
)

var (
	errDirectoryTransient = crerr.New("user directory transient failure")
	errDirectoryOpen      = crerr.New("user directory is temporarily unavailable")
)

type ClientConfig struct {
	HTTPClient     *fasthttp.Client
	BaseURL        string
	ProfilePath    string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads user profiles from the account service over HTTP.
type Client struct {
	httpClient  *fasthttp.Client
	profileURL  string
	apiKey      string
	timeout     time.Duration
	maxRetries  int
	logger      *logging.Logger
	breaker     *resilience.CircuitBreaker
	flight      resilience.SingleFlight[profileResult]
	retryWaitFn func(attempt int) time.Duration
}

func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &fasthttp.Client{
			Name:                "athlete-network-directory",
			MaxConnsPerHost:     64,
			MaxIdleConnDuration: 30 * time.Second,
		}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	profilePath := strings.TrimSpace(cfg.ProfilePath)
	if profilePath == "" {
		profilePath = defaultProfilePath
	}

	return &Client{
		httpClient: httpClient,
		profileURL: buildURL(cfg.BaseURL, profilePath),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		timeout:    timeout,
		maxRetries: maxRetries,
		logger:     logger,
		breaker:    resilience.NewCircuitBreakerFromConfig(cfg.CircuitBreaker),
		retryWaitFn: func(attempt int) time.Duration {
			return time.Duration(attempt+1) * 200 * time.Millisecond
		},
	}
}

// GetProfile returns false without an error when the account service does not know the user.
func (c *Client) GetProfile(ctx context.Context, userID string) (user.Profile, bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return user.Profile{}, false, nil
	}

	result, err, _ := c.flight.Do(userID, func() (profileResult, error) {
		var result profileResult
		callErr := c.breaker.Execute(func() error {
			var fetchErr error
			result, fetchErr = c.fetchProfile(ctx, userID)
			return fetchErr
		}, isCircuitFailure)
		if crerr.Is(callErr, resilience.ErrCircuitOpen) {
			c.logger.WarnContext(ctx, "user directory circuit breaker rejected request", "state", string(c.breaker.State()))
			return profileResult{}, crerr.Mark(crerr.Wrap(callErr, "get profile"), errDirectoryOpen)
		}
		return result, callErr
	})
	if err != nil {
		return user.Profile{}, false, err
	}
	return result.profile, result.found, nil
}

type profileResult struct {
	profile user.Profile
	found   bool
}

func (c *Client) fetchProfile(ctx context.Context, userID string) (profileResult, error) {
	fullURL := c.profileURL + "/" + url.PathEscape(userID)

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(attribute.String("directory.url", fullURL))
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		status, raw, err := c.do(ctx, fullURL)
		switch {
		case err != nil:
			lastErr = crerr.Mark(crerr.Wrapf(err, "request profile user_id=%s", userID), errDirectoryTransient)
		case status == http.StatusNotFound:
			return profileResult{}, nil
		case status >= 200 && status < 300:
			return decodeProfile(raw, userID)
		case isRetryableStatus(status):
			lastErr = crerr.Mark(crerr.Newf("user directory status=%d body=%s", status, abbreviateBody(raw)), errDirectoryTransient)
		default:
			return profileResult{}, crerr.Newf("user directory status=%d body=%s", status, abbreviateBody(raw))
		}

		if attempt == c.maxRetries {
			break
		}
		timer := time.NewTimer(c.retryWaitFn(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return profileResult{}, ctx.Err()
		case <-timer.C:
		}
	}

	c.logger.WarnContext(ctx, "user directory request failed", "user_id", userID, "error", lastErr)
	return profileResult{}, lastErr
}

func (c *Client) do(ctx context.Context, fullURL string) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fullURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := c.httpClient.DoDeadline(req, resp, deadline); err != nil {
		return 0, nil, err
	}

	body := resp.Body()
	if len(body) > maxResponseBytes {
		body = body[:maxResponseBytes]
	}
	// resp is released on return.
	return resp.StatusCode(), append([]byte(nil), body...), nil
}

type profileEnvelope struct {
	Data profilePayload `json:"data"`
}

type profilePayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	City      string `json:"city"`
	Country   string `json:"country"`
	AvatarURL string `json:"avatar_url"`
}

func decodeProfile(raw []byte, userID string) (profileResult, error) {
	var envelope profileEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return profileResult{}, crerr.Wrap(err, "decode user directory payload")
	}

	payload := envelope.Data
	id := strings.TrimSpace(payload.ID)
	if id == "" {
		id = userID
	}
	if id != userID {
		return profileResult{}, crerr.Newf("user directory returned profile %q for %q", id, userID)
	}

	// Unknown roles resolve to RoleOther so they fail role-gated operations instead of the request.
	role, ok := user.ParseRole(payload.Role)
	if !ok {
		role = user.RoleOther
	}

	return profileResult{
		profile: user.Profile{
			ID:        id,
			Name:      strings.TrimSpace(payload.Name),
			Role:      role,
			City:      strings.TrimSpace(payload.City),
			Country:   strings.TrimSpace(payload.Country),
			AvatarURL: strings.TrimSpace(payload.AvatarURL),
		},
		found: true,
	}, nil
}

func isCircuitFailure(err error) bool {
	return crerr.Is(err, errDirectoryTransient)
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}

func abbreviateBody(raw []byte) string {
	const max = 256
	value := strings.TrimSpace(string(raw))
	if len(value) <= max {
		return value
	}
	return value[:max] + "..."
}

func buildURL(baseURL, path string) string {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	path = strings.TrimSpace(path)
	if path == "" {
		return baseURL
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return strings.TrimSuffix(path, "/")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return baseURL + strings.TrimSuffix(path, "/")
}
