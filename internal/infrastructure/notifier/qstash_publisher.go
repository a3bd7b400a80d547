package notifier

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/athlete-network/internal/domain/notification"
	"github.com/riskibarqy/athlete-network/internal/platform/logging"
	"github.com/riskibarqy/athlete-network/internal/platform/resilience"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var errQStashTransient = crerr.New("qstash transient failure")

type QStashPublisherConfig struct {
	BaseURL        string
	Token          string
	TargetBaseURL  string
	TargetPath     string
	Retries        int
	ForwardToken   string
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// QStashPublisher hands events to QStash, which delivers them to the notification webhook.
type QStashPublisher struct {
	client        *http.Client
	baseURL       string
	token         string
	targetBaseURL string
	targetPath    string
	retries       int
	forwardToken  string
	logger        *logging.Logger
	breaker       *resilience.CircuitBreaker
}

func NewQStashPublisher(cfg QStashPublisherConfig, logger *logging.Logger) *QStashPublisher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	targetPath := strings.TrimSpace(cfg.TargetPath)
	if targetPath == "" {
		targetPath = "/v1/notifications"
	}

	return &QStashPublisher{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		token:         strings.TrimSpace(cfg.Token),
		targetBaseURL: strings.TrimRight(strings.TrimSpace(cfg.TargetBaseURL), "/"),
		targetPath:    "/" + strings.TrimLeft(targetPath, "/"),
		retries:       cfg.Retries,
		forwardToken:  strings.TrimSpace(cfg.ForwardToken),
		logger:        logger,
		breaker:       resilience.NewCircuitBreakerFromConfig(cfg.CircuitBreaker),
	}
}

type eventPayload struct {
	Type       string            `json:"type"`
	ActorID    string            `json:"actor_id,omitempty"`
	Recipients []string          `json:"recipients"`
	SubjectID  string            `json:"subject_id"`
	Data       map[string]string `json:"data,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

func (p *QStashPublisher) Publish(ctx context.Context, event notification.Event) error {
	err := p.breaker.Execute(func() error {
		return p.publish(ctx, event)
	}, isQStashCircuitFailure)
	if crerr.Is(err, resilience.ErrCircuitOpen) {
		p.logger.WarnContext(ctx, "qstash circuit breaker rejected request", "state", string(p.breaker.State()))
		return crerr.Wrap(err, "qstash is temporarily unavailable")
	}
	return err
}

func (p *QStashPublisher) publish(ctx context.Context, event notification.Event) error {
	baseURL, err := validateHTTPBaseURL(p.baseURL)
	if err != nil {
		return crerr.Wrap(err, "invalid QSTASH_BASE_URL")
	}
	targetBaseURL, err := validateHTTPBaseURL(p.targetBaseURL)
	if err != nil {
		return crerr.Wrap(err, "invalid QSTASH_TARGET_BASE_URL")
	}

	targetURL := targetBaseURL + p.targetPath
	publishURL := baseURL + "/v2/publish/" + targetURL

	body, err := sonic.Marshal(eventPayload{
		Type:       string(event.Type),
		ActorID:    event.ActorID,
		Recipients: event.Recipients,
		SubjectID:  event.SubjectID,
		Data:       event.Data,
		OccurredAt: event.OccurredAt.UTC(),
	})
	if err != nil {
		return crerr.Wrap(err, "marshal notification payload")
	}
	deduplicationID := deduplicationKey(event)
	bodyText := truncateForLog(string(body), 4096)

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("qstash.publish_url", publishURL),
			attribute.String("qstash.target_url", targetURL),
			attribute.String("notification.type", string(event.Type)),
			attribute.String("notification.subject_id", event.SubjectID),
		)
	}
	p.logger.DebugContext(ctx, "qstash publish request",
		"event_type", string(event.Type),
		"target_url", targetURL,
		"curl_preview", buildQStashCurlPreview(publishURL, p.retries, deduplicationID, bodyText, p.forwardToken != ""),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, publishURL, strings.NewReader(string(body)))
	if err != nil {
		return crerr.Wrap(err, "create qstash request")
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Upstash-Method", http.MethodPost)
	if p.retries > 0 {
		req.Header.Set("Upstash-Retries", strconv.Itoa(p.retries))
	}
	if deduplicationID != "" {
		req.Header.Set("Upstash-Deduplication-Id", deduplicationID)
	}
	if p.forwardToken != "" {
		req.Header.Set("Upstash-Forward-X-Internal-Token", p.forwardToken)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return crerr.Mark(crerr.Wrapf(err, "publish notification target_url=%s", targetURL), errQStashTransient)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		callErr := crerr.Newf(
			"publish notification status=%d target_url=%s body=%s",
			resp.StatusCode,
			targetURL,
			strings.TrimSpace(string(raw)),
		)
		if isQStashRetryableStatus(resp.StatusCode) {
			return crerr.Mark(callErr, errQStashTransient)
		}
		return callErr
	}

	p.logger.InfoContext(ctx, "notification published",
		"event_type", string(event.Type),
		"subject_id", event.SubjectID,
		"deduplication_id", deduplicationID,
	)
	return nil
}

// deduplicationKey is stable per event so QStash drops resubmissions of the same transition.
func deduplicationKey(event notification.Event) string {
	if event.SubjectID == "" {
		return ""
	}
	key := string(event.Type) + "-" + event.SubjectID
	if !event.OccurredAt.IsZero() {
		key += "-" + strconv.FormatInt(event.OccurredAt.UnixNano(), 10)
	}
	return strings.NewReplacer(".", "-", ":", "-", "/", "-").Replace(key)
}

func validateHTTPBaseURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}

	return strings.TrimRight(candidate, "/"), nil
}

func buildQStashCurlPreview(
	publishURL string,
	retries int,
	deduplicationID string,
	body string,
	withForwardToken bool,
) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	appendPart := func(part string) {
		if buf.Len() > 0 {
			_ = buf.WriteByte(' ')
		}
		_, _ = buf.WriteString(part)
	}
	appendFlagHeader := func(value string) {
		appendPart("-H")
		appendPart(shellQuote(value))
	}

	appendPart("curl")
	appendPart("-X")
	appendPart("POST")
	appendPart(shellQuote(publishURL))
	appendFlagHeader("Authorization: Bearer ***")
	appendFlagHeader("Content-Type: application/json")
	appendFlagHeader("Upstash-Method: POST")
	if retries > 0 {
		appendFlagHeader("Upstash-Retries: " + strconv.Itoa(retries))
	}
	if deduplicationID != "" {
		appendFlagHeader("Upstash-Deduplication-Id: " + deduplicationID)
	}
	if withForwardToken {
		appendFlagHeader("Upstash-Forward-X-Internal-Token: ***")
	}
	appendPart("-d")
	appendPart(shellQuote(body))

	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}

func truncateForLog(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "...(truncated)"
}

func isQStashCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return crerr.Is(err, errQStashTransient)
}

func isQStashRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}

var _ notification.Publisher = (*QStashPublisher)(nil)
