package notification

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/courtsync/booking/internal/platform/logging"
	"github.com/courtsync/booking/internal/platform/resilience"
	"github.com/courtsync/booking/internal/usecase"
)

var errWebhookTransient = crerr.New("webhook transient failure")

type WebhookNotifierConfig struct {
	TargetURL      string
	SigningToken   string
	Retries        int
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// WebhookNotifier delivers booking lifecycle events to a tenant-facing
// webhook endpoint. Delivery is best effort: callers treat a returned
// error as a log line, never as a failed booking operation.
type WebhookNotifier struct {
	client         *http.Client
	targetURL      string
	signingToken   string
	retries        int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewWebhookNotifier(cfg WebhookNotifierConfig, logger *logging.Logger) *WebhookNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &WebhookNotifier{
		client: &http.Client{
			Timeout: timeout,
		},
		targetURL:      strings.TrimSpace(cfg.TargetURL),
		signingToken:   strings.TrimSpace(cfg.SigningToken),
		retries:        cfg.Retries,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

func (n *WebhookNotifier) Publish(ctx context.Context, event usecase.Event) error {
	if n.circuitEnabled {
		if err := n.breaker.Allow(); err != nil {
			return fmt.Errorf("webhook endpoint is temporarily unavailable: %w", err)
		}
	}

	targetURL, err := validateHTTPURL(n.targetURL)
	if err != nil {
		return crerr.Wrap(err, "invalid webhook target url")
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	encoded, err := sonic.Marshal(event)
	if err != nil {
		return crerr.Wrap(err, "marshal webhook event")
	}
	if _, err := buf.Write(encoded); err != nil {
		return crerr.Wrap(err, "buffer webhook event")
	}

	var lastErr error
	for attempt := 0; attempt <= n.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		lastErr = n.deliver(ctx, targetURL, buf.Bytes())
		if lastErr == nil {
			n.recordCircuitResult(nil)
			return nil
		}
		if !stderrors.Is(lastErr, errWebhookTransient) {
			break
		}
		n.logger.WarnContext(ctx, "webhook delivery attempt failed",
			"kind", string(event.Kind), "booking_id", event.BookingID, "attempt", attempt+1, "error", lastErr)
	}

	n.recordCircuitResult(lastErr)

	return lastErr
}

func (n *WebhookNotifier) deliver(ctx context.Context, targetURL string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, strings.NewReader(string(body)))
	if err != nil {
		return crerr.Wrap(err, "create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")
	if n.signingToken != "" {
		req.Header.Set("X-Webhook-Token", n.signingToken)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: post webhook: %v", errWebhookTransient, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if isRetryableStatus(resp.StatusCode) {
			return fmt.Errorf("%w: webhook status=%d body=%s", errWebhookTransient, resp.StatusCode, strings.TrimSpace(string(raw)))
		}
		return fmt.Errorf("webhook rejected status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	return nil
}

func (n *WebhookNotifier) recordCircuitResult(err error) {
	if !n.circuitEnabled || n.breaker == nil {
		return
	}
	if err != nil && stderrors.Is(err, errWebhookTransient) {
		n.breaker.RecordFailure()
		return
	}
	n.breaker.RecordSuccess()
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}

func validateHTTPURL(raw string) (string, error) {
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

	return candidate, nil
}
