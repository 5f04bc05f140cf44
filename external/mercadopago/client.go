package mercadopago

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/courtsync/booking/internal/platform/logging"
	"github.com/courtsync/booking/internal/platform/resilience"
	"github.com/courtsync/booking/internal/usecase"
)

const (
	defaultBaseURL  = "https://api.mercadopago.com"
	defaultCurrency = "ARS"

	preferencesPath = "/checkout/preferences"
	paymentsPath    = "/v1/payments/"
)

var bearerTokenRegex = regexp.MustCompile(`Bearer\s+[^\s"']+`)
var errMercadoPagoTransient = crerr.New("mercadopago transient failure")

type ClientConfig struct {
	HTTPClient      *http.Client
	BaseURL         string
	Currency        string
	NotificationURL string
	Timeout         time.Duration
	MaxRetries      int
	Logger          *logging.Logger
	CircuitBreaker  resilience.CircuitBreakerConfig
}

// Client talks to the Mercado Pago REST API. Access tokens are passed
// per call because every tenant settles into its own account; the
// client never stores one.
type Client struct {
	httpClient      *http.Client
	baseURL         string
	currency        string
	notificationURL string
	maxRetries      int
	logger          *logging.Logger
	breaker         *resilience.CircuitBreaker
	circuitEnabled  bool
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	currency := strings.TrimSpace(cfg.Currency)
	if currency == "" {
		currency = defaultCurrency
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:      httpClient,
		baseURL:         baseURL,
		currency:        currency,
		notificationURL: strings.TrimSpace(cfg.NotificationURL),
		maxRetries:      cfg.MaxRetries,
		logger:          logger,
		breaker:         resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled:  breakerCfg.Enabled,
	}
}

// CreatePreference opens a checkout preference. The external reference
// is the booking id, which the processor echoes back on payments so
// callbacks can be reconciled. Amount arrives in minor currency units.
func (c *Client) CreatePreference(ctx context.Context, accessToken string, req usecase.PreferenceRequest) (usecase.Preference, error) {
	expiresAt := req.ExpiresAt.UTC()
	body := preferenceRequestBody{
		Items: []preferenceItem{{
			Title:     req.Title,
			Quantity:  1,
			UnitPrice: float64(req.Amount) / 100,
			Currency:  c.currency,
		}},
		ExternalReference: req.BookingID,
		NotificationURL:   c.notificationURL,
	}
	if !expiresAt.IsZero() {
		body.Expires = true
		body.ExpirationDateTo = &expiresAt
	}

	idempotencyKey := strings.TrimSpace(req.IdempotencyKey)
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	var decoded preferenceResponse
	if err := c.doJSON(ctx, http.MethodPost, preferencesPath, accessToken, idempotencyKey, body, &decoded); err != nil {
		return usecase.Preference{}, err
	}
	if decoded.ID == "" {
		return usecase.Preference{}, fmt.Errorf("preference response carries no id")
	}

	initPoint := decoded.InitPoint
	if initPoint == "" {
		initPoint = decoded.SandboxInitPoint
	}

	return usecase.Preference{ID: decoded.ID, InitPoint: initPoint}, nil
}

func (c *Client) GetPayment(ctx context.Context, accessToken, paymentID string) (usecase.PaymentStatus, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return usecase.PaymentStatus{}, fmt.Errorf("payment id is required")
	}

	var decoded paymentResponse
	if err := c.doJSON(ctx, http.MethodGet, paymentsPath+paymentID, accessToken, "", nil, &decoded); err != nil {
		return usecase.PaymentStatus{}, err
	}

	return usecase.PaymentStatus{
		Reference: decoded.ExternalReference,
		Status:    strings.ToLower(decoded.Status),
	}, nil
}

func (c *Client) doJSON(ctx context.Context, method, path, accessToken, idempotencyKey string, payload, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "mercadopago circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: payment processor is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	var encoded []byte
	if payload != nil {
		var err error
		encoded, err = sonic.Marshal(payload)
		if err != nil {
			return crerr.Wrap(err, "marshal request payload")
		}
	}

	raw, err := c.executeRequest(ctx, method, c.baseURL+path, accessToken, idempotencyKey, encoded)
	if c.circuitEnabled {
		if err != nil && stderrors.Is(err, errMercadoPagoTransient) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	if err != nil {
		return err
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode processor payload: %w", err)
	}

	return nil
}

func (c *Client) executeRequest(ctx context.Context, method, fullURL, accessToken, idempotencyKey string, body []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var reader io.Reader
		if body != nil {
			reader = strings.NewReader(string(body))
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+accessToken)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if idempotencyKey != "" {
			req.Header.Set("X-Idempotency-Key", idempotencyKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errMercadoPagoTransient, sanitizeSensitiveText(err.Error(), accessToken))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errMercadoPagoTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else {
				lastErr = statusError(resp.StatusCode, raw)
				if !isRetryableStatus(resp.StatusCode) {
					return nil, lastErr
				}
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("processor request failed")
	}
	c.logger.WarnContext(ctx, "mercadopago request failed", "url", fullURL, "error", lastErr)

	return nil, lastErr
}

func statusError(statusCode int, raw []byte) error {
	detail := abbreviateBody(raw)
	var decoded apiErrorResponse
	if err := sonic.Unmarshal(raw, &decoded); err == nil && decoded.Message != "" {
		detail = decoded.Message
	}

	if isRetryableStatus(statusCode) {
		return fmt.Errorf("%w: processor status=%d detail=%s", errMercadoPagoTransient, statusCode, detail)
	}

	return fmt.Errorf("processor status=%d detail=%s", statusCode, detail)
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}

func sanitizeSensitiveText(value, token string) string {
	value = strings.TrimSpace(value)
	if token != "" {
		value = strings.ReplaceAll(value, token, "REDACTED")
	}

	return bearerTokenRegex.ReplaceAllString(value, "Bearer REDACTED")
}

func abbreviateBody(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if len(text) > 512 {
		return text[:512] + "...(truncated)"
	}

	return text
}
