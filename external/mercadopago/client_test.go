package mercadopago

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/courtsync/booking/internal/platform/resilience"
	"github.com/courtsync/booking/internal/usecase"
)

func testClient(baseURL string, maxRetries int) *Client {
	return NewClient(ClientConfig{
		BaseURL:         baseURL,
		NotificationURL: "https://booking.example/v1/payments/callback",
		MaxRetries:      maxRetries,
		CircuitBreaker:  resilience.CircuitBreakerConfig{Enabled: false},
	})
}

func TestCreatePreference(t *testing.T) {
	var gotAuth, gotIdempotency string
	var gotBody preferenceRequestBody

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/checkout/preferences" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotIdempotency = r.Header.Get("X-Idempotency-Key")
		raw, _ := io.ReadAll(r.Body)
		if err := sonic.Unmarshal(raw, &gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pref-123","init_point":"https://mp.example/checkout/pref-123"}`))
	}))
	defer server.Close()

	expiresAt := time.Date(2026, 4, 6, 12, 30, 0, 0, time.UTC)
	pref, err := testClient(server.URL, 0).CreatePreference(context.Background(), "APP_USR-token", usecase.PreferenceRequest{
		BookingID:      "bk-1",
		Title:          "Court booking 2026-04-06 17:00",
		Amount:         20000,
		ExpiresAt:      expiresAt,
		IdempotencyKey: "bk-1",
	})
	if err != nil {
		t.Fatalf("create preference: %v", err)
	}

	if pref.ID != "pref-123" || pref.InitPoint != "https://mp.example/checkout/pref-123" {
		t.Fatalf("unexpected preference %+v", pref)
	}
	if gotAuth != "Bearer APP_USR-token" {
		t.Fatalf("authorization header %q", gotAuth)
	}
	if gotIdempotency != "bk-1" {
		t.Fatalf("idempotency key %q", gotIdempotency)
	}
	if gotBody.ExternalReference != "bk-1" {
		t.Fatalf("external reference %q", gotBody.ExternalReference)
	}
	if len(gotBody.Items) != 1 || gotBody.Items[0].UnitPrice != 200 {
		t.Fatalf("unexpected items %+v", gotBody.Items)
	}
	if !gotBody.Expires || gotBody.ExpirationDateTo == nil || !gotBody.ExpirationDateTo.Equal(expiresAt) {
		t.Fatalf("expiration not carried: %+v", gotBody)
	}
	if gotBody.NotificationURL != "https://booking.example/v1/payments/callback" {
		t.Fatalf("notification url %q", gotBody.NotificationURL)
	}
}

func TestCreatePreference_NonRetryableFailsFast(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"invalid access token","status":400}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL, 3).CreatePreference(context.Background(), "bad-token", usecase.PreferenceRequest{
		BookingID: "bk-1", Title: "t", Amount: 100,
	})
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if !strings.Contains(err.Error(), "invalid access token") {
		t.Fatalf("error should carry the processor message, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("client must not retry a 400, made %d calls", calls.Load())
	}
}

func TestGetPayment_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payments/pay-9" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":9,"status":"APPROVED","external_reference":"bk-1"}`))
	}))
	defer server.Close()

	payment, err := testClient(server.URL, 1).GetPayment(context.Background(), "APP_USR-token", "pay-9")
	if err != nil {
		t.Fatalf("get payment: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected one retry, made %d calls", calls.Load())
	}
	if payment.Status != "approved" || payment.Reference != "bk-1" {
		t.Fatalf("unexpected payment %+v", payment)
	}
}

func TestSanitizeSensitiveText(t *testing.T) {
	got := sanitizeSensitiveText(`Post "https://api": Bearer APP_USR-secret refused`, "APP_USR-secret")
	if strings.Contains(got, "APP_USR-secret") {
		t.Fatalf("token leaked: %s", got)
	}
	if !strings.Contains(got, "REDACTED") {
		t.Fatalf("expected redaction marker, got %s", got)
	}
}
