package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/courtsync/booking/internal/domain/court"
	"github.com/courtsync/booking/internal/domain/user"
	"github.com/courtsync/booking/internal/infrastructure/repository/memory"
	"github.com/courtsync/booking/internal/platform/id"
	"github.com/courtsync/booking/internal/platform/logging"
	"github.com/courtsync/booking/internal/usecase"
)

const (
	testUserToken     = "token-ana"
	testOtherToken    = "token-bruno"
	testInternalToken = "job-secret"
)

type staticVerifier struct {
	tokens map[string]user.Principal
}

func (v staticVerifier) VerifyAccessToken(_ context.Context, token string) (user.Principal, error) {
	p, ok := v.tokens[token]
	if !ok {
		return user.Principal{}, fmt.Errorf("%w: unknown token", usecase.ErrUnauthorized)
	}
	return p, nil
}

type stubGateway struct{}

func (stubGateway) CreatePreference(_ context.Context, _ string, req usecase.PreferenceRequest) (usecase.Preference, error) {
	return usecase.Preference{ID: "pref-" + req.BookingID, InitPoint: "https://checkout.example/" + req.BookingID}, nil
}

func (stubGateway) GetPayment(_ context.Context, _, _ string) (usecase.PaymentStatus, error) {
	return usecase.PaymentStatus{}, fmt.Errorf("not implemented")
}

type stubDecrypter struct{}

func (stubDecrypter) Decrypt(_ []byte) (string, error) {
	return "APP_USR-test-token", nil
}

type apiFixture struct {
	router      http.Handler
	bookingRepo *memory.BookingRepository
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	complexes := memory.SeedComplexes()
	for i := range complexes {
		complexes[i].ProcessorCredential = []byte("cipher-" + complexes[i].ID)
	}
	venueRepo := memory.NewVenueRepository(complexes)
	for _, c := range memory.SeedCourts() {
		venueRepo.RegisterCourt(c.ComplexID, c.ID)
	}
	courtRepo := memory.NewCourtRepository(memory.SeedCourts(), memory.SeedPriceRules())
	bookingRepo := memory.NewBookingRepository(nil)

	logger := logging.NewNop()
	availabilityService := usecase.NewAvailabilityService(venueRepo, courtRepo, bookingRepo, court.TieBreakEarliestCreated, 2)
	reservationService := usecase.NewReservationService(
		venueRepo, courtRepo, bookingRepo,
		id.NewRandomGenerator(), nil, logger,
		court.TieBreakEarliestCreated, 30*time.Minute,
	)
	settlementService := usecase.NewSettlementService(
		venueRepo, bookingRepo, stubGateway{}, stubDecrypter{}, nil, logger, usecase.SettlementConfig{},
	)
	expiryService := usecase.NewExpiryService(bookingRepo, nil, logger, usecase.ExpiryConfig{})

	handler := NewHandler(availabilityService, reservationService, settlementService, expiryService, logger)
	verifier := staticVerifier{tokens: map[string]user.Principal{
		testUserToken:  {UserID: "user-ana", Email: "ana@example.com"},
		testOtherToken: {UserID: "user-bruno", Email: "bruno@example.com"},
	}}
	router := NewRouter(handler, verifier, logger, nil, testInternalToken)

	return &apiFixture{router: router, bookingRepo: bookingRepo}
}

// tomorrowSlot returns a slot aligned to the seed courts' grid, far
// enough in the future to pass lead time checks on a real clock.
func tomorrowSlot(t *testing.T, startHour, durationHours int) (time.Time, time.Time) {
	t.Helper()

	loc, err := time.LoadLocation("America/Argentina/Buenos_Aires")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	day := time.Now().In(loc).AddDate(0, 0, 1)
	start := time.Date(day.Year(), day.Month(), day.Day(), startHour, 0, 0, 0, loc)
	return start.UTC(), start.Add(time.Duration(durationHours) * time.Hour).UTC()
}

func (f *apiFixture) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var envelope struct {
		Data T `json:"data"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response envelope: %v (body %s)", err, rec.Body.String())
	}
	return envelope.Data
}

func createBookingBody(start, end time.Time) string {
	return fmt.Sprintf(
		`{"court_id":%q,"start_at":%q,"end_at":%q,"players":[{"name":"Ana"},{"name":"Bruno"}]}`,
		memory.CourtIDPalermo1, start.Format(time.RFC3339), end.Format(time.RFC3339),
	)
}

func TestCreateBooking_ReservesAndOpensCheckout(t *testing.T) {
	f := newAPIFixture(t)
	start, end := tomorrowSlot(t, 10, 1)

	rec := f.do(t, http.MethodPost, "/v1/bookings", testUserToken, createBookingBody(start, end))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	created := decodeData[createBookingResponse](t, rec)
	if created.Booking.Status != "pending" {
		t.Fatalf("expected pending booking, got %q", created.Booking.Status)
	}
	if created.Booking.Price != 100000 || created.Booking.Deposit != 20000 {
		t.Fatalf("unexpected price snapshot %d/%d", created.Booking.Price, created.Booking.Deposit)
	}
	if created.Checkout == nil {
		t.Fatal("expected a checkout session alongside the booking")
	}
	if created.Checkout.PaymentRef != "pref-"+created.Booking.ID {
		t.Fatalf("unexpected payment ref %q", created.Checkout.PaymentRef)
	}
	if created.Checkout.Amount != 20000 {
		t.Fatalf("checkout amount should be the deposit, got %d", created.Checkout.Amount)
	}
}

func TestCreateBooking_RequiresAuth(t *testing.T) {
	f := newAPIFixture(t)
	start, end := tomorrowSlot(t, 10, 1)

	rec := f.do(t, http.MethodPost, "/v1/bookings", "", createBookingBody(start, end))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/v1/bookings", "garbage-token", createBookingBody(start, end))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown token, got %d", rec.Code)
	}
}

func TestCreateBooking_OverlapIsConflict(t *testing.T) {
	f := newAPIFixture(t)
	start, end := tomorrowSlot(t, 10, 1)

	if rec := f.do(t, http.MethodPost, "/v1/bookings", testUserToken, createBookingBody(start, end)); rec.Code != http.StatusCreated {
		t.Fatalf("first reserve should succeed, got %d: %s", rec.Code, rec.Body.String())
	}

	rec := f.do(t, http.MethodPost, "/v1/bookings", testOtherToken, createBookingBody(start, end))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for overlapping reserve, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "slotConflict") {
		t.Fatalf("expected slotConflict reason, got %s", rec.Body.String())
	}
}

func TestPaymentCallback_ApprovedConfirmsBooking(t *testing.T) {
	f := newAPIFixture(t)
	start, end := tomorrowSlot(t, 11, 1)

	rec := f.do(t, http.MethodPost, "/v1/bookings", testUserToken, createBookingBody(start, end))
	if rec.Code != http.StatusCreated {
		t.Fatalf("reserve failed: %d %s", rec.Code, rec.Body.String())
	}
	created := decodeData[createBookingResponse](t, rec)

	callback := fmt.Sprintf(`{"preference_id":%q,"payment_id":"pay-1","status":"approved"}`, created.Checkout.PaymentRef)
	for i := 0; i < 2; i++ {
		rec = f.do(t, http.MethodPost, "/v1/payments/callback", "", callback)
		if rec.Code != http.StatusOK {
			t.Fatalf("callback attempt %d: expected 200, got %d: %s", i+1, rec.Code, rec.Body.String())
		}
	}

	rec = f.do(t, http.MethodGet, "/v1/bookings/me?status=confirmed", testUserToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list bookings: %d %s", rec.Code, rec.Body.String())
	}
	bookings := decodeData[[]bookingDTO](t, rec)
	if len(bookings) != 1 || bookings[0].ID != created.Booking.ID {
		t.Fatalf("expected the confirmed booking, got %+v", bookings)
	}
}

func TestPaymentCallback_UnknownReferenceAcknowledged(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/payments/callback", "", `{"preference_id":"pref-ghost","status":"approved"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unknown reference must be acknowledged, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCancelBooking_OwnerOnly(t *testing.T) {
	f := newAPIFixture(t)
	start, end := tomorrowSlot(t, 12, 1)

	rec := f.do(t, http.MethodPost, "/v1/bookings", testUserToken, createBookingBody(start, end))
	if rec.Code != http.StatusCreated {
		t.Fatalf("reserve failed: %d %s", rec.Code, rec.Body.String())
	}
	created := decodeData[createBookingResponse](t, rec)

	rec = f.do(t, http.MethodPost, "/v1/bookings/"+created.Booking.ID+"/cancel", testOtherToken, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for foreign cancel, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/v1/bookings/"+created.Booking.ID+"/cancel", testUserToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for owner cancel, got %d: %s", rec.Code, rec.Body.String())
	}
	cancelled := decodeData[bookingDTO](t, rec)
	if cancelled.Status != "cancelled" {
		t.Fatalf("expected cancelled, got %q", cancelled.Status)
	}
}

func TestExpirySweepJob_RequiresInternalToken(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/internal/jobs/expiry-sweep", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without job token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/expiry-sweep", strings.NewReader(""))
	req.Header.Set("X-Internal-Job-Token", testInternalToken)
	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 with job token, got %d: %s", recorder.Code, recorder.Body.String())
	}

	result := decodeData[usecase.SweepResult](t, recorder)
	if result.Scanned != 0 {
		t.Fatalf("expected idle sweep, got %+v", result)
	}
}

func TestGetCourtAvailability_MarksReservedSlotTaken(t *testing.T) {
	f := newAPIFixture(t)
	start, end := tomorrowSlot(t, 15, 1)

	rec := f.do(t, http.MethodPost, "/v1/bookings", testUserToken, createBookingBody(start, end))
	if rec.Code != http.StatusCreated {
		t.Fatalf("reserve failed: %d %s", rec.Code, rec.Body.String())
	}

	path := fmt.Sprintf(
		"/v1/courts/%s/availability?from=%s&to=%s",
		memory.CourtIDPalermo1,
		start.Format(time.RFC3339), end.Format(time.RFC3339),
	)
	rec = f.do(t, http.MethodGet, path, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("availability: %d %s", rec.Code, rec.Body.String())
	}

	slots := decodeData[[]slotDTO](t, rec)
	if len(slots) != 1 {
		t.Fatalf("expected exactly one slot in the window, got %d", len(slots))
	}
	if slots[0].Status != "taken" {
		t.Fatalf("expected the reserved slot to be taken, got %q", slots[0].Status)
	}
}
