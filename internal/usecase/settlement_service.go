package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/courtsync/booking/internal/domain/booking"
	"github.com/courtsync/booking/internal/domain/venue"
	"github.com/courtsync/booking/internal/platform/logging"
)

// PreferenceRequest describes the checkout the processor should open
// for a pending booking. Amount is the deposit due now, in minor units.
type PreferenceRequest struct {
	BookingID      string
	Title          string
	Amount         int64
	ExpiresAt      time.Time
	IdempotencyKey string
}

type Preference struct {
	ID        string
	InitPoint string
}

// PaymentStatus is the processor's view of a payment. Reference is the
// external reference echoed back by the processor, i.e. the booking id
// set at preference creation.
type PaymentStatus struct {
	Reference string
	Status    string
}

// PaymentGateway is the processor boundary. The access token is passed
// per call: each tenant settles into its own processor account.
type PaymentGateway interface {
	CreatePreference(ctx context.Context, accessToken string, req PreferenceRequest) (Preference, error)
	GetPayment(ctx context.Context, accessToken, paymentID string) (PaymentStatus, error)
}

// CredentialDecrypter opens a tenant's stored processor credential.
// Plaintext tokens only ever live on the stack of a settlement call.
type CredentialDecrypter interface {
	Decrypt(ciphertext []byte) (string, error)
}

const (
	CallbackStatusApproved  = "approved"
	CallbackStatusRejected  = "rejected"
	CallbackStatusCancelled = "cancelled"
	CallbackStatusPending   = "pending"
)

type CallbackInput struct {
	// PaymentRef is the external reference recorded on the booking when
	// the preference was created. Idempotency is keyed on it.
	PaymentRef string
	// PaymentID is the processor-side payment id, used for optional
	// status re-verification against the processor.
	PaymentID string
	Status    string
}

// CheckoutSession is what the client needs to pay for a booking.
type CheckoutSession struct {
	BookingID  string
	PaymentRef string
	InitPoint  string
	Amount     int64
	ExpiresAt  time.Time
}

type SettlementConfig struct {
	// VerifyCallbacks re-fetches the payment from the processor before
	// acting on a callback instead of trusting the pushed status.
	VerifyCallbacks bool
}

type SettlementService struct {
	venueRepo   venue.Repository
	bookingRepo booking.Repository
	gateway     PaymentGateway
	decrypter   CredentialDecrypter
	notifier    Notifier
	logger      *logging.Logger
	cfg         SettlementConfig
	now         func() time.Time
}

func NewSettlementService(
	venueRepo venue.Repository,
	bookingRepo booking.Repository,
	gateway PaymentGateway,
	decrypter CredentialDecrypter,
	notifier Notifier,
	logger *logging.Logger,
	cfg SettlementConfig,
) *SettlementService {
	if notifier == nil {
		notifier = NewNoopNotifier()
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &SettlementService{
		venueRepo:   venueRepo,
		bookingRepo: bookingRepo,
		gateway:     gateway,
		decrypter:   decrypter,
		notifier:    notifier,
		logger:      logger,
		cfg:         cfg,
		now:         time.Now,
	}
}

// CreatePreference opens a processor checkout for a pending booking and
// records the external reference on it. The call is idempotent per
// booking: the booking id doubles as the processor idempotency key, so
// a retried call yields the same preference.
func (s *SettlementService) CreatePreference(ctx context.Context, bookingID string) (CheckoutSession, error) {
	ctx, span := startUsecaseSpan(ctx, "SettlementService.CreatePreference")
	defer span.End()

	bookingID = strings.TrimSpace(bookingID)
	if bookingID == "" {
		return CheckoutSession{}, fmt.Errorf("%w: booking id is required", ErrInvalidInput)
	}

	b, exists, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("get booking: %w", err)
	}
	if !exists {
		return CheckoutSession{}, fmt.Errorf("%w: booking=%s", ErrNotFound, bookingID)
	}

	now := s.now().UTC()
	if b.Status != booking.StatusPending {
		return CheckoutSession{}, fmt.Errorf("%w: booking is %s, payment no longer applicable", ErrInvalidInput, b.Status)
	}
	if !b.ExpiresAt.After(now) {
		return CheckoutSession{}, fmt.Errorf("%w: payment window has elapsed", ErrInvalidInput)
	}

	token, err := s.tenantToken(ctx, b.ComplexID)
	if err != nil {
		return CheckoutSession{}, err
	}

	amount := b.Deposit
	if amount == 0 {
		amount = b.Price
	}

	pref, err := s.gateway.CreatePreference(ctx, token, PreferenceRequest{
		BookingID:      b.ID,
		Title:          fmt.Sprintf("Court booking %s", b.StartAt.Format("2006-01-02 15:04")),
		Amount:         amount,
		ExpiresAt:      b.ExpiresAt,
		IdempotencyKey: b.ID,
	})
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("%w: create payment preference: %v", ErrDependencyUnavailable, err)
	}

	if err := s.bookingRepo.SetPaymentRef(ctx, b.ID, pref.ID, now); err != nil {
		return CheckoutSession{}, fmt.Errorf("record payment reference: %w", err)
	}

	return CheckoutSession{
		BookingID:  b.ID,
		PaymentRef: pref.ID,
		InitPoint:  pref.InitPoint,
		Amount:     amount,
		ExpiresAt:  b.ExpiresAt,
	}, nil
}

// HandleCallback applies a processor notification to the referenced
// booking. It is idempotent and order insensitive: duplicates and
// notifications for bookings already past the targeted state are
// dropped without effect, and an approval arriving after the payment
// window has elapsed never confirms the booking. Unknown references are
// logged and acknowledged so the processor stops retrying them.
func (s *SettlementService) HandleCallback(ctx context.Context, input CallbackInput) error {
	ctx, span := startUsecaseSpan(ctx, "SettlementService.HandleCallback")
	defer span.End()

	input.PaymentRef = strings.TrimSpace(input.PaymentRef)
	input.Status = strings.ToLower(strings.TrimSpace(input.Status))
	if input.PaymentRef == "" {
		return fmt.Errorf("%w: payment reference is required", ErrInvalidInput)
	}
	if input.Status == "" {
		return fmt.Errorf("%w: payment status is required", ErrInvalidInput)
	}

	b, exists, err := s.bookingRepo.GetByPaymentRef(ctx, input.PaymentRef)
	if err != nil {
		return fmt.Errorf("get booking by payment ref: %w", err)
	}
	if !exists {
		s.logger.WarnContext(ctx, "callback for unknown payment reference dropped", "payment_ref", input.PaymentRef)
		return nil
	}

	status := input.Status
	if s.cfg.VerifyCallbacks && input.PaymentID != "" {
		status, err = s.verifiedStatus(ctx, b, input.PaymentID)
		if err != nil {
			return err
		}
	}

	now := s.now().UTC()
	switch status {
	case CallbackStatusApproved:
		return s.confirm(ctx, b, now)
	case CallbackStatusRejected, CallbackStatusCancelled:
		return s.release(ctx, b, now)
	case CallbackStatusPending:
		return nil
	default:
		s.logger.WarnContext(ctx, "callback with unhandled payment status ignored", "payment_ref", input.PaymentRef, "status", status)
		return nil
	}
}

func (s *SettlementService) confirm(ctx context.Context, b booking.Booking, now time.Time) error {
	if b.Status != booking.StatusPending {
		// Duplicate or late callback; the booking already settled.
		return nil
	}
	if !b.ExpiresAt.After(now) {
		// Approval after the payment window: the slot may already be
		// someone else's. Expire instead of confirming.
		if _, err := s.bookingRepo.Transition(ctx, b.ID, booking.StatusPending, booking.StatusExpired, now); err != nil {
			return fmt.Errorf("expire booking on late approval: %w", err)
		}
		s.logger.WarnContext(ctx, "approval arrived after payment window, booking expired", "booking_id", b.ID)
		return nil
	}

	applied, err := s.bookingRepo.Transition(ctx, b.ID, booking.StatusPending, booking.StatusConfirmed, now)
	if err != nil {
		return fmt.Errorf("confirm booking: %w", err)
	}
	if !applied {
		// Lost the race against a concurrent callback or the sweep.
		return nil
	}

	b.Status = booking.StatusConfirmed
	b.UpdatedAt = now
	publishBookingEvent(ctx, s.notifier, s.logger, EventBookingConfirmed, b, now)

	return nil
}

func (s *SettlementService) release(ctx context.Context, b booking.Booking, now time.Time) error {
	if b.Status != booking.StatusPending {
		return nil
	}

	applied, err := s.bookingRepo.Transition(ctx, b.ID, booking.StatusPending, booking.StatusCancelled, now)
	if err != nil {
		return fmt.Errorf("cancel booking on payment failure: %w", err)
	}
	if !applied {
		return nil
	}

	b.Status = booking.StatusCancelled
	b.UpdatedAt = now
	publishBookingEvent(ctx, s.notifier, s.logger, EventBookingCancelled, b, now)

	return nil
}

func (s *SettlementService) verifiedStatus(ctx context.Context, b booking.Booking, paymentID string) (string, error) {
	token, err := s.tenantToken(ctx, b.ComplexID)
	if err != nil {
		return "", err
	}

	payment, err := s.gateway.GetPayment(ctx, token, paymentID)
	if err != nil {
		return "", fmt.Errorf("%w: verify payment status: %v", ErrDependencyUnavailable, err)
	}
	// The processor echoes our external reference, which is the booking
	// id set at preference creation.
	if payment.Reference != "" && payment.Reference != b.ID {
		return "", fmt.Errorf("%w: payment reference mismatch", ErrInvalidInput)
	}

	return strings.ToLower(payment.Status), nil
}

func (s *SettlementService) tenantToken(ctx context.Context, complexID string) (string, error) {
	cx, exists, err := s.venueRepo.GetByID(ctx, complexID)
	if err != nil {
		return "", fmt.Errorf("get complex: %w", err)
	}
	if !exists {
		return "", fmt.Errorf("%w: complex=%s", ErrNotFound, complexID)
	}
	if len(cx.ProcessorCredential) == 0 {
		return "", fmt.Errorf("%w: complex %s has no processor credential", ErrCredential, complexID)
	}

	token, err := s.decrypter.Decrypt(cx.ProcessorCredential)
	if err != nil {
		return "", fmt.Errorf("%w: decrypt processor credential: %v", ErrCredential, err)
	}

	return token, nil
}
