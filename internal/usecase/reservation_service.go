package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/courtsync/booking/internal/domain/booking"
	"github.com/courtsync/booking/internal/domain/court"
	"github.com/courtsync/booking/internal/domain/user"
	"github.com/courtsync/booking/internal/domain/venue"
	"github.com/courtsync/booking/internal/platform/id"
	"github.com/courtsync/booking/internal/platform/logging"
)

const (
	defaultPaymentWindow  = 30 * time.Minute
	createRetryAttempts   = 3
	createRetryBaseDelay  = 25 * time.Millisecond
	maxPlayersPerBooking  = 10
	maxBookingLeadTimeDur = 90 * 24 * time.Hour
)

type PlayerInput struct {
	Name   string
	UserID string
}

type ReserveInput struct {
	CourtID string
	StartAt time.Time
	EndAt   time.Time
	Players []PlayerInput
}

type ReservationService struct {
	venueRepo     venue.Repository
	courtRepo     court.Repository
	bookingRepo   booking.Repository
	idGen         id.Generator
	notifier      Notifier
	logger        *logging.Logger
	tieBreak      court.TieBreak
	paymentWindow time.Duration
	now           func() time.Time
	sleep         func(time.Duration)
}

func NewReservationService(
	venueRepo venue.Repository,
	courtRepo court.Repository,
	bookingRepo booking.Repository,
	idGen id.Generator,
	notifier Notifier,
	logger *logging.Logger,
	tieBreak court.TieBreak,
	paymentWindow time.Duration,
) *ReservationService {
	if notifier == nil {
		notifier = NewNoopNotifier()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if paymentWindow <= 0 {
		paymentWindow = defaultPaymentWindow
	}

	return &ReservationService{
		venueRepo:     venueRepo,
		courtRepo:     courtRepo,
		bookingRepo:   bookingRepo,
		idGen:         idGen,
		notifier:      notifier,
		logger:        logger,
		tieBreak:      tieBreak,
		paymentWindow: paymentWindow,
		now:           time.Now,
		sleep:         time.Sleep,
	}
}

// Reserve validates the requested interval against the court's schedule
// and slot grid, snapshots the applicable price and deposit, and creates
// a pending booking that holds the slot for the payment window. The
// overlap check and the insert run atomically in the repository; of two
// concurrent overlapping reserves exactly one returns a booking and the
// other ErrSlotConflict.
func (s *ReservationService) Reserve(ctx context.Context, principal user.Principal, input ReserveInput) (booking.Booking, error) {
	ctx, span := startUsecaseSpan(ctx, "ReservationService.Reserve")
	defer span.End()

	if principal.UserID == "" {
		return booking.Booking{}, fmt.Errorf("%w: missing caller identity", ErrUnauthorized)
	}
	input.CourtID = strings.TrimSpace(input.CourtID)
	if input.CourtID == "" {
		return booking.Booking{}, fmt.Errorf("%w: court id is required", ErrInvalidInput)
	}
	if len(input.Players) > maxPlayersPerBooking {
		return booking.Booking{}, fmt.Errorf("%w: at most %d players per booking", ErrInvalidInput, maxPlayersPerBooking)
	}

	c, exists, err := s.courtRepo.GetByID(ctx, input.CourtID)
	if err != nil {
		return booking.Booking{}, fmt.Errorf("get court: %w", err)
	}
	if !exists {
		return booking.Booking{}, fmt.Errorf("%w: court=%s", ErrNotFound, input.CourtID)
	}

	cx, exists, err := s.venueRepo.GetByID(ctx, c.ComplexID)
	if err != nil {
		return booking.Booking{}, fmt.Errorf("get complex: %w", err)
	}
	if !exists {
		return booking.Booking{}, fmt.Errorf("%w: complex=%s", ErrNotFound, c.ComplexID)
	}

	loc, err := cx.Location()
	if err != nil {
		return booking.Booking{}, err
	}

	now := s.now().UTC()
	startAt := input.StartAt.UTC()
	endAt := input.EndAt.UTC()
	if !startAt.After(now) {
		return booking.Booking{}, fmt.Errorf("%w: booking must start in the future", ErrInvalidInput)
	}
	if startAt.Sub(now) > maxBookingLeadTimeDur {
		return booking.Booking{}, fmt.Errorf("%w: booking starts too far in the future", ErrInvalidInput)
	}

	weekday, startMinute, endMinute, err := localInterval(loc, startAt, endAt)
	if err != nil {
		return booking.Booking{}, err
	}

	iv, open := c.Schedule.IntervalFor(weekday, startMinute, endMinute)
	if !open {
		return booking.Booking{}, fmt.Errorf("%w: [%d,%d) on %s", ErrOutOfSchedule, startMinute, endMinute, weekday)
	}
	if err := checkSlotAlignment(c, iv, startMinute, endMinute); err != nil {
		return booking.Booking{}, err
	}

	rules, err := s.courtRepo.ListPriceRules(ctx, c.ID)
	if err != nil {
		return booking.Booking{}, fmt.Errorf("list price rules: %w", err)
	}
	quote, err := court.ResolvePrice(rules, weekday, startMinute, endMinute, s.tieBreak)
	if err != nil {
		if errors.Is(err, court.ErrRuleGap) || errors.Is(err, court.ErrNoPriceRule) {
			return booking.Booking{}, fmt.Errorf("%w: %v", ErrRuleGap, err)
		}
		return booking.Booking{}, fmt.Errorf("resolve price: %w", err)
	}

	bookingID, err := s.idGen.NewID()
	if err != nil {
		return booking.Booking{}, fmt.Errorf("generate booking id: %w", err)
	}

	players := make([]booking.Player, 0, len(input.Players))
	for _, p := range input.Players {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return booking.Booking{}, fmt.Errorf("%w: player name is required", ErrInvalidInput)
		}
		players = append(players, booking.Player{Name: name, UserID: strings.TrimSpace(p.UserID)})
	}

	b := booking.Booking{
		ID:        bookingID,
		CourtID:   c.ID,
		ComplexID: c.ComplexID,
		UserID:    principal.UserID,
		StartAt:   startAt,
		EndAt:     endAt,
		Price:     quote.Price,
		Deposit:   quote.Deposit,
		RuleID:    quote.RuleID,
		Status:    booking.StatusPending,
		Players:   players,
		ExpiresAt: now.Add(s.paymentWindow),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := b.ValidateBasic(); err != nil {
		return booking.Booking{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.createWithRetry(ctx, b); err != nil {
		if errors.Is(err, booking.ErrSlotConflict) {
			return booking.Booking{}, fmt.Errorf("%w: court=%s start=%s", ErrSlotConflict, c.ID, startAt.Format(time.RFC3339))
		}
		return booking.Booking{}, fmt.Errorf("create booking: %w", err)
	}

	publishBookingEvent(ctx, s.notifier, s.logger, EventBookingPendingCreated, b, now)

	return b, nil
}

// createWithRetry absorbs transient store contention (serialization
// failures, deadlocks) with a few short-delay attempts. ErrSlotConflict
// is a real outcome and is never retried.
func (s *ReservationService) createWithRetry(ctx context.Context, b booking.Booking) error {
	var lastErr error
	for attempt := 0; attempt < createRetryAttempts; attempt++ {
		if attempt > 0 {
			s.sleep(time.Duration(attempt) * createRetryBaseDelay)
		}

		lastErr = s.bookingRepo.Create(ctx, b)
		if lastErr == nil || !errors.Is(lastErr, booking.ErrContention) {
			return lastErr
		}
		s.logger.WarnContext(ctx, "booking create hit store contention", "booking_id", b.ID, "attempt", attempt+1)
	}

	return lastErr
}

// Cancel moves a pending or confirmed booking of the caller to
// cancelled. A pending booking whose payment window has already elapsed
// is expired instead and reported as invalid input.
func (s *ReservationService) Cancel(ctx context.Context, principal user.Principal, bookingID string) (booking.Booking, error) {
	ctx, span := startUsecaseSpan(ctx, "ReservationService.Cancel")
	defer span.End()

	if principal.UserID == "" {
		return booking.Booking{}, fmt.Errorf("%w: missing caller identity", ErrUnauthorized)
	}
	bookingID = strings.TrimSpace(bookingID)
	if bookingID == "" {
		return booking.Booking{}, fmt.Errorf("%w: booking id is required", ErrInvalidInput)
	}

	b, exists, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return booking.Booking{}, fmt.Errorf("get booking: %w", err)
	}
	if !exists {
		return booking.Booking{}, fmt.Errorf("%w: booking=%s", ErrNotFound, bookingID)
	}
	if b.UserID != principal.UserID {
		return booking.Booking{}, fmt.Errorf("%w: booking belongs to another user", ErrUnauthorized)
	}

	now := s.now().UTC()
	if b.Status.IsTerminal() {
		return booking.Booking{}, fmt.Errorf("%w: booking is already %s", ErrInvalidInput, b.Status)
	}
	if b.Status == booking.StatusPending && !b.ExpiresAt.After(now) {
		// Lazy expiry: the sweep has not caught this one yet.
		if _, err := s.bookingRepo.Transition(ctx, b.ID, booking.StatusPending, booking.StatusExpired, now); err != nil {
			return booking.Booking{}, fmt.Errorf("expire stale booking: %w", err)
		}
		return booking.Booking{}, fmt.Errorf("%w: booking is already expired", ErrInvalidInput)
	}

	applied, err := s.bookingRepo.Transition(ctx, b.ID, b.Status, booking.StatusCancelled, now)
	if err != nil {
		return booking.Booking{}, fmt.Errorf("cancel booking: %w", err)
	}
	if !applied {
		return booking.Booking{}, fmt.Errorf("%w: booking state changed concurrently, reload and retry", ErrInvalidInput)
	}

	b.Status = booking.StatusCancelled
	b.UpdatedAt = now
	publishBookingEvent(ctx, s.notifier, s.logger, EventBookingCancelled, b, now)

	return b, nil
}

// ListUserBookings returns the caller's bookings, newest first.
func (s *ReservationService) ListUserBookings(ctx context.Context, principal user.Principal, statuses []booking.Status, limit int) ([]booking.Booking, error) {
	ctx, span := startUsecaseSpan(ctx, "ReservationService.ListUserBookings")
	defer span.End()

	if principal.UserID == "" {
		return nil, fmt.Errorf("%w: missing caller identity", ErrUnauthorized)
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	items, err := s.bookingRepo.ListByUser(ctx, principal.UserID, statuses, limit)
	if err != nil {
		return nil, fmt.Errorf("list bookings by user: %w", err)
	}

	return items, nil
}
