package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/courtsync/booking/internal/domain/booking"
	"github.com/courtsync/booking/internal/domain/court"
	"github.com/courtsync/booking/internal/domain/venue"
)

// maxAvailabilityRangeDays bounds a single availability query; wider
// ranges are a client error, not a pagination concern.
const maxAvailabilityRangeDays = 31

const defaultAvailabilityFanOut = 4

type SlotStatus string

const (
	SlotOpen  SlotStatus = "open"
	SlotTaken SlotStatus = "taken"
)

// Slot is one bookable unit of a court's calendar. Price and Deposit
// come from the rule that would be snapshotted if the slot were
// reserved right now.
type Slot struct {
	CourtID string
	StartAt time.Time
	EndAt   time.Time
	Status  SlotStatus
	Price   int64
	Deposit int64
	RuleID  string
}

type AvailabilityInput struct {
	CourtID string
	From    time.Time
	To      time.Time
}

type ComplexAvailabilityInput struct {
	ComplexID string
	From      time.Time
	To        time.Time
}

// CourtAvailability is one court's slots inside a complex-wide result.
type CourtAvailability struct {
	CourtID   string
	CourtName string
	Slots     []Slot
}

type AvailabilityService struct {
	venueRepo   venue.Repository
	courtRepo   court.Repository
	bookingRepo booking.Repository
	tieBreak    court.TieBreak
	fanOut      int
	now         func() time.Time
}

func NewAvailabilityService(
	venueRepo venue.Repository,
	courtRepo court.Repository,
	bookingRepo booking.Repository,
	tieBreak court.TieBreak,
	fanOut int,
) *AvailabilityService {
	if fanOut <= 0 {
		fanOut = defaultAvailabilityFanOut
	}

	return &AvailabilityService{
		venueRepo:   venueRepo,
		courtRepo:   courtRepo,
		bookingRepo: bookingRepo,
		tieBreak:    tieBreak,
		fanOut:      fanOut,
		now:         time.Now,
	}
}

// ComputeAvailability materializes the court's slot calendar for
// [from, to). It is recomputed from current booking state on every call;
// a pending booking whose payment window has elapsed is already Open
// here even before the expiry sweep has run.
func (s *AvailabilityService) ComputeAvailability(ctx context.Context, input AvailabilityInput) ([]Slot, error) {
	ctx, span := startUsecaseSpan(ctx, "AvailabilityService.ComputeAvailability")
	defer span.End()

	input.CourtID = strings.TrimSpace(input.CourtID)
	if input.CourtID == "" {
		return nil, fmt.Errorf("%w: court id is required", ErrInvalidInput)
	}
	if err := validateRange(input.From, input.To); err != nil {
		return nil, err
	}

	c, exists, err := s.courtRepo.GetByID(ctx, input.CourtID)
	if err != nil {
		return nil, fmt.Errorf("get court: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: court=%s", ErrNotFound, input.CourtID)
	}

	cx, exists, err := s.venueRepo.GetByID(ctx, c.ComplexID)
	if err != nil {
		return nil, fmt.Errorf("get complex: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: complex=%s", ErrNotFound, c.ComplexID)
	}

	loc, err := cx.Location()
	if err != nil {
		return nil, err
	}

	rules, err := s.courtRepo.ListPriceRules(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("list price rules: %w", err)
	}

	now := s.now().UTC()
	blocking, err := s.bookingRepo.ListBlockingByCourt(ctx, c.ID, input.From, input.To, now)
	if err != nil {
		return nil, fmt.Errorf("list blocking bookings: %w", err)
	}

	return s.buildSlots(c, loc, rules, blocking, input.From, input.To), nil
}

// ComputeComplexAvailability fans ComputeAvailability out over every
// court of the complex with a bounded pool. Results keep the court
// order of the repository listing.
func (s *AvailabilityService) ComputeComplexAvailability(ctx context.Context, input ComplexAvailabilityInput) ([]CourtAvailability, error) {
	ctx, span := startUsecaseSpan(ctx, "AvailabilityService.ComputeComplexAvailability")
	defer span.End()

	input.ComplexID = strings.TrimSpace(input.ComplexID)
	if input.ComplexID == "" {
		return nil, fmt.Errorf("%w: complex id is required", ErrInvalidInput)
	}
	if err := validateRange(input.From, input.To); err != nil {
		return nil, err
	}

	if _, exists, err := s.venueRepo.GetByID(ctx, input.ComplexID); err != nil {
		return nil, fmt.Errorf("get complex: %w", err)
	} else if !exists {
		return nil, fmt.Errorf("%w: complex=%s", ErrNotFound, input.ComplexID)
	}

	courts, err := s.courtRepo.ListByComplex(ctx, input.ComplexID)
	if err != nil {
		return nil, fmt.Errorf("list courts by complex: %w", err)
	}

	p := pool.NewWithResults[CourtAvailability]().WithContext(ctx).WithMaxGoroutines(s.fanOut)
	for _, c := range courts {
		c := c
		p.Go(func(ctx context.Context) (CourtAvailability, error) {
			slots, err := s.ComputeAvailability(ctx, AvailabilityInput{
				CourtID: c.ID,
				From:    input.From,
				To:      input.To,
			})
			if err != nil {
				return CourtAvailability{}, fmt.Errorf("court %s: %w", c.ID, err)
			}

			return CourtAvailability{CourtID: c.ID, CourtName: c.Name, Slots: slots}, nil
		})
	}

	results, err := p.Wait()
	if err != nil {
		return nil, err
	}

	return results, nil
}

func (s *AvailabilityService) buildSlots(
	c court.Court,
	loc *time.Location,
	rules []court.PriceRule,
	blocking []booking.Booking,
	from, to time.Time,
) []Slot {
	var slots []Slot

	localFrom := from.In(loc)
	day := time.Date(localFrom.Year(), localFrom.Month(), localFrom.Day(), 0, 0, 0, 0, loc)
	for day.Before(to.In(loc)) {
		weekday := day.Weekday()
		for _, iv := range c.Schedule[weekday] {
			for m := iv.StartMinute; m+c.SlotDurationMinutes <= iv.EndMinute; m += c.SlotDurationMinutes {
				slotStart := time.Date(day.Year(), day.Month(), day.Day(), m/60, m%60, 0, 0, loc).UTC()
				slotEnd := slotStart.Add(time.Duration(c.SlotDurationMinutes) * time.Minute)
				if slotStart.Before(from) || slotEnd.After(to) {
					continue
				}

				quote, err := court.ResolvePrice(rules, weekday, m, m+c.SlotDurationMinutes, s.tieBreak)
				if err != nil {
					// Unpriced slots are not bookable, so they are not
					// offered either.
					continue
				}

				slot := Slot{
					CourtID: c.ID,
					StartAt: slotStart,
					EndAt:   slotEnd,
					Status:  SlotOpen,
					Price:   quote.Price,
					Deposit: quote.Deposit,
					RuleID:  quote.RuleID,
				}
				for _, b := range blocking {
					if b.Overlaps(slotStart, slotEnd) {
						slot.Status = SlotTaken
						break
					}
				}
				slots = append(slots, slot)
			}
		}
		day = day.AddDate(0, 0, 1)
	}

	return slots
}

func validateRange(from, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return fmt.Errorf("%w: from and to are required", ErrInvalidInput)
	}
	if !from.Before(to) {
		return fmt.Errorf("%w: from must be before to", ErrInvalidInput)
	}
	if to.Sub(from) > maxAvailabilityRangeDays*24*time.Hour {
		return fmt.Errorf("%w: range cannot exceed %d days", ErrInvalidInput, maxAvailabilityRangeDays)
	}

	return nil
}
