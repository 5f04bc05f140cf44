package court

import (
	"fmt"
	"sort"
	"time"
)

const minutesPerDay = 24 * 60

// OpenInterval is a half-open window [StartMinute, EndMinute) of local
// wall-clock minutes since midnight.
type OpenInterval struct {
	StartMinute int `json:"start_minute"`
	EndMinute   int `json:"end_minute"`
}

func (iv OpenInterval) Contains(startMinute, endMinute int) bool {
	return iv.StartMinute <= startMinute && endMinute <= iv.EndMinute
}

// Schedule is the recurring weekly open-hours definition of a court:
// weekday to an ordered list of non-overlapping open intervals.
type Schedule map[time.Weekday][]OpenInterval

// IntervalFor returns the single open interval that fully contains
// [startMinute, endMinute) on the given weekday, if any.
func (s Schedule) IntervalFor(day time.Weekday, startMinute, endMinute int) (OpenInterval, bool) {
	for _, iv := range s[day] {
		if iv.Contains(startMinute, endMinute) {
			return iv, true
		}
	}

	return OpenInterval{}, false
}

// Court is a bookable unit. SlotDurationMinutes fixes the granularity of
// every booking on the court; the slot grid is anchored at each open
// interval's start.
type Court struct {
	ID                  string
	ComplexID           string
	Name                string
	SlotDurationMinutes int
	Schedule            Schedule
	CreatedAt           time.Time
}

func (c Court) ValidateBasic() error {
	if c.ID == "" {
		return fmt.Errorf("court id is required")
	}
	if c.ComplexID == "" {
		return fmt.Errorf("complex id is required")
	}
	if c.Name == "" {
		return fmt.Errorf("court name is required")
	}
	if c.SlotDurationMinutes <= 0 {
		return fmt.Errorf("slot duration must be greater than zero")
	}
	if minutesPerDay%c.SlotDurationMinutes != 0 && c.SlotDurationMinutes > minutesPerDay {
		return fmt.Errorf("slot duration %d does not fit in a day", c.SlotDurationMinutes)
	}

	for day, intervals := range c.Schedule {
		sorted := append([]OpenInterval(nil), intervals...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartMinute < sorted[j].StartMinute })
		prevEnd := -1
		for _, iv := range sorted {
			if iv.StartMinute < 0 || iv.EndMinute > minutesPerDay || iv.StartMinute >= iv.EndMinute {
				return fmt.Errorf("invalid open interval [%d,%d) on %s", iv.StartMinute, iv.EndMinute, day)
			}
			if iv.StartMinute < prevEnd {
				return fmt.Errorf("overlapping open intervals on %s", day)
			}
			prevEnd = iv.EndMinute
		}
	}

	return nil
}

// PriceRule is a time-banded price/deposit definition for a court.
// Amounts are in minor currency units. [StartMinute, EndMinute) applies
// on every weekday in Weekdays.
type PriceRule struct {
	ID          string
	CourtID     string
	Weekdays    []time.Weekday
	StartMinute int
	EndMinute   int
	Price       int64
	Deposit     int64
	CreatedAt   time.Time
}

func (r PriceRule) ActiveOn(day time.Weekday) bool {
	for _, d := range r.Weekdays {
		if d == day {
			return true
		}
	}

	return false
}

func (r PriceRule) ValidateBasic() error {
	if r.ID == "" {
		return fmt.Errorf("price rule id is required")
	}
	if r.CourtID == "" {
		return fmt.Errorf("court id is required")
	}
	if len(r.Weekdays) == 0 {
		return fmt.Errorf("price rule weekdays are required")
	}
	if r.StartMinute < 0 || r.EndMinute > minutesPerDay || r.StartMinute >= r.EndMinute {
		return fmt.Errorf("invalid price rule interval [%d,%d)", r.StartMinute, r.EndMinute)
	}
	if r.Price < 0 || r.Deposit < 0 {
		return fmt.Errorf("price and deposit cannot be negative")
	}
	if r.Deposit > r.Price {
		return fmt.Errorf("deposit cannot exceed price")
	}

	return nil
}
