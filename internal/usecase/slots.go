package usecase

import (
	"fmt"
	"time"

	"github.com/courtsync/booking/internal/domain/court"
)

const minutesPerDay = 24 * 60

// localInterval projects a UTC [startAt, endAt) onto the tenant's local
// wall-clock: the weekday of the local start plus both endpoints as
// minutes since local midnight. Schedules and price rules are day
// scoped, so the interval must be minute aligned and must not cross a
// local midnight (ending exactly at midnight counts as the same day).
func localInterval(loc *time.Location, startAt, endAt time.Time) (time.Weekday, int, int, error) {
	if !startAt.Before(endAt) {
		return 0, 0, 0, fmt.Errorf("%w: start must be before end", ErrInvalidInput)
	}
	if startAt.Second() != 0 || startAt.Nanosecond() != 0 || endAt.Second() != 0 || endAt.Nanosecond() != 0 {
		return 0, 0, 0, fmt.Errorf("%w: booking times must be minute aligned", ErrInvalidDuration)
	}

	localStart := startAt.In(loc)
	localEnd := endAt.In(loc)
	startMinute := localStart.Hour()*60 + localStart.Minute()
	endMinute := localEnd.Hour()*60 + localEnd.Minute()

	sy, sm, sd := localStart.Date()
	ey, em, ed := localEnd.Date()
	if sy != ey || sm != em || sd != ed {
		nextMidnight := time.Date(sy, sm, sd, 0, 0, 0, 0, loc).AddDate(0, 0, 1)
		if !localEnd.Equal(nextMidnight) {
			return 0, 0, 0, fmt.Errorf("%w: booking must stay within one local day", ErrOutOfSchedule)
		}
		endMinute = minutesPerDay
	}

	return localStart.Weekday(), startMinute, endMinute, nil
}

// checkSlotAlignment verifies that [startMinute, endMinute) sits on the
// court's slot grid anchored at the open interval's start and spans a
// whole number of slots.
func checkSlotAlignment(c court.Court, iv court.OpenInterval, startMinute, endMinute int) error {
	if (endMinute-startMinute)%c.SlotDurationMinutes != 0 {
		return fmt.Errorf("%w: duration must be a multiple of %d minutes", ErrInvalidDuration, c.SlotDurationMinutes)
	}
	if (startMinute-iv.StartMinute)%c.SlotDurationMinutes != 0 {
		return fmt.Errorf("%w: start is off the %d-minute slot grid", ErrInvalidDuration, c.SlotDurationMinutes)
	}

	return nil
}
