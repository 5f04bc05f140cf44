package postgres

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/courtsync/booking/internal/domain/court"
)

type courtTableModel struct {
	ID                  string     `db:"id"`
	ComplexID           string     `db:"complex_id"`
	Name                string     `db:"name"`
	SlotDurationMinutes int        `db:"slot_duration_minutes"`
	Schedule            []byte     `db:"schedule"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
	DeletedAt           *time.Time `db:"deleted_at"`
}

type priceRuleTableModel struct {
	ID          string     `db:"id"`
	CourtID     string     `db:"court_id"`
	Weekdays    []byte     `db:"weekdays"`
	StartMinute int        `db:"start_minute"`
	EndMinute   int        `db:"end_minute"`
	Price       int64      `db:"price"`
	Deposit     int64      `db:"deposit"`
	CreatedAt   time.Time  `db:"created_at"`
	DeletedAt   *time.Time `db:"deleted_at"`
}

func (m courtTableModel) toDomain() (court.Court, error) {
	var schedule court.Schedule
	if len(m.Schedule) > 0 {
		if err := sonic.Unmarshal(m.Schedule, &schedule); err != nil {
			return court.Court{}, fmt.Errorf("decode schedule for court %s: %w", m.ID, err)
		}
	}

	return court.Court{
		ID:                  m.ID,
		ComplexID:           m.ComplexID,
		Name:                m.Name,
		SlotDurationMinutes: m.SlotDurationMinutes,
		Schedule:            schedule,
		CreatedAt:           m.CreatedAt,
	}, nil
}

func (m priceRuleTableModel) toDomain() (court.PriceRule, error) {
	var weekdays []time.Weekday
	if len(m.Weekdays) > 0 {
		if err := sonic.Unmarshal(m.Weekdays, &weekdays); err != nil {
			return court.PriceRule{}, fmt.Errorf("decode weekdays for price rule %s: %w", m.ID, err)
		}
	}

	return court.PriceRule{
		ID:          m.ID,
		CourtID:     m.CourtID,
		Weekdays:    weekdays,
		StartMinute: m.StartMinute,
		EndMinute:   m.EndMinute,
		Price:       m.Price,
		Deposit:     m.Deposit,
		CreatedAt:   m.CreatedAt,
	}, nil
}
