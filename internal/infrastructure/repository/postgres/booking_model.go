package postgres

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/courtsync/booking/internal/domain/booking"
)

type bookingTableModel struct {
	ID         string         `db:"id"`
	CourtID    string         `db:"court_id"`
	ComplexID  string         `db:"complex_id"`
	UserID     string         `db:"user_id"`
	StartAt    time.Time      `db:"start_at"`
	EndAt      time.Time      `db:"end_at"`
	Price      int64          `db:"price"`
	Deposit    int64          `db:"deposit"`
	RuleID     sql.NullString `db:"rule_id"`
	Status     string         `db:"status"`
	PaymentRef sql.NullString `db:"payment_ref"`
	Players    []byte         `db:"players"`
	ExpiresAt  *time.Time     `db:"expires_at"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

type bookingPlayerModel struct {
	Name   string `json:"name"`
	UserID string `json:"user_id,omitempty"`
}

func (m bookingTableModel) toDomain() (booking.Booking, error) {
	var players []bookingPlayerModel
	if len(m.Players) > 0 {
		if err := sonic.Unmarshal(m.Players, &players); err != nil {
			return booking.Booking{}, fmt.Errorf("decode players for booking %s: %w", m.ID, err)
		}
	}

	out := booking.Booking{
		ID:         m.ID,
		CourtID:    m.CourtID,
		ComplexID:  m.ComplexID,
		UserID:     m.UserID,
		StartAt:    m.StartAt.UTC(),
		EndAt:      m.EndAt.UTC(),
		Price:      m.Price,
		Deposit:    m.Deposit,
		RuleID:     m.RuleID.String,
		Status:     booking.Status(m.Status),
		PaymentRef: m.PaymentRef.String,
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
	if m.ExpiresAt != nil {
		out.ExpiresAt = m.ExpiresAt.UTC()
	}
	for _, p := range players {
		out.Players = append(out.Players, booking.Player{Name: p.Name, UserID: p.UserID})
	}

	return out, nil
}

func bookingToTableModel(b booking.Booking) (bookingTableModel, error) {
	players := make([]bookingPlayerModel, 0, len(b.Players))
	for _, p := range b.Players {
		players = append(players, bookingPlayerModel{Name: p.Name, UserID: p.UserID})
	}
	encoded, err := sonic.Marshal(players)
	if err != nil {
		return bookingTableModel{}, fmt.Errorf("encode players for booking %s: %w", b.ID, err)
	}

	model := bookingTableModel{
		ID:        b.ID,
		CourtID:   b.CourtID,
		ComplexID: b.ComplexID,
		UserID:    b.UserID,
		StartAt:   b.StartAt.UTC(),
		EndAt:     b.EndAt.UTC(),
		Price:     b.Price,
		Deposit:   b.Deposit,
		Status:    string(b.Status),
		Players:   encoded,
		CreatedAt: b.CreatedAt.UTC(),
		UpdatedAt: b.UpdatedAt.UTC(),
	}
	if b.RuleID != "" {
		model.RuleID = sql.NullString{String: b.RuleID, Valid: true}
	}
	if b.PaymentRef != "" {
		model.PaymentRef = sql.NullString{String: b.PaymentRef, Valid: true}
	}
	if !b.ExpiresAt.IsZero() {
		expiresAt := b.ExpiresAt.UTC()
		model.ExpiresAt = &expiresAt
	}

	return model, nil
}
