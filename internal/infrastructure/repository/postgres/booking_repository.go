package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/courtsync/booking/internal/domain/booking"
	qb "github.com/courtsync/booking/internal/platform/querybuilder"
)

const blockingPredicate = "(status = 'confirmed' OR (status = 'pending' AND expires_at > ?))"

type BookingRepository struct {
	db *sqlx.DB
}

func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create inserts a pending booking after re-checking the slot inside
// one transaction. A per-court advisory lock serializes competing
// creates for the same court, so the overlap check and the insert are
// atomic across instances without locking the whole table.
func (r *BookingRepository) Create(ctx context.Context, b booking.Booking) error {
	model, err := bookingToTableModel(b)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin booking create tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", b.CourtID); err != nil {
		if isContention(err) {
			return fmt.Errorf("%w: %v", booking.ErrContention, err)
		}
		return fmt.Errorf("acquire court lock: %w", err)
	}

	now := b.CreatedAt.UTC()
	const overlapQuery = `
SELECT EXISTS (
    SELECT 1 FROM bookings
    WHERE court_id = $1
      AND start_at < $3
      AND end_at > $2
      AND (status = 'confirmed' OR (status = 'pending' AND expires_at > $4))
)`
	var taken bool
	if err := tx.GetContext(ctx, &taken, overlapQuery, b.CourtID, model.StartAt, model.EndAt, now); err != nil {
		if isContention(err) {
			return fmt.Errorf("%w: %v", booking.ErrContention, err)
		}
		return fmt.Errorf("check slot overlap: %w", err)
	}
	if taken {
		return fmt.Errorf("%w: court=%s", booking.ErrSlotConflict, b.CourtID)
	}

	query, args, err := qb.InsertModel("bookings", model, "")
	if err != nil {
		return fmt.Errorf("build insert booking query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isContention(err) {
			return fmt.Errorf("%w: %v", booking.ErrContention, err)
		}
		return fmt.Errorf("insert booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if isContention(err) {
			return fmt.Errorf("%w: %v", booking.ErrContention, err)
		}
		return fmt.Errorf("commit booking create tx: %w", err)
	}

	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, bookingID string) (booking.Booking, bool, error) {
	return r.getBy(ctx, qb.Eq("id", bookingID))
}

func (r *BookingRepository) GetByPaymentRef(ctx context.Context, paymentRef string) (booking.Booking, bool, error) {
	return r.getBy(ctx, qb.Eq("payment_ref", paymentRef))
}

func (r *BookingRepository) getBy(ctx context.Context, cond qb.Condition) (booking.Booking, bool, error) {
	query, args, err := qb.Select("*").From("bookings").Where(cond).ToSQL()
	if err != nil {
		return booking.Booking{}, false, fmt.Errorf("build get booking query: %w", err)
	}

	var row bookingTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return booking.Booking{}, false, nil
		}
		return booking.Booking{}, false, fmt.Errorf("get booking: %w", err)
	}

	b, err := row.toDomain()
	if err != nil {
		return booking.Booking{}, false, err
	}

	return b, true, nil
}

func (r *BookingRepository) ListBlockingByCourt(ctx context.Context, courtID string, from, to, now time.Time) ([]booking.Booking, error) {
	query, args, err := qb.Select("*").From("bookings").
		Where(
			qb.Eq("court_id", courtID),
			qb.Expr("start_at < ?", to.UTC()),
			qb.Expr("end_at > ?", from.UTC()),
			qb.Expr(blockingPredicate, now.UTC()),
		).
		OrderBy("start_at").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list blocking bookings query: %w", err)
	}

	return r.selectBookings(ctx, query, args)
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID string, statuses []booking.Status, limit int) ([]booking.Booking, error) {
	conditions := []qb.Condition{qb.Eq("user_id", userID)}
	if len(statuses) > 0 {
		values := make([]any, 0, len(statuses))
		for _, st := range statuses {
			values = append(values, string(st))
		}
		conditions = append(conditions, qb.In("status", values))
	}

	query, args, err := qb.Select("*").From("bookings").
		Where(conditions...).
		OrderBy("created_at DESC", "id").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list bookings by user query: %w", err)
	}

	return r.selectBookings(ctx, query, args)
}

func (r *BookingRepository) SetPaymentRef(ctx context.Context, bookingID, paymentRef string, now time.Time) error {
	// Re-running with the same ref is an idempotent retry; a different
	// ref on a booking that already has one is refused by the predicate.
	const query = `
UPDATE bookings
SET payment_ref = $1, updated_at = $2
WHERE id = $3
  AND status = 'pending'
  AND expires_at > $2
  AND (payment_ref IS NULL OR payment_ref = $1)`

	result, err := r.db.ExecContext(ctx, query, paymentRef, now.UTC(), bookingID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("payment ref %s already belongs to another booking", paymentRef)
		}
		return fmt.Errorf("set payment ref: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set payment ref rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("booking %s is not awaiting payment", bookingID)
	}

	return nil
}

// Transition applies from -> to only while the stored row still matches
// from, with expiry guards on the pending exits: a confirmation needs
// an open payment window, an expiry needs an elapsed one. Concurrent
// callers race on the row predicate; at most one UPDATE applies.
func (r *BookingRepository) Transition(ctx context.Context, bookingID string, from, to booking.Status, now time.Time) (bool, error) {
	if !from.CanTransitionTo(to) {
		return false, nil
	}

	builder := qb.Update("bookings").
		Set("status", string(to)).
		Set("updated_at", now.UTC()).
		Where(
			qb.Eq("id", bookingID),
			qb.Eq("status", string(from)),
		)
	if from == booking.StatusPending && to == booking.StatusConfirmed {
		builder = builder.Where(qb.Expr("expires_at > ?", now.UTC()))
	}
	if from == booking.StatusPending && to == booking.StatusExpired {
		builder = builder.Where(qb.Expr("expires_at <= ?", now.UTC()))
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return false, fmt.Errorf("build booking transition query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isContention(err) {
			return false, fmt.Errorf("%w: %v", booking.ErrContention, err)
		}
		return false, fmt.Errorf("transition booking %s to %s: %w", bookingID, to, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition rows affected: %w", err)
	}

	return affected > 0, nil
}

func (r *BookingRepository) ListStalePending(ctx context.Context, now time.Time, limit int) ([]booking.Booking, error) {
	query, args, err := qb.Select("*").From("bookings").
		Where(
			qb.EqLiteral("status", "pending"),
			qb.Expr("expires_at <= ?", now.UTC()),
		).
		OrderBy("expires_at", "id").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list stale pending query: %w", err)
	}

	return r.selectBookings(ctx, query, args)
}

func (r *BookingRepository) selectBookings(ctx context.Context, query string, args []any) ([]booking.Booking, error) {
	var rows []bookingTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select bookings: %w", err)
	}

	out := make([]booking.Booking, 0, len(rows))
	for _, row := range rows {
		b, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}

	return out, nil
}
