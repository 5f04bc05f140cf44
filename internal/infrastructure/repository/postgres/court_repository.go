package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/courtsync/booking/internal/domain/court"
	qb "github.com/courtsync/booking/internal/platform/querybuilder"
)

type CourtRepository struct {
	db *sqlx.DB
}

func NewCourtRepository(db *sqlx.DB) *CourtRepository {
	return &CourtRepository{db: db}
}

func (r *CourtRepository) GetByID(ctx context.Context, courtID string) (court.Court, bool, error) {
	query, args, err := qb.Select("*").From("courts").
		Where(
			qb.Eq("id", courtID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return court.Court{}, false, fmt.Errorf("build get court by id query: %w", err)
	}

	var row courtTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return court.Court{}, false, nil
		}
		return court.Court{}, false, fmt.Errorf("get court by id: %w", err)
	}

	c, err := row.toDomain()
	if err != nil {
		return court.Court{}, false, err
	}

	return c, true, nil
}

func (r *CourtRepository) ListByComplex(ctx context.Context, complexID string) ([]court.Court, error) {
	query, args, err := qb.Select("*").From("courts").
		Where(
			qb.Eq("complex_id", complexID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list courts by complex query: %w", err)
	}

	var rows []courtTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list courts by complex: %w", err)
	}

	out := make([]court.Court, 0, len(rows))
	for _, row := range rows {
		c, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}

	return out, nil
}

func (r *CourtRepository) ListPriceRules(ctx context.Context, courtID string) ([]court.PriceRule, error) {
	query, args, err := qb.Select("*").From("price_rules").
		Where(
			qb.Eq("court_id", courtID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list price rules query: %w", err)
	}

	var rows []priceRuleTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list price rules by court: %w", err)
	}

	out := make([]court.PriceRule, 0, len(rows))
	for _, row := range rows {
		rule, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}

	return out, nil
}
