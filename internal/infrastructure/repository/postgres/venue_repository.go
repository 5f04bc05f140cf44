package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/courtsync/booking/internal/domain/venue"
	qb "github.com/courtsync/booking/internal/platform/querybuilder"
)

type VenueRepository struct {
	db *sqlx.DB
}

func NewVenueRepository(db *sqlx.DB) *VenueRepository {
	return &VenueRepository{db: db}
}

func (r *VenueRepository) GetByID(ctx context.Context, complexID string) (venue.Complex, bool, error) {
	query, args, err := qb.Select("*").From("complexes").
		Where(
			qb.Eq("id", complexID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return venue.Complex{}, false, fmt.Errorf("build get complex by id query: %w", err)
	}

	var row complexTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return venue.Complex{}, false, nil
		}
		return venue.Complex{}, false, fmt.Errorf("get complex by id: %w", err)
	}

	return venue.Complex{
		ID:                  row.ID,
		Name:                row.Name,
		Timezone:            row.Timezone,
		ProcessorCredential: row.ProcessorCredential,
		CreatedAt:           row.CreatedAt,
	}, true, nil
}

func (r *VenueRepository) ListCourtIDs(ctx context.Context, complexID string) ([]string, error) {
	query, args, err := qb.Select("id").From("courts").
		Where(
			qb.Eq("complex_id", complexID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list court ids query: %w", err)
	}

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("list court ids by complex: %w", err)
	}

	return ids, nil
}
