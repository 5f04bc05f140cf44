package memory

import (
	"context"
	"sync"

	"github.com/courtsync/booking/internal/domain/venue"
)

type VenueRepository struct {
	mu       sync.RWMutex
	items    map[string]venue.Complex
	courtIDs map[string][]string
}

func NewVenueRepository(complexes []venue.Complex) *VenueRepository {
	items := make(map[string]venue.Complex, len(complexes))
	for _, cx := range complexes {
		items[cx.ID] = cloneComplex(cx)
	}

	return &VenueRepository{
		items:    items,
		courtIDs: make(map[string][]string),
	}
}

func (r *VenueRepository) GetByID(_ context.Context, complexID string) (venue.Complex, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cx, ok := r.items[complexID]
	if !ok {
		return venue.Complex{}, false, nil
	}

	return cloneComplex(cx), true, nil
}

func (r *VenueRepository) ListCourtIDs(_ context.Context, complexID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.courtIDs[complexID]...), nil
}

// RegisterCourt keeps the complex-to-court index in sync with the court
// repository. Seeds call it; tests can too.
func (r *VenueRepository) RegisterCourt(complexID, courtID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.courtIDs[complexID] {
		if id == courtID {
			return
		}
	}
	r.courtIDs[complexID] = append(r.courtIDs[complexID], courtID)
}

func cloneComplex(cx venue.Complex) venue.Complex {
	out := cx
	out.ProcessorCredential = append([]byte(nil), cx.ProcessorCredential...)

	return out
}
