package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/courtsync/booking/internal/usecase"
)

const defaultAvailabilityWindow = 24 * time.Hour

// GetCourtAvailability serves GET /v1/courts/{courtID}/availability.
// The window defaults to the next 24 hours when from/to are omitted.
func (h *Handler) GetCourtAvailability(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCourtAvailability")
	defer span.End()

	courtID := strings.TrimSpace(r.PathValue("courtID"))
	from, to, err := availabilityWindow(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	slots, err := h.availabilityService.ComputeAvailability(ctx, usecase.AvailabilityInput{
		CourtID: courtID,
		From:    from,
		To:      to,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "compute court availability failed", "court_id", courtID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, slotsToDTO(slots))
}

// GetComplexAvailability serves GET /v1/complexes/{complexID}/availability
// and fans out across the complex's courts.
func (h *Handler) GetComplexAvailability(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetComplexAvailability")
	defer span.End()

	complexID := strings.TrimSpace(r.PathValue("complexID"))
	from, to, err := availabilityWindow(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	courts, err := h.availabilityService.ComputeComplexAvailability(ctx, usecase.ComplexAvailabilityInput{
		ComplexID: complexID,
		From:      from,
		To:        to,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "compute complex availability failed", "complex_id", complexID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]courtAvailabilityDTO, 0, len(courts))
	for _, c := range courts {
		items = append(items, courtAvailabilityDTO{
			CourtID:   c.CourtID,
			CourtName: c.CourtName,
			Slots:     slotsToDTO(c.Slots),
		})
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func availabilityWindow(r *http.Request) (time.Time, time.Time, error) {
	from, err := parseTimeQuery(r.URL.Query().Get("from"), time.Now().UTC())
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseTimeQuery(r.URL.Query().Get("to"), from.Add(defaultAvailabilityWindow))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}
