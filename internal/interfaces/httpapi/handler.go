package httpapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/courtsync/booking/internal/platform/logging"
	"github.com/courtsync/booking/internal/usecase"
)

type Handler struct {
	availabilityService *usecase.AvailabilityService
	reservationService  *usecase.ReservationService
	settlementService   *usecase.SettlementService
	expiryService       *usecase.ExpiryService
	logger              *logging.Logger
	validator           *validator.Validate
}

func NewHandler(
	availabilityService *usecase.AvailabilityService,
	reservationService *usecase.ReservationService,
	settlementService *usecase.SettlementService,
	expiryService *usecase.ExpiryService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		availabilityService: availabilityService,
		reservationService:  reservationService,
		settlementService:   settlementService,
		expiryService:       expiryService,
		logger:              logger,
		validator:           validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}
