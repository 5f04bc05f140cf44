package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/courtsync/booking/internal/usecase"
)

// PaymentCallback receives processor notifications. The endpoint is
// unauthenticated because the processor signs nothing we can verify
// here; reconciliation trusts only the stored payment reference and,
// when enabled, a status re-fetch against the processor itself.
//
// A 2xx acknowledges the notification and stops processor retries, so
// processed, duplicate and unknown-reference callbacks all return 200.
// Only transport-shaped failures return 5xx to request a redelivery.
func (h *Handler) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PaymentCallback")
	defer span.End()

	var req paymentCallbackRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	err := h.settlementService.HandleCallback(ctx, usecase.CallbackInput{
		PaymentRef: strings.TrimSpace(req.PreferenceID),
		PaymentID:  strings.TrimSpace(req.PaymentID),
		Status:     req.Status,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "payment callback failed", "preference_id", req.PreferenceID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "received"})
}
