package handler

import (
	"net/http"

	"github.com/go-apns-push/internal/application/delivery"
)

// DeliveryHandler triggers delivery batches on demand.
type DeliveryHandler struct {
	svc delivery.Service
}

func NewDeliveryHandler(svc delivery.Service) *DeliveryHandler {
	return &DeliveryHandler{svc: svc}
}

// Trigger runs one batch over all pending notifications and reports the counts.
// The batch holds the caller for up to the gateway response timeout per failed
// write, so this endpoint is for operators and schedulers, not request paths.
func (h *DeliveryHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.DeliverPending(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
