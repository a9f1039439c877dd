package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/sms-confirm-api/internal/domain"
)

const defaultDeliveryPageSize = 50

// DeliveryLister is the minimal read interface over the delivery audit log.
type DeliveryLister interface {
	ListByTenant(ctx context.Context, tenant string, limit int32) ([]domain.Delivery, error)
}

// DeliveryHandler exposes the dispatch audit log (admin surface).
type DeliveryHandler struct {
	repo   DeliveryLister
	tenant string
}

func NewDeliveryHandler(repo DeliveryLister, tenant string) *DeliveryHandler {
	return &DeliveryHandler{repo: repo, tenant: tenant}
}

func (h *DeliveryHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := int32(defaultDeliveryPageSize)
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = int32(n)
		}
	}
	deliveries, err := h.repo.ListByTenant(r.Context(), h.tenant, limit)
	if err != nil {
		httpError(w, err)
		return
	}
	if deliveries == nil {
		deliveries = []domain.Delivery{}
	}
	writeJSON(w, http.StatusOK, DeliveriesEnvelope{Count: len(deliveries), Data: deliveries})
}
