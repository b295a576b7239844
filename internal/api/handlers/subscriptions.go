package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/subtrack/internal/api/dto"
	"github.com/eshaffer321/subtrack/internal/application/service"
	"github.com/eshaffer321/subtrack/internal/domain/recurring"
)

// SubscriptionsHandler serves subscription management and manual linking.
type SubscriptionsHandler struct {
	*Base
	svc *service.SubscriptionService
}

// NewSubscriptionsHandler creates a new subscriptions handler.
func NewSubscriptionsHandler(svc *service.SubscriptionService, logger *slog.Logger) *SubscriptionsHandler {
	return &SubscriptionsHandler{Base: NewBase(logger), svc: svc}
}

// List handles GET /api/subscriptions.
//
// Query parameters:
//   - active: only active subscriptions when true (default: false)
func (h *SubscriptionsHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := ParseBoolParam(r, "active", false)

	subs, err := h.svc.ListSubscriptions(r.Context(), activeOnly)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}

	resp := dto.SubscriptionListResponse{
		Subscriptions: make([]dto.SubscriptionResponse, 0, len(subs)),
		Count:         len(subs),
	}
	for _, sub := range subs {
		resp.Subscriptions = append(resp.Subscriptions, dto.NewSubscriptionResponse(sub))
	}
	h.WriteSuccess(w, http.StatusOK, resp)
}

// Get handles GET /api/subscriptions/{id}.
func (h *SubscriptionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	sub, err := h.svc.GetSubscription(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, dto.NewSubscriptionResponse(sub))
}

// SetActive handles PATCH /api/subscriptions/{id}/active.
func (h *SubscriptionsHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req dto.SetActiveRequest
	if err := h.DecodeJSON(w, r, &req); err != nil {
		h.WriteBadRequest(w, err.Error())
		return
	}
	if req.Active == nil {
		h.WriteError(w, r, recurring.Invalid("active", "active is required"))
		return
	}

	sub, err := h.svc.SetSubscriptionActive(r.Context(), chi.URLParam(r, "id"), *req.Active)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, dto.NewSubscriptionResponse(sub))
}

// Delete handles DELETE /api/subscriptions/{id}.
func (h *SubscriptionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	unlinked, err := h.svc.DeleteSubscription(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, dto.DeleteSubscriptionResponse{UnlinkedCount: unlinked})
}

// Link handles PUT /api/transactions/{id}/subscription.
func (h *SubscriptionsHandler) Link(w http.ResponseWriter, r *http.Request) {
	var req dto.LinkRequest
	if err := h.DecodeJSON(w, r, &req); err != nil {
		h.WriteBadRequest(w, err.Error())
		return
	}

	txID := chi.URLParam(r, "id")
	if err := h.svc.LinkTransaction(r.Context(), txID, req.SubscriptionID); err != nil {
		h.WriteError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, dto.LinkResponse{TransactionID: txID, SubscriptionID: &req.SubscriptionID})
}

// Unlink handles DELETE /api/transactions/{id}/subscription.
func (h *SubscriptionsHandler) Unlink(w http.ResponseWriter, r *http.Request) {
	txID := chi.URLParam(r, "id")
	if err := h.svc.UnlinkTransaction(r.Context(), txID); err != nil {
		h.WriteError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, dto.LinkResponse{TransactionID: txID})
}
