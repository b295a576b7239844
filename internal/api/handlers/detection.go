package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/subtrack/internal/api/dto"
	"github.com/eshaffer321/subtrack/internal/application/service"
	"github.com/eshaffer321/subtrack/internal/domain/recurring"
)

// DetectionHandler serves detection, materialization and import.
type DetectionHandler struct {
	*Base
	svc *service.DetectionService
}

// NewDetectionHandler creates a new detection handler.
func NewDetectionHandler(svc *service.DetectionService, logger *slog.Logger) *DetectionHandler {
	return &DetectionHandler{Base: NewBase(logger), svc: svc}
}

// Detect handles GET /api/transactions/{id}/detection.
func (h *DetectionHandler) Detect(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := requireParam(id, "id"); err != nil {
		h.WriteError(w, r, err)
		return
	}

	result, err := h.svc.DetectSubscription(r.Context(), id)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, dto.NewDetectionResponse(result))
}

// CreateFromDetection handles POST /api/subscriptions/from-detection.
func (h *DetectionHandler) CreateFromDetection(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateFromDetectionRequest
	if err := h.DecodeJSON(w, r, &req); err != nil {
		h.WriteBadRequest(w, err.Error())
		return
	}
	if err := requireParam(req.TransactionID, "transaction_id"); err != nil {
		h.WriteError(w, r, err)
		return
	}

	result, err := h.svc.CreateSubscriptionFromDetection(r.Context(), req.ToInput())
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusCreated, dto.CreateFromDetectionResponse{
		SubscriptionID: result.SubscriptionID,
		LinkedCount:    result.LinkedCount,
	})
}

// MatchSubscription handles GET /api/transactions/{id}/subscription-match.
func (h *DetectionHandler) MatchSubscription(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := requireParam(id, "id"); err != nil {
		h.WriteError(w, r, err)
		return
	}

	match, err := h.svc.MatchActiveSubscription(r.Context(), id)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, dto.NewSubscriptionMatchResponse(match))
}

// Import handles POST /api/transactions/import.
func (h *DetectionHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req dto.ImportRequest
	if err := h.DecodeJSON(w, r, &req); err != nil {
		h.WriteBadRequest(w, err.Error())
		return
	}

	txs := make([]*recurring.Transaction, 0, len(req.Transactions))
	for _, t := range req.Transactions {
		tx, err := t.ToTransaction()
		if err != nil {
			h.WriteError(w, r, err)
			return
		}
		txs = append(txs, tx)
	}

	inserted, err := h.svc.ImportTransactions(r.Context(), txs)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, dto.ImportResponse{Received: len(txs), Inserted: inserted})
}
