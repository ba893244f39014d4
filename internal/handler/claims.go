package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taskhall/commenter/internal/engine"
	appmw "github.com/taskhall/commenter/internal/middleware"
	"github.com/taskhall/commenter/internal/model"
)

// ClaimsHandler serves the claim operation and the partitioned claims view.
type ClaimsHandler struct {
	Engine *engine.Engine
}

// Partition names accepted by the claims listing.
var partitionStatus = map[string]model.ClaimStatus{
	"in-progress": model.StatusClaimed,
	"submitted":   model.StatusSubmitted,
	"completed":   model.StatusCompleted,
	"rejected":    model.StatusRejected,
}

// Claim handles POST /api/claims: the atomic grab. The body names the
// pool task; the engine enforces the cooldown and in-flight guards before
// anything is sent.
func (h *ClaimsHandler) Claim(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BTaskID int64 `json:"b_task_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.BTaskID == 0 {
		appmw.RespondError(w, http.StatusBadRequest, "INVALID_REQUEST", "b_task_id is required")
		return
	}

	outcome, err := h.Engine.Claim(r.Context(), body.BTaskID)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, outcome)
}

// List handles GET /api/claims?status=&page=&size=&order=.
func (h *ClaimsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filter engine.Filter
	if name := q.Get("status"); name != "" && name != "all" {
		status, ok := partitionStatus[name]
		if !ok {
			appmw.RespondError(w, http.StatusBadRequest, "INVALID_REQUEST", "unknown status partition")
			return
		}
		filter.Status = &status
	}

	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("size"))
	ascending := q.Get("order") == "ASC"

	claims, pagination := h.Engine.Claims().List(filter, page, size, ascending)
	if claims == nil {
		claims = []model.AcceptanceRecord{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"list":       claims,
		"pagination": pagination,
	})
}

// Get handles GET /api/claims/{recordID}: one claim plus its deadline
// presentation.
func (h *ClaimsHandler) Get(w http.ResponseWriter, r *http.Request) {
	recordID := chi.URLParam(r, "recordID")
	rec, ok := h.Engine.Claims().Get(recordID)
	if !ok {
		appmw.RespondError(w, http.StatusNotFound, "NOT_FOUND", "claim record not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"claim":    rec,
		"deadline": engine.PresentDeadline(rec, time.Now()),
	})
}

// Refresh handles POST /api/claims/refresh: an on-demand reconciliation,
// used when the worker switches partitions.
func (h *ClaimsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.Claims().Refresh(r.Context()); err != nil {
		respondEngineError(w, err)
		return
	}
	counts := h.Engine.Claims().Counts()
	respondJSON(w, http.StatusOK, map[string]any{
		"in_progress": counts[model.StatusClaimed],
		"submitted":   counts[model.StatusSubmitted],
		"completed":   counts[model.StatusCompleted],
		"rejected":    counts[model.StatusRejected],
	})
}
