package handler

import (
	"net/http"

	"github.com/taskhall/commenter/internal/backend"
	"github.com/taskhall/commenter/internal/engine"
)

// PoolHandler serves the accumulated task pool view.
type PoolHandler struct {
	Engine *engine.Engine
}

// Get handles GET /api/pool. It serves the accumulated view; fetching is
// driven by Refresh and More so the UI controls when pages load.
func (h *PoolHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.Engine.Pool().Snapshot())
}

// Refresh handles POST /api/pool/refresh: the manual retry that discards
// the view and fetches page one. Sort overrides ride along as query
// parameters.
func (h *PoolHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if field := r.URL.Query().Get("sort"); field != "" {
		order := r.URL.Query().Get("order")
		if order != backend.OrderAsc {
			order = backend.OrderDesc
		}
		h.Engine.Pool().SetSort(field, order)
	}
	if err := h.Engine.Pool().Refresh(r.Context()); err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.Engine.Pool().Snapshot())
}

// More handles POST /api/pool/more: appends the next page for
// infinite-scroll consumption.
func (h *PoolHandler) More(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.Pool().LoadMore(r.Context()); err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.Engine.Pool().Snapshot())
}
