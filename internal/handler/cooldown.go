package handler

import (
	"net/http"

	"github.com/taskhall/commenter/internal/engine"
)

// CooldownHandler exposes the claim throttle for display. The window is
// read-only here; only the timer itself mutates it.
type CooldownHandler struct {
	Engine *engine.Engine
}

// Get handles GET /api/cooldown.
func (h *CooldownHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.Engine.CooldownView())
}
