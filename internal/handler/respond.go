package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	appmw "github.com/taskhall/commenter/internal/middleware"
	"github.com/taskhall/commenter/internal/model"
)

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// respondEngineError maps a lifecycle error onto an HTTP status and a
// worker-facing JSON body. Transport detail never leaves the process;
// only the typed message does.
func respondEngineError(w http.ResponseWriter, err error) {
	var appErr *model.Error
	if !errors.As(err, &appErr) {
		appmw.RespondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "the operation failed, please try again")
		return
	}

	switch appErr.Kind {
	case model.ErrValidation:
		appmw.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", appErr.Message)
	case model.ErrCooldown:
		appmw.RespondError(w, http.StatusTooManyRequests, "COOLDOWN_ACTIVE", appErr.Message)
	case model.ErrConflict:
		appmw.RespondError(w, http.StatusConflict, "CONFLICT", appErr.Message)
	case model.ErrTransient:
		appmw.RespondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", appErr.Message)
	default:
		appmw.RespondError(w, http.StatusBadGateway, "BACKEND_ERROR", appErr.Message)
	}
}
