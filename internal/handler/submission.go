package handler

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taskhall/commenter/internal/engine"
	appmw "github.com/taskhall/commenter/internal/middleware"
)

const maxUploadBytes = 32 << 20

// SubmissionHandler accepts evidence uploads for a claim.
type SubmissionHandler struct {
	Engine *engine.Engine
}

// Submit handles POST /api/claims/{recordID}/submission as a multipart
// form: a comment_url field plus one or more screenshot files. Field
// validation order and the no-network-on-validation-failure rule live in
// the engine; this handler only unpacks the form.
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	recordID := chi.URLParam(r, "recordID")

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		appmw.RespondError(w, http.StatusBadRequest, "INVALID_REQUEST", "failed to parse multipart form")
		return
	}

	req := engine.SubmitRequest{
		RecordID:   recordID,
		CommentURL: r.FormValue("comment_url"),
	}

	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["screenshots"] {
			f, err := fh.Open()
			if err != nil {
				appmw.RespondError(w, http.StatusBadRequest, "INVALID_REQUEST", "screenshot could not be read")
				return
			}
			raw, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				appmw.RespondError(w, http.StatusBadRequest, "INVALID_REQUEST", "screenshot could not be read")
				return
			}
			req.Screenshots = append(req.Screenshots, raw)
		}
	}

	if err := h.Engine.Submit(r.Context(), req); err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":    "submitted",
		"record_id": recordID,
	})
}
