package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/taskhall/commenter/internal/imaging"
	"github.com/taskhall/commenter/internal/metrics"
	"github.com/taskhall/commenter/internal/model"
)

// SubmitRequest is one evidence submission as entered by the worker.
// Screenshots are raw image bytes; the engine compresses them before
// upload.
type SubmitRequest struct {
	RecordID    string
	CommentURL  string
	Screenshots [][]byte
}

// Submit validates and sends evidence for one claim. Validation runs in
// order, first failure wins, and a validation failure never issues a
// network call. Submission is gated by the server-reported status and
// timeout flag, never by a locally computed countdown. On success the
// claim moves to the submitted partition; on failure nothing local
// changes, so the worker's entered values survive for a retry.
func (e *Engine) Submit(ctx context.Context, req SubmitRequest) error {
	rec, ok := e.claims.Get(req.RecordID)
	if !ok {
		metrics.Submissions.WithLabelValues("validation").Inc()
		return model.NewError(model.ErrValidation, "unknown claim record")
	}

	if req.CommentURL == "" {
		metrics.Submissions.WithLabelValues("validation").Inc()
		return model.NewError(model.ErrValidation, "comment link is required")
	}
	if len(req.Screenshots) == 0 {
		metrics.Submissions.WithLabelValues("validation").Inc()
		return model.NewError(model.ErrValidation, "screenshot is required")
	}

	// The server owns expiry. A claim it reports timed out or expired
	// cannot be submitted even if the local clock disagrees.
	if rec.IsTimeout || rec.Status == model.StatusExpired {
		metrics.Submissions.WithLabelValues("validation").Inc()
		return model.NewError(model.ErrConflict, "the claim deadline has passed")
	}
	if rec.Status != model.StatusClaimed && rec.Status != model.StatusRejected {
		metrics.Submissions.WithLabelValues("validation").Inc()
		return model.NewError(model.ErrConflict, "this claim cannot be submitted in its current state")
	}

	screenshots := make([]string, 0, len(req.Screenshots))
	for _, raw := range req.Screenshots {
		compressed, err := imaging.Compress(raw, e.imgOpts)
		if err != nil {
			metrics.Submissions.WithLabelValues("validation").Inc()
			return model.NewError(model.ErrValidation, "the screenshot could not be read")
		}
		screenshots = append(screenshots, imaging.DataURI(compressed))
	}

	if err := e.backend.SubmitEvidence(ctx, rec.BTaskID, rec.RecordID, req.CommentURL, screenshots); err != nil {
		metrics.Submissions.WithLabelValues("error").Inc()
		return err
	}

	metrics.Submissions.WithLabelValues("accepted").Inc()
	e.log.Info("evidence submitted",
		zap.String("record_id", rec.RecordID),
		zap.Int64("b_task_id", rec.BTaskID),
		zap.Int("screenshots", len(screenshots)),
	)

	submittedAt := nowMilli()
	e.claims.Apply(rec.RecordID, model.StatusSubmitted, func(r *model.AcceptanceRecord) {
		r.Submission = &model.Submission{
			CommentURL:  req.CommentURL,
			Screenshots: screenshots,
			SubmittedAt: submittedAt,
		}
	})
	if err := e.claims.Refresh(ctx); err != nil {
		e.log.Warn("claims refresh after submission", zap.Error(err))
	}

	e.events.Publish(Event{Type: EventSubmissionAccepted, Payload: map[string]string{"record_id": rec.RecordID}})
	return nil
}
