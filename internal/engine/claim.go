package engine

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/taskhall/commenter/internal/metrics"
	"github.com/taskhall/commenter/internal/model"
)

// ClaimOutcome is returned for a successful grab.
type ClaimOutcome struct {
	RecordID string `json:"record_id"`
	BTaskID  int64  `json:"b_task_id"`
	Deadline int64  `json:"deadline,omitempty"`
}

// Claim grabs one task. Preconditions are checked locally before any
// request goes out: the cooldown window must be idle, and no attempt for
// the same task may already be in flight. On backend confirmation the
// side effects run in strict order: start the cooldown, drop the task
// from the pool view, refresh claims, then announce the claim so the UI
// can navigate. A failure surfaces the backend message and changes no
// local state.
func (e *Engine) Claim(ctx context.Context, taskID int64) (*ClaimOutcome, error) {
	if e.cooldown.Active() {
		metrics.ClaimAttempts.WithLabelValues("cooldown").Inc()
		return nil, model.NewError(model.ErrCooldown, "still cooling down, "+e.cooldown.Message())
	}

	e.mu.Lock()
	if _, busy := e.inFlight[taskID]; busy {
		e.mu.Unlock()
		metrics.ClaimAttempts.WithLabelValues("duplicate").Inc()
		return nil, model.NewError(model.ErrValidation, "a claim for this task is already in progress")
	}
	e.inFlight[taskID] = struct{}{}
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.inFlight, taskID)
		e.mu.Unlock()
	}()

	result, err := e.backend.ClaimTask(ctx, taskID)
	if err != nil {
		outcome := "error"
		var appErr *model.Error
		if errors.As(err, &appErr) && appErr.Kind == model.ErrConflict {
			outcome = "conflict"
			// Someone else got there first; refresh so the worker
			// sees current reality.
			if rErr := e.pool.Refresh(ctx); rErr != nil {
				e.log.Debug("pool refresh after conflict", zap.Error(rErr))
			}
		}
		metrics.ClaimAttempts.WithLabelValues(outcome).Inc()
		return nil, err
	}

	metrics.ClaimAttempts.WithLabelValues("accepted").Inc()
	e.log.Info("task claimed",
		zap.Int64("b_task_id", taskID),
		zap.String("record_id", result.RecordID),
	)

	e.cooldown.Start()
	e.events.Publish(Event{Type: EventCooldownStarted, Payload: e.CooldownView()})

	e.pool.Remove(taskID)

	e.claims.Track(model.AcceptanceRecord{
		RecordID:   result.RecordID,
		BTaskID:    taskID,
		Status:     model.StatusClaimed,
		StatusText: model.StatusClaimed.Display().Label,
		CreatedAt:  nowMilli(),
		Deadline:   result.Deadline,
	})
	if err := e.claims.Refresh(ctx); err != nil {
		// The claim itself is confirmed; a failed refresh only delays
		// details until the next reconciliation.
		e.log.Warn("claims refresh after claim", zap.Error(err))
	}

	outcome := &ClaimOutcome{RecordID: result.RecordID, BTaskID: taskID, Deadline: result.Deadline}
	e.events.Publish(Event{Type: EventClaimAccepted, Payload: outcome})
	return outcome, nil
}
