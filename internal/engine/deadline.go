package engine

import (
	"time"

	"github.com/taskhall/commenter/internal/cooldown"
	"github.com/taskhall/commenter/internal/model"
)

// DeadlineView is the display-only derivation of a claim's deadline. It
// never mutates the claim; CanSubmit follows the server-reported status
// and timeout flag, not the local countdown, so a skewed client clock
// cannot unlock a claim the server already expired.
type DeadlineView struct {
	Deadline      int64  `json:"deadline"`
	DeadlineText  string `json:"deadline_text,omitempty"`
	RemainingMS   int64  `json:"remaining_ms"`
	RemainingText string `json:"remaining_text"`
	Overdue       bool   `json:"overdue"`
	CanSubmit     bool   `json:"can_submit"`
}

// PresentDeadline derives the deadline view for one claim at the given
// time.
func PresentDeadline(rec model.AcceptanceRecord, now time.Time) DeadlineView {
	v := DeadlineView{
		Deadline:     rec.Deadline,
		DeadlineText: rec.DeadlineText,
	}

	if rec.Deadline > 0 {
		remaining := time.UnixMilli(rec.Deadline).Sub(now)
		if remaining > 0 {
			v.RemainingMS = remaining.Milliseconds()
		}
		v.RemainingText = cooldown.FormatRemaining(time.Duration(v.RemainingMS) * time.Millisecond)
		v.Overdue = remaining <= 0
	}

	// Server authority wins over the local clock in both directions.
	if rec.IsTimeout || rec.Status == model.StatusExpired {
		v.Overdue = true
		v.RemainingMS = 0
	}

	v.CanSubmit = !rec.IsTimeout &&
		rec.Status != model.StatusExpired &&
		(rec.Status == model.StatusClaimed || rec.Status == model.StatusRejected)
	return v
}
