package model

import "encoding/json"

// Task is a unit of work visible in the shared pool before being claimed.
type Task struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Commission   string `json:"commission"`
	Status       int    `json:"status"`
	Deadline     int64  `json:"deadline"`
	DeadlineText string `json:"deadline_text"`
	CreatedAt    int64  `json:"created_at"`
}

// TaskStatusOpen is the pool-side status of a claimable task.
const TaskStatusOpen = 1

// RecommendMark is the structured hint attached to a claim: a free-text
// comment plus an optional image and @-mention.
type RecommendMark struct {
	Comment string `json:"comment"`
	Image   string `json:"image,omitempty"`
	Mention string `json:"mention,omitempty"`
}

// AcceptanceRecord binds exactly one worker to one task instance. It is
// created once per successful claim and lives until a terminal status.
type AcceptanceRecord struct {
	RecordID      string        `json:"record_id"`
	BTaskID       int64         `json:"b_task_id"`
	TemplateTitle string        `json:"template_title"`
	VideoURL      string        `json:"video_url,omitempty"`
	RecommendMark RecommendMark `json:"recommend_mark"`
	RewardAmount  string        `json:"reward_amount"`
	Status        ClaimStatus   `json:"status"`
	StatusText    string        `json:"status_text"`
	CreatedAt     int64         `json:"created_at"`
	Deadline      int64         `json:"deadline"`
	DeadlineText  string        `json:"deadline_text"`
	TimeRemaining int64         `json:"time_remaining"`
	IsTimeout     bool          `json:"is_timeout"`

	Submission *Submission    `json:"submission,omitempty"`
	Review     *ReviewOutcome `json:"review,omitempty"`
}

// Submission is the evidence bundle attached to one acceptance record.
// The wire format carries a sequence of screenshots even though the
// current product supplies exactly one.
type Submission struct {
	CommentURL  string   `json:"comment_url"`
	Screenshots []string `json:"screenshots"`
	SubmittedAt int64    `json:"submitted_at"`
}

// ReviewOutcome is produced by an external reviewer. RejectReason is
// present only when the submission was rejected.
type ReviewOutcome struct {
	ReviewedAt   int64  `json:"reviewed_at"`
	RejectReason string `json:"reject_reason,omitempty"`
}

// Pagination describes a page of a larger collection.
type Pagination struct {
	Page  int `json:"page"`
	Size  int `json:"size"`
	Total int `json:"total"`
}

// Envelope is the backend response wrapper. Code zero (or Success true)
// signals success; any other code is a logical failure whose Message is
// safe to show to the worker. HTTP status is secondary to this envelope.
type Envelope struct {
	Success   bool            `json:"success,omitempty"`
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// OK reports whether the envelope denotes logical success.
func (e *Envelope) OK() bool {
	return e.Code == 0 || e.Success
}

// TaskPage is the payload of a task pool listing.
type TaskPage struct {
	List  []Task `json:"list"`
	Total int    `json:"total"`
}

// ClaimPage is the payload of a claims listing.
type ClaimPage struct {
	List       []AcceptanceRecord `json:"list"`
	Pagination Pagination         `json:"pagination"`
}
