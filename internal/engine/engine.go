package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/taskhall/commenter/internal/backend"
	"github.com/taskhall/commenter/internal/cooldown"
	"github.com/taskhall/commenter/internal/imaging"
	"github.com/taskhall/commenter/internal/model"
)

// Backend is the slice of the marketplace API the engine consumes.
type Backend interface {
	TaskPool(ctx context.Context, page, size int, sortField, sortOrder string) (*model.TaskPage, int64, error)
	ClaimTask(ctx context.Context, bTaskID int64) (*backend.ClaimResult, error)
	MyClaims(ctx context.Context, status *model.ClaimStatus, page, size int) (*model.ClaimPage, error)
	SubmitEvidence(ctx context.Context, bTaskID int64, recordID, commentURL string, screenshots []string) error
}

// Snapshotter persists the claims snapshot across restarts.
type Snapshotter interface {
	SaveClaims([]model.AcceptanceRecord) error
	LoadClaims() ([]model.AcceptanceRecord, error)
}

// Engine is the worker-side task lifecycle engine: pool view, claim
// operation, claims partitions, evidence submission. Every status
// transition is driven by an explicit server confirmation; nothing moves
// optimistically.
type Engine struct {
	backend  Backend
	cooldown *cooldown.Timer
	pool     *PoolReader
	claims   *ClaimsReader
	events   Publisher
	log      *zap.Logger
	imgOpts  imaging.Options

	mu       sync.Mutex
	inFlight map[int64]struct{}
}

// Config assembles an Engine.
type Config struct {
	Backend     Backend
	Cooldown    *cooldown.Timer
	Snapshots   Snapshotter
	Events      Publisher
	Log         *zap.Logger
	PageSize    int
	Imaging     imaging.Options
	// ExcludedTitleMarkers drops non-claimable template tasks from the
	// pool view by title substring.
	ExcludedTitleMarkers []string
}

// New creates an engine. A nil Events publisher is replaced by a no-op.
func New(cfg Config) *Engine {
	if cfg.Events == nil {
		cfg.Events = NopPublisher{}
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	if cfg.Imaging.MaxBytes == 0 {
		cfg.Imaging = imaging.DefaultOptions()
	}

	e := &Engine{
		backend:  cfg.Backend,
		cooldown: cfg.Cooldown,
		events:   cfg.Events,
		log:      cfg.Log,
		imgOpts:  cfg.Imaging,
		inFlight: make(map[int64]struct{}),
	}
	e.pool = newPoolReader(cfg.Backend, cfg.PageSize, cfg.ExcludedTitleMarkers, cfg.Events, cfg.Log)
	e.claims = newClaimsReader(cfg.Backend, cfg.Snapshots, cfg.Events, cfg.Log)
	return e
}

// Pool exposes the task pool view.
func (e *Engine) Pool() *PoolReader { return e.pool }

// Claims exposes the claims view.
func (e *Engine) Claims() *ClaimsReader { return e.claims }

// Cooldown exposes the claim throttle, read-only for callers.
func (e *Engine) Cooldown() *cooldown.Timer { return e.cooldown }

// CooldownState is the window as shown to the UI.
type CooldownState struct {
	Active    bool   `json:"active"`
	Remaining int64  `json:"remaining_ms"`
	EndTime   int64  `json:"end_time,omitempty"`
	Message   string `json:"message,omitempty"`
}

// CooldownView returns the current window for display.
func (e *Engine) CooldownView() CooldownState {
	if !e.cooldown.Active() {
		return CooldownState{}
	}
	r := e.cooldown.Remaining()
	return CooldownState{
		Active:    true,
		Remaining: r.Milliseconds(),
		EndTime:   e.cooldown.EndTime().UnixMilli(),
		Message:   cooldown.FormatRemaining(r),
	}
}

// Start restores persisted state: the cooldown window and the last claims
// snapshot, so a restart shows known state before the first fetch.
func (e *Engine) Start() error {
	if err := e.cooldown.Resume(); err != nil {
		return err
	}
	e.claims.restore()
	return nil
}

func nowMilli() int64 { return time.Now().UnixMilli() }
