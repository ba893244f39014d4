package cooldown

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultDuration is the claim throttle applied after every successful grab.
const DefaultDuration = 3 * time.Minute

const tickInterval = time.Second

// State of the timer.
type State int

const (
	Idle State = iota
	Cooling
)

// Persister stores the absolute end time so a restart resumes the window
// instead of resetting it.
type Persister interface {
	SaveCooldown(endTime time.Time, duration time.Duration) error
	LoadCooldown() (endTime time.Time, duration time.Duration, ok bool, err error)
	ClearCooldown() error
}

// Timer is the claim cooldown window. It is the sole mutator of the
// window; every other component reads it through Active and Remaining.
type Timer struct {
	mu       sync.Mutex
	state    State
	endTime  time.Time
	duration time.Duration

	store   Persister
	log     *zap.Logger
	now     func() time.Time
	onEnd   func()
	stopped chan struct{}
	stop    sync.Once
}

// Option configures a Timer.
type Option func(*Timer)

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Timer) { t.now = now }
}

// WithOnEnd registers a callback fired once when a window elapses.
func WithOnEnd(fn func()) Option {
	return func(t *Timer) { t.onEnd = fn }
}

// New creates an idle timer backed by the given store.
func New(duration time.Duration, store Persister, log *zap.Logger, opts ...Option) *Timer {
	if duration <= 0 {
		duration = DefaultDuration
	}
	t := &Timer{
		state:    Idle,
		duration: duration,
		store:    store,
		log:      log,
		now:      time.Now,
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Resume restores a persisted window. If the stored end time is still in
// the future the timer enters Cooling with the correct remaining time; a
// stale window is cleared instead.
func (t *Timer) Resume() error {
	endTime, duration, ok, err := t.store.LoadCooldown()
	if err != nil {
		return fmt.Errorf("load cooldown: %w", err)
	}
	if !ok {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.now().Before(endTime) {
		t.state = Cooling
		t.endTime = endTime
		if duration > 0 {
			t.duration = duration
		}
		t.log.Info("cooldown resumed", zap.Duration("remaining", endTime.Sub(t.now())))
		return nil
	}
	return t.store.ClearCooldown()
}

// Start opens a new window of the configured duration.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = Cooling
	t.endTime = t.now().Add(t.duration)
	if err := t.store.SaveCooldown(t.endTime, t.duration); err != nil {
		t.log.Warn("persist cooldown", zap.Error(err))
	}
}

// Active reports whether the window still blocks claims.
func (t *Timer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == Cooling && t.now().Before(t.endTime)
}

// Remaining returns the time left in the window, zero when idle.
func (t *Timer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != Cooling {
		return 0
	}
	r := t.endTime.Sub(t.now())
	if r < 0 {
		return 0
	}
	return r
}

// EndTime returns the absolute end of the current window.
func (t *Timer) EndTime() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.endTime
}

// Message renders the remaining time for display, whole seconds rounded
// down, e.g. "0m45s remaining".
func (t *Timer) Message() string {
	return FormatRemaining(t.Remaining())
}

// FormatRemaining renders a remaining duration as minutes and seconds by
// integer division of the remaining milliseconds.
func FormatRemaining(r time.Duration) string {
	totalSec := r.Milliseconds() / 1000
	if totalSec < 0 {
		totalSec = 0
	}
	return fmt.Sprintf("%dm%ds remaining", totalSec/60, totalSec%60)
}

// Run drives the window with a once-per-second tick until Stop. The tick
// is the only transition from Cooling back to Idle.
func (t *Timer) Run() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-t.stopped:
			return
		case <-ticker.C:
			t.tick()
		}
	}
}

// Stop terminates Run. Safe to call more than once.
func (t *Timer) Stop() {
	t.stop.Do(func() { close(t.stopped) })
}

func (t *Timer) tick() {
	t.mu.Lock()
	if t.state != Cooling || t.now().Before(t.endTime) {
		t.mu.Unlock()
		return
	}
	t.state = Idle
	if err := t.store.ClearCooldown(); err != nil {
		t.log.Warn("clear cooldown", zap.Error(err))
	}
	onEnd := t.onEnd
	t.mu.Unlock()

	t.log.Info("cooldown ended")
	if onEnd != nil {
		onEnd()
	}
}
