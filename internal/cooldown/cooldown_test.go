package cooldown

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

// memStore is an in-memory Persister.
type memStore struct {
	mu       sync.Mutex
	endTime  time.Time
	duration time.Duration
	has      bool
}

func (m *memStore) SaveCooldown(endTime time.Time, duration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endTime, m.duration, m.has = endTime, duration, true
	return nil
}

func (m *memStore) LoadCooldown() (time.Time, time.Duration, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.endTime, m.duration, m.has, nil
}

func (m *memStore) ClearCooldown() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.has = false
	return nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestTimer(d time.Duration, store Persister, clock *fakeClock) *Timer {
	return New(d, store, zap.NewNop(), WithClock(clock.Now))
}

func TestStartActivatesWindow(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	store := &memStore{}
	timer := newTestTimer(3*time.Minute, store, clock)

	if timer.Active() {
		t.Fatal("fresh timer must be idle")
	}

	timer.Start()
	if !timer.Active() {
		t.Fatal("timer must be cooling after Start")
	}
	if got := timer.Remaining(); got != 3*time.Minute {
		t.Errorf("Remaining = %v, want 3m", got)
	}
	if !store.has {
		t.Error("Start must persist the window")
	}
}

func TestWindowElapsesByClock(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	timer := newTestTimer(3*time.Minute, &memStore{}, clock)
	timer.Start()

	clock.Advance(3*time.Minute - time.Second)
	if !timer.Active() {
		t.Error("window must still block one second before the end")
	}

	clock.Advance(time.Second)
	if timer.Active() {
		t.Error("window must not block at the end time")
	}
	if timer.Remaining() != 0 {
		t.Errorf("Remaining after end = %v, want 0", timer.Remaining())
	}
}

func TestResume_FutureEndTime(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	store := &memStore{}

	// A previous session persisted a window ending 45s from now.
	_ = store.SaveCooldown(clock.Now().Add(45*time.Second), 3*time.Minute)

	timer := newTestTimer(3*time.Minute, store, clock)
	if err := timer.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if !timer.Active() {
		t.Fatal("resumed timer must be cooling")
	}
	// The remaining time is derived from the persisted end time, not
	// restarted at the full duration.
	if got := timer.Remaining(); got != 45*time.Second {
		t.Errorf("Remaining = %v, want 45s", got)
	}
}

func TestResume_StaleWindowCleared(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	store := &memStore{}
	_ = store.SaveCooldown(clock.Now().Add(-time.Minute), 3*time.Minute)

	timer := newTestTimer(3*time.Minute, store, clock)
	if err := timer.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if timer.Active() {
		t.Error("stale window must not resume")
	}
	if store.has {
		t.Error("stale window must be cleared from the store")
	}
}

func TestTickTransitionsToIdle(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	store := &memStore{}
	var endedOnce bool
	timer := New(time.Minute, store, zap.NewNop(),
		WithClock(clock.Now),
		WithOnEnd(func() { endedOnce = true }),
	)
	timer.Start()

	clock.Advance(30 * time.Second)
	timer.tick()
	if !timer.Active() {
		t.Fatal("tick before the end time must not end the window")
	}

	clock.Advance(30 * time.Second)
	timer.tick()
	if timer.Active() {
		t.Error("tick at the end time must end the window")
	}
	if store.has {
		t.Error("elapsed window must be cleared from the store")
	}
	if !endedOnce {
		t.Error("OnEnd callback must fire")
	}

	// A second tick after the transition is a no-op.
	endedOnce = false
	timer.tick()
	if endedOnce {
		t.Error("OnEnd must not fire again while idle")
	}
}

func TestFormatRemaining(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{45 * time.Second, "0m45s remaining"},
		{45*time.Second + 900*time.Millisecond, "0m45s remaining"},
		{2*time.Minute + 5*time.Second, "2m5s remaining"},
		{0, "0m0s remaining"},
		{-time.Second, "0m0s remaining"},
	}
	for _, c := range cases {
		if got := FormatRemaining(c.d); got != c.want {
			t.Errorf("FormatRemaining(%v) = %q, want %q", c.d, got, c.want)
		}
	}
}

func TestStop_Idempotent(t *testing.T) {
	timer := newTestTimer(time.Minute, &memStore{}, &fakeClock{now: time.Now()})
	timer.Stop()

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("Stop should be idempotent, panicked on second call: %v", r)
		}
	}()
	timer.Stop()
}
