package statestore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/taskhall/commenter/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCooldownRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if _, _, ok, err := s.LoadCooldown(); err != nil || ok {
		t.Fatalf("empty store: ok=%v err=%v, want no window", ok, err)
	}

	end := time.Now().Add(3 * time.Minute).Truncate(time.Millisecond)
	if err := s.SaveCooldown(end, 3*time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}

	gotEnd, gotDur, ok, err := s.LoadCooldown()
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if !gotEnd.Equal(end) {
		t.Errorf("end = %v, want %v", gotEnd, end)
	}
	if gotDur != 3*time.Minute {
		t.Errorf("duration = %v, want 3m", gotDur)
	}

	// Saving again overwrites the single row.
	end2 := end.Add(time.Minute)
	if err := s.SaveCooldown(end2, time.Minute); err != nil {
		t.Fatalf("save again: %v", err)
	}
	gotEnd, _, _, _ = s.LoadCooldown()
	if !gotEnd.Equal(end2) {
		t.Errorf("end after overwrite = %v, want %v", gotEnd, end2)
	}

	if err := s.ClearCooldown(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, _, ok, _ := s.LoadCooldown(); ok {
		t.Error("window must be gone after clear")
	}
}

func TestClaimsSnapshotRoundTrip(t *testing.T) {
	s := openTestStore(t)

	claims := []model.AcceptanceRecord{
		{
			RecordID:     "r-101",
			BTaskID:      101,
			RewardAmount: "12.50",
			Status:       model.StatusClaimed,
			CreatedAt:    1700000000000,
			Deadline:     1700000600000,
		},
		{
			RecordID: "r-102",
			BTaskID:  102,
			Status:   model.StatusRejected,
			Review:   &model.ReviewOutcome{ReviewedAt: 1700000300000, RejectReason: "wrong link"},
		},
	}
	if err := s.SaveClaims(claims); err != nil {
		t.Fatalf("save claims: %v", err)
	}

	got, err := s.LoadClaims()
	if err != nil {
		t.Fatalf("load claims: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("loaded %d claims, want 2", len(got))
	}
	byID := map[string]model.AcceptanceRecord{}
	for _, c := range got {
		byID[c.RecordID] = c
	}
	if byID["r-101"].Status != model.StatusClaimed || byID["r-101"].BTaskID != 101 {
		t.Errorf("r-101 = %+v", byID["r-101"])
	}
	rej := byID["r-102"]
	if rej.Review == nil || rej.Review.RejectReason != "wrong link" {
		t.Errorf("reject reason lost: %+v", rej)
	}

	// A new snapshot replaces the old one.
	if err := s.SaveClaims(claims[:1]); err != nil {
		t.Fatalf("save replacement: %v", err)
	}
	got, _ = s.LoadClaims()
	if len(got) != 1 {
		t.Errorf("loaded %d claims after replacement, want 1", len(got))
	}
}

func TestStamps(t *testing.T) {
	s := openTestStore(t)

	if got, err := s.LastTouched("pool"); err != nil || !got.IsZero() {
		t.Fatalf("untouched stamp = %v err=%v, want zero", got, err)
	}

	at := time.Now().Truncate(time.Millisecond)
	if err := s.Touch("pool", at); err != nil {
		t.Fatalf("touch: %v", err)
	}
	got, err := s.LastTouched("pool")
	if err != nil {
		t.Fatalf("last touched: %v", err)
	}
	if !got.Equal(at) {
		t.Errorf("stamp = %v, want %v", got, at)
	}
}
