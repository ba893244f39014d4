package engine

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/taskhall/commenter/internal/model"
)

func TestNextStatus(t *testing.T) {
	cases := []struct {
		name      string
		current   model.ClaimStatus
		confirmed model.ClaimStatus
		want      model.ClaimStatus
	}{
		{"claimed to submitted", model.StatusClaimed, model.StatusSubmitted, model.StatusSubmitted},
		{"claimed to expired", model.StatusClaimed, model.StatusExpired, model.StatusExpired},
		{"submitted to completed", model.StatusSubmitted, model.StatusCompleted, model.StatusCompleted},
		{"submitted to rejected", model.StatusSubmitted, model.StatusRejected, model.StatusRejected},
		{"rejected to submitted", model.StatusRejected, model.StatusSubmitted, model.StatusSubmitted},
		{"no regression submitted to claimed", model.StatusSubmitted, model.StatusClaimed, model.StatusSubmitted},
		{"no regression completed to claimed", model.StatusCompleted, model.StatusClaimed, model.StatusCompleted},
		{"expired is terminal", model.StatusExpired, model.StatusSubmitted, model.StatusExpired},
		{"same status", model.StatusClaimed, model.StatusClaimed, model.StatusClaimed},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := nextStatus(c.current, c.confirmed); got != c.want {
				t.Errorf("nextStatus(%v, %v) = %v, want %v", c.current, c.confirmed, got, c.want)
			}
		})
	}
}

func TestPartitionExclusivity(t *testing.T) {
	fake := &fakeBackend{claims: []model.AcceptanceRecord{
		{RecordID: "r-1", BTaskID: 1, Status: model.StatusClaimed, CreatedAt: 1},
		{RecordID: "r-2", BTaskID: 2, Status: model.StatusSubmitted, CreatedAt: 2},
		{RecordID: "r-3", BTaskID: 3, Status: model.StatusCompleted, CreatedAt: 3},
		{RecordID: "r-4", BTaskID: 4, Status: model.StatusRejected, CreatedAt: 4},
		{RecordID: "r-5", BTaskID: 5, Status: model.StatusClaimed, CreatedAt: 5},
	}}
	c := newClaimsReader(fake, nil, NopPublisher{}, zap.NewNop())
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	counts := c.Counts()
	sum := 0
	for _, n := range counts {
		sum += n
	}
	if sum != 5 {
		t.Errorf("partition counts sum to %d, want the total of 5", sum)
	}

	// Each claim appears in exactly one partition.
	seen := map[string]int{}
	for _, status := range []model.ClaimStatus{model.StatusClaimed, model.StatusSubmitted, model.StatusCompleted, model.StatusRejected} {
		s := status
		claims, _ := c.List(Filter{Status: &s}, 1, 100, true)
		for _, rec := range claims {
			seen[rec.RecordID]++
		}
	}
	if len(seen) != 5 {
		t.Errorf("partitions cover %d claims, want 5", len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("claim %s appears in %d partitions, want exactly 1", id, n)
		}
	}
}

func TestList_SortByAcceptTime(t *testing.T) {
	fake := &fakeBackend{claims: []model.AcceptanceRecord{
		{RecordID: "r-b", Status: model.StatusClaimed, CreatedAt: 200},
		{RecordID: "r-a", Status: model.StatusClaimed, CreatedAt: 100},
		{RecordID: "r-c", Status: model.StatusClaimed, CreatedAt: 300},
	}}
	c := newClaimsReader(fake, nil, NopPublisher{}, zap.NewNop())
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	asc, pagination := c.List(Filter{}, 1, 10, true)
	if pagination.Total != 3 {
		t.Errorf("total = %d, want 3", pagination.Total)
	}
	if asc[0].RecordID != "r-a" || asc[2].RecordID != "r-c" {
		t.Errorf("ascending order wrong: %v, %v, %v", asc[0].RecordID, asc[1].RecordID, asc[2].RecordID)
	}

	desc, _ := c.List(Filter{}, 1, 10, false)
	if desc[0].RecordID != "r-c" || desc[2].RecordID != "r-a" {
		t.Errorf("descending order wrong: %v, %v, %v", desc[0].RecordID, desc[1].RecordID, desc[2].RecordID)
	}
}

func TestList_Pagination(t *testing.T) {
	var claims []model.AcceptanceRecord
	for i := int64(1); i <= 5; i++ {
		claims = append(claims, model.AcceptanceRecord{
			RecordID: string(rune('a' + i)), Status: model.StatusClaimed, CreatedAt: i,
		})
	}
	fake := &fakeBackend{claims: claims}
	c := newClaimsReader(fake, nil, NopPublisher{}, zap.NewNop())
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	page2, pagination := c.List(Filter{}, 2, 2, true)
	if len(page2) != 2 || pagination.Total != 5 {
		t.Fatalf("page2 = %d records, total %d; want 2 and 5", len(page2), pagination.Total)
	}

	page3, _ := c.List(Filter{}, 3, 2, true)
	if len(page3) != 1 {
		t.Errorf("page3 = %d records, want 1", len(page3))
	}

	beyond, _ := c.List(Filter{}, 9, 2, true)
	if len(beyond) != 0 {
		t.Errorf("page beyond the end = %d records, want 0", len(beyond))
	}
}

// A reviewer decision arriving via refresh moves the claim forward; a
// stale page can never move it back.
func TestRefresh_NoRegression(t *testing.T) {
	fake := &fakeBackend{claims: []model.AcceptanceRecord{
		{RecordID: "r-1", Status: model.StatusSubmitted, CreatedAt: 1},
	}}
	c := newClaimsReader(fake, nil, NopPublisher{}, zap.NewNop())
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	// A stale backend response claims it is back in progress.
	fake.mu.Lock()
	fake.claims[0].Status = model.StatusClaimed
	fake.mu.Unlock()
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	got, _ := c.Get("r-1")
	if got.Status != model.StatusSubmitted {
		t.Errorf("status regressed to %v", got.Status)
	}

	// A rejection is a legitimate forward transition.
	fake.mu.Lock()
	fake.claims[0].Status = model.StatusRejected
	fake.claims[0].Review = &model.ReviewOutcome{ReviewedAt: 5, RejectReason: "blurry screenshot"}
	fake.mu.Unlock()
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	got, _ = c.Get("r-1")
	if got.Status != model.StatusRejected {
		t.Errorf("status = %v, want rejected", got.Status)
	}
	if got.Review == nil || got.Review.RejectReason != "blurry screenshot" {
		t.Errorf("review outcome lost: %+v", got.Review)
	}
}

// The reject reason from the last review stays attached when a later
// fetch omits it, until a new review outcome replaces it.
func TestRefresh_KeepsRejectReason(t *testing.T) {
	fake := &fakeBackend{claims: []model.AcceptanceRecord{
		{
			RecordID: "r-1", Status: model.StatusRejected, CreatedAt: 1,
			Review: &model.ReviewOutcome{ReviewedAt: 5, RejectReason: "wrong link"},
		},
	}}
	c := newClaimsReader(fake, nil, NopPublisher{}, zap.NewNop())
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	fake.mu.Lock()
	fake.claims[0].Status = model.StatusSubmitted
	fake.claims[0].Review = nil
	fake.mu.Unlock()
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	got, _ := c.Get("r-1")
	if got.Status != model.StatusSubmitted {
		t.Errorf("status = %v, want submitted after resubmission", got.Status)
	}
	if got.Review == nil || got.Review.RejectReason != "wrong link" {
		t.Errorf("previous reject reason must survive, got %+v", got.Review)
	}

	fake.mu.Lock()
	fake.claims[0].Status = model.StatusCompleted
	fake.claims[0].Review = &model.ReviewOutcome{ReviewedAt: 9}
	fake.mu.Unlock()
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	got, _ = c.Get("r-1")
	if got.Review == nil || got.Review.RejectReason != "" {
		t.Errorf("a new review outcome must replace the old reason, got %+v", got.Review)
	}
}

type memSnapshots struct {
	saved []model.AcceptanceRecord
}

func (m *memSnapshots) SaveClaims(claims []model.AcceptanceRecord) error {
	m.saved = append([]model.AcceptanceRecord(nil), claims...)
	return nil
}

func (m *memSnapshots) LoadClaims() ([]model.AcceptanceRecord, error) {
	return m.saved, nil
}

func TestRestore_ShowsLastSnapshot(t *testing.T) {
	snaps := &memSnapshots{saved: []model.AcceptanceRecord{
		{RecordID: "r-1", Status: model.StatusSubmitted, CreatedAt: 1},
	}}
	c := newClaimsReader(&fakeBackend{}, snaps, NopPublisher{}, zap.NewNop())
	c.restore()

	got, ok := c.Get("r-1")
	if !ok || got.Status != model.StatusSubmitted {
		t.Errorf("restored claim = %+v ok=%v", got, ok)
	}
}

func TestRefresh_PersistsSnapshot(t *testing.T) {
	snaps := &memSnapshots{}
	fake := &fakeBackend{claims: []model.AcceptanceRecord{
		{RecordID: "r-1", Status: model.StatusClaimed, CreatedAt: time.Now().UnixMilli()},
	}}
	c := newClaimsReader(fake, snaps, NopPublisher{}, zap.NewNop())
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(snaps.saved) != 1 || snaps.saved[0].RecordID != "r-1" {
		t.Errorf("snapshot = %+v, want the fetched claim", snaps.saved)
	}
}
