package engine

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/taskhall/commenter/internal/model"
)

// ClaimsReader holds the worker's claims, partitioned by status. The
// four partitions are mutually exclusive views over one collection; a
// claim is in exactly one at any time.
type ClaimsReader struct {
	backend   Backend
	snapshots Snapshotter
	events    Publisher
	log       *zap.Logger

	mu     sync.Mutex
	byID   map[string]model.AcceptanceRecord
	order  []string
}

func newClaimsReader(b Backend, snaps Snapshotter, events Publisher, log *zap.Logger) *ClaimsReader {
	return &ClaimsReader{
		backend:   b,
		snapshots: snaps,
		events:    events,
		log:       log,
		byID:      make(map[string]model.AcceptanceRecord),
	}
}

// nextStatus applies a server confirmation to the locally shown status.
// Local status never regresses: the only backward-looking edges are the
// legitimate submitted -> rejected review outcome and the rejected ->
// submitted resubmission. Anything else keeps the current status.
func nextStatus(current, confirmed model.ClaimStatus) model.ClaimStatus {
	if current == confirmed {
		return current
	}
	allowed := map[model.ClaimStatus][]model.ClaimStatus{
		model.StatusOpen:      {model.StatusClaimed, model.StatusSubmitted, model.StatusCompleted, model.StatusRejected, model.StatusExpired},
		model.StatusClaimed:   {model.StatusSubmitted, model.StatusCompleted, model.StatusRejected, model.StatusExpired},
		model.StatusSubmitted: {model.StatusCompleted, model.StatusRejected},
		model.StatusRejected:  {model.StatusSubmitted, model.StatusCompleted, model.StatusExpired},
	}
	for _, s := range allowed[current] {
		if s == confirmed {
			return confirmed
		}
	}
	return current
}

// Refresh re-fetches all claims from the backend and reconciles them
// into the local view through the transition function. It is called on
// demand, after a claim, after a submission, and by the periodic
// reconciler.
func (c *ClaimsReader) Refresh(ctx context.Context) error {
	page, err := c.backend.MyClaims(ctx, nil, 1, 200)
	if err != nil {
		c.log.Warn("claims fetch failed", zap.Error(err))
		return err
	}

	c.mu.Lock()
	changed := c.applyLocked(page.List)
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	if c.snapshots != nil {
		if err := c.snapshots.SaveClaims(snapshot); err != nil {
			c.log.Warn("persist claims snapshot", zap.Error(err))
		}
	}
	for _, rec := range changed {
		c.events.Publish(Event{Type: EventClaimUpdated, Payload: rec})
	}
	return nil
}

// applyLocked reconciles fetched records into the local collection and
// returns the records whose visible status changed.
func (c *ClaimsReader) applyLocked(fetched []model.AcceptanceRecord) []model.AcceptanceRecord {
	var changed []model.AcceptanceRecord
	for _, rec := range fetched {
		prev, known := c.byID[rec.RecordID]
		if known {
			rec.Status = nextStatus(prev.Status, rec.Status)
			// A reject reason stays readable until a new review
			// outcome replaces it.
			if rec.Review == nil && prev.Review != nil {
				rec.Review = prev.Review
			}
			if prev.Status != rec.Status {
				changed = append(changed, rec)
			}
		} else {
			c.order = append(c.order, rec.RecordID)
			changed = append(changed, rec)
		}
		c.byID[rec.RecordID] = rec
	}
	// Records the backend no longer returns are kept; the collection is
	// the worker's history, not a mirror of one response page.
	return changed
}

// Apply records a single server-confirmed transition, e.g. right after a
// successful submission.
func (c *ClaimsReader) Apply(recordID string, confirmed model.ClaimStatus, mutate func(*model.AcceptanceRecord)) {
	c.mu.Lock()
	rec, ok := c.byID[recordID]
	if !ok {
		c.mu.Unlock()
		return
	}
	rec.Status = nextStatus(rec.Status, confirmed)
	rec.StatusText = rec.Status.Display().Label
	if mutate != nil {
		mutate(&rec)
	}
	c.byID[recordID] = rec
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	if c.snapshots != nil {
		if err := c.snapshots.SaveClaims(snapshot); err != nil {
			c.log.Warn("persist claims snapshot", zap.Error(err))
		}
	}
	c.events.Publish(Event{Type: EventClaimUpdated, Payload: rec})
}

// Track inserts a freshly claimed record into the in-progress partition.
// Called only after the backend confirmed the claim.
func (c *ClaimsReader) Track(rec model.AcceptanceRecord) {
	c.mu.Lock()
	if _, known := c.byID[rec.RecordID]; !known {
		c.order = append(c.order, rec.RecordID)
	}
	c.byID[rec.RecordID] = rec
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	if c.snapshots != nil {
		if err := c.snapshots.SaveClaims(snapshot); err != nil {
			c.log.Warn("persist claims snapshot", zap.Error(err))
		}
	}
}

// Get returns one claim by record id.
func (c *ClaimsReader) Get(recordID string) (model.AcceptanceRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.byID[recordID]
	return rec, ok
}

// Filter selects a status partition. The zero value selects all.
type Filter struct {
	Status *model.ClaimStatus
}

// List returns one page of a partition sorted by accept time. Sorting is
// stable; equal accept times keep arrival order.
func (c *ClaimsReader) List(filter Filter, page, size int, ascending bool) ([]model.AcceptanceRecord, model.Pagination) {
	c.mu.Lock()
	var all []model.AcceptanceRecord
	for _, id := range c.order {
		rec := c.byID[id]
		if filter.Status != nil && rec.Status != *filter.Status {
			continue
		}
		all = append(all, rec)
	}
	c.mu.Unlock()

	sort.SliceStable(all, func(i, j int) bool {
		if ascending {
			return all[i].CreatedAt < all[j].CreatedAt
		}
		return all[i].CreatedAt > all[j].CreatedAt
	})

	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	total := len(all)
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return all[start:end], model.Pagination{Page: page, Size: size, Total: total}
}

// Counts returns the size of each partition. The partition counts always
// sum to the total collection size.
func (c *ClaimsReader) Counts() map[model.ClaimStatus]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	counts := make(map[model.ClaimStatus]int)
	for _, rec := range c.byID {
		counts[rec.Status]++
	}
	return counts
}

// restore loads the persisted snapshot so a restart shows the last known
// partitions before the first fetch completes.
func (c *ClaimsReader) restore() {
	if c.snapshots == nil {
		return
	}
	claims, err := c.snapshots.LoadClaims()
	if err != nil {
		c.log.Warn("load claims snapshot", zap.Error(err))
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rec := range claims {
		if _, known := c.byID[rec.RecordID]; !known {
			c.order = append(c.order, rec.RecordID)
		}
		c.byID[rec.RecordID] = rec
	}
}

func (c *ClaimsReader) snapshotLocked() []model.AcceptanceRecord {
	out := make([]model.AcceptanceRecord, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}
