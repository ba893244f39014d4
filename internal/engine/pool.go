package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/taskhall/commenter/internal/metrics"
	"github.com/taskhall/commenter/internal/model"
)

// PoolReader accumulates pages of claimable tasks for infinite-scroll
// consumption. Pages append; Refresh starts over from page one. A failed
// fetch marks the view errored instead of silently serving stale data.
type PoolReader struct {
	backend  Backend
	pageSize int
	markers  []string
	events   Publisher
	log      *zap.Logger

	mu          sync.Mutex
	tasks       []model.Task
	seen        map[int64]struct{}
	total       int
	nextPage    int
	sortField   string
	sortOrder   string
	lastUpdated time.Time
	errored     bool
}

func newPoolReader(b Backend, pageSize int, markers []string, events Publisher, log *zap.Logger) *PoolReader {
	return &PoolReader{
		backend:   b,
		pageSize:  pageSize,
		markers:   markers,
		events:    events,
		log:       log,
		seen:      make(map[int64]struct{}),
		nextPage:  1,
		sortField: "createTime",
		sortOrder: "DESC",
	}
}

// SetSort changes the sort and resets accumulation; the next fetch
// starts from page one under the new order.
func (p *PoolReader) SetSort(field, order string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sortField = field
	p.sortOrder = order
	p.resetLocked()
}

// Refresh discards the accumulated view and fetches page one.
func (p *PoolReader) Refresh(ctx context.Context) error {
	p.mu.Lock()
	p.resetLocked()
	p.mu.Unlock()
	return p.LoadMore(ctx)
}

// LoadMore fetches the next page and appends it to the view.
func (p *PoolReader) LoadMore(ctx context.Context) error {
	p.mu.Lock()
	page := p.nextPage
	field, order := p.sortField, p.sortOrder
	p.mu.Unlock()

	pageData, ts, err := p.backend.TaskPool(ctx, page, p.pageSize, field, order)
	if err != nil {
		metrics.PoolRefreshes.WithLabelValues("error").Inc()
		p.mu.Lock()
		p.errored = true
		p.mu.Unlock()
		p.log.Warn("pool fetch failed", zap.Int("page", page), zap.Error(err))
		return err
	}
	metrics.PoolRefreshes.WithLabelValues("ok").Inc()

	p.mu.Lock()
	for _, t := range pageData.List {
		if t.Status != model.TaskStatusOpen {
			continue
		}
		if p.excluded(t.Title) {
			continue
		}
		if _, dup := p.seen[t.ID]; dup {
			continue
		}
		p.seen[t.ID] = struct{}{}
		p.tasks = append(p.tasks, t)
	}
	p.total = pageData.Total
	p.nextPage = page + 1
	p.errored = false
	if ts > 0 {
		p.lastUpdated = time.UnixMilli(ts)
	} else {
		p.lastUpdated = time.Now()
	}
	p.mu.Unlock()

	p.events.Publish(Event{Type: EventPoolUpdated})
	return nil
}

// Remove drops a task from the accumulated view, used after a successful
// claim so the task disappears without waiting for the next refresh.
func (p *PoolReader) Remove(taskID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, t := range p.tasks {
		if t.ID == taskID {
			p.tasks = append(p.tasks[:i], p.tasks[i+1:]...)
			delete(p.seen, taskID)
			if p.total > 0 {
				p.total--
			}
			return
		}
	}
}

// View is the pool state handed to the UI.
type View struct {
	Tasks       []model.Task `json:"tasks"`
	Total       int          `json:"total"`
	LastUpdated int64        `json:"last_updated,omitempty"`
	Errored     bool         `json:"errored"`
	SortField   string       `json:"sort_field"`
	SortOrder   string       `json:"sort_order"`
}

// Snapshot returns a copy of the accumulated view.
func (p *PoolReader) Snapshot() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	tasks := make([]model.Task, len(p.tasks))
	copy(tasks, p.tasks)
	v := View{
		Tasks:     tasks,
		Total:     p.total,
		Errored:   p.errored,
		SortField: p.sortField,
		SortOrder: p.sortOrder,
	}
	if !p.lastUpdated.IsZero() {
		v.LastUpdated = p.lastUpdated.UnixMilli()
	}
	return v
}

func (p *PoolReader) resetLocked() {
	p.tasks = nil
	p.seen = make(map[int64]struct{})
	p.nextPage = 1
	p.total = 0
}

func (p *PoolReader) excluded(title string) bool {
	for _, m := range p.markers {
		if m != "" && strings.Contains(title, m) {
			return true
		}
	}
	return false
}
