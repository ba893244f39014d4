package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/taskhall/commenter/internal/metrics"
)

// DefaultSpec re-fetches claims every ten minutes, the coarse timer that
// picks up reviewer decisions and server-side expiry the worker did not
// cause.
const DefaultSpec = "@every 10m"

// Refresher is the slice of the engine the reconciler drives.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Reconciler periodically reconciles the local claims view with the
// backend. Polling stands in for a push channel from the backend; the
// staleness window equals the schedule interval.
type Reconciler struct {
	claims  Refresher
	cron    *cron.Cron
	spec    string
	timeout time.Duration
	log     *zap.Logger

	stopOnce sync.Once
}

// New creates a reconciler with the given cron spec ("" means DefaultSpec).
func New(claims Refresher, spec string, log *zap.Logger) *Reconciler {
	if spec == "" {
		spec = DefaultSpec
	}
	return &Reconciler{
		claims:  claims,
		cron:    cron.New(),
		spec:    spec,
		timeout: 30 * time.Second,
		log:     log,
	}
}

// Start schedules the reconciliation and begins running it.
func (r *Reconciler) Start() error {
	if _, err := r.cron.AddFunc(r.spec, r.runOnce); err != nil {
		return err
	}
	r.cron.Start()
	r.log.Info("reconciler started", zap.String("schedule", r.spec))
	return nil
}

// Stop halts the schedule. Safe to call more than once; a run already in
// progress completes.
func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() {
		ctx := r.cron.Stop()
		<-ctx.Done()
	})
}

func (r *Reconciler) runOnce() {
	metrics.ReconcileRuns.Inc()
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.claims.Refresh(ctx); err != nil {
		r.log.Warn("reconciliation failed", zap.Error(err))
		return
	}
	r.log.Debug("reconciliation complete")
}
