// internal/worker/reconciliation.payment.go
package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Tanmoy095/pagos-api/internal/config"
	"github.com/Tanmoy095/pagos-api/internal/payment"
)

/*
A preference stays PENDING until a notification settles it. Notifications
get lost (service down while the provider retried, wrong notification_url),
so the DB may say PENDIENTE while the money is already credited.

Every interval the Reconciler picks PENDING preferences older than MinAge and
asks the provider for payments carrying their external reference. Approved
and accredited ones run through the same settle path as a notification.
*/

var _ Settler = (*payment.Service)(nil)

// Settler is the part of payment.Service the worker drives.
type Settler interface {
	PendingPreferences(ctx context.Context, olderThan time.Duration, limit int) ([]payment.Preference, error)
	ReconcilePreference(ctx context.Context, pref payment.Preference) (payment.Outcome, error)
}

// CycleStats summarises one reconciliation pass.
type CycleStats struct {
	Scanned int
	Settled int
	Failed  int
}

// Reconciler syncs stuck PENDING preferences with the provider.
type Reconciler struct {
	settler Settler
	logger  *slog.Logger

	interval    time.Duration
	minAge      time.Duration
	batchSize   int // how many preferences per tick
	workerCount int // how many goroutines in parallel
}

func NewReconciler(settler Settler, cfg config.ReconcilerConfig, logger *slog.Logger) *Reconciler {
	r := &Reconciler{
		settler:     settler,
		logger:      logger,
		interval:    cfg.Interval,
		minAge:      cfg.MinAge,
		batchSize:   cfg.BatchSize,
		workerCount: cfg.Workers,
	}
	if r.interval <= 0 {
		r.interval = 5 * time.Minute
	}
	if r.batchSize <= 0 {
		r.batchSize = 50
	}
	if r.workerCount <= 0 {
		r.workerCount = 5
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Start runs the worker loop until ctx is cancelled. Blocking call.
func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	r.logger.Info("reconciler started", "interval", r.interval, "min_age", r.minAge, "workers", r.workerCount)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single reconciliation pass.
func (r *Reconciler) RunOnce(ctx context.Context) CycleStats {
	prefs, err := r.settler.PendingPreferences(ctx, r.minAge, r.batchSize)
	if err != nil {
		r.logger.Error("reconciler: list pending preferences", "error", err)
		return CycleStats{}
	}
	if len(prefs) == 0 {
		r.logger.Debug("reconciler: nothing pending")
		return CycleStats{}
	}
	r.logger.Info("reconciler: processing pending preferences", "count", len(prefs))

	// Buffered so enqueueing never blocks.
	jobs := make(chan payment.Preference, len(prefs))
	var settled, failed atomic.Int32
	var wg sync.WaitGroup
	for w := 0; w < r.workerCount; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for pref := range jobs {
				outcome, err := r.settler.ReconcilePreference(ctx, pref)
				if err != nil {
					failed.Add(1)
					r.logger.Warn("reconciler: preference failed", "worker", id, "preference_id", pref.ID, "error", err)
					continue
				}
				if outcome == payment.OutcomeSettled {
					settled.Add(1)
				}
			}
		}(w)
	}
	for _, pref := range prefs {
		jobs <- pref
	}
	close(jobs)
	wg.Wait()

	stats := CycleStats{Scanned: len(prefs), Settled: int(settled.Load()), Failed: int(failed.Load())}
	r.logger.Info("reconciler: cycle completed", "scanned", stats.Scanned, "settled", stats.Settled, "failed", stats.Failed)
	return stats
}
