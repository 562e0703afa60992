// Package backup defines the periodic database backup job's scheduling
// seam. The body of a backup run — dumping and archiving the database —
// is an external collaborator outside this repository's core scope (see
// SPEC_FULL.md); this package owns only the ticking lifecycle and the
// bookkeeping of when the last backup happened, adapted from the
// teacher's worker-pool start/stop lifecycle.
package backup

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/catchouli/better-tactics/internal/store"
)

// Runner triggers Job on a fixed interval until Stop is called.
type Job func(ctx context.Context) error

// Runner runs a backup Job periodically and records completion in
// AppDataStore.
type Runner struct {
	job          Job
	interval     time.Duration
	environment  string
	appDataStore store.AppDataStore
	clock        func() time.Time
	logger       *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRunner constructs a Runner. job is the actual backup implementation,
// supplied by the external collaborator; nowFunc defaults to time.Now.
func NewRunner(job Job, interval time.Duration, environment string, appDataStore store.AppDataStore, nowFunc func() time.Time, log *slog.Logger) *Runner {
	if nowFunc == nil {
		nowFunc = time.Now
	}
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		job:          job,
		interval:     interval,
		environment:  environment,
		appDataStore: appDataStore,
		clock:        nowFunc,
		logger:       log.With(slog.String("component", "backup_runner")),
	}
}

// Start begins the periodic ticker in a background goroutine.
func (r *Runner) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	r.wg.Add(1)
	go r.loop(ctx)
}

// Stop cancels the ticker and waits for any in-flight backup to finish.
func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

func (r *Runner) loop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *Runner) runOnce(ctx context.Context) {
	if err := r.job(ctx); err != nil {
		r.logger.Error("backup job failed", slog.String("error", err.Error()))
		return
	}

	now := r.clock()
	if err := r.appDataStore.SetLastBackupDate(ctx, r.environment, now); err != nil {
		r.logger.Error("failed to record backup completion", slog.String("error", err.Error()))
	}
}
