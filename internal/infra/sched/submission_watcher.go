package sched

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"quickscreen/internal/domain/ports/adapter"
	"quickscreen/internal/domain/ports/repository"
	"quickscreen/internal/infra/worker"
)

// SubmissionWatcher periodically sweeps for submissions created since the
// last sweep and pushes a best-effort notification to the owning recruiter.
// Sweeps run on the shared worker pool so a slow notifier never stalls the
// ticker.
type SubmissionWatcher struct {
	interval time.Duration
	subs     repository.SubmissionRepository
	jobs     repository.JobRepository
	notifier adapter.RecruiterNotifier
	log      *zerolog.Logger

	mu        sync.Mutex
	highWater time.Time
}

func NewSubmissionWatcher(
	interval time.Duration,
	subs repository.SubmissionRepository,
	jobs repository.JobRepository,
	notifier adapter.RecruiterNotifier,
	logger *zerolog.Logger,
) *SubmissionWatcher {
	l := logger.With().Str("component", "SubmissionWatcher").Logger()
	return &SubmissionWatcher{
		interval:  interval,
		subs:      subs,
		jobs:      jobs,
		notifier:  notifier,
		log:       &l,
		highWater: time.Now(),
	}
}

func (w *SubmissionWatcher) Run(ctx context.Context, pool *worker.Pool) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting submission watcher")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping submission watcher")
			return ctx.Err()
		case <-ticker.C:
			if err := pool.Submit(func(ctx context.Context) error {
				w.sweep(ctx)
				return nil
			}); err != nil {
				w.log.Warn().Err(err).Msg("sweep skipped")
			}
		}
	}
}

func (w *SubmissionWatcher) sweep(ctx context.Context) {
	w.mu.Lock()
	since := w.highWater
	w.mu.Unlock()

	fresh, err := w.subs.ListSubmittedSince(ctx, nil, since)
	if err != nil {
		w.log.Error().Err(err).Msg("sweep query failed")
		return
	}
	if len(fresh) == 0 {
		return
	}

	newest := since
	for _, sub := range fresh {
		if sub.SubmittedAt.After(newest) {
			newest = sub.SubmittedAt
		}
		job, err := w.jobs.FindByID(ctx, nil, sub.JobID)
		if err != nil {
			w.log.Warn().Err(err).Str("job_id", sub.JobID).Msg("job lookup failed for notification")
			continue
		}
		// Best effort: a failed push is logged, never retried.
		if err := w.notifier.NotifyNewSubmission(ctx, job.RecruiterID, job.Title, sub.QuestionIndex); err != nil {
			w.log.Warn().Err(err).Str("submission_id", sub.ID).Msg("notification failed")
		}
	}

	w.mu.Lock()
	if newest.After(w.highWater) {
		w.highWater = newest
	}
	w.mu.Unlock()

	w.log.Debug().Int("count", len(fresh)).Msg("notified new submissions")
}
