package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"quickscreen/internal/domain"
	"quickscreen/internal/domain/model"
	"quickscreen/internal/domain/ports/adapter"
	"quickscreen/internal/domain/ports/repository"
	"quickscreen/internal/infra/logging"
)

// Compile-time check
var _ UploaderUseCase = (*uploaderUC)(nil)

// DuplicateGuard selects how strictly re-submission is blocked.
type DuplicateGuard int

const (
	// GuardPerSlot blocks only the exact (job, candidate, question) slot.
	GuardPerSlot DuplicateGuard = iota
	// GuardPerJob blocks any second submission by the candidate for the
	// job, across all question indices (whole-application flows).
	GuardPerJob
)

// Answer couples a finalized payload to its question index for batch
// submission.
type Answer struct {
	QuestionIndex int
	Payload       []byte
}

// SubmitResult identifies the created submission and its durable media
// reference.
type SubmitResult struct {
	SubmissionID string
	MediaRef     string
}

// SubmitOptions tunes one submit attempt. Overwrite must be requested
// explicitly; it is never implied.
type SubmitOptions struct {
	Overwrite bool
}

// BatchError reports a batch in which at least one per-question task
// failed. Tasks that succeeded before the failure have completed their
// two-phase write; no compensating rollback is performed, so callers retry
// exactly the failed indices.
type BatchError struct {
	Failed map[int]error
}

func (e *BatchError) Error() string {
	idx := make([]int, 0, len(e.Failed))
	for i := range e.Failed {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return fmt.Sprintf("batch submit failed for question indices %v", idx)
}

type UploaderUseCase interface {
	// Submit persists one finalized payload into its slot: duplicate
	// guard, object write, metadata write, in that order.
	Submit(ctx context.Context, candidateID, jobID string, questionIndex int, payload []byte, opts SubmitOptions) (*SubmitResult, error)

	// SubmitBatch persists answers for every required question of the job.
	// The completeness check runs before any upload; per-question uploads
	// then run concurrently and independently.
	SubmitBatch(ctx context.Context, candidateID, jobID string, answers []Answer, opts SubmitOptions) (map[int]*SubmitResult, error)
}

type uploaderUC struct {
	subs  repository.SubmissionRepository
	jobs  repository.JobRepository
	store adapter.ContentStore
	tm    repository.TransactionManager
	guard DuplicateGuard
	log   *zerolog.Logger
}

func NewUploaderUseCase(
	subs repository.SubmissionRepository,
	jobs repository.JobRepository,
	store adapter.ContentStore,
	tm repository.TransactionManager,
	guard DuplicateGuard,
	logger *zerolog.Logger,
) *uploaderUC {
	l := logger.With().Str("component", "UploaderUC").Logger()
	return &uploaderUC{subs: subs, jobs: jobs, store: store, tm: tm, guard: guard, log: &l}
}

func (u *uploaderUC) Submit(ctx context.Context, candidateID, jobID string, questionIndex int, payload []byte, opts SubmitOptions) (*SubmitResult, error) {
	defer logging.TraceDuration(u.log, "UploaderUC.Submit")()
	if candidateID == "" || jobID == "" || questionIndex < 0 || len(payload) == 0 {
		return nil, domain.ErrInvalidArgument
	}

	// Duplicate guard runs before any store side effect.
	if !opts.Overwrite {
		taken, err := u.slotTaken(ctx, candidateID, jobID, questionIndex)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, domain.ErrDuplicateSubmission
		}
	}

	// Object write. The path carries a timestamp so repeated attempts never
	// collide with an earlier orphan.
	path := answerPath(candidateID, jobID, questionIndex, time.Now())
	ref, err := u.store.Put(ctx, path, payload, "video/webm")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpload, err)
	}
	sub, err := model.NewSubmission(ulid.Make().String(), jobID, candidateID, questionIndex, ref)
	if err != nil {
		return nil, err
	}

	// Metadata write. On failure the object above is orphaned; the core
	// does not clean it up and reports PersistError.
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		return u.subs.Create(ctx, tx, sub, opts.Overwrite)
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.ErrDuplicateSubmission
		}
		u.log.Error().Err(err).Str("path", path).Msg("metadata write failed after object write; object orphaned")
		return nil, fmt.Errorf("%w: %v", domain.ErrPersist, err)
	}

	u.log.Info().Str("submission_id", sub.ID).Str("job_id", jobID).Int("question", questionIndex).Msg("submission created")
	return &SubmitResult{SubmissionID: sub.ID, MediaRef: ref}, nil
}

func (u *uploaderUC) SubmitBatch(ctx context.Context, candidateID, jobID string, answers []Answer, opts SubmitOptions) (map[int]*SubmitResult, error) {
	defer logging.TraceDuration(u.log, "UploaderUC.SubmitBatch")()
	job, err := u.jobs.FindByID(ctx, nil, jobID)
	if err != nil {
		return nil, err
	}

	// Completeness check before any upload: the answered set and the job's
	// required set must match exactly in both directions.
	required := make(map[int]struct{}, len(job.RequiredIndices()))
	for _, idx := range job.RequiredIndices() {
		required[idx] = struct{}{}
	}
	answered := make(map[int][]byte, len(answers))
	var unknown []int
	for _, a := range answers {
		if len(a.Payload) == 0 {
			continue
		}
		if _, ok := required[a.QuestionIndex]; !ok {
			unknown = append(unknown, a.QuestionIndex)
			continue
		}
		answered[a.QuestionIndex] = a.Payload
	}
	if len(unknown) > 0 {
		sort.Ints(unknown)
		return nil, fmt.Errorf("%w: job %s has no question indices %v", domain.ErrInvalidArgument, jobID, unknown)
	}
	var missing []int
	for _, idx := range job.RequiredIndices() {
		if _, ok := answered[idx]; !ok {
			missing = append(missing, idx)
		}
	}
	if len(missing) > 0 {
		sort.Ints(missing)
		return nil, &domain.IncompleteAnswerError{Missing: missing}
	}

	// Per-question uploads are independent concurrent tasks; completion
	// order is irrelevant, but the batch reports failure if any task fails.
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[int]*SubmitResult, len(answered))
		failed  = make(map[int]error)
	)
	for idx, payload := range answered {
		wg.Add(1)
		go func(idx int, payload []byte) {
			defer wg.Done()
			res, err := u.Submit(ctx, candidateID, jobID, idx, payload, opts)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed[idx] = err
				return
			}
			results[idx] = res
		}(idx, payload)
	}
	wg.Wait()

	if len(failed) > 0 {
		return results, &BatchError{Failed: failed}
	}
	return results, nil
}

func (u *uploaderUC) slotTaken(ctx context.Context, candidateID, jobID string, questionIndex int) (bool, error) {
	if u.guard == GuardPerJob {
		return u.subs.ExistsForJob(ctx, nil, jobID, candidateID)
	}
	_, err := u.subs.FindBySlot(ctx, nil, jobID, candidateID, questionIndex)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// answerPath builds the deterministic object key for one answer clip.
func answerPath(candidateID, jobID string, questionIndex int, at time.Time) string {
	return fmt.Sprintf("candidate-%s/job-%s/question-%d-%d.webm", candidateID, jobID, questionIndex, at.UnixNano())
}
