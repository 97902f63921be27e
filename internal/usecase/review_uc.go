package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"quickscreen/internal/domain"
	"quickscreen/internal/domain/model"
	"quickscreen/internal/domain/ports/repository"
)

// Compile-time check
var _ ReviewUseCase = (*reviewUC)(nil)

// QueueView is one recruiter's loaded review queue. LastViewedAt is
// captured when the view is built and lives only as long as the view: the
// "new since last visit" indicator resets with every fresh load.
type QueueView struct {
	RecruiterID  string
	JobFilter    string
	Submissions  []*model.Submission
	LastViewedAt time.Time
}

type ReviewUseCase interface {
	// ListForRecruiter resolves the recruiter's jobs and returns their
	// submissions, newest first, optionally narrowed to one job.
	ListForRecruiter(ctx context.Context, recruiterID, jobFilter string, lastViewedAt time.Time) (*QueueView, error)

	// SetStatus updates the submission's review status and patches the
	// given view in place so the caller sees the change without a reload.
	SetStatus(ctx context.Context, view *QueueView, submissionID string, status model.SubmissionStatus) error

	// CandidateHistory lists everything one candidate has submitted,
	// newest first.
	CandidateHistory(ctx context.Context, candidateID string) ([]*model.Submission, error)
}

type reviewUC struct {
	subs repository.SubmissionRepository
	jobs repository.JobRepository
	log  *zerolog.Logger
}

func NewReviewUseCase(subs repository.SubmissionRepository, jobs repository.JobRepository, logger *zerolog.Logger) *reviewUC {
	l := logger.With().Str("component", "ReviewUC").Logger()
	return &reviewUC{subs: subs, jobs: jobs, log: &l}
}

func (r *reviewUC) ListForRecruiter(ctx context.Context, recruiterID, jobFilter string, lastViewedAt time.Time) (*QueueView, error) {
	if recruiterID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if jobFilter != "" {
		// The filter must name a job the recruiter actually owns.
		job, err := r.jobs.FindByID(ctx, nil, jobFilter)
		if err != nil {
			return nil, err
		}
		if job.RecruiterID != recruiterID {
			return nil, domain.ErrNotFound
		}
	}
	subs, err := r.subs.ListByRecruiter(ctx, nil, recruiterID, jobFilter)
	if err != nil {
		return nil, err
	}
	return &QueueView{
		RecruiterID:  recruiterID,
		JobFilter:    jobFilter,
		Submissions:  subs,
		LastViewedAt: lastViewedAt,
	}, nil
}

func (r *reviewUC) SetStatus(ctx context.Context, view *QueueView, submissionID string, status model.SubmissionStatus) error {
	if !model.ValidStatus(status) {
		return domain.ErrInvalidArgument
	}
	if err := r.subs.UpdateStatus(ctx, nil, submissionID, status); err != nil {
		return err
	}
	if view != nil {
		for _, s := range view.Submissions {
			if s.ID == submissionID {
				s.Status = status
				break
			}
		}
	}
	r.log.Info().Str("submission_id", submissionID).Str("status", string(status)).Msg("review status updated")
	return nil
}

func (r *reviewUC) CandidateHistory(ctx context.Context, candidateID string) ([]*model.Submission, error) {
	if candidateID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return r.subs.ListByCandidate(ctx, nil, candidateID)
}

// ComputeNewSince returns the subset of subs submitted strictly after
// lastViewedAt. Pure: the result is independent of the input ordering and
// the inputs are never mutated.
func ComputeNewSince(subs []*model.Submission, lastViewedAt time.Time) []*model.Submission {
	var out []*model.Submission
	for _, s := range subs {
		if s.SubmittedAt.After(lastViewedAt) {
			out = append(out, s)
		}
	}
	return out
}
