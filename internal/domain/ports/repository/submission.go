package repository

import (
	"context"
	"time"

	"quickscreen/internal/domain/model"
)

// SubmissionRepository is the durable registry of submissions and their
// review status. Listings are ordered by SubmittedAt descending.
type SubmissionRepository interface {
	// Create inserts sub. It returns domain.ErrConflict when the slot
	// (JobID, CandidateID, QuestionIndex) already holds a submission,
	// unless overwrite is set, in which case the existing row is replaced.
	Create(ctx context.Context, tx Tx, sub *model.Submission, overwrite bool) error

	FindByID(ctx context.Context, tx Tx, id string) (*model.Submission, error)

	// FindBySlot returns the submission occupying one exact slot, or
	// domain.ErrNotFound.
	FindBySlot(ctx context.Context, tx Tx, jobID, candidateID string, questionIndex int) (*model.Submission, error)

	// ExistsForJob reports whether the candidate has any submission for the
	// job, across all question indices. Used by whole-application flows.
	ExistsForJob(ctx context.Context, tx Tx, jobID, candidateID string) (bool, error)

	ListByJob(ctx context.Context, tx Tx, jobID string) ([]*model.Submission, error)
	ListByCandidate(ctx context.Context, tx Tx, candidateID string) ([]*model.Submission, error)

	// ListByRecruiter returns submissions across every job the recruiter
	// owns; jobFilter narrows to one job when non-empty.
	ListByRecruiter(ctx context.Context, tx Tx, recruiterID, jobFilter string) ([]*model.Submission, error)

	// UpdateStatus sets the review status unconditionally. Last writer
	// wins; there is no version check and no transition ordering.
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.SubmissionStatus) error

	// ListSubmittedSince returns submissions created strictly after the
	// given instant, for the notification sweep.
	ListSubmittedSince(ctx context.Context, tx Tx, since time.Time) ([]*model.Submission, error)
}
