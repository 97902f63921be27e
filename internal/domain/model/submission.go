package model

import (
	"time"

	"quickscreen/internal/domain"
)

type SubmissionStatus string

const (
	SubmissionStatusPending     SubmissionStatus = "Pending"
	SubmissionStatusReviewed    SubmissionStatus = "Reviewed"
	SubmissionStatusShortlisted SubmissionStatus = "Shortlisted"
	SubmissionStatusRejected    SubmissionStatus = "Rejected"
)

// ValidStatus reports whether s is one of the four review statuses.
// Transitions between them are deliberately unrestricted: a recruiter may
// move a submission from any status to any other.
func ValidStatus(s SubmissionStatus) bool {
	switch s {
	case SubmissionStatusPending, SubmissionStatusReviewed,
		SubmissionStatusShortlisted, SubmissionStatusRejected:
		return true
	}
	return false
}

// Submission is one recorded answer bound to its slot
// (JobID, CandidateID, QuestionIndex). At most one non-superseded
// submission exists per slot. SubmittedAt never changes after creation and
// is the only ordering field; Status is the only mutable field.
type Submission struct {
	ID            string // ULID, time-ordered
	JobID         string
	CandidateID   string
	QuestionIndex int
	AnswerURL     string
	Status        SubmissionStatus
	SubmittedAt   time.Time
}

// NewSubmission builds a Pending submission for a slot.
func NewSubmission(id, jobID, candidateID string, questionIndex int, answerURL string) (*Submission, error) {
	if id == "" || jobID == "" || candidateID == "" || answerURL == "" || questionIndex < 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &Submission{
		ID:            id,
		JobID:         jobID,
		CandidateID:   candidateID,
		QuestionIndex: questionIndex,
		AnswerURL:     answerURL,
		Status:        SubmissionStatusPending,
		SubmittedAt:   time.Now(),
	}, nil
}
