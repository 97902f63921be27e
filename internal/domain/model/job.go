package model

import (
	"time"

	"quickscreen/internal/domain"
)

// Question is one prompt inside a job's ordered question sequence.
// Index is 0-based and sequence-relevant.
type Question struct {
	Index    int
	Prompt   string
	MediaURL string // optional reference clip shown to the candidate
}

// Job is a recruiter-owned posting with an ordered question list.
// Once candidates have submitted answers against it the question list is
// treated as immutable; no update path in the core touches it.
type Job struct {
	ID          string
	RecruiterID string
	Title       string
	Description string
	Questions   []Question
	CreatedAt   time.Time
}

func NewJob(id, recruiterID, title, description string, prompts []string) (*Job, error) {
	if id == "" || recruiterID == "" || title == "" {
		return nil, domain.ErrInvalidArgument
	}
	qs := make([]Question, 0, len(prompts))
	for i, p := range prompts {
		qs = append(qs, Question{Index: i, Prompt: p})
	}
	return &Job{
		ID:          id,
		RecruiterID: recruiterID,
		Title:       title,
		Description: description,
		Questions:   qs,
		CreatedAt:   time.Now(),
	}, nil
}

// RequiredIndices returns every question index an applicant must answer.
func (j *Job) RequiredIndices() []int {
	out := make([]int, len(j.Questions))
	for i := range j.Questions {
		out[i] = j.Questions[i].Index
	}
	return out
}
