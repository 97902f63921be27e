package repository

import (
	"context"

	"quickscreen/internal/domain/model"
)

// JobRepository is the read contract the core needs from the job store:
// a job with its ordered question list, and the jobs a recruiter owns.
// Job CRUD itself lives outside the core.
type JobRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.Job, error)
	ListByRecruiter(ctx context.Context, tx Tx, recruiterID string) ([]*model.Job, error)
}
