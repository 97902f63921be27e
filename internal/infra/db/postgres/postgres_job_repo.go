package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quickscreen/internal/domain"
	"quickscreen/internal/domain/model"
	"quickscreen/internal/domain/ports/repository"
)

// Ensure interface compliance:
var _ repository.JobRepository = (*PostgresJobRepo)(nil)

type PostgresJobRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresJobRepo(pool *pgxpool.Pool) *PostgresJobRepo {
	return &PostgresJobRepo{pool: pool}
}

func (r *PostgresJobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Job, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	const sql = `SELECT id, recruiter_id, title, description, created_at FROM jobs WHERE id=$1;`
	var j model.Job
	if err := ex.QueryRow(ctx, sql, id).Scan(&j.ID, &j.RecruiterID, &j.Title, &j.Description, &j.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("FindByID job: %w", err)
	}
	qs, err := r.questions(ctx, ex, id)
	if err != nil {
		return nil, err
	}
	j.Questions = qs
	return &j, nil
}

func (r *PostgresJobRepo) ListByRecruiter(ctx context.Context, tx repository.Tx, recruiterID string) ([]*model.Job, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	const sql = `
SELECT id, recruiter_id, title, description, created_at
  FROM jobs
 WHERE recruiter_id=$1
 ORDER BY created_at DESC;
`
	rows, err := ex.Query(ctx, sql, recruiterID)
	if err != nil {
		return nil, fmt.Errorf("ListByRecruiter: %w", err)
	}
	defer rows.Close()

	var out []*model.Job
	for rows.Next() {
		var j model.Job
		if err := rows.Scan(&j.ID, &j.RecruiterID, &j.Title, &j.Description, &j.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListByRecruiter scan: %w", err)
		}
		out = append(out, &j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, j := range out {
		qs, err := r.questions(ctx, ex, j.ID)
		if err != nil {
			return nil, err
		}
		j.Questions = qs
	}
	return out, nil
}

func (r *PostgresJobRepo) questions(ctx context.Context, ex executor, jobID string) ([]model.Question, error) {
	const sql = `
SELECT question_index, prompt, COALESCE(media_url, '')
  FROM job_questions
 WHERE job_id=$1
 ORDER BY question_index;
`
	rows, err := ex.Query(ctx, sql, jobID)
	if err != nil {
		return nil, fmt.Errorf("questions: %w", err)
	}
	defer rows.Close()

	var out []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.Index, &q.Prompt, &q.MediaURL); err != nil {
			return nil, fmt.Errorf("questions scan: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
