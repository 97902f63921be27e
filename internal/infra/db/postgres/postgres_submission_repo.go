package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quickscreen/internal/domain"
	"quickscreen/internal/domain/model"
	"quickscreen/internal/domain/ports/repository"
)

// Ensure interface compliance:
var _ repository.SubmissionRepository = (*PostgresSubmissionRepo)(nil)

const submissionColumns = `id, job_id, candidate_id, question_index, answer_url, status, submitted_at`

type PostgresSubmissionRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresSubmissionRepo(pool *pgxpool.Pool) *PostgresSubmissionRepo {
	return &PostgresSubmissionRepo{pool: pool}
}

func (r *PostgresSubmissionRepo) Create(ctx context.Context, tx repository.Tx, sub *model.Submission, overwrite bool) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	sql := `
INSERT INTO submissions (id, job_id, candidate_id, question_index, answer_url, status, submitted_at)
VALUES ($1,$2,$3,$4,$5,$6,$7);
`
	if overwrite {
		// Replaces the slot occupant; submitted_at moves to the new attempt.
		sql = `
INSERT INTO submissions (id, job_id, candidate_id, question_index, answer_url, status, submitted_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (job_id, candidate_id, question_index) DO UPDATE
  SET id           = EXCLUDED.id,
      answer_url   = EXCLUDED.answer_url,
      status       = EXCLUDED.status,
      submitted_at = EXCLUDED.submitted_at;
`
	}
	_, err = ex.Exec(ctx, sql,
		sub.ID,
		sub.JobID,
		sub.CandidateID,
		sub.QuestionIndex,
		sub.AnswerURL,
		sub.Status,
		sub.SubmittedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrConflict
		}
		return fmt.Errorf("Create submission: %w", err)
	}
	return nil
}

func (r *PostgresSubmissionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Submission, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	sql := `SELECT ` + submissionColumns + ` FROM submissions WHERE id=$1;`
	return scanSubmission(ex.QueryRow(ctx, sql, id), "FindByID")
}

func (r *PostgresSubmissionRepo) FindBySlot(ctx context.Context, tx repository.Tx, jobID, candidateID string, questionIndex int) (*model.Submission, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	sql := `
SELECT ` + submissionColumns + `
  FROM submissions
 WHERE job_id=$1 AND candidate_id=$2 AND question_index=$3;
`
	return scanSubmission(ex.QueryRow(ctx, sql, jobID, candidateID, questionIndex), "FindBySlot")
}

func (r *PostgresSubmissionRepo) ExistsForJob(ctx context.Context, tx repository.Tx, jobID, candidateID string) (bool, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return false, err
	}
	const sql = `SELECT EXISTS(SELECT 1 FROM submissions WHERE job_id=$1 AND candidate_id=$2);`
	var exists bool
	if err := ex.QueryRow(ctx, sql, jobID, candidateID).Scan(&exists); err != nil {
		return false, fmt.Errorf("ExistsForJob: %w", err)
	}
	return exists, nil
}

func (r *PostgresSubmissionRepo) ListByJob(ctx context.Context, tx repository.Tx, jobID string) ([]*model.Submission, error) {
	sql := `
SELECT ` + submissionColumns + `
  FROM submissions
 WHERE job_id=$1
 ORDER BY submitted_at DESC;
`
	return r.list(ctx, tx, "ListByJob", sql, jobID)
}

func (r *PostgresSubmissionRepo) ListByCandidate(ctx context.Context, tx repository.Tx, candidateID string) ([]*model.Submission, error) {
	sql := `
SELECT ` + submissionColumns + `
  FROM submissions
 WHERE candidate_id=$1
 ORDER BY submitted_at DESC;
`
	return r.list(ctx, tx, "ListByCandidate", sql, candidateID)
}

func (r *PostgresSubmissionRepo) ListByRecruiter(ctx context.Context, tx repository.Tx, recruiterID, jobFilter string) ([]*model.Submission, error) {
	if jobFilter != "" {
		sql := `
SELECT s.` + submissionColumnsPrefixed + `
  FROM submissions s
  JOIN jobs j ON j.id = s.job_id
 WHERE j.recruiter_id=$1 AND s.job_id=$2
 ORDER BY s.submitted_at DESC;
`
		return r.list(ctx, tx, "ListByRecruiter", sql, recruiterID, jobFilter)
	}
	sql := `
SELECT s.` + submissionColumnsPrefixed + `
  FROM submissions s
  JOIN jobs j ON j.id = s.job_id
 WHERE j.recruiter_id=$1
 ORDER BY s.submitted_at DESC;
`
	return r.list(ctx, tx, "ListByRecruiter", sql, recruiterID)
}

func (r *PostgresSubmissionRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.SubmissionStatus) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	// Last writer wins: no version column, no transition ordering.
	const sql = `UPDATE submissions SET status=$2 WHERE id=$1;`
	tag, err := ex.Exec(ctx, sql, id, status)
	if err != nil {
		return fmt.Errorf("UpdateStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresSubmissionRepo) ListSubmittedSince(ctx context.Context, tx repository.Tx, since time.Time) ([]*model.Submission, error) {
	sql := `
SELECT ` + submissionColumns + `
  FROM submissions
 WHERE submitted_at > $1
 ORDER BY submitted_at DESC;
`
	return r.list(ctx, tx, "ListSubmittedSince", sql, since)
}

const submissionColumnsPrefixed = `id, s.job_id, s.candidate_id, s.question_index, s.answer_url, s.status, s.submitted_at`

func (r *PostgresSubmissionRepo) list(ctx context.Context, tx repository.Tx, op, sql string, args ...interface{}) ([]*model.Submission, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []*model.Submission
	for rows.Next() {
		var s model.Submission
		if err := rows.Scan(
			&s.ID,
			&s.JobID,
			&s.CandidateID,
			&s.QuestionIndex,
			&s.AnswerURL,
			&s.Status,
			&s.SubmittedAt,
		); err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func scanSubmission(row pgx.Row, op string) (*model.Submission, error) {
	var s model.Submission
	if err := row.Scan(
		&s.ID,
		&s.JobID,
		&s.CandidateID,
		&s.QuestionIndex,
		&s.AnswerURL,
		&s.Status,
		&s.SubmittedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &s, nil
}
