//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"quickscreen/internal/domain"
	"quickscreen/internal/domain/model"
	"quickscreen/internal/usecase"
)

func seedSubmission(t *testing.T, repo *memSubmissionRepo, id, jobID string, idx int, at time.Time) *model.Submission {
	t.Helper()
	sub := &model.Submission{
		ID:            id,
		JobID:         jobID,
		CandidateID:   "cand-1",
		QuestionIndex: idx,
		AnswerURL:     "https://store.local/" + id,
		Status:        model.SubmissionStatusPending,
		SubmittedAt:   at,
	}
	if err := repo.Create(context.Background(), nil, sub, false); err != nil {
		t.Fatalf("seed submission %s: %v", id, err)
	}
	return sub
}

func TestReviewUseCase_ListForRecruiter(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()
	now := time.Now()

	t.Run("should list submissions newest first", func(t *testing.T) {
		subRepo := newMemSubmissionRepo()
		jobRepo := newMemJobRepo()
		job, _ := model.NewJob("job-1", "rec-1", "Engineer", "", []string{"q"})
		jobRepo.put(job)
		seedSubmission(t, subRepo, "sub-old", "job-1", 0, now.Add(-2*time.Hour))
		seedSubmission(t, subRepo, "sub-new", "job-1", 1, now.Add(-time.Minute))

		uc := usecase.NewReviewUseCase(subRepo, jobRepo, testLogger)
		view, err := uc.ListForRecruiter(ctx, "rec-1", "", now)

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(view.Submissions) != 2 {
			t.Fatalf("expected 2 submissions, got %d", len(view.Submissions))
		}
		if view.Submissions[0].ID != "sub-new" {
			t.Errorf("expected newest submission first, got %s", view.Submissions[0].ID)
		}
	})

	t.Run("should reject a job filter the recruiter does not own", func(t *testing.T) {
		subRepo := newMemSubmissionRepo()
		jobRepo := newMemJobRepo()
		job, _ := model.NewJob("job-1", "rec-other", "Engineer", "", []string{"q"})
		jobRepo.put(job)

		uc := usecase.NewReviewUseCase(subRepo, jobRepo, testLogger)
		_, err := uc.ListForRecruiter(ctx, "rec-1", "job-1", now)

		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestReviewUseCase_SetStatus(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()
	now := time.Now()

	t.Run("should persist the status and patch the view in place", func(t *testing.T) {
		subRepo := newMemSubmissionRepo()
		jobRepo := newMemJobRepo()
		job, _ := model.NewJob("job-1", "rec-1", "Engineer", "", []string{"q"})
		jobRepo.put(job)
		sub := seedSubmission(t, subRepo, "sub-1", "job-1", 0, now.Add(-time.Hour))

		uc := usecase.NewReviewUseCase(subRepo, jobRepo, testLogger)
		view, err := uc.ListForRecruiter(ctx, "rec-1", "", now)
		if err != nil {
			t.Fatalf("list: %v", err)
		}

		if err := uc.SetStatus(ctx, view, sub.ID, model.SubmissionStatusShortlisted); err != nil {
			t.Fatalf("set status: %v", err)
		}

		// Reflected in the view without a reload.
		if view.Submissions[0].Status != model.SubmissionStatusShortlisted {
			t.Errorf("expected view to show Shortlisted, got %s", view.Submissions[0].Status)
		}
		// And persisted.
		saved, _ := subRepo.FindByID(ctx, nil, sub.ID)
		if saved.Status != model.SubmissionStatusShortlisted {
			t.Errorf("expected repo to hold Shortlisted, got %s", saved.Status)
		}
		// Excluded from the new set once the cursor moves past it.
		if fresh := usecase.ComputeNewSince(view.Submissions, now); len(fresh) != 0 {
			t.Errorf("expected no new submissions past the refreshed cursor, got %d", len(fresh))
		}
	})

	t.Run("should allow any status to move to any other", func(t *testing.T) {
		subRepo := newMemSubmissionRepo()
		jobRepo := newMemJobRepo()
		sub := seedSubmission(t, subRepo, "sub-1", "job-1", 0, now)
		uc := usecase.NewReviewUseCase(subRepo, jobRepo, testLogger)

		// Rejected -> Shortlisted is not constrained.
		for _, status := range []model.SubmissionStatus{
			model.SubmissionStatusRejected,
			model.SubmissionStatusShortlisted,
			model.SubmissionStatusPending,
		} {
			if err := uc.SetStatus(ctx, nil, sub.ID, status); err != nil {
				t.Fatalf("set status %s: %v", status, err)
			}
		}
	})

	t.Run("should reject a value outside the status enum", func(t *testing.T) {
		subRepo := newMemSubmissionRepo()
		uc := usecase.NewReviewUseCase(subRepo, newMemJobRepo(), testLogger)

		err := uc.SetStatus(ctx, nil, "sub-1", model.SubmissionStatus("Archived"))

		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestComputeNewSince(t *testing.T) {
	now := time.Now()
	mk := func(id string, at time.Time) *model.Submission {
		return &model.Submission{ID: id, SubmittedAt: at}
	}

	t.Run("should return exactly the submissions after the cursor", func(t *testing.T) {
		subs := []*model.Submission{
			mk("a", now.Add(-3*time.Hour)),
			mk("b", now.Add(-time.Minute)),
			mk("c", now.Add(time.Minute)),
			mk("d", now), // exactly at the cursor: not new
		}

		fresh := usecase.ComputeNewSince(subs, now)

		if len(fresh) != 1 || fresh[0].ID != "c" {
			t.Fatalf("expected exactly [c], got %v", ids(fresh))
		}
	})

	t.Run("should be independent of input ordering", func(t *testing.T) {
		subs := []*model.Submission{
			mk("a", now.Add(-time.Hour)),
			mk("b", now.Add(time.Minute)),
			mk("c", now.Add(2*time.Minute)),
			mk("d", now.Add(-time.Minute)),
		}
		want := map[string]bool{"b": true, "c": true}

		r := rand.New(rand.NewSource(42))
		for i := 0; i < 10; i++ {
			r.Shuffle(len(subs), func(x, y int) { subs[x], subs[y] = subs[y], subs[x] })
			fresh := usecase.ComputeNewSince(subs, now)
			if len(fresh) != len(want) {
				t.Fatalf("expected %d new submissions, got %v", len(want), ids(fresh))
			}
			for _, s := range fresh {
				if !want[s.ID] {
					t.Fatalf("unexpected submission %s in new set", s.ID)
				}
			}
		}
	})

	t.Run("should not mutate its input", func(t *testing.T) {
		subs := []*model.Submission{mk("a", now.Add(time.Hour)), mk("b", now.Add(-time.Hour))}

		_ = usecase.ComputeNewSince(subs, now)

		if subs[0].ID != "a" || subs[1].ID != "b" {
			t.Error("input slice was reordered")
		}
	})
}

func ids(subs []*model.Submission) []string {
	out := make([]string, len(subs))
	for i, s := range subs {
		out[i] = s.ID
	}
	return out
}
