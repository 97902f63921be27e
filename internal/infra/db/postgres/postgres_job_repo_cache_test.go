//go:build !integration

package postgres_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"quickscreen/internal/domain"
	"quickscreen/internal/domain/model"
	"quickscreen/internal/domain/ports/repository"
	pg "quickscreen/internal/infra/db/postgres"
)

type fakeJobRepo struct {
	jobs  map[string]*model.Job
	calls int
}

func (f *fakeJobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Job, error) {
	f.calls++
	if job, ok := f.jobs[id]; ok {
		return job, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeJobRepo) ListByRecruiter(ctx context.Context, tx repository.Tx, recruiterID string) ([]*model.Job, error) {
	return nil, nil
}

// fakeCache answers Get from an in-memory map, a key miss, or a forced
// outage error.
type fakeCache struct {
	values map[string]string
	getErr error
	sets   int
}

func (f *fakeCache) Ping(ctx context.Context) error { return nil }
func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	f.sets++
	if f.values == nil {
		f.values = map[string]string{}
	}
	f.values[key] = string(value.([]byte))
	return nil
}
func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	if v, ok := f.values[key]; ok {
		return v, nil
	}
	return "", goredis.Nil
}
func (f *fakeCache) Incr(ctx context.Context, key string) (int64, error) { return 0, nil }
func (f *fakeCache) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return nil
}
func (f *fakeCache) Del(ctx context.Context, keys ...string) error { return nil }
func (f *fakeCache) Close() error                                  { return nil }

func TestJobRepoCacheDecorator_FindByID(t *testing.T) {
	ctx := context.Background()
	seeded := func() *fakeJobRepo {
		j, _ := model.NewJob("job-1", "rec-1", "Backend Engineer", "", []string{"Tell us about yourself"})
		return &fakeJobRepo{jobs: map[string]*model.Job{"job-1": j}}
	}

	t.Run("miss loads from postgres and fills the cache", func(t *testing.T) {
		inner := seeded()
		cache := &fakeCache{}
		repo := pg.NewJobRepoCacheDecorator(inner, cache, time.Hour)

		job, err := repo.FindByID(ctx, nil, "job-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if job.Title != "Backend Engineer" {
			t.Errorf("title=%q, want Backend Engineer", job.Title)
		}
		if cache.sets != 1 {
			t.Errorf("cache sets=%d, want 1", cache.sets)
		}
	})

	t.Run("hit never touches postgres", func(t *testing.T) {
		inner := seeded()
		data, _ := json.Marshal(inner.jobs["job-1"])
		cache := &fakeCache{values: map[string]string{"job:job-1": string(data)}}
		repo := pg.NewJobRepoCacheDecorator(inner, cache, time.Hour)

		if _, err := repo.FindByID(ctx, nil, "job-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if inner.calls != 0 {
			t.Errorf("postgres calls=%d, want 0", inner.calls)
		}
	})

	t.Run("redis outage falls back to postgres", func(t *testing.T) {
		inner := seeded()
		cache := &fakeCache{getErr: errors.New("connection refused")}
		repo := pg.NewJobRepoCacheDecorator(inner, cache, time.Hour)

		job, err := repo.FindByID(ctx, nil, "job-1")
		if err != nil {
			t.Fatalf("expected fallback to postgres, got %v", err)
		}
		if job.ID != "job-1" || inner.calls != 1 {
			t.Errorf("job=%v calls=%d, want job-1 served from postgres", job, inner.calls)
		}
	})
}
