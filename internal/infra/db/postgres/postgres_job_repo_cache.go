package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"quickscreen/internal/domain/model"
	"quickscreen/internal/domain/ports/repository"
	"quickscreen/internal/infra/metrics"
	red "quickscreen/internal/infra/redis"
)

var _ repository.JobRepository = (*jobRepoCacheDecorator)(nil)

// jobRepoCacheDecorator keeps resolved jobs (title + ordered questions) hot
// in Redis so the apply flow does not hit Postgres on every view. Jobs are
// treated as immutable once answered against, which makes a TTL cache safe.
type jobRepoCacheDecorator struct {
	inner repository.JobRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewJobRepoCacheDecorator(inner repository.JobRepository, cache red.RedisClient, ttl time.Duration) repository.JobRepository {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	return &jobRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func (d *jobRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Job, error) {
	key := fmt.Sprintf("job:%s", id)
	val, err := d.cache.Get(ctx, key)
	switch {
	case err == nil:
		var job model.Job
		if json.Unmarshal([]byte(val), &job) == nil {
			metrics.IncCacheRequest("job", "hit")
			return &job, nil
		}
		metrics.IncCacheRequest("job", "miss")
	case red.IsCacheMiss(err):
		metrics.IncCacheRequest("job", "miss")
	default:
		// Redis unavailable is not a miss; fall back to Postgres anyway.
		metrics.IncCacheRequest("job", "error")
	}
	job, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(job); err == nil {
		_ = d.cache.Set(ctx, key, data, d.ttl)
	}
	return job, nil
}

// Recruiter listings change as jobs are posted; serve them uncached.
func (d *jobRepoCacheDecorator) ListByRecruiter(ctx context.Context, tx repository.Tx, recruiterID string) ([]*model.Job, error) {
	return d.inner.ListByRecruiter(ctx, tx, recruiterID)
}
