//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"quickscreen/internal/domain"
	"quickscreen/internal/domain/model"
	"quickscreen/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// mockTxManager invokes the callback directly; unit tests don't need a real
// transaction.
type mockTxManager struct{}

func (m *mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

// memSubmissionRepo is a small in-memory SubmissionRepository with
// overridable hooks for simulating failures.
type memSubmissionRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Submission // by ID

	CreateFunc       func(ctx context.Context, tx repository.Tx, sub *model.Submission, overwrite bool) error
	UpdateStatusFunc func(ctx context.Context, tx repository.Tx, id string, status model.SubmissionStatus) error
}

func newMemSubmissionRepo() *memSubmissionRepo {
	return &memSubmissionRepo{store: make(map[string]*model.Submission)}
}

func (m *memSubmissionRepo) slotOf(s *model.Submission) string {
	return fmt.Sprintf("%s/%s/%d", s.JobID, s.CandidateID, s.QuestionIndex)
}

func (m *memSubmissionRepo) Create(ctx context.Context, tx repository.Tx, sub *model.Submission, overwrite bool) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, sub, overwrite)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.store {
		if m.slotOf(existing) == m.slotOf(sub) {
			if !overwrite {
				return domain.ErrConflict
			}
			delete(m.store, existing.ID)
			break
		}
	}
	cp := *sub
	m.store[sub.ID] = &cp
	return nil
}

func (m *memSubmissionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSubmissionRepo) FindBySlot(ctx context.Context, tx repository.Tx, jobID, candidateID string, questionIndex int) (*model.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.store {
		if s.JobID == jobID && s.CandidateID == candidateID && s.QuestionIndex == questionIndex {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memSubmissionRepo) ExistsForJob(ctx context.Context, tx repository.Tx, jobID, candidateID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.store {
		if s.JobID == jobID && s.CandidateID == candidateID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memSubmissionRepo) ListByJob(ctx context.Context, tx repository.Tx, jobID string) ([]*model.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Submission
	for _, s := range m.store {
		if s.JobID == jobID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sortBySubmittedAtDesc(out)
	return out, nil
}

func (m *memSubmissionRepo) ListByCandidate(ctx context.Context, tx repository.Tx, candidateID string) ([]*model.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Submission
	for _, s := range m.store {
		if s.CandidateID == candidateID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sortBySubmittedAtDesc(out)
	return out, nil
}

func (m *memSubmissionRepo) ListByRecruiter(ctx context.Context, tx repository.Tx, recruiterID, jobFilter string) ([]*model.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Submission
	for _, s := range m.store {
		if jobFilter != "" && s.JobID != jobFilter {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sortBySubmittedAtDesc(out)
	return out, nil
}

func (m *memSubmissionRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.SubmissionStatus) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, id, status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.Status = status
	return nil
}

func (m *memSubmissionRepo) ListSubmittedSince(ctx context.Context, tx repository.Tx, since time.Time) ([]*model.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Submission
	for _, s := range m.store {
		if s.SubmittedAt.After(since) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sortBySubmittedAtDesc(out)
	return out, nil
}

func sortBySubmittedAtDesc(subs []*model.Submission) {
	for i := 1; i < len(subs); i++ {
		for j := i; j > 0 && subs[j].SubmittedAt.After(subs[j-1].SubmittedAt); j-- {
			subs[j], subs[j-1] = subs[j-1], subs[j]
		}
	}
}

// memJobRepo holds jobs keyed by ID.
type memJobRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Job
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{store: make(map[string]*model.Job)}
}

func (m *memJobRepo) put(j *model.Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[j.ID] = j
}

func (m *memJobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *memJobRepo) ListByRecruiter(ctx context.Context, tx repository.Tx, recruiterID string) ([]*model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Job
	for _, j := range m.store {
		if j.RecruiterID == recruiterID {
			cp := *j
			out = append(out, &cp)
		}
	}
	return out, nil
}

// memContentStore records every Put so tests can assert (absence of) store
// side effects.
type memContentStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	PutFunc func(ctx context.Context, path string, data []byte, contentType string) (string, error)
}

func newMemContentStore() *memContentStore {
	return &memContentStore{objects: make(map[string][]byte)}
}

func (m *memContentStore) Put(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, path, data, contentType)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.objects[path] = cp
	return "https://store.local/" + path, nil
}

func (m *memContentStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
