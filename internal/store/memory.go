package store

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore implements JobStore with an in-process map. It backs the CLI
// and tests, where DynamoDB is unavailable and durability is not needed.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]map[string]*GenerationJob // accountID -> jobID -> job
}

// Compile-time interface check.
var _ JobStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]map[string]*GenerationJob)}
}

func (s *MemoryStore) PutJob(_ context.Context, job *GenerationJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	if job.CreatedAt == 0 {
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	account := s.jobs[job.AccountID]
	if account == nil {
		account = make(map[string]*GenerationJob)
		s.jobs[job.AccountID] = account
	}
	stored := *job
	account[job.ID] = &stored
	return nil
}

func (s *MemoryStore) GetJob(_ context.Context, accountID, jobID string) (*GenerationJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[accountID][jobID]
	if !ok {
		return nil, nil
	}
	copied := *job
	return &copied, nil
}

func (s *MemoryStore) UpdateJobStatus(_ context.Context, accountID, jobID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[accountID][jobID]
	if !ok {
		return fmt.Errorf("update job status %s/%s: job not found", accountID, jobID)
	}
	job.Status = status
	job.UpdatedAt = time.Now().Unix()
	return nil
}

func (s *MemoryStore) ListJobs(_ context.Context, accountID string) ([]*GenerationJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account := s.jobs[accountID]
	jobs := make([]*GenerationJob, 0, len(account))
	for _, job := range account {
		copied := *job
		jobs = append(jobs, &copied)
	}
	return jobs, nil
}

func (s *MemoryStore) DeleteJob(_ context.Context, accountID, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.jobs[accountID], jobID)
	return nil
}

func (s *MemoryStore) PurgeAccount(_ context.Context, accountID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account := s.jobs[accountID]
	ids := make([]string, 0, len(account))
	for id := range account {
		ids = append(ids, id)
	}
	delete(s.jobs, accountID)
	return ids, nil
}
