package task

import (
	"context"
	"fmt"
	"sync"

	"github.com/jalansafe/routeintel/internal/domain"
)

// MemoryStore keeps task records in a process-local map
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]domain.AnalysisTask
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks: make(map[string]domain.AnalysisTask),
	}
}

// Create stores a new record
func (s *MemoryStore) Create(ctx context.Context, task domain.AnalysisTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; exists {
		return fmt.Errorf("task %s: already exists", task.ID)
	}
	s.tasks[task.ID] = clone(task)
	return nil
}

// Get returns a copy of the record
func (s *MemoryStore) Get(ctx context.Context, id string) (domain.AnalysisTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return domain.AnalysisTask{}, notFound(id)
	}
	return clone(task), nil
}

// Update mutates a non-terminal record
func (s *MemoryStore) Update(ctx context.Context, id string, mutate func(*domain.AnalysisTask)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.tasks[id]
	if !ok {
		return notFound(id)
	}
	next, err := applyUpdate(cur, mutate)
	if err != nil {
		return err
	}
	s.tasks[id] = next
	return nil
}

func (s *MemoryStore) size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}
