package handlers

import (
	"context"
	"fmt"
	"sync"

	"github.com/taskbridge/taskbridge/internal/core"
	"github.com/taskbridge/taskbridge/internal/storage"
	"github.com/taskbridge/taskbridge/internal/tasks"
)

// memBuildStore is an in-memory BuildStore with the same sentinel
// semantics as the Postgres implementation.
type memBuildStore struct {
	mu     sync.Mutex
	builds map[string]core.Build
}

func newMemBuildStore() *memBuildStore {
	return &memBuildStore{builds: make(map[string]core.Build)}
}

func (s *memBuildStore) Load(_ context.Context, taskGroupID string) (*core.Build, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.builds[taskGroupID]
	if !ok {
		return nil, fmt.Errorf("build %s: %w", taskGroupID, storage.ErrNotFound)
	}
	return &b, nil
}

func (s *memBuildStore) Create(_ context.Context, build *core.Build) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.builds[build.TaskGroupID]; ok {
		return fmt.Errorf("build %s: %w", build.TaskGroupID, storage.ErrAlreadyExists)
	}
	s.builds[build.TaskGroupID] = *build
	return nil
}

func (s *memBuildStore) Modify(_ context.Context, taskGroupID string, mutate func(*core.Build)) (*core.Build, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.builds[taskGroupID]
	if !ok {
		return nil, fmt.Errorf("build %s: %w", taskGroupID, storage.ErrNotFound)
	}
	mutate(&b)
	s.builds[taskGroupID] = b
	return &b, nil
}

func (s *memBuildStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.builds)
}

// memCheckRunStore is an in-memory CheckRunStore.
type memCheckRunStore struct {
	mu     sync.Mutex
	checks map[string]core.CheckRun
}

func newMemCheckRunStore() *memCheckRunStore {
	return &memCheckRunStore{checks: make(map[string]core.CheckRun)}
}

func checkKey(taskGroupID, taskID string) string {
	return taskGroupID + "/" + taskID
}

func (s *memCheckRunStore) Load(_ context.Context, taskGroupID, taskID string) (*core.CheckRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.checks[checkKey(taskGroupID, taskID)]
	if !ok {
		return nil, fmt.Errorf("check run %s/%s: %w", taskGroupID, taskID, storage.ErrNotFound)
	}
	return &r, nil
}

func (s *memCheckRunStore) Create(_ context.Context, run *core.CheckRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := checkKey(run.TaskGroupID, run.TaskID)
	if _, ok := s.checks[key]; ok {
		return fmt.Errorf("check run %s: %w", key, storage.ErrAlreadyExists)
	}
	s.checks[key] = *run
	return nil
}

func (s *memCheckRunStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.checks)
}

// fakeQueue records submitted tasks and serves paged task-group
// listings.
type fakeQueue struct {
	mu        sync.Mutex
	created   []core.TaskDefinition
	scopes    [][]string
	createErr error
	pages     []tasks.TaskGroupPage
	listErr   error
}

func (q *fakeQueue) CreateTask(_ context.Context, task *core.TaskDefinition, scopes []string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.createErr != nil {
		return q.createErr
	}
	q.created = append(q.created, *task)
	q.scopes = append(q.scopes, scopes)
	return nil
}

func (q *fakeQueue) ListTaskGroup(_ context.Context, _ string, continuationToken string) (*tasks.TaskGroupPage, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.listErr != nil {
		return nil, q.listErr
	}
	idx := 0
	if continuationToken != "" {
		_, err := fmt.Sscanf(continuationToken, "page-%d", &idx)
		if err != nil {
			return nil, fmt.Errorf("bad continuation token %q", continuationToken)
		}
	}
	if idx >= len(q.pages) {
		return &tasks.TaskGroupPage{}, nil
	}
	page := q.pages[idx]
	if idx < len(q.pages)-1 {
		page.ContinuationToken = fmt.Sprintf("page-%d", idx+1)
	}
	return &page, nil
}

func (q *fakeQueue) createdCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.created)
}
