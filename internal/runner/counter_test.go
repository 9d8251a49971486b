package runner_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/trustle-io/taskscheduler/internal/domain"
	"github.com/trustle-io/taskscheduler/internal/repository"
	"github.com/trustle-io/taskscheduler/internal/runner"
)

// stubTaskRepo implements only what the counter handler touches (SetParams);
// every other method panics if exercised, so a test fails loudly instead of
// silently passing on an unintended code path.
type stubTaskRepo struct {
	mu     sync.Mutex
	params domain.Params
}

func (s *stubTaskRepo) SetParams(_ context.Context, _ int64, params domain.Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = params
	return nil
}

func (s *stubTaskRepo) Create(context.Context, *domain.Task) (*domain.Task, error) { panic("unused") }
func (s *stubTaskRepo) Update(context.Context, int64, func(*domain.Task) error) (*domain.Task, error) {
	panic("unused")
}
func (s *stubTaskRepo) GetByID(context.Context, int64) (*domain.Task, error) { panic("unused") }
func (s *stubTaskRepo) List(context.Context, repository.ListTasksInput) ([]*domain.Task, error) {
	panic("unused")
}
func (s *stubTaskRepo) Delete(context.Context, int64) error { panic("unused") }
func (s *stubTaskRepo) ClaimDue(context.Context, time.Time, int, func(*domain.Task) *time.Time) ([]*domain.Task, error) {
	panic("unused")
}
func (s *stubTaskRepo) ClearRunning(context.Context, int64, *time.Time) error { panic("unused") }

func TestCounterHandler_IncrementsFromZeroWhenCountMissing(t *testing.T) {
	repo := &stubTaskRepo{}
	handler := runner.NewCounterHandler(repo, discardLogger())
	task := &domain.Task{ID: 1, Params: domain.Params{}}

	result, err := handler(context.Background(), task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result["count"] != 1 {
		t.Fatalf("expected count 1, got %v", result["count"])
	}
	if task.Params["count"] != 1 {
		t.Fatalf("expected task.Params mutated in place, got %v", task.Params["count"])
	}
	if repo.params["count"] != 1 {
		t.Fatalf("expected SetParams persisted with count 1, got %v", repo.params["count"])
	}
}

func TestCounterHandler_IncrementsExistingCountAndPreservesOtherParams(t *testing.T) {
	repo := &stubTaskRepo{}
	handler := runner.NewCounterHandler(repo, discardLogger())
	task := &domain.Task{ID: 2, Params: domain.Params{"count": 4.0, "label": "keepme"}}

	result, err := handler(context.Background(), task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result["count"] != 5 {
		t.Fatalf("expected count 5, got %v", result["count"])
	}
	if repo.params["label"] != "keepme" {
		t.Fatalf("expected unrelated params preserved, got %+v", repo.params)
	}
}
