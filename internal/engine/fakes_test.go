package engine_test

import (
	"context"
	"sync"
	"time"

	"github.com/trustle-io/taskscheduler/internal/domain"
	"github.com/trustle-io/taskscheduler/internal/repository"
)

// fakeTaskRepo is an in-memory repository.TaskRepository good enough to
// exercise the claim/advance/finish cycle without a database.
type fakeTaskRepo struct {
	mu    sync.Mutex
	tasks map[int64]*domain.Task
}

func newFakeTaskRepo(tasks ...*domain.Task) *fakeTaskRepo {
	r := &fakeTaskRepo{tasks: make(map[int64]*domain.Task)}
	for _, t := range tasks {
		r.tasks[t.ID] = t
	}
	return r
}

func (r *fakeTaskRepo) Create(_ context.Context, t *domain.Task) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[t.ID] = t
	return t, nil
}

func (r *fakeTaskRepo) Update(_ context.Context, id int64, fn func(*domain.Task) error) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if err := fn(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *fakeTaskRepo) GetByID(_ context.Context, id int64) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return t, nil
}

func (r *fakeTaskRepo) List(_ context.Context, input repository.ListTasksInput) ([]*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Task
	for _, t := range r.tasks {
		if input.UpcomingOnly && t.NextRunAt == nil {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *fakeTaskRepo) ClaimDue(_ context.Context, now time.Time, limit int, advance func(*domain.Task) *time.Time) ([]*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var due []*domain.Task
	for _, t := range r.tasks {
		if len(due) >= limit {
			break
		}
		if t.Running || t.NextRunAt == nil || t.NextRunAt.After(now) {
			continue
		}
		t.Running = true
		t.NextRunAt = advance(t)
		due = append(due, t)
	}
	return due, nil
}

func (r *fakeTaskRepo) SetParams(_ context.Context, id int64, params domain.Params) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return domain.ErrTaskNotFound
	}
	t.Params = params
	return nil
}

func (r *fakeTaskRepo) ClearRunning(_ context.Context, id int64, nextRunAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return domain.ErrTaskNotFound
	}
	t.Running = false
	t.NextRunAt = nextRunAt
	return nil
}

// fakeExecutionRepo is an in-memory repository.ExecutionRepository.
type fakeExecutionRepo struct {
	mu         sync.Mutex
	nextID     int64
	executions map[int64]*domain.Execution
}

func newFakeExecutionRepo() *fakeExecutionRepo {
	return &fakeExecutionRepo{executions: make(map[int64]*domain.Execution)}
}

func (r *fakeExecutionRepo) Create(_ context.Context, e *domain.Execution) (*domain.Execution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	e.ID = r.nextID
	e.Status = domain.ExecutionRunning
	r.executions[e.ID] = e
	return e, nil
}

func (r *fakeExecutionRepo) Complete(_ context.Context, id int64, status domain.ExecutionStatus, detail *string, result domain.Params) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.executions[id]
	if !ok {
		return domain.ErrTaskNotFound
	}
	now := time.Now()
	e.Status = status
	e.Detail = detail
	e.Result = result
	e.FinishedAt = &now
	return nil
}

func (r *fakeExecutionRepo) Reclassify(_ context.Context, id int64, status domain.ExecutionStatus, detail string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.executions[id]
	if !ok {
		return domain.ErrTaskNotFound
	}
	e.Status = status
	e.Detail = &detail
	return nil
}

func (r *fakeExecutionRepo) ListByTaskID(_ context.Context, taskID int64) ([]*domain.Execution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Execution
	for _, e := range r.executions {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeExecutionRepo) ListAll(_ context.Context) ([]*domain.Execution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Execution
	for _, e := range r.executions {
		out = append(out, e)
	}
	return out, nil
}

func (r *fakeExecutionRepo) get(id int64) *domain.Execution {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.executions[id]
}
