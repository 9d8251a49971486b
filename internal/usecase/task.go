package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/trustle-io/taskscheduler/internal/clock"
	"github.com/trustle-io/taskscheduler/internal/cronexpr"
	"github.com/trustle-io/taskscheduler/internal/domain"
	"github.com/trustle-io/taskscheduler/internal/repository"
)

// TaskService owns create/update validation and default-filling, the way
// the teacher's ScheduleUsecase parses and defaults a cron schedule before
// handing a domain object to the repository.
type TaskService struct {
	tasks      repository.TaskRepository
	executions repository.ExecutionRepository
	clock      clock.Clock
}

func NewTaskService(tasks repository.TaskRepository, executions repository.ExecutionRepository, c clock.Clock) *TaskService {
	return &TaskService{tasks: tasks, executions: executions, clock: c}
}

type CreateTaskInput struct {
	Name            string
	Kind            domain.Kind
	ScheduleKind    domain.ScheduleKind
	IntervalSeconds *int
	CronExpression  *string
	NextRunAt       *time.Time
	Params          domain.Params
	TimeoutSeconds  *int
}

func (s *TaskService) Create(ctx context.Context, input CreateTaskInput) (*domain.Task, error) {
	t := &domain.Task{
		Name:            input.Name,
		Kind:            input.Kind,
		ScheduleKind:    input.ScheduleKind,
		IntervalSeconds: input.IntervalSeconds,
		CronExpression:  input.CronExpression,
		NextRunAt:       input.NextRunAt,
		Params:          input.Params,
		TimeoutSeconds:  input.TimeoutSeconds,
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	if t.ScheduleKind == domain.ScheduleCron {
		if err := cronexpr.Validate(*t.CronExpression); err != nil {
			return nil, domain.ErrInvalidCronExpr
		}
	}

	now := s.clock.Now()
	if t.NextRunAt == nil {
		switch t.ScheduleKind {
		case domain.ScheduleInterval:
			t.NextRunAt = &now
		case domain.ScheduleCron:
			next, err := cronexpr.Next(*t.CronExpression, now)
			if err != nil {
				return nil, domain.ErrInvalidCronExpr
			}
			t.NextRunAt = &next
		case domain.ScheduleOnce:
			return nil, domain.ErrInvalidSchedule
		}
	}

	created, err := s.tasks.Create(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return created, nil
}

// UpdateTaskInput carries the PATCH-able fields; a nil pointer means "leave
// unchanged". Name and kind are immutable after creation.
type UpdateTaskInput struct {
	ScheduleKind    *domain.ScheduleKind
	IntervalSeconds *int
	CronExpression  *string
	NextRunAt       *time.Time
	Params          domain.Params
	TimeoutSeconds  *int
	ClearTimeout    bool
}

func (s *TaskService) Update(ctx context.Context, id int64, input UpdateTaskInput) (*domain.Task, error) {
	updated, err := s.tasks.Update(ctx, id, func(t *domain.Task) error {
		if input.ScheduleKind != nil {
			t.ScheduleKind = *input.ScheduleKind
		}
		if input.IntervalSeconds != nil {
			t.IntervalSeconds = input.IntervalSeconds
		}
		if input.CronExpression != nil {
			t.CronExpression = input.CronExpression
		}
		if input.NextRunAt != nil {
			t.NextRunAt = input.NextRunAt
		}
		if input.Params != nil {
			t.Params = input.Params
		}
		if input.ClearTimeout {
			t.TimeoutSeconds = nil
		} else if input.TimeoutSeconds != nil {
			t.TimeoutSeconds = input.TimeoutSeconds
		}

		if err := t.Validate(); err != nil {
			return err
		}
		if t.ScheduleKind == domain.ScheduleCron {
			if err := cronexpr.Validate(*t.CronExpression); err != nil {
				return domain.ErrInvalidCronExpr
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *TaskService) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	return s.tasks.GetByID(ctx, id)
}

func (s *TaskService) List(ctx context.Context) ([]*domain.Task, error) {
	return s.tasks.List(ctx, repository.ListTasksInput{})
}

func (s *TaskService) ListUpcoming(ctx context.Context) ([]*domain.Task, error) {
	return s.tasks.List(ctx, repository.ListTasksInput{UpcomingOnly: true})
}

func (s *TaskService) Delete(ctx context.Context, id int64) error {
	return s.tasks.Delete(ctx, id)
}

func (s *TaskService) ListExecutions(ctx context.Context, taskID int64) ([]*domain.Execution, error) {
	if _, err := s.tasks.GetByID(ctx, taskID); err != nil {
		return nil, err
	}
	return s.executions.ListByTaskID(ctx, taskID)
}

func (s *TaskService) ListAllExecutions(ctx context.Context) ([]*domain.Execution, error) {
	return s.executions.ListAll(ctx)
}
