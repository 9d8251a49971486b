package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trustle-io/taskscheduler/internal/domain"
	"github.com/trustle-io/taskscheduler/internal/usecase"
)

type TaskHandler struct {
	tasks  *usecase.TaskService
	logger *slog.Logger
}

func NewTaskHandler(tasks *usecase.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger.With("component", "task_handler")}
}

type createTaskRequest struct {
	Name            string              `json:"name" binding:"required"`
	Kind            domain.Kind         `json:"kind" binding:"required,oneof=sleep counter http"`
	ScheduleKind    domain.ScheduleKind `json:"schedule_kind" binding:"required,oneof=interval once cron"`
	IntervalSeconds *int                `json:"interval_seconds"`
	CronExpression  *string             `json:"cron_expression"`
	NextRunAt       *time.Time          `json:"next_run_at"`
	Params          domain.Params       `json:"params"`
	TimeoutSeconds  *int                `json:"timeout_seconds"`
}

func (h *TaskHandler) Create(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), usecase.CreateTaskInput{
		Name:            req.Name,
		Kind:            req.Kind,
		ScheduleKind:    req.ScheduleKind,
		IntervalSeconds: req.IntervalSeconds,
		CronExpression:  req.CronExpression,
		NextRunAt:       req.NextRunAt,
		Params:          req.Params,
		TimeoutSeconds:  req.TimeoutSeconds,
	})
	if err != nil {
		h.writeCreateUpdateError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

type updateTaskRequest struct {
	ScheduleKind    *domain.ScheduleKind `json:"schedule_kind"`
	IntervalSeconds *int                 `json:"interval_seconds"`
	CronExpression  *string              `json:"cron_expression"`
	NextRunAt       *time.Time           `json:"next_run_at"`
	Params          domain.Params        `json:"params"`
	TimeoutSeconds  *int                 `json:"timeout_seconds"`
	ClearTimeout    bool                 `json:"clear_timeout"`
}

func (h *TaskHandler) Update(c *gin.Context) {
	id, err := parseTaskID(c)
	if err != nil {
		return
	}

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.tasks.Update(c.Request.Context(), id, usecase.UpdateTaskInput{
		ScheduleKind:    req.ScheduleKind,
		IntervalSeconds: req.IntervalSeconds,
		CronExpression:  req.CronExpression,
		NextRunAt:       req.NextRunAt,
		Params:          req.Params,
		TimeoutSeconds:  req.TimeoutSeconds,
		ClearTimeout:    req.ClearTimeout,
	})
	if err != nil {
		h.writeCreateUpdateError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) GetByID(c *gin.Context) {
	id, err := parseTaskID(c)
	if err != nil {
		return
	}

	task, err := h.tasks.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeReadError(c, "get task by id", id, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) List(c *gin.Context) {
	tasks, err := h.tasks.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list tasks", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) ListUpcoming(c *gin.Context) {
	tasks, err := h.tasks.ListUpcoming(c.Request.Context())
	if err != nil {
		h.logger.Error("list upcoming tasks", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) Delete(c *gin.Context) {
	id, err := parseTaskID(c)
	if err != nil {
		return
	}

	if err := h.tasks.Delete(c.Request.Context(), id); err != nil {
		h.writeReadError(c, "delete task", id, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *TaskHandler) ListExecutions(c *gin.Context) {
	id, err := parseTaskID(c)
	if err != nil {
		return
	}

	executions, err := h.tasks.ListExecutions(c.Request.Context(), id)
	if err != nil {
		h.writeReadError(c, "list executions", id, err)
		return
	}

	c.JSON(http.StatusOK, executions)
}

func (h *TaskHandler) ListAllExecutions(c *gin.Context) {
	executions, err := h.tasks.ListAllExecutions(c.Request.Context())
	if err != nil {
		h.logger.Error("list all executions", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.JSON(http.StatusOK, executions)
}

func parseTaskID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return 0, err
	}
	return id, nil
}

func (h *TaskHandler) writeCreateUpdateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidSchedule), errors.Is(err, domain.ErrInvalidCronExpr), errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNameConflict):
		c.JSON(http.StatusConflict, gin.H{"error": errNameConflict})
	case errors.Is(err, domain.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errTaskNotFound})
	default:
		h.logger.Error("create/update task", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
	}
}

func (h *TaskHandler) writeReadError(c *gin.Context, op string, taskID int64, err error) {
	if errors.Is(err, domain.ErrTaskNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": errTaskNotFound})
		return
	}
	h.logger.Error(op, "task_id", taskID, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
}
