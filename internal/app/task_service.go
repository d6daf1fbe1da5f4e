package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nicoceron/nimble-backend/internal/metrics"
	"github.com/nicoceron/nimble-backend/internal/model"
	"github.com/nicoceron/nimble-backend/internal/repository"
)

const (
	maxTitleLength       = 100
	maxDescriptionLength = 1000
)

type TaskService struct {
	tx        *repository.Transactor
	cache     TaskListCache
	publisher ActivityPublisher
	logger    *slog.Logger
}

type CreateTaskInput struct {
	UserID      uint
	Title       string
	Description string
	DueDate     *time.Time
	Priority    model.Priority
}

// UpdateTaskInput replaces every mutable field; there is no partial update.
type UpdateTaskInput struct {
	TaskID      uint
	Title       string
	Description string
	DueDate     *time.Time
	Priority    model.Priority
	Status      model.Status
}

// NewTaskService wires the task flows. cache and publisher may be nil.
func NewTaskService(tx *repository.Transactor, cache TaskListCache, publisher ActivityPublisher, logger *slog.Logger) *TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskService{
		tx:        tx,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateTask always starts the task as PENDING.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*model.Task, error) {
	if input.UserID == 0 || !validTaskText(input.Title, input.Description) || !input.Priority.Valid() {
		metrics.ObserveTaskOperation("create", metrics.ResultInvalid)
		return nil, ErrInvalidInput
	}

	var task *model.Task
	err := s.tx.Do(ctx, func(uow *repository.UnitOfWork) error {
		owner, err := uow.Users.FindByID(ctx, input.UserID)
		if err != nil {
			return err
		}
		if owner == nil {
			return ErrUserNotFound
		}

		task = &model.Task{
			UserID:      owner.ID,
			Title:       input.Title,
			Description: input.Description,
			DueDate:     input.DueDate,
			Priority:    input.Priority,
			Status:      model.StatusPending,
		}
		return uow.Tasks.Create(ctx, task)
	})
	if err != nil {
		s.observeFailure("create", err)
		return nil, err
	}

	metrics.ObserveTaskOperation("create", metrics.ResultOK)
	s.afterMutation(ctx, task, model.ActionTaskCreated)
	return task, nil
}

func (s *TaskService) FindTaskByID(ctx context.Context, id uint) (*model.Task, error) {
	if id == 0 {
		return nil, nil
	}
	var task *model.Task
	err := s.tx.Do(ctx, func(uow *repository.UnitOfWork) error {
		found, err := uow.Tasks.FindByID(ctx, id)
		task = found
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// FindTasksByUserID does not check that the user exists; an unknown id yields
// an empty list.
func (s *TaskService) FindTasksByUserID(ctx context.Context, userID uint) ([]model.Task, error) {
	if s.cache != nil {
		dirty, err := s.cache.IsDirty(ctx, userID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.cache.GetTasks(ctx, userID); cacheErr == nil && hit {
				return cached, nil
			}
		}
	}

	var tasks []model.Task
	err := s.tx.Do(ctx, func(uow *repository.UnitOfWork) error {
		found, err := uow.Tasks.FindByUserID(ctx, userID)
		tasks = found
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if dirty, dirtyErr := s.cache.IsDirty(ctx, userID); dirtyErr == nil && !dirty {
			_ = s.cache.SetTasks(ctx, userID, tasks)
		}
	}
	return tasks, nil
}

func (s *TaskService) FindTasksByUserIDAndStatus(ctx context.Context, userID uint, status model.Status) ([]model.Task, error) {
	if !status.Valid() {
		return nil, ErrInvalidInput
	}
	var tasks []model.Task
	err := s.tx.Do(ctx, func(uow *repository.UnitOfWork) error {
		found, err := uow.Tasks.FindByUserIDAndStatus(ctx, userID, status)
		tasks = found
		return err
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, input UpdateTaskInput) (*model.Task, error) {
	if input.TaskID == 0 {
		metrics.ObserveTaskOperation("update", metrics.ResultNotFound)
		return nil, ErrTaskNotFound
	}
	if !validTaskText(input.Title, input.Description) || !input.Priority.Valid() || !input.Status.Valid() {
		metrics.ObserveTaskOperation("update", metrics.ResultInvalid)
		return nil, ErrInvalidInput
	}

	var task *model.Task
	err := s.tx.Do(ctx, func(uow *repository.UnitOfWork) error {
		existing, err := uow.Tasks.FindByID(ctx, input.TaskID)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrTaskNotFound
		}

		existing.Title = input.Title
		existing.Description = input.Description
		existing.DueDate = input.DueDate
		existing.Priority = input.Priority
		existing.Status = input.Status
		if err := uow.Tasks.Update(ctx, existing); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrTaskNotFound
			}
			return err
		}
		task = existing
		return nil
	})
	if err != nil {
		s.observeFailure("update", err)
		return nil, err
	}

	metrics.ObserveTaskOperation("update", metrics.ResultOK)
	s.afterMutation(ctx, task, model.ActionTaskUpdated)
	return task, nil
}

// DeleteTask is idempotent: deleting a missing id succeeds.
func (s *TaskService) DeleteTask(ctx context.Context, id uint) error {
	var removed *model.Task
	err := s.tx.Do(ctx, func(uow *repository.UnitOfWork) error {
		existing, err := uow.Tasks.FindByID(ctx, id)
		if err != nil || existing == nil {
			return err
		}
		if err := uow.Tasks.Remove(ctx, existing); err != nil {
			return err
		}
		removed = existing
		return nil
	})
	if err != nil {
		s.observeFailure("delete", err)
		return err
	}

	metrics.ObserveTaskOperation("delete", metrics.ResultOK)
	if removed != nil {
		s.afterMutation(ctx, removed, model.ActionTaskDeleted)
	}
	return nil
}

func (s *TaskService) afterMutation(ctx context.Context, task *model.Task, action string) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, task.UserID); err != nil {
			s.logger.Warn("invalidate task cache failed", slog.Uint64("user_id", uint64(task.UserID)), slog.String("error", err.Error()))
		}
	}

	taskID := task.ID
	publishActivity(ctx, s.publisher, s.logger, model.Activity{
		UserID: task.UserID,
		TaskID: &taskID,
		Action: action,
		Detail: task.Title,
	})
}

func (s *TaskService) observeFailure(operation string, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrTaskNotFound):
		metrics.ObserveTaskOperation(operation, metrics.ResultNotFound)
	default:
		metrics.ObserveTaskOperation(operation, metrics.ResultError)
		s.logger.Error("task operation failed", slog.String("operation", operation), slog.String("error", err.Error()))
	}
}

func validTaskText(title, description string) bool {
	if strings.TrimSpace(title) == "" || utf8.RuneCountInString(title) > maxTitleLength {
		return false
	}
	return utf8.RuneCountInString(description) <= maxDescriptionLength
}
