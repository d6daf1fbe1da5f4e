package app

import (
	"context"

	"github.com/nicoceron/nimble-backend/internal/model"
)

type ActivityPublisher interface {
	Publish(ctx context.Context, activity model.Activity) error
}

type UserCache interface {
	GetUser(ctx context.Context, id uint) (*model.User, bool, error)
	SetUser(ctx context.Context, user *model.User) error
}

type TaskListCache interface {
	GetTasks(ctx context.Context, userID uint) ([]model.Task, bool, error)
	SetTasks(ctx context.Context, userID uint, tasks []model.Task) error
	Invalidate(ctx context.Context, userID uint) error
	IsDirty(ctx context.Context, userID uint) (bool, error)
}
