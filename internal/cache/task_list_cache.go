package cache

import (
	"context"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"github.com/nicoceron/nimble-backend/internal/model"
)

// TaskListCache holds each user's ordered task list. Writers mark the list
// dirty before deleting it so a concurrent reader does not repopulate it with
// rows read before the write committed.
type TaskListCache struct {
	client         *redisv9.Client
	listTTL        time.Duration
	dirtyMarkerTTL time.Duration
}

func NewTaskListCache(client *redisv9.Client, listTTL, dirtyMarkerTTL time.Duration) *TaskListCache {
	if listTTL <= 0 {
		listTTL = 60 * time.Second
	}
	if dirtyMarkerTTL <= 0 {
		dirtyMarkerTTL = 5 * time.Second
	}
	return &TaskListCache{
		client:         client,
		listTTL:        listTTL,
		dirtyMarkerTTL: dirtyMarkerTTL,
	}
}

func (c *TaskListCache) GetTasks(ctx context.Context, userID uint) ([]model.Task, bool, error) {
	var tasks []model.Task
	hit, err := getJSON(ctx, c.client, c.listKey(userID), &tasks)
	if err != nil || !hit {
		return nil, false, err
	}
	return tasks, true, nil
}

func (c *TaskListCache) SetTasks(ctx context.Context, userID uint, tasks []model.Task) error {
	return setJSON(ctx, c.client, c.listKey(userID), tasks, c.listTTL)
}

func (c *TaskListCache) Invalidate(ctx context.Context, userID uint) error {
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, c.dirtyKey(userID), "1", c.dirtyMarkerTTL)
	pipe.Del(ctx, c.listKey(userID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis invalidate tasks failed: %w", err)
	}
	return nil
}

func (c *TaskListCache) IsDirty(ctx context.Context, userID uint) (bool, error) {
	exists, err := c.client.Exists(ctx, c.dirtyKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check dirty marker failed: %w", err)
	}
	return exists > 0, nil
}

func (c *TaskListCache) listKey(userID uint) string {
	return fmt.Sprintf("nimble:tasks:user:%d", userID)
}

func (c *TaskListCache) dirtyKey(userID uint) string {
	return fmt.Sprintf("nimble:tasks:user:dirty:%d", userID)
}
