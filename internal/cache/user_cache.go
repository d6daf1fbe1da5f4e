package cache

import (
	"context"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"github.com/nicoceron/nimble-backend/internal/model"
)

// UserCache stores users by id. The password hash is never serialized, so a
// cached user only serves read paths.
type UserCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewUserCache(client *redisv9.Client, ttl time.Duration) *UserCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &UserCache{client: client, ttl: ttl}
}

func (c *UserCache) GetUser(ctx context.Context, id uint) (*model.User, bool, error) {
	var user model.User
	hit, err := getJSON(ctx, c.client, c.key(id), &user)
	if err != nil || !hit {
		return nil, false, err
	}
	return &user, true, nil
}

func (c *UserCache) SetUser(ctx context.Context, user *model.User) error {
	return setJSON(ctx, c.client, c.key(user.ID), user, c.ttl)
}

func (c *UserCache) key(id uint) string {
	return fmt.Sprintf("nimble:user:%d", id)
}
