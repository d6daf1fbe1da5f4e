package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"

	"github.com/nicoceron/nimble-backend/internal/model"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redisv9.Client) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return srv, client
}

func TestUserCacheRoundTripDropsHash(t *testing.T) {
	ctx := context.Background()
	srv, client := newTestClient(t)
	c := NewUserCache(client, time.Minute)

	if _, hit, err := c.GetUser(ctx, 1); err != nil || hit {
		t.Fatalf("expected miss, got hit=%v err=%v", hit, err)
	}

	created := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	if err := c.SetUser(ctx, &model.User{ID: 1, Username: "alice", Email: "alice@example.com", PasswordHash: "secret", CreatedAt: created}); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, hit, err := c.GetUser(ctx, 1)
	if err != nil || !hit {
		t.Fatalf("expected hit, got hit=%v err=%v", hit, err)
	}
	if got.Username != "alice" || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected user: %+v", got)
	}
	if got.PasswordHash != "" {
		t.Fatalf("cached user carries password hash")
	}

	srv.FastForward(2 * time.Minute)
	if _, hit, _ := c.GetUser(ctx, 1); hit {
		t.Fatalf("expected entry to expire")
	}
}

func TestTaskListCacheInvalidateMarksDirty(t *testing.T) {
	ctx := context.Background()
	srv, client := newTestClient(t)
	c := NewTaskListCache(client, time.Minute, 5*time.Second)

	tasks := []model.Task{{ID: 1, UserID: 7, Title: "a", Priority: model.PriorityHigh, Status: model.StatusPending}}
	if err := c.SetTasks(ctx, 7, tasks); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, hit, err := c.GetTasks(ctx, 7)
	if err != nil || !hit || len(got) != 1 || got[0].Priority != model.PriorityHigh {
		t.Fatalf("unexpected cache read: %+v hit=%v err=%v", got, hit, err)
	}

	if err := c.Invalidate(ctx, 7); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, hit, _ := c.GetTasks(ctx, 7); hit {
		t.Fatalf("expected miss after invalidate")
	}
	dirty, err := c.IsDirty(ctx, 7)
	if err != nil || !dirty {
		t.Fatalf("expected dirty marker, got %v %v", dirty, err)
	}

	srv.FastForward(6 * time.Second)
	if dirty, _ := c.IsDirty(ctx, 7); dirty {
		t.Fatalf("expected dirty marker to expire")
	}
}
