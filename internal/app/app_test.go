package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nicoceron/nimble-backend/internal/model"
	"github.com/nicoceron/nimble-backend/internal/pkg/password"
	"github.com/nicoceron/nimble-backend/internal/platform/sqlite/sqlitetest"
	"github.com/nicoceron/nimble-backend/internal/repository"
)

var fastHasher = password.NewArgon2idHasher(password.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.Activity
}

func (p *recordingPublisher) Publish(_ context.Context, activity model.Activity) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, activity)
	return nil
}

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Action)
	}
	return out
}

type fixture struct {
	users     *UserService
	tasks     *TaskService
	publisher *recordingPublisher
	userRepo  *repository.UserRepository
	taskRepo  *repository.TaskRepository
}

func newFixture(t *testing.T, userCache UserCache, taskCache TaskListCache) *fixture {
	t.Helper()
	db := sqlitetest.Open(t)
	tx := repository.NewTransactor(db)
	pub := &recordingPublisher{}
	return &fixture{
		users:     NewUserService(tx, fastHasher, "test-secret", time.Hour, userCache, pub, nil),
		tasks:     NewTaskService(tx, taskCache, pub, nil),
		publisher: pub,
		userRepo:  repository.NewUserRepository(db),
		taskRepo:  repository.NewTaskRepository(db),
	}
}

func (f *fixture) register(t *testing.T, username string) *model.User {
	t.Helper()
	u, err := f.users.RegisterUser(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "Password123",
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}
