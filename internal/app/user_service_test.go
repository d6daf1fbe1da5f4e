package app

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"

	"github.com/nicoceron/nimble-backend/internal/cache"
	"github.com/nicoceron/nimble-backend/internal/model"
	"github.com/nicoceron/nimble-backend/internal/pkg/jwtutil"
	"github.com/nicoceron/nimble-backend/internal/platform/sqlite/sqlitetest"
	"github.com/nicoceron/nimble-backend/internal/repository"
)

func TestRegisterUser(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	u, err := f.users.RegisterUser(ctx, RegisterInput{Username: " alice ", Email: "Alice@Example.com", Password: "Password123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.ID == 0 || u.Username != "alice" || u.Email != "alice@example.com" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if u.PasswordHash == "" || strings.Contains(u.PasswordHash, "Password123") {
		t.Fatalf("password not hashed: %q", u.PasswordHash)
	}
	if u.CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be assigned")
	}
	if got := f.publisher.actions(); len(got) != 1 || got[0] != model.ActionUserRegistered {
		t.Fatalf("unexpected activity: %v", got)
	}
}

func TestRegisterUserConflicts(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	f.register(t, "alice")

	cases := []struct {
		name  string
		input RegisterInput
		want  error
	}{
		{"same username same email", RegisterInput{"alice", "alice@example.com", "Password123"}, ErrUsernameExists},
		{"same username other email", RegisterInput{"alice", "other@example.com", "Password123"}, ErrUsernameExists},
		{"same email other username", RegisterInput{"alicia", "ALICE@example.com", "Password123"}, ErrEmailExists},
	}
	for _, tc := range cases {
		if _, err := f.users.RegisterUser(ctx, tc.input); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	all, err := f.userRepo.FindAll(ctx)
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected exactly one user row, got %d", len(all))
	}
}

func TestRegisterUserValidation(t *testing.T) {
	f := newFixture(t, nil, nil)
	inputs := []RegisterInput{
		{"", "a@example.com", "Password123"},
		{"bob", "  ", "Password123"},
		{"bob", "bob@example.com", ""},
		{strings.Repeat("b", 51), "bob@example.com", "Password123"},
	}
	for _, in := range inputs {
		if _, err := f.users.RegisterUser(context.Background(), in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("input %+v: expected ErrInvalidInput, got %v", in, err)
		}
	}
}

func TestResolveDuplicateNamesCollidingField(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.register(t, "alice")

	if err := f.users.resolveDuplicate(context.Background(), "alice"); !errors.Is(err, ErrUsernameExists) {
		t.Fatalf("expected ErrUsernameExists, got %v", err)
	}
	if err := f.users.resolveDuplicate(context.Background(), "someone-else"); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestLoginUser(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	registered := f.register(t, "alice")

	u, err := f.users.LoginUser(ctx, LoginInput{Username: "alice", Password: "Password123"})
	if err != nil || u == nil || u.ID != registered.ID {
		t.Fatalf("login with correct password: %+v, %v", u, err)
	}

	wrong, errWrong := f.users.LoginUser(ctx, LoginInput{Username: "alice", Password: "nope"})
	unknown, errUnknown := f.users.LoginUser(ctx, LoginInput{Username: "mallory", Password: "Password123"})
	if wrong != nil || errWrong != nil {
		t.Fatalf("wrong password: expected (nil, nil), got (%+v, %v)", wrong, errWrong)
	}
	if unknown != nil || errUnknown != nil {
		t.Fatalf("unknown user: expected (nil, nil), got (%+v, %v)", unknown, errUnknown)
	}

	if _, err := f.users.LoginUser(ctx, LoginInput{Username: "", Password: "x"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

type flakyHasher struct {
	hashCalls   int
	verifyCalls int
	failHash    bool
}

func (h *flakyHasher) Hash(string) (string, error) {
	h.hashCalls++
	if h.failHash {
		return "", errors.New("entropy unavailable")
	}
	return "stub", nil
}

func (h *flakyHasher) Verify(string, string) (bool, error) {
	h.verifyCalls++
	return false, nil
}

func TestLoginUnknownUserStillHashesWhenPlaceholderFails(t *testing.T) {
	hasher := &flakyHasher{failHash: true}
	svc := NewUserService(repository.NewTransactor(sqlitetest.Open(t)), hasher, "test-secret", time.Hour, nil, nil, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		u, err := svc.LoginUser(ctx, LoginInput{Username: "mallory", Password: "Password123"})
		if u != nil || err != nil {
			t.Fatalf("unknown user: expected (nil, nil), got (%+v, %v)", u, err)
		}
	}
	// one placeholder attempt, then an inline hash per login
	if hasher.hashCalls != 3 {
		t.Fatalf("expected 3 hash calls, got %d", hasher.hashCalls)
	}
	if hasher.verifyCalls != 0 {
		t.Fatalf("verify against empty placeholder: %d calls", hasher.verifyCalls)
	}
}

func TestLoginUnknownUserVerifiesAgainstPlaceholder(t *testing.T) {
	hasher := &flakyHasher{}
	svc := NewUserService(repository.NewTransactor(sqlitetest.Open(t)), hasher, "test-secret", time.Hour, nil, nil, nil)

	if u, err := svc.LoginUser(context.Background(), LoginInput{Username: "mallory", Password: "Password123"}); u != nil || err != nil {
		t.Fatalf("unknown user: expected (nil, nil), got (%+v, %v)", u, err)
	}
	if hasher.hashCalls != 1 || hasher.verifyCalls != 1 {
		t.Fatalf("expected one placeholder hash and one verify, got %d/%d", hasher.hashCalls, hasher.verifyCalls)
	}
}

func TestFindUserByID(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	registered := f.register(t, "alice")

	got, err := f.users.FindUserByID(ctx, registered.ID)
	if err != nil || got == nil || got.Username != "alice" {
		t.Fatalf("find existing: %+v, %v", got, err)
	}
	missing, err := f.users.FindUserByID(ctx, registered.ID+100)
	if err != nil || missing != nil {
		t.Fatalf("find missing: expected (nil, nil), got (%+v, %v)", missing, err)
	}
}

func TestFindUserByIDReadsThroughCache(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := newFixture(t, cache.NewUserCache(client, time.Minute), nil)
	ctx := context.Background()
	registered := f.register(t, "alice")

	if !srv.Exists("nimble:user:" + strconv.FormatUint(uint64(registered.ID), 10)) {
		t.Fatalf("expected registration to warm the cache")
	}

	// remove the row behind the cache's back; the cached copy still answers
	if err := f.userRepo.RemoveByID(ctx, registered.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	got, err := f.users.FindUserByID(ctx, registered.ID)
	if err != nil || got == nil || got.Username != "alice" {
		t.Fatalf("expected cached user, got %+v, %v", got, err)
	}
	if got.PasswordHash != "" {
		t.Fatalf("cached user carries a password hash")
	}
}

func TestIssueToken(t *testing.T) {
	f := newFixture(t, nil, nil)
	u := f.register(t, "alice")

	token, err := f.users.IssueToken(u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := jwtutil.ParseToken("test-secret", token)
	if err != nil || claims.UserID != u.ID {
		t.Fatalf("parse: %+v, %v", claims, err)
	}
}
