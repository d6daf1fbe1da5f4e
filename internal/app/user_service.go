package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/nicoceron/nimble-backend/internal/metrics"
	"github.com/nicoceron/nimble-backend/internal/model"
	"github.com/nicoceron/nimble-backend/internal/pkg/jwtutil"
	"github.com/nicoceron/nimble-backend/internal/pkg/password"
	"github.com/nicoceron/nimble-backend/internal/repository"
)

const (
	maxUsernameLength = 50
	maxEmailLength    = 100
)

type UserService struct {
	tx            *repository.Transactor
	hasher        password.Hasher
	jwtSecret     string
	jwtExpiration time.Duration
	cache         UserCache
	publisher     ActivityPublisher
	logger        *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	Username string
	Password string
}

// NewUserService wires the user flows. cache and publisher may be nil.
func NewUserService(
	tx *repository.Transactor,
	hasher password.Hasher,
	jwtSecret string,
	jwtExpiration time.Duration,
	cache UserCache,
	publisher ActivityPublisher,
	logger *slog.Logger,
) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		tx:            tx,
		hasher:        hasher,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		cache:         cache,
		publisher:     publisher,
		logger:        logger,
	}
}

func (s *UserService) RegisterUser(ctx context.Context, input RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if username == "" || email == "" || input.Password == "" ||
		utf8.RuneCountInString(username) > maxUsernameLength ||
		utf8.RuneCountInString(email) > maxEmailLength {
		metrics.ObserveRegistration(metrics.ResultInvalid)
		return nil, ErrInvalidInput
	}

	var user *model.User
	err := s.tx.Do(ctx, func(uow *repository.UnitOfWork) error {
		existing, err := uow.Users.FindByUsername(ctx, username)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrUsernameExists
		}

		existing, err = uow.Users.FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrEmailExists
		}

		hash, err := s.hasher.Hash(input.Password)
		if err != nil {
			return fmt.Errorf("hash password failed: %w", err)
		}

		user = &model.User{
			Username:     username,
			Email:        email,
			PasswordHash: hash,
		}
		return uow.Users.Create(ctx, user)
	})
	if errors.Is(err, repository.ErrDuplicate) {
		// lost a race with a concurrent registration; the unique index decided
		err = s.resolveDuplicate(ctx, username)
	}
	if err != nil {
		switch {
		case errors.Is(err, ErrUsernameExists), errors.Is(err, ErrEmailExists):
			metrics.ObserveRegistration(metrics.ResultConflict)
			s.logger.Info("registration rejected", slog.String("username", username), slog.String("reason", err.Error()))
		default:
			metrics.ObserveRegistration(metrics.ResultError)
			s.logger.Error("registration failed", slog.String("username", username), slog.String("error", err.Error()))
		}
		return nil, err
	}

	metrics.ObserveRegistration(metrics.ResultOK)
	s.logger.Info("user registered", slog.Uint64("user_id", uint64(user.ID)), slog.String("username", user.Username))
	s.remember(ctx, user)
	publishActivity(ctx, s.publisher, s.logger, model.Activity{
		UserID: user.ID,
		Action: model.ActionUserRegistered,
		Detail: user.Username,
	})
	return user, nil
}

func (s *UserService) resolveDuplicate(ctx context.Context, username string) error {
	var taken bool
	err := s.tx.Do(ctx, func(uow *repository.UnitOfWork) error {
		existing, err := uow.Users.FindByUsername(ctx, username)
		taken = existing != nil
		return err
	})
	if err != nil {
		return err
	}
	if taken {
		return ErrUsernameExists
	}
	return ErrEmailExists
}

// LoginUser returns (nil, nil) for an unknown username and for a wrong
// password alike. Only the log line tells them apart.
func (s *UserService) LoginUser(ctx context.Context, input LoginInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		metrics.ObserveLogin(metrics.ResultInvalid)
		return nil, ErrInvalidInput
	}

	var user *model.User
	err := s.tx.Do(ctx, func(uow *repository.UnitOfWork) error {
		found, err := uow.Users.FindByUsername(ctx, username)
		user = found
		return err
	})
	if err != nil {
		metrics.ObserveLogin(metrics.ResultError)
		return nil, err
	}

	if user == nil {
		// burn the same hashing cost as a real comparison
		if dummy := s.dummy(); dummy != "" {
			_, _ = s.hasher.Verify(input.Password, dummy)
		} else {
			_, _ = s.hasher.Hash(input.Password)
		}
		metrics.ObserveLogin(metrics.ResultRejected)
		s.logger.Info("login failed", slog.String("username", username), slog.String("reason", "unknown username"))
		return nil, nil
	}

	ok, err := s.hasher.Verify(input.Password, user.PasswordHash)
	if err != nil {
		metrics.ObserveLogin(metrics.ResultRejected)
		s.logger.Error("stored password hash unreadable", slog.Uint64("user_id", uint64(user.ID)), slog.String("error", err.Error()))
		return nil, nil
	}
	if !ok {
		metrics.ObserveLogin(metrics.ResultRejected)
		s.logger.Info("login failed", slog.String("username", username), slog.String("reason", "wrong password"))
		return nil, nil
	}

	metrics.ObserveLogin(metrics.ResultOK)
	return user, nil
}

// FindUserByID returns (nil, nil) when the user does not exist. Users served
// from the cache carry no password hash.
func (s *UserService) FindUserByID(ctx context.Context, id uint) (*model.User, error) {
	if id == 0 {
		return nil, nil
	}

	if s.cache != nil {
		if cached, hit, err := s.cache.GetUser(ctx, id); err == nil && hit {
			return cached, nil
		} else if err != nil {
			s.logger.Warn("user cache read failed", slog.Uint64("user_id", uint64(id)), slog.String("error", err.Error()))
		}
	}

	var user *model.User
	err := s.tx.Do(ctx, func(uow *repository.UnitOfWork) error {
		found, err := uow.Users.FindByID(ctx, id)
		user = found
		return err
	})
	if err != nil {
		return nil, err
	}
	if user != nil {
		s.remember(ctx, user)
	}
	return user, nil
}

func (s *UserService) IssueToken(user *model.User) (string, error) {
	return jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration, user.ID, user.Username)
}

func (s *UserService) remember(ctx context.Context, user *model.User) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetUser(ctx, user); err != nil {
		s.logger.Warn("user cache write failed", slog.Uint64("user_id", uint64(user.ID)), slog.String("error", err.Error()))
	}
}

func (s *UserService) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("nimble-login-placeholder")
		if err != nil {
			s.logger.Error("compute placeholder hash failed", slog.String("error", err.Error()))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
