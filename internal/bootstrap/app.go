package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	appsvc "github.com/nicoceron/nimble-backend/internal/app"
	"github.com/nicoceron/nimble-backend/internal/cache"
	"github.com/nicoceron/nimble-backend/internal/config"
	"github.com/nicoceron/nimble-backend/internal/pkg/password"
	"github.com/nicoceron/nimble-backend/internal/platform/logger"
	mysqlClient "github.com/nicoceron/nimble-backend/internal/platform/mysql"
	rabbitmqClient "github.com/nicoceron/nimble-backend/internal/platform/rabbitmq"
	redisClient "github.com/nicoceron/nimble-backend/internal/platform/redis"
	sqliteClient "github.com/nicoceron/nimble-backend/internal/platform/sqlite"
	"github.com/nicoceron/nimble-backend/internal/repository"
	"github.com/nicoceron/nimble-backend/internal/worker"
)

type App struct {
	Config         *config.Config
	Logger         *slog.Logger
	DB             *gorm.DB
	Redis          *redis.Client
	MQConn         *amqp.Connection
	ActivityWorker *worker.ActivityPersistWorker

	Users      *appsvc.UserService
	Tasks      *appsvc.TaskService
	Activities *appsvc.ActivityService

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	log := logger.New(cfg.LogLevel(), cfg.Log.Format, os.Stdout)
	slog.SetDefault(log)

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := repository.AutoMigrate(db); err != nil {
			closeDB(db)
			return nil, err
		}
	}

	var redisCli *redis.Client
	if cfg.Redis.Enabled {
		redisCli, err = redisClient.New(ctx, redisClient.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			closeDB(db)
			return nil, err
		}
	}

	var mqConn *amqp.Connection
	if cfg.RabbitMQ.Enabled {
		mqConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.ActivityQueue)
		if err != nil {
			if redisCli != nil {
				_ = redisCli.Close()
			}
			closeDB(db)
			return nil, err
		}
	}

	a, err := Wire(cfg, log, db, redisCli, mqConn)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	if mqConn != nil {
		a.ActivityWorker = worker.NewActivityPersistWorker(
			mqConn,
			repository.NewActivityRepository(db),
			cfg.RabbitMQ.ActivityQueue,
			log,
		)
		if err := a.ActivityWorker.Start(ctx); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("start activity worker failed: %w", err)
		}
	}

	log.Info("application ready",
		slog.String("env", cfg.App.Env),
		slog.String("db_driver", cfg.Database.Driver),
		slog.Bool("redis", redisCli != nil),
		slog.Bool("rabbitmq", mqConn != nil),
	)
	return a, nil
}

// Wire builds the services on top of already opened clients. redisCli and
// mqConn may be nil: caching is then skipped and activity is written
// synchronously.
func Wire(cfg *config.Config, log *slog.Logger, db *gorm.DB, redisCli *redis.Client, mqConn *amqp.Connection) (*App, error) {
	a := &App{
		Config:    cfg,
		Logger:    log,
		DB:        db,
		Redis:     redisCli,
		MQConn:    mqConn,
		StartedAt: time.Now(),
	}

	hasher, err := password.New(cfg.Auth.PasswordAlgorithm)
	if err != nil {
		return a, err
	}

	var (
		userCache appsvc.UserCache
		taskCache appsvc.TaskListCache
	)
	if redisCli != nil {
		userCache = cache.NewUserCache(redisCli, seconds(cfg.Redis.UserTTLSeconds))
		taskCache = cache.NewTaskListCache(redisCli, seconds(cfg.Redis.TaskListTTLSeconds), seconds(cfg.Redis.TaskDirtyTTLSeconds))
	}

	a.Activities = appsvc.NewActivityService(repository.NewActivityRepository(db))
	var publisher appsvc.ActivityPublisher = a.Activities
	if mqConn != nil {
		publisher = rabbitmqClient.NewActivityPublisher(mqConn, cfg.RabbitMQ.ActivityQueue)
	}

	tx := repository.NewTransactor(db)
	a.Users = appsvc.NewUserService(tx, hasher, cfg.Auth.JWTSecret, cfg.JWTExpiration(), userCache, publisher, log)
	a.Tasks = appsvc.NewTaskService(tx, taskCache, publisher, log)
	return a, nil
}

func openDatabase(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		dsn, err := sqliteClient.FileDSN(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return sqliteClient.New(ctx, dsn)
	default:
		return mysqlClient.New(ctx, cfg.MySQLDSN())
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (a *App) Close() error {
	var closeErr error
	if a.ActivityWorker != nil {
		a.ActivityWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
