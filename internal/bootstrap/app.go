package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"gopherauth/internal/cache"
	"gopherauth/internal/config"
	"gopherauth/internal/platform/logger"
	mysqlClient "gopherauth/internal/platform/mysql"
	rabbitmqClient "gopherauth/internal/platform/rabbitmq"
	redisClient "gopherauth/internal/platform/redis"
	sqliteClient "gopherauth/internal/platform/sqlite"
	"gopherauth/internal/repository"
	"gopherauth/internal/worker"
)

type App struct {
	Config     *config.Config
	Log        *logrus.Logger
	DB         *gorm.DB
	Redis      *redis.Client
	MQConn     *amqp.Connection
	Profiles   *cache.ProfileCache
	UserWorker *worker.UserEventWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	app := &App{Config: cfg, Log: log, StartedAt: time.Now()}

	app.DB, err = OpenDatabase(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(app.DB); err != nil {
		_ = app.Close()
		return nil, err
	}

	app.Redis, err = redisClient.New(ctx, cfg.Redis)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.Profiles = cache.NewProfileCache(app.Redis, time.Duration(cfg.Redis.ProfileTTLSeconds)*time.Second)

	app.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.UserEventQueue)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	app.UserWorker = worker.NewUserEventWorker(app.MQConn, app.Profiles, cfg.RabbitMQ.UserEventQueue, log)
	if err := app.UserWorker.Start(ctx); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("start user event worker failed: %w", err)
	}

	return app, nil
}

// OpenDatabase connects to the configured driver without migrating.
func OpenDatabase(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*gorm.DB, error) {
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		return sqliteClient.New(ctx, cfg.SQLite.Path, log)
	case config.DriverMySQL:
		return mysqlClient.New(ctx, cfg.MySQLDSN(), log)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

func (a *App) Close() error {
	var closeErr error
	if a.UserWorker != nil {
		a.UserWorker.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
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
