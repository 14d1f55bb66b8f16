package app

import (
	"go-leave/internal/account"
	"go-leave/internal/audit"
	"go-leave/internal/config"
	"go-leave/internal/leave"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/middleware"
	"go-leave/internal/session"
	"go-leave/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Infra holds the connections opened by BuildApp.
type Infra struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func (i *Infra) Close() {
	if i.Redis != nil {
		_ = i.Redis.Close()
	}
	if sqlDB, err := i.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Models lists every table the service owns, in migration order.
func Models() []any {
	return []any{
		&account.Account{},
		&account.BalanceAdjustment{},
		&session.Session{},
		&leave.Leave{},
		&kafka.OutboxEvent{},
		&audit.Entry{},
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

func BuildApp(router *gin.Engine, cfg config.Config) (*Infra, error) {
	logger := zap.L().Named("app")

	db, err := connection.ConnectDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	logger.Info("database ready", zap.String("driver", cfg.Database.Driver))

	infra := &Infra{DB: db}

	// Redis only backs caches and idempotency, so the API still starts
	// without it.
	if cfg.RedisAddr != "" {
		rdb, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, 3)
		if err != nil {
			logger.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			infra.Redis = rdb
		}
	}

	router.Use(middleware.RequestID())

	if err := registerModules(router, infra, cfg); err != nil {
		infra.Close()
		return nil, err
	}
	return infra, nil
}
