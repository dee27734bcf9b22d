package app

import (
	"go-leave/internal/auth"
	"go-leave/internal/employee"
	"go-leave/internal/leave"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/middleware"
	"go-leave/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
	logger *zap.Logger
}

// BuildApp connects the stores, migrates the schema and mounts every module.
// Redis is optional: without it the approval lock, idempotency and the
// dashboard cache are disabled.
func BuildApp(cfg Config, logger *zap.Logger) (*App, error) {
	log := logger.Named("app")

	db, err := connection.ConnectGORMWithRetry(cfg.Postgres, cfg.ConnectTries)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("database ready")

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = connection.ConnectRedisWithRetry(cfg.RedisAddr, cfg.ConnectTries)
		if err != nil {
			return nil, err
		}
		log.Info("redis ready")
	} else {
		log.Warn("REDIS_ADDR not set, running without lock, idempotency and cache")
	}

	router := NewRouter(cfg, logger)
	if err := registerModules(router, cfg, db, rdb, logger); err != nil {
		return nil, err
	}

	return &App{Router: router, DB: db, Redis: rdb, logger: log}, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&employee.Employee{},
		&auth.User{},
		&leave.LeaveRequest{},
		&kafka.OutboxEvent{},
	)
}

// NewRouter builds the engine with the cross-cutting middleware and health
// endpoints but no modules.
func NewRouter(cfg Config, logger *zap.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.ContextLogger(logger))
	r.Use(middleware.CORS(cfg.ClientURL))

	r.GET("/health", Health)
	r.GET("/api/v1/health", Health)
	return r
}

func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.logger.Warn("close redis failed", zap.Error(err))
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.logger.Warn("close database failed", zap.Error(err))
		}
	}
}
