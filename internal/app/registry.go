package app

import (
	"time"

	"go-leave/internal/auth"
	"go-leave/internal/dashboard"
	"go-leave/internal/employee"
	"go-leave/internal/leave"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/middleware"
	"go-leave/internal/rbac"
	"go-leave/internal/rbac/infra"
	"go-leave/internal/shared/database"
	"go-leave/internal/shared/locker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	idempotencyTTL   = 24 * time.Hour
	lockRetryBackoff = 50 * time.Millisecond
	lockRetryCount   = 20
)

func registerModules(
	router *gin.Engine,
	cfg Config,
	db *gorm.DB,
	rdb *redis.Client,
	logger *zap.Logger,
) error {
	tx := database.NewTransactor(db)

	// --- Repositories ---
	authRepo := auth.NewRepository(db)
	employeeRepo := employee.NewRepository(db)
	leaveRepo := leave.NewRepository(db)
	dashboardRepo := dashboard.NewRepository(db)
	outboxRepo := kafka.NewOutboxRepository(db)
	ledger := employee.NewLedger(employeeRepo)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer()
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(rbac.NewStaticRepository(), enforcer, logger)
	if err := rbacService.LoadPolicy(); err != nil {
		return err
	}

	lock := locker.NewNoopLocker()
	if rdb != nil {
		lock = locker.NewRedisLocker(rdb, lockRetryBackoff, lockRetryCount)
	}

	// --- Services ---
	authService := auth.NewServiceWithOutbox(tx, authRepo, employeeRepo, outboxRepo, auth.TokenConfig{
		Secret: cfg.JWTSecret,
		TTL:    cfg.TokenTTL,
	}, logger)
	leaveService := leave.NewService(tx, leaveRepo, ledger,
		leave.WithOutbox(outboxRepo),
		leave.WithLocker(lock),
		leave.WithLogger(logger),
	)
	dashboardService := dashboard.NewService(dashboardRepo, ledger, rdb, dashboard.WithLogger(logger))

	// --- Handlers ---
	authHandler := auth.NewHandler(authService, auth.CookieConfig{Secure: cfg.CookieSecure}, logger)
	leaveHandler := leave.NewHandler(leaveService, logger)
	dashboardHandler := dashboard.NewHandler(dashboardService, logger)
	rbacHandler := rbac.NewHandler(rbacService)

	// --- Routes Registration ---
	authMW := middleware.AuthMiddleware(cfg.JWTSecret)
	idempotency := middleware.Idempotency(rdb, idempotencyTTL)

	api := router.Group("/api/v1")
	{
		auth.RegisterRoutes(api, authHandler, authMW)
		leave.RegisterRoutes(api, leaveHandler, authMW, rbacService, idempotency)
		dashboard.RegisterRoutes(api, dashboardHandler, authMW, rbacService)
		rbac.RegisterRoutes(api, rbacHandler, authMW)
	}

	return nil
}
