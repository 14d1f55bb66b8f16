package app

import (
	"go-leave/internal/account"
	"go-leave/internal/auth"
	"go-leave/internal/config"
	"go-leave/internal/leave"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/middleware"
	"go-leave/internal/rbac"
	"go-leave/internal/rbac/infra"
	"go-leave/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func registerModules(router *gin.Engine, deps *Infra, cfg config.Config) error {
	logger := zap.L()
	db := deps.DB

	// --- Repositories ---
	accountRepo := account.NewRepository(db)
	sessionRepo := session.NewRepository(db)
	leaveRepo := leave.NewRepository(db)
	outboxRepo := kafka.NewOutboxRepository(db)
	profileCache := account.NewProfileCache(deps.Redis)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer()
	if err != nil {
		return err
	}
	rbacService, err := rbac.NewService(enforcer, rbac.DefaultPolicy, rbac.RoleInheritance)
	if err != nil {
		return err
	}

	// --- Services ---
	tokens, err := auth.NewTokenIssuer(cfg.Session.Secret, cfg.Session.Issuer, cfg.Session.TTL, nil)
	if err != nil {
		return err
	}
	authService := auth.NewService(db, accountRepo, sessionRepo, tokens, auth.Config{
		MaxSessionsPerAccount: cfg.Session.MaxPerUser,
	})
	accountService := account.NewService(accountRepo, profileCache, []account.Option{
		account.WithBalanceFloor(cfg.EnforceBalanceFloor),
	})
	leaveService := leave.NewService(db, leaveRepo, accountRepo, profileCache, []leave.Option{
		leave.WithBalanceFloor(cfg.EnforceBalanceFloor),
		leave.WithOutbox(outboxRepo),
	})

	// --- Handlers ---
	authHandler := auth.NewHandler(authService, cfg.IsProduction())
	accountHandler := account.NewHandler(accountService)
	leaveHandler := leave.NewHandler(leaveService)

	authMW := middleware.AuthMiddleware(authService)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		auth.RegisterRoutes(api, authHandler, authMW, auth.RouteConfig{
			LoginRatePerSec: cfg.LoginRatePerSec,
			LoginRateBurst:  cfg.LoginRateBurst,
		})
		account.RegisterRoutes(api, accountHandler, authMW, rbacService, logger)
		leave.RegisterRoutes(api, leaveHandler, authMW, rbacService, deps.Redis, logger)
	}

	return nil
}
