// Command provision creates an account directly against the database. It is
// how the first admin gets in before anyone can call POST /accounts.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go-leave/internal/account"
	"go-leave/internal/app"
	"go-leave/internal/bootstrap"
	"go-leave/internal/config"
	"go-leave/internal/domain"
	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/connection"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	var req account.CreateAccountRequest
	flag.StringVar(&req.Username, "username", "", "login name (required)")
	flag.StringVar(&req.Secret, "secret", "", "initial password (required)")
	flag.StringVar(&req.Role, "role", domain.RoleEmployee, "employee or admin")
	flag.StringVar(&req.FullName, "name", "", "full name (required)")
	flag.StringVar(&req.Department, "department", "", "department")
	flag.StringVar(&req.Position, "position", "", "position")
	flag.Float64Var(&req.RemainingDays, "days", 12, "starting annual leave balance")
	flag.Parse()

	if req.Username == "" || req.Secret == "" || req.FullName == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger, err := bootstrap.NewLogger(cfg.IsProduction())
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	apperror.Init()

	db, err := connection.ConnectDatabase(cfg.Database)
	if err != nil {
		logger.Fatal("connect database failed", zap.Error(err))
	}
	if err := app.Migrate(db); err != nil {
		logger.Fatal("migrate failed", zap.Error(err))
	}

	svc := account.NewService(account.NewRepository(db), account.NewProfileCache(nil), nil, logger)
	system := domain.Identity{Username: "system", Role: domain.RoleAdmin}

	created, err := svc.Create(context.Background(), system, req)
	if err != nil {
		logger.Fatal("create account failed", zap.String("username", req.Username), zap.Error(err))
	}
	fmt.Printf("created %s (%s) with %.1f days\n", created.Username, created.Role, created.RemainingDays)
}
