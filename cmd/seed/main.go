package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/ecommerce-user-service/config"
	"github.com/oksasatya/ecommerce-user-service/internal/application"
	"github.com/oksasatya/ecommerce-user-service/internal/domain/entity"
	"github.com/oksasatya/ecommerce-user-service/internal/domain/errs"
	pginfra "github.com/oksasatya/ecommerce-user-service/internal/infrastructure/postgres"
	"github.com/oksasatya/ecommerce-user-service/pkg/helpers"
)

func main() {
	email := flag.String("email", "demo.user@example.com", "email of the demo user")
	first := flag.String("first", "Demo", "first name")
	last := flag.String("last", "User", "last name")
	phone := flag.String("phone", "", "optional phone number")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)

	ctx := context.Background()
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		logger.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	db := pginfra.OpenDB(pool)
	defer func() { _ = db.Close() }()

	clock := entity.SystemClock{}
	svc := application.NewService(pginfra.NewUserRepository(db, clock, logger), nil, clock, logger)

	in := application.RegisterUserInput{Email: *email, FirstName: *first, LastName: *last}
	if *phone != "" {
		in.PhoneNumber = phone
	}
	u, err := svc.RegisterUser(ctx, in)
	switch {
	case errors.Is(err, errs.ErrUserAlreadyExists):
		helpers.LogInfo(logger, "demo user already present", logrus.Fields{"email": *email})
		return
	case err != nil:
		helpers.LogError(logger, "failed to seed user", err, logrus.Fields{"email": *email})
		os.Exit(1)
	}
	helpers.LogInfo(logger, "seeded user", logrus.Fields{
		"id":     u.ID(),
		"email":  u.Email().Address(),
		"name":   u.FullName(),
		"status": u.Status(),
	})
}
