package router

import (
	"fmt"

	"github.com/oksasatya/ecommerce-user-service/config"
	appuser "github.com/oksasatya/ecommerce-user-service/internal/application"
	"github.com/oksasatya/ecommerce-user-service/internal/container"
	"github.com/oksasatya/ecommerce-user-service/internal/domain/entity"
	repouser "github.com/oksasatya/ecommerce-user-service/internal/domain/repository"
	"github.com/oksasatya/ecommerce-user-service/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/ecommerce-user-service/internal/infrastructure/postgres"
	"github.com/oksasatya/ecommerce-user-service/internal/infrastructure/rediscache"
	handlers "github.com/oksasatya/ecommerce-user-service/internal/interface/http"
	"github.com/oksasatya/ecommerce-user-service/internal/router/modules"
)

type UserModuleDeps struct {
	Repo    repouser.UserRepository
	Service *appuser.Service
	Handler *handlers.UserHandler
}

// BuildUserRepository picks the store named by STORAGE_DRIVER and puts the
// redis cache in front of it when a client is configured.
func BuildUserRepository(clock entity.Clock) (repouser.UserRepository, error) {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	var repo repouser.UserRepository
	switch cfg.StorageDriver {
	case config.StorageMemory:
		repo = memory.NewUserRepository(clock)
	case config.StoragePostgres:
		db := container.GetDB()
		if db == nil {
			return nil, fmt.Errorf("postgres storage selected but no database is configured")
		}
		repo = pginfra.NewUserRepository(db, clock, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	if rdb := container.GetRedis(); rdb != nil {
		repo = rediscache.NewUserRepository(repo, rdb, cfg.UserCacheTTL, clock, logger)
	}
	return repo, nil
}

func buildUserDeps() (UserModuleDeps, error) {
	clock := entity.SystemClock{}
	repo, err := BuildUserRepository(clock)
	if err != nil {
		return UserModuleDeps{}, err
	}

	service := appuser.NewService(
		repo,
		container.GetPublisher(),
		clock,
		container.GetLogger(),
	)

	handler := handlers.NewUserHandler(service, container.GetLogger())

	return UserModuleDeps{
		Repo:    repo,
		Service: service,
		Handler: handler,
	}, nil
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) error {
	userDeps, err := buildUserDeps()
	if err != nil {
		return err
	}
	r.Add(modules.NewHealthModule(container.GetDB(), container.GetRedis()))
	r.Add(modules.New(userDeps.Handler))
	return nil
}
