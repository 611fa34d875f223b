package container

import (
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/ecommerce-user-service/config"
	"github.com/oksasatya/ecommerce-user-service/internal/application"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	sqlDB       *sql.DB
	redisClient *redis.Client
	publisher   application.EventPublisher
)

func SetConfig(c *config.Config) { cfg = c }
func GetConfig() *config.Config  { return cfg }
func SetLogger(l *logrus.Logger) { logger = l }
func GetLogger() *logrus.Logger {
	if logger != nil {
		return logger
	}
	return logrus.StandardLogger()
}
func SetPGPool(p *pgxpool.Pool) { pgPool = p }
func GetPGPool() *pgxpool.Pool  { return pgPool }
func SetDB(db *sql.DB)          { sqlDB = db }
func GetDB() *sql.DB            { return sqlDB }

// SetRedis stores the shared client; nil disables the user cache and the
// rate limiter.
func SetRedis(r *redis.Client) { redisClient = r }
func GetRedis() *redis.Client  { return redisClient }

func SetPublisher(p application.EventPublisher) { publisher = p }
func GetPublisher() application.EventPublisher {
	if publisher != nil {
		return publisher
	}
	return application.NoopPublisher{}
}

// Reset clears every singleton. Tests use it between cases.
func Reset() {
	cfg, logger, pgPool, sqlDB, redisClient, publisher = nil, nil, nil, nil, nil, nil
}
