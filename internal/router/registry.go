package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/ecommerce-user-service/internal/container"
	"github.com/oksasatya/ecommerce-user-service/internal/interface/middleware"
)

const HealthPath = "/api/healthz"

type Registry struct {
	Engine      *gin.Engine
	API         *gin.RouterGroup
	middlewares []gin.HandlerFunc
	modules     []Module
}

func NewRegistry(engine *gin.Engine) *Registry {
	api := engine.Group("/api")
	return &Registry{Engine: engine, API: api}
}

func (r *Registry) Use(mw ...gin.HandlerFunc) {
	r.middlewares = append(r.middlewares, mw...)
}

// UseDefaultLimits adds the API-wide per-IP limiter from config. The health
// check is exempt.
func (r *Registry) UseDefaultLimits() {
	cfg := container.GetConfig()
	if cfg == nil {
		return
	}
	r.Use(middleware.RateLimit(
		container.GetRedis(),
		cfg.RateLimitPerMinute,
		time.Minute,
		middleware.KeyByIP(),
		middleware.AllowPaths(HealthPath),
		container.GetLogger(),
	))
}

func (r *Registry) Add(mod Module) {
	r.modules = append(r.modules, mod)
}

func (r *Registry) RegisterAll() {
	if len(r.middlewares) > 0 {
		r.API.Use(r.middlewares...)
	}
	for _, m := range r.modules {
		m.Register(r.API)
	}
}
