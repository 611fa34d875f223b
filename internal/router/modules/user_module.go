package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/ecommerce-user-service/internal/container"
	handlers "github.com/oksasatya/ecommerce-user-service/internal/interface/http"
	"github.com/oksasatya/ecommerce-user-service/internal/interface/middleware"
)

// Module wires the user HTTP handlers into routes under the given
// RouterGroup (usually /api):
//
//	POST   /users                 register
//	GET    /users?email=          lookup by email
//	GET    /users/:id             lookup by id
//	PUT    /users/:id/profile     update names and phone
//	POST   /users/:id/activate
//	POST   /users/:id/deactivate
//	DELETE /users/:id             soft delete
//	DELETE /users/:id/purge       hard delete
type Module struct {
	Handler *handlers.UserHandler
}

func New(h *handlers.UserHandler) *Module {
	return &Module{Handler: h}
}

func (m *Module) Register(rg *gin.RouterGroup) {
	// Registration creates rows, so it gets a tighter per-route limit on top of
	// the API-wide one.
	registerLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIPAndPath(), nil, container.GetLogger()) // 10 req/min per IP

	users := rg.Group("/users")
	{
		users.POST("", registerLimiter, m.Handler.Register)
		users.GET("", m.Handler.FindByEmail)
		users.GET("/:id", m.Handler.Get)
		users.PUT("/:id/profile", m.Handler.UpdateProfile)
		users.POST("/:id/activate", m.Handler.Activate)
		users.POST("/:id/deactivate", m.Handler.Deactivate)
		users.DELETE("/:id", m.Handler.Delete)
		users.DELETE("/:id/purge", m.Handler.Purge)
	}
}
