package http

import "github.com/gin-gonic/gin"

// RouterContext carries the route groups modules mount their handlers on.
type RouterContext struct {
	// Public routes require no authentication (login, inbound webhooks).
	Public *gin.RouterGroup
	// Protected routes sit behind JWT auth and acting-clinic resolution.
	Protected *gin.RouterGroup
	// Admin routes additionally require the admin role.
	Admin *gin.RouterGroup
}

// Module is implemented by every HTTP-facing bounded context.
type Module interface {
	// Name returns the module identifier, used for logging.
	Name() string
	// RegisterRoutes mounts the module's routes on the provided groups.
	RegisterRoutes(ctx *RouterContext)
}
