package http

import "github.com/gin-gonic/gin"

// Register attaches the project routes to an authenticated group.
// Creation and deletion get their extra role gates in the bootstrap
// wiring, where the middleware lives.
func (h *Handler) Register(rg *gin.RouterGroup, createGuard, deleteGuard gin.HandlerFunc) {
	rg.GET("", h.list)
	rg.GET("/:id", h.get)
	rg.POST("", createGuard, h.create)
	rg.PATCH("/:id", h.update)
	rg.DELETE("/:id", deleteGuard, h.remove)
}
