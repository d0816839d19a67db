package http

import "github.com/gin-gonic/gin"

// RegisterPublic attaches the unauthenticated auth routes.
func (h *Handler) RegisterPublic(rg *gin.RouterGroup) {
	rg.POST("/login", h.login)
}

// RegisterProtected attaches the routes that require an authenticated admin.
func (h *Handler) RegisterProtected(rg *gin.RouterGroup) {
	rg.POST("/register", h.register)
}

// RegisterUsers attaches the admin user directory.
func (h *Handler) RegisterUsers(rg *gin.RouterGroup) {
	rg.GET("", h.listUsers)
}
