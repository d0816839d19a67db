package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"

	"github.com/ocastrobeltran/gestio-qa-backend/internal/apperr"
	httpapi "github.com/ocastrobeltran/gestio-qa-backend/internal/api/http"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/auth"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/auth/domain"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/auth/service"
)

type Handler struct {
	authService *service.AuthService
}

func NewHandler(authService *service.AuthService) *Handler {
	return &Handler{authService: authService}
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Fail(c, apperr.BadRequest("Please provide email and password"))
		return
	}

	user, token, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	c.JSON(stdhttp.StatusOK, gin.H{
		"status": "success",
		"token":  token,
		"data":   gin.H{"user": toUserResponse(user)},
	})
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Fail(c, apperr.BadRequest("Invalid registration payload"))
		return
	}
	if req.Role != "" && !domain.ValidRole(req.Role) {
		httpapi.Fail(c, apperr.BadRequest("Invalid role"))
		return
	}

	identity, _ := auth.IdentityFrom(c)
	user, err := h.authService.Register(c.Request.Context(), identity.Role, req.FullName, req.Email, req.Password, req.Role)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	token, err := h.authService.SignToken(user)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	c.JSON(stdhttp.StatusCreated, gin.H{
		"status": "success",
		"token":  token,
		"data":   gin.H{"user": toUserResponse(user)},
	})
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.authService.ListUsers(c.Request.Context())
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}

	c.JSON(stdhttp.StatusOK, gin.H{
		"status":  "success",
		"results": len(out),
		"data":    gin.H{"users": out},
	})
}
