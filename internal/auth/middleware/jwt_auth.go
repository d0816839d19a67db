package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ocastrobeltran/gestio-qa-backend/internal/api/http"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/auth"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/auth/domain"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/auth/repository"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/auth/service"
)

// RequireAuth validates the bearer token, checks the user still exists and
// attaches the caller identity to the request context.
func RequireAuth(authService *service.AuthService, userRepo *repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			http.Fail(c, domain.ErrNotLoggedIn)
			c.Abort()
			return
		}

		claims, err := authService.ParseToken(token)
		if err != nil {
			http.Fail(c, err)
			c.Abort()
			return
		}

		user, err := userRepo.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				err = domain.ErrTokenUserGone
			}
			http.Fail(c, err)
			c.Abort()
			return
		}

		c.Set(auth.CtxIdentity, auth.Identity{ID: user.ID, Role: user.Role})
		c.Next()
	}
}

// RequireRoles rejects callers whose role is not in the allow list.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := auth.IdentityFrom(c)
		if !ok {
			http.Fail(c, domain.ErrNotLoggedIn)
			c.Abort()
			return
		}

		for _, role := range roles {
			if identity.Role == role {
				c.Next()
				return
			}
		}

		http.Fail(c, domain.ErrInsufficientRole)
		c.Abort()
	}
}

func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.HasPrefix(bearerToken, "Bearer ") {
		return bearerToken[7:]
	}
	return ""
}
