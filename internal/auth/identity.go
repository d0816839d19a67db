package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/ocastrobeltran/gestio-qa-backend/internal/auth/domain"
)

const CtxIdentity = "identity"

// Identity is the verified caller attached to every authenticated request:
// who is asking, and with which role.
type Identity struct {
	ID   int64
	Role string
}

func (i Identity) IsAdmin() bool       { return i.Role == domain.RoleAdmin }
func (i Identity) IsAnalyst() bool     { return i.Role == domain.RoleAnalyst }
func (i Identity) IsStakeholder() bool { return i.Role == domain.RoleStakeholder }

// IdentityFrom extracts the caller identity set by the auth middleware.
func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(CtxIdentity)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}
