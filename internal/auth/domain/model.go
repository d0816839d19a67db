package domain

import (
	"time"

	"github.com/ocastrobeltran/gestio-qa-backend/internal/apperr"
)

const (
	RoleAdmin       = "admin"
	RoleAnalyst     = "analyst"
	RoleStakeholder = "stakeholder"
)

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleAnalyst, RoleStakeholder:
		return true
	}
	return false
}

type User struct {
	ID           int64
	FullName     string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

var (
	ErrUserNotFound      = apperr.NotFound("No se encontró el usuario con ese ID")
	ErrBadCredentials    = apperr.Unauthorized("Incorrect email or password")
	ErrEmailTaken        = apperr.BadRequest("This record already exists.")
	ErrAdminOnlyRole     = apperr.Forbidden("Only administrators can create admin accounts")
	ErrNotLoggedIn       = apperr.Unauthorized("You are not logged in. Please log in to get access.")
	ErrTokenInvalid      = apperr.Unauthorized("Invalid token. Please log in again.")
	ErrTokenExpired      = apperr.Unauthorized("Your token has expired. Please log in again.")
	ErrTokenUserGone     = apperr.Unauthorized("The user belonging to this token no longer exists.")
	ErrInsufficientRole  = apperr.Forbidden("You do not have permission to perform this action")
)
