package domain

import (
	"time"

	"github.com/ocastrobeltran/gestio-qa-backend/internal/apperr"
)

// Project statuses, stored as the original product literals.
const (
	StatusAnalysis   = "En análisis"
	StatusValidation = "En validación"
	StatusTesting    = "En pruebas"
	StatusApproved   = "Aprobado"
	StatusCancelled  = "Cancelado"
)

func ValidStatus(status string) bool {
	switch status {
	case StatusAnalysis, StatusValidation, StatusTesting, StatusApproved, StatusCancelled:
		return true
	}
	return false
}

// Project is the aggregate root. created_by never changes after creation.
type Project struct {
	ID          int64
	Title       string
	Initiative  string
	Client      string
	PM          string
	LeadDev     string
	Designer    string
	DesignURL   string
	TestURL     string
	QAAnalystID *int64
	Status      string
	CreatedBy   *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserSummary is the trimmed user reference attached on reads.
type UserSummary struct {
	ID       int64
	FullName string
	Email    string
}

// Developer and Asset rows have no lifecycle of their own; they are
// always written as a batch owned by their project.
type Developer struct {
	ID   int64
	Name string
}

type Asset struct {
	ID  int64
	URL string
}

// ProjectWithRefs is a project plus its resolved references and owned
// collections, the shape list and detail reads return.
type ProjectWithRefs struct {
	Project
	QAAnalyst  *UserSummary
	Creator    *UserSummary
	Developers []Developer
	Assets     []Asset
}

// ListFilters narrows the project list on top of the caller's scope.
type ListFilters struct {
	Status    string
	Client    string
	AnalystID int64
	StartDate *time.Time
	EndDate   *time.Time
}

var (
	ErrNotFound        = apperr.NotFound("No se encontró el proyecto con ese ID")
	ErrViewForbidden   = apperr.Forbidden("You do not have permission to view this project")
	ErrMutateForbidden = apperr.Forbidden("You do not have permission to update this project")
)
