package domain

import (
	"time"

	"github.com/ocastrobeltran/gestio-qa-backend/internal/apperr"
)

const (
	SeverityCritical = "Crítico"
	SeverityMajor    = "Mayor"
	SeverityMinor    = "Menor"
	SeverityCosmetic = "Cosmético"
)

const (
	StatusOpen     = "Abierto"
	StatusInReview = "En revisión"
	StatusFixed    = "Corregido"
	StatusVerified = "Verificado"
	StatusClosed   = "Cerrado"
)

func ValidSeverity(severity string) bool {
	switch severity {
	case SeverityCritical, SeverityMajor, SeverityMinor, SeverityCosmetic:
		return true
	}
	return false
}

func ValidStatus(status string) bool {
	switch status {
	case StatusOpen, StatusInReview, StatusFixed, StatusVerified, StatusClosed:
		return true
	}
	return false
}

// Defect is an independent entity foreign-keyed to a project.
type Defect struct {
	ID          int64
	ProjectID   int64
	Title       string
	Description string
	Severity    string
	Status      string
	ReportedBy  *int64
	AssignedTo  *int64
	ReportedAt  time.Time
	UpdatedAt   time.Time
	ClosedAt    *time.Time
}

// ApplyStatus moves the defect to status. Any status may follow any
// other. The first entry into Cerrado stamps ClosedAt; the stamp
// survives reopening and later re-closings.
func (d *Defect) ApplyStatus(status string, now time.Time) {
	if status == StatusClosed && d.ClosedAt == nil {
		t := now
		d.ClosedAt = &t
	}
	d.Status = status
}

// UserSummary is the trimmed reporter/assignee reference on reads.
type UserSummary struct {
	ID       int64
	FullName string
	Email    string
}

// DefectWithRefs carries the resolved references and the parent title.
type DefectWithRefs struct {
	Defect
	Reporter     *UserSummary
	Assignee     *UserSummary
	ProjectTitle string
}

// Patch is a partial update; nil means "leave unchanged".
type Patch struct {
	Title       *string
	Description *string
	Severity    *string
	Status      *string
	AssignedTo  *int64
}

var ErrNotFound = apperr.NotFound("No se encontró el defecto con ese ID")
