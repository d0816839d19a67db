package http

import (
	"time"

	"github.com/ocastrobeltran/gestio-qa-backend/internal/defects/domain"
)

type createDefectRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Severity    string `json:"severity" binding:"required"`
	AssignedTo  *int64 `json:"assigned_to"`
}

// updateDefectRequest follows patch semantics: absent fields stay as
// they are.
type updateDefectRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Severity    *string `json:"severity"`
	Status      *string `json:"status"`
	AssignedTo  *int64  `json:"assigned_to"`
}

func (r updateDefectRequest) toPatch() domain.Patch {
	return domain.Patch{
		Title:       r.Title,
		Description: r.Description,
		Severity:    r.Severity,
		Status:      r.Status,
		AssignedTo:  r.AssignedTo,
	}
}

type userSummaryResponse struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

type defectResponse struct {
	ID           int64                `json:"id"`
	ProjectID    int64                `json:"project_id"`
	ProjectTitle string               `json:"project_title"`
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	Severity     string               `json:"severity"`
	Status       string               `json:"status"`
	ReportedBy   *int64               `json:"reported_by"`
	AssignedTo   *int64               `json:"assigned_to"`
	Reporter     *userSummaryResponse `json:"reporter,omitempty"`
	Assignee     *userSummaryResponse `json:"assignee,omitempty"`
	ReportedAt   time.Time            `json:"reported_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
	ClosedAt     *time.Time           `json:"closed_at"`
}

func toDefectResponse(d *domain.DefectWithRefs) defectResponse {
	out := defectResponse{
		ID:           d.ID,
		ProjectID:    d.ProjectID,
		ProjectTitle: d.ProjectTitle,
		Title:        d.Title,
		Description:  d.Description,
		Severity:     d.Severity,
		Status:       d.Status,
		ReportedBy:   d.ReportedBy,
		AssignedTo:   d.AssignedTo,
		ReportedAt:   d.ReportedAt,
		UpdatedAt:    d.UpdatedAt,
		ClosedAt:     d.ClosedAt,
	}
	if d.Reporter != nil {
		out.Reporter = &userSummaryResponse{ID: d.Reporter.ID, FullName: d.Reporter.FullName, Email: d.Reporter.Email}
	}
	if d.Assignee != nil {
		out.Assignee = &userSummaryResponse{ID: d.Assignee.ID, FullName: d.Assignee.FullName, Email: d.Assignee.Email}
	}
	return out
}
