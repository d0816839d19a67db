package http

import (
	"time"

	commentsdomain "github.com/ocastrobeltran/gestio-qa-backend/internal/comments/domain"
	historydomain "github.com/ocastrobeltran/gestio-qa-backend/internal/history/domain"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/projects/domain"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/projects/service"
)

type createProjectRequest struct {
	Title       string   `json:"title" binding:"required"`
	Initiative  string   `json:"initiative"`
	Client      string   `json:"client"`
	PM          string   `json:"pm"`
	LeadDev     string   `json:"lead_dev"`
	Designer    string   `json:"designer"`
	DesignURL   string   `json:"design_url"`
	TestURL     string   `json:"test_url"`
	QAAnalystID *int64   `json:"qa_analyst_id"`
	Status      string   `json:"status"`
	Developers  []string `json:"developers"`
	Assets      []string `json:"assets"`
}

// updateProjectRequest mirrors the patch semantics: absent fields stay
// untouched, an empty collection clears it.
type updateProjectRequest struct {
	Title       *string  `json:"title"`
	Initiative  *string  `json:"initiative"`
	Client      *string  `json:"client"`
	PM          *string  `json:"pm"`
	LeadDev     *string  `json:"lead_dev"`
	Designer    *string  `json:"designer"`
	DesignURL   *string  `json:"design_url"`
	TestURL     *string  `json:"test_url"`
	QAAnalystID *int64   `json:"qa_analyst_id"`
	Status      *string  `json:"status"`
	Developers  []string `json:"developers"`
	Assets      []string `json:"assets"`
}

func (r updateProjectRequest) toPatch() domain.Patch {
	return domain.Patch{
		Title:       r.Title,
		Initiative:  r.Initiative,
		Client:      r.Client,
		PM:          r.PM,
		LeadDev:     r.LeadDev,
		Designer:    r.Designer,
		DesignURL:   r.DesignURL,
		TestURL:     r.TestURL,
		QAAnalystID: r.QAAnalystID,
		Status:      r.Status,
		Developers:  r.Developers,
		Assets:      r.Assets,
	}
}

type userSummaryResponse struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

type developerResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type assetResponse struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

type projectResponse struct {
	ID          int64                `json:"id"`
	Title       string               `json:"title"`
	Initiative  string               `json:"initiative"`
	Client      string               `json:"client"`
	PM          string               `json:"pm"`
	LeadDev     string               `json:"lead_dev"`
	Designer    string               `json:"designer"`
	DesignURL   string               `json:"design_url"`
	TestURL     string               `json:"test_url"`
	QAAnalystID *int64               `json:"qa_analyst_id"`
	Status      string               `json:"status"`
	CreatedBy   *int64               `json:"created_by"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	QAAnalyst   *userSummaryResponse `json:"qa_analyst,omitempty"`
	Creator     *userSummaryResponse `json:"creator,omitempty"`
	Developers  []developerResponse  `json:"developers"`
	Assets      []assetResponse      `json:"assets"`
}

type commentResponse struct {
	ID        int64         `json:"id"`
	ProjectID int64         `json:"project_id"`
	Text      string        `json:"text"`
	CreatedAt time.Time     `json:"created_at"`
	Author    actorResponse `json:"author"`
}

type actorResponse struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type historyEntryResponse struct {
	ID        int64         `json:"id"`
	Type      string        `json:"change_type"`
	OldValue  string        `json:"old_value,omitempty"`
	NewValue  string        `json:"new_value,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	ChangedBy actorResponse `json:"changed_by"`
}

type projectDetailResponse struct {
	projectResponse
	Comments []commentResponse      `json:"comments"`
	History  []historyEntryResponse `json:"history"`
}

func toUserSummary(u *domain.UserSummary) *userSummaryResponse {
	if u == nil {
		return nil
	}
	return &userSummaryResponse{ID: u.ID, FullName: u.FullName, Email: u.Email}
}

func toProjectResponse(p *domain.ProjectWithRefs) projectResponse {
	devs := make([]developerResponse, 0, len(p.Developers))
	for _, d := range p.Developers {
		devs = append(devs, developerResponse{ID: d.ID, Name: d.Name})
	}
	assets := make([]assetResponse, 0, len(p.Assets))
	for _, a := range p.Assets {
		assets = append(assets, assetResponse{ID: a.ID, URL: a.URL})
	}
	return projectResponse{
		ID:          p.ID,
		Title:       p.Title,
		Initiative:  p.Initiative,
		Client:      p.Client,
		PM:          p.PM,
		LeadDev:     p.LeadDev,
		Designer:    p.Designer,
		DesignURL:   p.DesignURL,
		TestURL:     p.TestURL,
		QAAnalystID: p.QAAnalystID,
		Status:      p.Status,
		CreatedBy:   p.CreatedBy,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		QAAnalyst:   toUserSummary(p.QAAnalyst),
		Creator:     toUserSummary(p.Creator),
		Developers:  devs,
		Assets:      assets,
	}
}

func toCommentResponses(comments []commentsdomain.CommentWithAuthor) []commentResponse {
	out := make([]commentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, commentResponse{
			ID:        c.ID,
			ProjectID: c.ProjectID,
			Text:      c.Text,
			CreatedAt: c.CreatedAt,
			Author: actorResponse{
				ID:       c.Author.ID,
				FullName: c.Author.FullName,
				Email:    c.Author.Email,
				Role:     c.Author.Role,
			},
		})
	}
	return out
}

func toHistoryResponses(entries []historydomain.EntryWithActor) []historyEntryResponse {
	out := make([]historyEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyEntryResponse{
			ID:        e.ID,
			Type:      e.Type,
			OldValue:  e.OldValue,
			NewValue:  e.NewValue,
			Timestamp: e.Timestamp,
			ChangedBy: actorResponse{
				ID:       e.Actor.ID,
				FullName: e.Actor.FullName,
				Email:    e.Actor.Email,
				Role:     e.Actor.Role,
			},
		})
	}
	return out
}

func toProjectDetailResponse(d *service.ProjectDetail) projectDetailResponse {
	return projectDetailResponse{
		projectResponse: toProjectResponse(&d.ProjectWithRefs),
		Comments:        toCommentResponses(d.Comments),
		History:         toHistoryResponses(d.History),
	}
}
