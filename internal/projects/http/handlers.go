package http

import (
	stdhttp "net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ocastrobeltran/gestio-qa-backend/internal/apperr"
	httpapi "github.com/ocastrobeltran/gestio-qa-backend/internal/api/http"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/auth"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/projects/domain"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/projects/service"
)

type Handler struct {
	projectService *service.ProjectService
}

func NewHandler(projectService *service.ProjectService) *Handler {
	return &Handler{projectService: projectService}
}

func (h *Handler) list(c *gin.Context) {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		httpapi.Fail(c, apperr.Unauthorized("You are not logged in"))
		return
	}

	filters, err := parseListFilters(c)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	projects, err := h.projectService.List(c.Request.Context(), identity, filters)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	out := make([]projectResponse, 0, len(projects))
	for i := range projects {
		out = append(out, toProjectResponse(&projects[i]))
	}

	c.JSON(stdhttp.StatusOK, gin.H{
		"status":  "success",
		"results": len(out),
		"data":    gin.H{"projects": out},
	})
}

func (h *Handler) get(c *gin.Context) {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		httpapi.Fail(c, apperr.Unauthorized("You are not logged in"))
		return
	}

	id, err := pathID(c, "id")
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	detail, err := h.projectService.Get(c.Request.Context(), identity, id)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	c.JSON(stdhttp.StatusOK, gin.H{
		"status": "success",
		"data":   gin.H{"project": toProjectDetailResponse(detail)},
	})
}

func (h *Handler) create(c *gin.Context) {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		httpapi.Fail(c, apperr.Unauthorized("You are not logged in"))
		return
	}

	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Fail(c, apperr.BadRequest("Invalid project payload"))
		return
	}
	if req.Status != "" && !domain.ValidStatus(req.Status) {
		httpapi.Fail(c, apperr.BadRequest("Invalid project status"))
		return
	}

	project, err := h.projectService.Create(c.Request.Context(), identity, service.CreateProjectInput{
		Title:       req.Title,
		Initiative:  req.Initiative,
		Client:      req.Client,
		PM:          req.PM,
		LeadDev:     req.LeadDev,
		Designer:    req.Designer,
		DesignURL:   req.DesignURL,
		TestURL:     req.TestURL,
		QAAnalystID: req.QAAnalystID,
		Status:      req.Status,
		Developers:  req.Developers,
		Assets:      req.Assets,
	})
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	c.JSON(stdhttp.StatusCreated, gin.H{
		"status": "success",
		"data":   gin.H{"project": toProjectResponse(project)},
	})
}

func (h *Handler) update(c *gin.Context) {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		httpapi.Fail(c, apperr.Unauthorized("You are not logged in"))
		return
	}

	id, err := pathID(c, "id")
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Fail(c, apperr.BadRequest("Invalid project payload"))
		return
	}
	if req.Status != nil && !domain.ValidStatus(*req.Status) {
		httpapi.Fail(c, apperr.BadRequest("Invalid project status"))
		return
	}

	project, err := h.projectService.Update(c.Request.Context(), identity, id, req.toPatch())
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	c.JSON(stdhttp.StatusOK, gin.H{
		"status": "success",
		"data":   gin.H{"project": toProjectResponse(project)},
	})
}

func (h *Handler) remove(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	if err := h.projectService.Delete(c.Request.Context(), id); err != nil {
		httpapi.Fail(c, err)
		return
	}

	c.JSON(stdhttp.StatusOK, gin.H{
		"status":  "success",
		"message": "Proyecto eliminado correctamente",
	})
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.BadRequest("Invalid id")
	}
	return id, nil
}

// parseListFilters reads the optional query filters. Dates use
// YYYY-MM-DD; endDate is inclusive through the end of that day.
func parseListFilters(c *gin.Context) (domain.ListFilters, error) {
	var filters domain.ListFilters

	filters.Status = c.Query("status")
	if filters.Status != "" && !domain.ValidStatus(filters.Status) {
		return filters, apperr.BadRequest("Invalid project status")
	}
	filters.Client = c.Query("client")

	if raw := c.Query("analyst"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return filters, apperr.BadRequest("Invalid analyst id")
		}
		filters.AnalystID = id
	}

	if raw := c.Query("startDate"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filters, apperr.BadRequest("Invalid startDate, expected YYYY-MM-DD")
		}
		filters.StartDate = &t
	}
	if raw := c.Query("endDate"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filters, apperr.BadRequest("Invalid endDate, expected YYYY-MM-DD")
		}
		end := t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		filters.EndDate = &end
	}

	return filters, nil
}
