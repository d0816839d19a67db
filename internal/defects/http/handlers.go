package http

import (
	stdhttp "net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ocastrobeltran/gestio-qa-backend/internal/apperr"
	httpapi "github.com/ocastrobeltran/gestio-qa-backend/internal/api/http"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/auth"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/defects/domain"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/defects/service"
)

type Handler struct {
	defectService *service.DefectService
}

func NewHandler(defectService *service.DefectService) *Handler {
	return &Handler{defectService: defectService}
}

func (h *Handler) listByProject(c *gin.Context) {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		httpapi.Fail(c, apperr.Unauthorized("You are not logged in"))
		return
	}

	projectID, err := pathID(c, "id")
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	defects, err := h.defectService.ListByProject(c.Request.Context(), identity, projectID)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	out := make([]defectResponse, 0, len(defects))
	for i := range defects {
		out = append(out, toDefectResponse(&defects[i]))
	}

	c.JSON(stdhttp.StatusOK, gin.H{
		"status":  "success",
		"results": len(out),
		"data":    gin.H{"defects": out},
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

	defect, err := h.defectService.Get(c.Request.Context(), identity, id)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	c.JSON(stdhttp.StatusOK, gin.H{
		"status": "success",
		"data":   gin.H{"defect": toDefectResponse(defect)},
	})
}

func (h *Handler) create(c *gin.Context) {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		httpapi.Fail(c, apperr.Unauthorized("You are not logged in"))
		return
	}

	projectID, err := pathID(c, "id")
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	var req createDefectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Fail(c, apperr.BadRequest("Invalid defect payload"))
		return
	}
	if !domain.ValidSeverity(req.Severity) {
		httpapi.Fail(c, apperr.BadRequest("Invalid defect severity"))
		return
	}

	defect, err := h.defectService.Create(c.Request.Context(), identity, projectID, service.CreateDefectInput{
		Title:       req.Title,
		Description: req.Description,
		Severity:    req.Severity,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	c.JSON(stdhttp.StatusCreated, gin.H{
		"status": "success",
		"data":   gin.H{"defect": toDefectResponse(defect)},
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

	var req updateDefectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Fail(c, apperr.BadRequest("Invalid defect payload"))
		return
	}
	if req.Severity != nil && !domain.ValidSeverity(*req.Severity) {
		httpapi.Fail(c, apperr.BadRequest("Invalid defect severity"))
		return
	}
	if req.Status != nil && !domain.ValidStatus(*req.Status) {
		httpapi.Fail(c, apperr.BadRequest("Invalid defect status"))
		return
	}

	defect, err := h.defectService.Update(c.Request.Context(), identity, id, req.toPatch())
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	c.JSON(stdhttp.StatusOK, gin.H{
		"status": "success",
		"data":   gin.H{"defect": toDefectResponse(defect)},
	})
}

func (h *Handler) remove(c *gin.Context) {
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

	if err := h.defectService.Delete(c.Request.Context(), identity, id); err != nil {
		httpapi.Fail(c, err)
		return
	}

	c.JSON(stdhttp.StatusOK, gin.H{
		"status":  "success",
		"message": "Defecto eliminado correctamente",
	})
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.BadRequest("Invalid id")
	}
	return id, nil
}

// RegisterProjectRoutes attaches the per-project defect routes under
// /projects/:id.
func (h *Handler) RegisterProjectRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id/defects", h.listByProject)
	rg.POST("/:id/defects", h.create)
}

// RegisterDefectRoutes attaches the standalone defect routes. Deletion
// gets its role gate from the bootstrap wiring.
func (h *Handler) RegisterDefectRoutes(rg *gin.RouterGroup, deleteGuard gin.HandlerFunc) {
	rg.GET("/:id", h.get)
	rg.PATCH("/:id", h.update)
	rg.DELETE("/:id", deleteGuard, h.remove)
}
