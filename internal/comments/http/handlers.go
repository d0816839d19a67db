package http

import (
	stdhttp "net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ocastrobeltran/gestio-qa-backend/internal/apperr"
	httpapi "github.com/ocastrobeltran/gestio-qa-backend/internal/api/http"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/auth"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/comments/service"
)

type Handler struct {
	commentService *service.CommentService
}

func NewHandler(commentService *service.CommentService) *Handler {
	return &Handler{commentService: commentService}
}

type addCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

type commentResponse struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	UserID    int64     `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type commentWithAuthorResponse struct {
	commentResponse
	Author struct {
		ID       int64  `json:"id"`
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Role     string `json:"role"`
	} `json:"author"`
}

func (h *Handler) add(c *gin.Context) {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		httpapi.Fail(c, apperr.Unauthorized("You are not logged in"))
		return
	}

	projectID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || projectID <= 0 {
		httpapi.Fail(c, apperr.BadRequest("Invalid id"))
		return
	}

	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Fail(c, apperr.BadRequest("El comentario no puede estar vacío"))
		return
	}

	comment, err := h.commentService.Add(c.Request.Context(), identity, projectID, req.Text)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	c.JSON(stdhttp.StatusCreated, gin.H{
		"status": "success",
		"data": gin.H{"comment": commentResponse{
			ID:        comment.ID,
			ProjectID: comment.ProjectID,
			UserID:    comment.UserID,
			Text:      comment.Text,
			CreatedAt: comment.CreatedAt,
		}},
	})
}

func (h *Handler) list(c *gin.Context) {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		httpapi.Fail(c, apperr.Unauthorized("You are not logged in"))
		return
	}

	projectID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || projectID <= 0 {
		httpapi.Fail(c, apperr.BadRequest("Invalid id"))
		return
	}

	comments, err := h.commentService.ListByProject(c.Request.Context(), identity, projectID)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	out := make([]commentWithAuthorResponse, 0, len(comments))
	for _, comment := range comments {
		var item commentWithAuthorResponse
		item.commentResponse = commentResponse{
			ID:        comment.ID,
			ProjectID: comment.ProjectID,
			UserID:    comment.UserID,
			Text:      comment.Text,
			CreatedAt: comment.CreatedAt,
		}
		item.Author.ID = comment.Author.ID
		item.Author.FullName = comment.Author.FullName
		item.Author.Email = comment.Author.Email
		item.Author.Role = comment.Author.Role
		out = append(out, item)
	}

	c.JSON(stdhttp.StatusOK, gin.H{
		"status":  "success",
		"results": len(out),
		"data":    gin.H{"comments": out},
	})
}

// Register attaches the comment routes under /projects/:id.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/:id/comments", h.list)
	rg.POST("/:id/comments", h.add)
}
