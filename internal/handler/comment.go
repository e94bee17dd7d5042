package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/recipeshare/api/internal/middleware"
	"github.com/recipeshare/api/internal/service"
)

type CommentHandler struct {
	comments *service.CommentService
}

func NewCommentHandler(comments *service.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

func (h *CommentHandler) List(c *gin.Context) {
	page, err := h.comments.ListForRecipe(c.Request.Context(), c.Param("id"), pageFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	paged(c, page)
}

type createCommentRequest struct {
	Content string `json:"content"`
}

func (h *CommentHandler) Create(c *gin.Context) {
	var req createCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.comments.Create(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "comment": comment})
}

type flagRequest struct {
	Reason string `json:"reason"`
}

func (h *CommentHandler) Flag(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var req flagRequest
	// the body is optional
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	comment, err := h.comments.Flag(c.Request.Context(), middleware.CurrentUser(c), id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "comment": comment})
}
