package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/recipeshare/api/internal/apperr"
	"github.com/recipeshare/api/internal/logbuf"
	"github.com/recipeshare/api/internal/middleware"
	"github.com/recipeshare/api/internal/model"
	"github.com/recipeshare/api/internal/service"
	"github.com/recipeshare/api/internal/store"
)

type AdminHandler struct {
	moderation *service.ModerationService
	recipes    *service.RecipeService
	comments   *service.CommentService
	accounts   *service.AccountService
	logs       *logbuf.Buffer
}

func NewAdminHandler(
	moderation *service.ModerationService,
	recipes *service.RecipeService,
	comments *service.CommentService,
	accounts *service.AccountService,
	logs *logbuf.Buffer,
) *AdminHandler {
	return &AdminHandler{
		moderation: moderation,
		recipes:    recipes,
		comments:   comments,
		accounts:   accounts,
		logs:       logs,
	}
}

// ListRecipes returns the moderation queue for ?status= (pending by default).
func (h *AdminHandler) ListRecipes(c *gin.Context) {
	page, err := h.moderation.ListQueue(c.Request.Context(), c.Query("status"), pageFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	paged(c, page)
}

func (h *AdminHandler) ListRejected(c *gin.Context) {
	page, err := h.moderation.ListRejected(c.Request.Context(), pageFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	paged(c, page)
}

func (h *AdminHandler) ModerateRecipe(c *gin.Context) {
	var req service.ModerateRecipeInput
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.moderation.ModerateRecipe(c.Request.Context(), middleware.CurrentUser(c), req)
	middleware.RecordModeration("recipe", req.Action, err)
	if err != nil {
		respondError(c, err)
		return
	}

	body := gin.H{"success": true, "message": res.Message}
	if res.Recipe != nil {
		body["recipe"] = res.Recipe
	} else {
		body["recipe"] = res.Archived
	}
	c.JSON(http.StatusOK, body)
}

type deleteRecipeRequest struct {
	RecipeID string `json:"recipeId" binding:"required"`
	Reason   string `json:"reason"`
}

func (h *AdminHandler) DeleteRecipe(c *gin.Context) {
	var req deleteRecipeRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.recipes.Delete(c.Request.Context(), middleware.CurrentUser(c), req.RecipeID, req.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Recipe permanently deleted"})
}

func (h *AdminHandler) ListFlaggedComments(c *gin.Context) {
	page, err := h.comments.ListFlagged(c.Request.Context(), pageFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	paged(c, page)
}

func (h *AdminHandler) ModerateComment(c *gin.Context) {
	var req service.ModerateCommentInput
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.comments.Moderate(c.Request.Context(), middleware.CurrentUser(c), req)
	middleware.RecordModeration("comment", req.Action, err)
	if err != nil {
		respondError(c, err)
		return
	}

	body := gin.H{"success": true}
	if comment != nil {
		body["comment"] = comment
	}
	c.JSON(http.StatusOK, body)
}

// Stats returns dashboard statistics
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.moderation.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	filter := store.UserFilter{
		Role:   model.Role(c.Query("role")),
		Search: c.Query("q"),
		Page:   pageFrom(c),
	}
	if s := c.Query("status"); s != "" {
		status, ok := model.ParseUserStatus(s)
		if !ok {
			respondError(c, apperr.Validation("invalid status"))
			return
		}
		filter.Status = status
	}
	if filter.Role != "" && !filter.Role.Valid() {
		respondError(c, apperr.Validation("invalid role"))
		return
	}

	page, err := h.accounts.ListUsers(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	paged(c, page)
}

func (h *AdminHandler) UpdateUser(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var req service.UpdateUserInput
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.accounts.UpdateUser(c.Request.Context(), middleware.CurrentUser(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// Logs returns the newest in-memory log lines.
func (h *AdminHandler) Logs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	entries := []logbuf.Entry{}
	if h.logs != nil {
		entries = h.logs.Recent(limit)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "logs": entries})
}
