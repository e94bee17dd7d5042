package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/recipeshare/api/internal/apperr"
	"github.com/recipeshare/api/internal/middleware"
	"github.com/recipeshare/api/internal/service"
	"github.com/recipeshare/api/internal/storage"
	"github.com/recipeshare/api/internal/store"
)

type RecipeHandler struct {
	recipes *service.RecipeService
	images  *storage.ImageStore
}

// NewRecipeHandler accepts a nil image store when uploads are not configured.
func NewRecipeHandler(recipes *service.RecipeService, images *storage.ImageStore) *RecipeHandler {
	return &RecipeHandler{recipes: recipes, images: images}
}

// List returns the public feed.
func (h *RecipeHandler) List(c *gin.Context) {
	page, err := h.recipes.ListPublished(c.Request.Context(), store.FeedFilter{
		Category: c.Query("category"),
		Tag:      c.Query("tag"),
		Search:   c.Query("q"),
		Page:     pageFrom(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	paged(c, page)
}

func (h *RecipeHandler) Get(c *gin.Context) {
	recipe, err := h.recipes.Get(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "recipe": recipe})
}

func (h *RecipeHandler) Submit(c *gin.Context) {
	var req service.SubmitRecipeInput
	if !bindJSON(c, &req) {
		return
	}

	recipe, err := h.recipes.Submit(c.Request.Context(), middleware.CurrentUser(c), req)
	middleware.RecordSubmission(err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "recipe": recipe})
}

func (h *RecipeHandler) ListMine(c *gin.Context) {
	page, err := h.recipes.ListMine(c.Request.Context(), middleware.CurrentUser(c), pageFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	paged(c, page)
}

// Delete lets the author or staff remove a recipe outright.
func (h *RecipeHandler) Delete(c *gin.Context) {
	err := h.recipes.Delete(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), c.Query("reason"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Recipe deleted"})
}

// UploadImage stores the multipart field "image" and returns its URL.
func (h *RecipeHandler) UploadImage(c *gin.Context) {
	if h.images == nil {
		respondError(c, apperr.Validation("image uploads are not configured"))
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		respondError(c, apperr.Validation("image is required").WithDetails(err.Error()))
		return
	}
	if file.Size > storage.MaxImageSize {
		respondError(c, apperr.Validation("image exceeds 5 MiB"))
		return
	}

	f, err := file.Open()
	if err != nil {
		respondError(c, apperr.Wrap(err, "failed to read upload"))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, storage.MaxImageSize+1))
	if err != nil {
		respondError(c, apperr.Wrap(err, "failed to read upload"))
		return
	}

	url, err := h.images.Upload(c.Request.Context(), middleware.CurrentUser(c).ID, data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "url": url})
}
