package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/recipeshare/api/internal/apperr"
	"github.com/recipeshare/api/internal/middleware"
	"github.com/recipeshare/api/internal/service"
	"github.com/recipeshare/api/internal/store"
)

func respondError(c *gin.Context, err error) {
	middleware.AbortWithError(c, err)
}

// bindJSON decodes the body into dst and reports a ValidationError on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, apperr.Validation("invalid request body").WithDetails(err.Error()))
		return false
	}
	return true
}

func pageFrom(c *gin.Context) store.Page {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(store.DefaultLimit)))
	return store.Page{Page: page, Limit: limit}.Normalize()
}

func int64Param(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		respondError(c, apperr.Validation("invalid %s", name))
		return 0, false
	}
	return id, true
}

// paged writes a page of results in the list response shape.
func paged[T any](c *gin.Context, page *service.Paged[T]) {
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       page.Data,
		"page":       page.Page,
		"limit":      page.Limit,
		"totalCount": page.TotalCount,
		"totalPages": page.TotalPages,
	})
}
