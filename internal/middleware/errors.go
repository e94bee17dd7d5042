package middleware

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/recipeshare/api/internal/apperr"
)

// AbortWithError renders err as {success:false, error, details?} with the
// status of its kind and stops the handler chain.
func AbortWithError(c *gin.Context, err error) {
	appErr := apperr.From(err)
	if appErr.Kind == apperr.KindPersistence {
		log.Printf("Error: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}

	body := gin.H{"success": false, "error": appErr.Message}
	if appErr.Details != "" {
		body["details"] = appErr.Details
	}
	c.AbortWithStatusJSON(appErr.Kind.Status(), body)
}
