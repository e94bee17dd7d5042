package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/recipeshare/api/internal/apperr"
	"github.com/recipeshare/api/internal/model"
)

const (
	userKey   = "user"
	userIDKey = "userID"
)

// Authenticator resolves a session token to the user it belongs to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// sessionToken reads the session cookie, falling back to a bearer token.
func sessionToken(c *gin.Context, cookieName string) string {
	if token, err := c.Cookie(cookieName); err == nil && token != "" {
		return token
	}

	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func setUser(c *gin.Context, user *model.User) {
	c.Set(userKey, user)
	c.Set(userIDKey, user.ID)
}

// SessionAuth requires a session that resolves to an existing user.
func SessionAuth(a Authenticator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c, cookieName)
		if token == "" {
			AbortWithError(c, apperr.Authentication("authentication required"))
			return
		}

		user, err := a.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		setUser(c, user)
		c.Next()
	}
}

// OptionalSession attaches the user when a valid session is present.
func OptionalSession(a Authenticator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := sessionToken(c, cookieName); token != "" {
			if user, err := a.Authenticate(c.Request.Context(), token); err == nil {
				setUser(c, user)
			}
		}
		c.Next()
	}
}

// RequireRole allows only the listed roles. Must run after SessionAuth.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			AbortWithError(c, apperr.Authentication("authentication required"))
			return
		}
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		AbortWithError(c, apperr.Authorization("insufficient role"))
	}
}

// RequireActive blocks suspended and banned accounts.
func RequireActive() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			AbortWithError(c, apperr.Authentication("authentication required"))
			return
		}
		if !user.IsActive() {
			AbortWithError(c, apperr.Authorization("account is %s", user.Status))
			return
		}
		c.Next()
	}
}

// CurrentUser returns the session user or nil.
func CurrentUser(c *gin.Context) *model.User {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(*model.User); ok {
			return user
		}
	}
	return nil
}
