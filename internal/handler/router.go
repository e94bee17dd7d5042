package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/recipeshare/api/internal/logbuf"
	"github.com/recipeshare/api/internal/middleware"
	"github.com/recipeshare/api/internal/model"
	"github.com/recipeshare/api/internal/ratelimit"
	"github.com/recipeshare/api/internal/service"
	"github.com/recipeshare/api/internal/storage"
	"golang.org/x/oauth2"
)

// Deps is everything the HTTP layer needs. Google, Images, Limiter and Logs may be nil.
type Deps struct {
	Accounts    *service.AccountService
	Recipes     *service.RecipeService
	Moderation  *service.ModerationService
	Comments    *service.CommentService
	Images      *storage.ImageStore
	Limiter     *ratelimit.Limiter
	Logs        *logbuf.Buffer
	Google      *oauth2.Config
	Cookie      SessionCookie
	FrontendURL string
}

func cors(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.Default()
	r.MaxMultipartMemory = storage.MaxImageSize + 1<<20
	r.Use(cors(d.FrontendURL))
	r.Use(middleware.MetricsMiddleware())

	authHandler := NewAuthHandler(d.Accounts, d.Google, d.Cookie, d.FrontendURL)
	profileHandler := NewProfileHandler(d.Accounts)
	recipeHandler := NewRecipeHandler(d.Recipes, d.Images)
	commentHandler := NewCommentHandler(d.Comments)
	adminHandler := NewAdminHandler(d.Moderation, d.Recipes, d.Comments, d.Accounts, d.Logs)

	session := middleware.SessionAuth(d.Accounts, d.Cookie.Name)
	optional := middleware.OptionalSession(d.Accounts, d.Cookie.Name)
	active := middleware.RequireActive()
	admins := middleware.RequireRole(model.RoleAdmin, model.RoleOwner)
	staff := middleware.RequireRole(model.RoleModerator, model.RoleAdmin, model.RoleOwner)
	limit := func(action string) gin.HandlerFunc {
		return middleware.RateLimit(d.Limiter, action)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		// Auth
		api.POST("/auth/signup", limit(ratelimit.ActionLogin), authHandler.Signup)
		api.POST("/auth/login", limit(ratelimit.ActionLogin), authHandler.Login)
		api.POST("/auth/logout", authHandler.Logout)
		api.GET("/auth/google", authHandler.GoogleAuth)
		api.GET("/auth/google/callback", authHandler.GoogleCallback)

		// Profiles
		api.GET("/me", session, profileHandler.Me)
		api.PATCH("/me", session, profileHandler.Update)
		api.POST("/me/password", session, profileHandler.ChangePassword)
		api.GET("/me/recipes", session, recipeHandler.ListMine)
		api.GET("/users/:id", profileHandler.Public)

		// Recipes
		api.GET("/recipes", optional, recipeHandler.List)
		api.GET("/recipes/:id", optional, recipeHandler.Get)
		api.POST("/recipes", session, active, limit(ratelimit.ActionSubmitRecipe), recipeHandler.Submit)
		api.POST("/recipes/images", session, active, limit(ratelimit.ActionUpload), recipeHandler.UploadImage)
		api.DELETE("/recipes/:id", session, recipeHandler.Delete)

		// Comments
		api.GET("/recipes/:id/comments", commentHandler.List)
		api.POST("/recipes/:id/comments", session, active, limit(ratelimit.ActionComment), commentHandler.Create)
		api.POST("/comments/:id/flag", session, active, limit(ratelimit.ActionFlag), commentHandler.Flag)
	}

	// Moderation decisions check roles in the service, which has the finer rules.
	admin := api.Group("/admin", session, active)
	{
		admin.GET("/recipes", admins, adminHandler.ListRecipes)
		admin.GET("/recipes/rejected", admins, adminHandler.ListRejected)
		admin.POST("/recipes/moderate", adminHandler.ModerateRecipe)
		admin.DELETE("/recipes/delete", staff, adminHandler.DeleteRecipe)

		admin.GET("/comments", staff, adminHandler.ListFlaggedComments)
		admin.POST("/comments", adminHandler.ModerateComment)

		admin.GET("/stats", admins, adminHandler.Stats)
		admin.GET("/users", admins, adminHandler.ListUsers)
		admin.PATCH("/users/:id", adminHandler.UpdateUser)
		admin.GET("/logs", admins, adminHandler.Logs)
	}

	return r
}
