package main

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/recipeshare/api/internal/auth"
	"github.com/recipeshare/api/internal/cache"
	"github.com/recipeshare/api/internal/config"
	"github.com/recipeshare/api/internal/database"
	"github.com/recipeshare/api/internal/handler"
	"github.com/recipeshare/api/internal/logbuf"
	"github.com/recipeshare/api/internal/notify"
	"github.com/recipeshare/api/internal/ratelimit"
	"github.com/recipeshare/api/internal/service"
	"github.com/recipeshare/api/internal/storage"
	"github.com/recipeshare/api/internal/store"
	"github.com/recipeshare/api/internal/validator"
	"golang.org/x/oauth2"
)

func main() {
	cfg := config.Load()

	// Keep recent log lines for the admin log viewer
	logs := logbuf.New(cfg.LogBufferSize)
	log.SetOutput(io.MultiWriter(os.Stdout, logs))
	gin.DefaultWriter = io.MultiWriter(os.Stdout, logs)

	// Initialize database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	repo := store.NewGorm(db)

	// Initialize Redis cache
	var feed *cache.FeedCache
	var limiter *ratelimit.Limiter
	redisCache, err := cache.NewRedisCache(cfg.RedisURL)
	if err != nil {
		// Continue without feed cache and rate limiting (fail-open)
		log.Printf("Warning: Failed to connect to Redis: %v", err)
	} else {
		defer redisCache.Close()
		feed = cache.NewFeedCache(redisCache, cfg.FeedCacheTTL)
		limiter = ratelimit.NewLimiter(ratelimit.NewRedisStorage(redisCache.Client()), nil)
	}

	// Outbound email
	notifier := notify.NewNotifier(notify.NewMailer(cfg.SMTP), cfg.FrontendURL)

	// Image uploads
	var images *storage.ImageStore
	if cfg.S3.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		images, err = storage.NewImageStore(ctx, cfg.S3)
		cancel()
		if err != nil {
			log.Printf("Warning: Failed to initialize image storage: %v", err)
			images = nil
		}
	}

	var google *oauth2.Config
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		google = auth.NewGoogleConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	} else {
		log.Println("Google OAuth not configured")
	}

	v := validator.New()
	sessions := auth.NewSessions(cfg.JWTSecret, cfg.SessionTTL)

	r := handler.NewRouter(handler.Deps{
		Accounts:    service.NewAccountService(repo, repo, sessions, notifier, v, time.Now),
		Recipes:     service.NewRecipeService(repo, feed, v, time.Now),
		Moderation:  service.NewModerationService(repo, repo, repo, feed, notifier, v, time.Now),
		Comments:    service.NewCommentService(repo, repo, time.Now),
		Images:      images,
		Limiter:     limiter,
		Logs:        logs,
		Google:      google,
		FrontendURL: cfg.FrontendURL,
		Cookie: handler.SessionCookie{
			Name:   cfg.SessionCookie,
			Secure: cfg.CookieSecure,
			MaxAge: int(cfg.SessionTTL / time.Second),
		},
	})

	log.Printf("API server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
