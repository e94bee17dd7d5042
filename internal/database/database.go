package database

import (
	"github.com/recipeshare/api/internal/config"
	"github.com/recipeshare/api/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	return Open(cfg.DatabaseURL, cfg.Debug)
}

// Open connects to Postgres. Driver errors are translated so unique
// violations surface as gorm.ErrDuplicatedKey.
func Open(dsn string, debug bool) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.Recipe{},
		&model.RecipeTag{},
		&model.RejectedRecipe{},
		&model.Comment{},
	)
	if err != nil {
		return err
	}

	// OAuth identities are unique per provider
	if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_users_provider_provider_id ON users(provider, provider_id) WHERE provider_id <> ''").Error; err != nil {
		return err
	}

	// Moderation queue scans pending recipes oldest first
	return db.Exec("CREATE INDEX IF NOT EXISTS idx_recipes_status_created ON recipes(moderation_status, created_at)").Error
}
