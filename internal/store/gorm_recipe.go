package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/recipeshare/api/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Gorm implements RecipeStore, CommentStore and UserStore on Postgres.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

// approvalColumns are written by ApproveRecipe, zero values included.
var approvalColumns = []string{
	"title", "description", "category", "difficulty",
	"prep_time", "cook_time", "servings", "image_url",
	"ingredients", "instructions", "tags",
	"moderation_status", "moderation_notes", "is_published",
	"moderated_by", "moderated_at", "updated_at",
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a case-folded LIKE pattern that matches search
// literally anywhere in the column. Use it with ESCAPE '\'.
func containsPattern(search string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
}

func tagRows(recipeID string, tags model.Tags) []model.RecipeTag {
	rows := make([]model.RecipeTag, 0, len(tags))
	for _, tag := range tags {
		rows = append(rows, model.RecipeTag{RecipeID: recipeID, Tag: tag})
	}
	return rows
}

func (s *Gorm) CreateRecipe(ctx context.Context, r *model.Recipe) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(r).Error; err != nil {
			return err
		}
		if rows := tagRows(r.ID, r.Tags); len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		return nil
	}))
}

func (s *Gorm) GetRecipe(ctx context.Context, id string) (*model.Recipe, error) {
	var recipe model.Recipe
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&recipe).Error; err != nil {
		return nil, translate(err)
	}
	return &recipe, nil
}

func (s *Gorm) ApproveRecipe(ctx context.Context, r *model.Recipe) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.Recipe
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", r.ID).
			First(&current).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.Recipe{}).
			Where("id = ?", r.ID).
			Select(approvalColumns).
			Updates(r).Error; err != nil {
			return err
		}

		if err := tx.Where("recipe_id = ?", r.ID).Delete(&model.RecipeTag{}).Error; err != nil {
			return err
		}
		if rows := tagRows(r.ID, r.Tags); len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		return nil
	}))
}

func (s *Gorm) RejectRecipe(ctx context.Context, id, reason string, rejectedBy int64, at time.Time) (*model.RejectedRecipe, error) {
	var archived *model.RejectedRecipe
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.Recipe
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&current).Error; err != nil {
			return err
		}

		archived = model.NewRejectedRecipe(&current, reason, rejectedBy, at)
		if err := tx.Create(archived).Error; err != nil {
			return err
		}
		return deleteRecipeRows(tx, id)
	})
	if err != nil {
		return nil, translate(err)
	}
	return archived, nil
}

func (s *Gorm) DeleteRecipe(ctx context.Context, id string) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteRecipeRows(tx, id)
	}))
}

func deleteRecipeRows(tx *gorm.DB, id string) error {
	if err := tx.Where("recipe_id = ?", id).Delete(&model.RecipeTag{}).Error; err != nil {
		return err
	}
	if err := tx.Where("recipe_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
		return err
	}
	result := tx.Where("id = ?", id).Delete(&model.Recipe{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *Gorm) ListPublished(ctx context.Context, filter FeedFilter) ([]model.Recipe, int64, error) {
	page := filter.Page.Normalize()
	query := s.db.WithContext(ctx).Model(&model.Recipe{}).
		Where("moderation_status = ? AND is_published = ?", model.ModerationApproved, true)

	if filter.Category != "" {
		query = query.Where("category = ?", strings.ToLower(filter.Category))
	}
	if filter.Tag != "" {
		query = query.Where("id IN (?)", s.db.Model(&model.RecipeTag{}).
			Select("recipe_id").
			Where("tag = ?", strings.ToLower(filter.Tag)))
	}
	if filter.Search != "" {
		like := containsPattern(filter.Search)
		query = query.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recipes []model.Recipe
	if err := query.Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&recipes).Error; err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

func (s *Gorm) ListByStatus(ctx context.Context, status model.ModerationStatus, page Page) ([]model.Recipe, int64, error) {
	return s.listRecipes(ctx, s.db.WithContext(ctx).Where("moderation_status = ?", status), page, "created_at ASC")
}

func (s *Gorm) ListByAuthor(ctx context.Context, authorID int64, page Page) ([]model.Recipe, int64, error) {
	return s.listRecipes(ctx, s.db.WithContext(ctx).Where("author_id = ?", authorID), page, "created_at DESC")
}

func (s *Gorm) listRecipes(_ context.Context, query *gorm.DB, page Page, order string) ([]model.Recipe, int64, error) {
	page = page.Normalize()
	query = query.Model(&model.Recipe{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recipes []model.Recipe
	if err := query.Order(order).
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&recipes).Error; err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

func (s *Gorm) ListRejected(ctx context.Context, page Page) ([]model.RejectedRecipe, int64, error) {
	page = page.Normalize()
	query := s.db.WithContext(ctx).Model(&model.RejectedRecipe{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var archived []model.RejectedRecipe
	if err := query.Order("rejected_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&archived).Error; err != nil {
		return nil, 0, err
	}
	return archived, total, nil
}

func (s *Gorm) CountRecipesByStatus(ctx context.Context) (map[model.ModerationStatus]int64, error) {
	type statusCount struct {
		ModerationStatus model.ModerationStatus
		Count            int64
	}
	var rows []statusCount
	if err := s.db.WithContext(ctx).Model(&model.Recipe{}).
		Select("moderation_status, count(*) as count").
		Group("moderation_status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[model.ModerationStatus]int64)
	for _, row := range rows {
		counts[row.ModerationStatus] = row.Count
	}
	return counts, nil
}

func (s *Gorm) CountPublishedByAuthor(ctx context.Context, authorID int64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Recipe{}).
		Where("author_id = ? AND moderation_status = ? AND is_published = ?", authorID, model.ModerationApproved, true).
		Count(&count).Error
	return count, err
}

func (s *Gorm) CountRejected(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.RejectedRecipe{}).Count(&count).Error
	return count, err
}

func (s *Gorm) TopCategories(ctx context.Context, limit int) ([]CategoryCount, error) {
	var results []CategoryCount
	err := s.db.WithContext(ctx).Model(&model.Recipe{}).
		Select("category, count(*) as count").
		Where("moderation_status = ? AND is_published = ?", model.ModerationApproved, true).
		Group("category").
		Order("count DESC").
		Limit(limit).
		Scan(&results).Error
	return results, err
}
