package store

import (
	"context"
	"time"

	"github.com/recipeshare/api/internal/model"
	"gorm.io/gorm"
)

func (s *Gorm) CreateComment(ctx context.Context, c *model.Comment) error {
	return translate(s.db.WithContext(ctx).Create(c).Error)
}

func (s *Gorm) GetComment(ctx context.Context, id int64) (*model.Comment, error) {
	var comment model.Comment
	if err := s.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return nil, translate(err)
	}
	return &comment, nil
}

func (s *Gorm) ListVisibleComments(ctx context.Context, recipeID string, page Page) ([]model.Comment, int64, error) {
	return s.listComments(s.db.WithContext(ctx).
		Where("recipe_id = ? AND moderation_status = ?", recipeID, model.ModerationApproved), page, "created_at ASC")
}

func (s *Gorm) ListFlaggedComments(ctx context.Context, page Page) ([]model.Comment, int64, error) {
	return s.listComments(s.db.WithContext(ctx).Where("is_flagged = ?", true), page, "flagged_at ASC")
}

func (s *Gorm) listComments(query *gorm.DB, page Page, order string) ([]model.Comment, int64, error) {
	page = page.Normalize()
	query = query.Model(&model.Comment{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []model.Comment
	if err := query.Order(order).
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&comments).Error; err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

func (s *Gorm) FlagComment(ctx context.Context, id, flaggedBy int64, reason string, at time.Time) (*model.Comment, error) {
	db := s.db.WithContext(ctx)
	// only the first flag is recorded
	if err := db.Model(&model.Comment{}).
		Where("id = ? AND is_flagged = ?", id, false).
		Updates(map[string]interface{}{
			"is_flagged":  true,
			"flag_reason": reason,
			"flagged_at":  at,
			"flagged_by":  flaggedBy,
			"updated_at":  at,
		}).Error; err != nil {
		return nil, err
	}
	return s.GetComment(ctx, id)
}

func (s *Gorm) ResolveComment(ctx context.Context, id int64, status model.ModerationStatus, moderatedBy int64, at time.Time) (*model.Comment, error) {
	updates := map[string]interface{}{
		"moderation_status": status,
		"is_flagged":        false,
		"moderated_by":      moderatedBy,
		"moderated_at":      at,
		"updated_at":        at,
	}
	if status == model.ModerationApproved {
		updates["flag_reason"] = ""
		updates["flagged_at"] = nil
		updates["flagged_by"] = nil
	}

	result := s.db.WithContext(ctx).Model(&model.Comment{}).
		Where("id = ? AND is_flagged = ?", id, true).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := s.GetComment(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrNotFlagged
	}
	return s.GetComment(ctx, id)
}

func (s *Gorm) DeleteComment(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Delete(&model.Comment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Gorm) CountFlaggedComments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Comment{}).Where("is_flagged = ?", true).Count(&count).Error
	return count, err
}
