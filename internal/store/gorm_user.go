package store

import (
	"context"
	"strings"

	"github.com/recipeshare/api/internal/model"
)

func (s *Gorm) CreateUser(ctx context.Context, u *model.User) error {
	return translate(s.db.WithContext(ctx).Create(u).Error)
}

func (s *Gorm) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Gorm) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Gorm) GetUserByProvider(ctx context.Context, provider, providerID string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).
		Where("provider = ? AND provider_id = ?", provider, providerID).
		First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Gorm) UpdateUser(ctx context.Context, id int64, upd UserUpdate) (*model.User, error) {
	cols := upd.columns()
	if len(cols) > 0 {
		result := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(cols)
		if result.Error != nil {
			return nil, translate(result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return s.GetUser(ctx, id)
}

func (s *Gorm) ListUsers(ctx context.Context, filter UserFilter) ([]model.User, int64, error) {
	page := filter.Page.Normalize()
	query := s.db.WithContext(ctx).Model(&model.User{})

	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		like := containsPattern(filter.Search)
		query = query.Where(`(LOWER(email) LIKE ? ESCAPE '\' OR LOWER(name) LIKE ? ESCAPE '\')`, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []model.User
	if err := query.Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (s *Gorm) CountUsersByRole(ctx context.Context) (map[model.Role]int64, error) {
	type roleCount struct {
		Role  model.Role
		Count int64
	}
	var rows []roleCount
	if err := s.db.WithContext(ctx).Model(&model.User{}).
		Select("role, count(*) as count").
		Group("role").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[model.Role]int64)
	for _, row := range rows {
		counts[row.Role] = row.Count
	}
	return counts, nil
}
