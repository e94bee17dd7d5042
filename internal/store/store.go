// Package store persists users, recipes, the rejection archive and comments.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/recipeshare/api/internal/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrNotFlagged is returned when resolving a comment with no pending flag.
	ErrNotFlagged = errors.New("comment is not flagged")
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Page selects a 1-based page of results.
type Page struct {
	Page  int
	Limit int
}

// Normalize clamps out-of-range values to the defaults.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 || p.Limit > MaxLimit {
		p.Limit = DefaultLimit
	}
	return p
}

func (p Page) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.Limit
}

// TotalPages is the number of pages needed for total rows.
func (p Page) TotalPages(total int64) int {
	p = p.Normalize()
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}

// FeedFilter narrows the public feed.
type FeedFilter struct {
	Category string
	Tag      string
	Search   string
	Page     Page
}

type UserFilter struct {
	Role   model.Role
	Status model.UserStatus
	Search string
	Page   Page
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

type RecipeStore interface {
	// CreateRecipe inserts the recipe and its tag rows atomically.
	CreateRecipe(ctx context.Context, r *model.Recipe) error
	GetRecipe(ctx context.Context, id string) (*model.Recipe, error)
	// ApproveRecipe locks the row and writes r's content and moderation fields.
	// Returns ErrNotFound if the row no longer exists.
	ApproveRecipe(ctx context.Context, r *model.Recipe) error
	// RejectRecipe locks the row, archives its current state and deletes it
	// together with its tags and comments.
	RejectRecipe(ctx context.Context, id, reason string, rejectedBy int64, at time.Time) (*model.RejectedRecipe, error)
	// DeleteRecipe removes the recipe and dependent rows without archiving.
	DeleteRecipe(ctx context.Context, id string) error

	ListPublished(ctx context.Context, filter FeedFilter) ([]model.Recipe, int64, error)
	ListByStatus(ctx context.Context, status model.ModerationStatus, page Page) ([]model.Recipe, int64, error)
	ListByAuthor(ctx context.Context, authorID int64, page Page) ([]model.Recipe, int64, error)
	ListRejected(ctx context.Context, page Page) ([]model.RejectedRecipe, int64, error)

	CountRecipesByStatus(ctx context.Context) (map[model.ModerationStatus]int64, error)
	CountPublishedByAuthor(ctx context.Context, authorID int64) (int64, error)
	CountRejected(ctx context.Context) (int64, error)
	TopCategories(ctx context.Context, limit int) ([]CategoryCount, error)
}

type CommentStore interface {
	CreateComment(ctx context.Context, c *model.Comment) error
	GetComment(ctx context.Context, id int64) (*model.Comment, error)
	// ListVisibleComments returns approved comments oldest first.
	ListVisibleComments(ctx context.Context, recipeID string, page Page) ([]model.Comment, int64, error)
	ListFlaggedComments(ctx context.Context, page Page) ([]model.Comment, int64, error)
	// FlagComment flags an unflagged comment; an already flagged comment keeps
	// its first reason. Returns the stored comment.
	FlagComment(ctx context.Context, id, flaggedBy int64, reason string, at time.Time) (*model.Comment, error)
	// ResolveComment sets the moderation status and clears the pending flag.
	// It returns ErrNotFlagged when the comment has no pending flag.
	ResolveComment(ctx context.Context, id int64, status model.ModerationStatus, moderatedBy int64, at time.Time) (*model.Comment, error)
	DeleteComment(ctx context.Context, id int64) error
	CountFlaggedComments(ctx context.Context) (int64, error)
}

// UserUpdate names the user columns one write owns. Nil fields are left as
// stored, so writes that own different columns never undo each other.
type UserUpdate struct {
	Name         *string
	Bio          *string
	AvatarURL    *string
	PasswordHash *string
	Role         *model.Role
	Status       *model.UserStatus
	LastLoginAt  *time.Time
}

func (u UserUpdate) columns() map[string]any {
	cols := make(map[string]any)
	if u.Name != nil {
		cols["name"] = *u.Name
	}
	if u.Bio != nil {
		cols["bio"] = *u.Bio
	}
	if u.AvatarURL != nil {
		cols["avatar_url"] = *u.AvatarURL
	}
	if u.PasswordHash != nil {
		cols["password_hash"] = *u.PasswordHash
	}
	if u.Role != nil {
		cols["role"] = *u.Role
	}
	if u.Status != nil {
		cols["status"] = *u.Status
	}
	if u.LastLoginAt != nil {
		cols["last_login_at"] = *u.LastLoginAt
	}
	return cols
}

func (u UserUpdate) apply(user *model.User) {
	if u.Name != nil {
		user.Name = *u.Name
	}
	if u.Bio != nil {
		user.Bio = *u.Bio
	}
	if u.AvatarURL != nil {
		user.AvatarURL = *u.AvatarURL
	}
	if u.PasswordHash != nil {
		user.PasswordHash = *u.PasswordHash
	}
	if u.Role != nil {
		user.Role = *u.Role
	}
	if u.Status != nil {
		user.Status = *u.Status
	}
	if u.LastLoginAt != nil {
		at := *u.LastLoginAt
		user.LastLoginAt = &at
	}
}

type UserStore interface {
	// CreateUser returns ErrDuplicate when the email is taken.
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByProvider(ctx context.Context, provider, providerID string) (*model.User, error)
	// UpdateUser writes only the columns set in upd and returns the stored row.
	UpdateUser(ctx context.Context, id int64, upd UserUpdate) (*model.User, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]model.User, int64, error)
	CountUsersByRole(ctx context.Context) (map[model.Role]int64, error)
}
