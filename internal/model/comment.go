package model

import "time"

type Comment struct {
	ID               int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	RecipeID         string           `gorm:"not null;size:64;index" json:"recipeId"`
	AuthorID         int64            `gorm:"not null;index" json:"authorId"`
	Content          string           `gorm:"type:text;not null" json:"content"`
	ModerationStatus ModerationStatus `gorm:"not null;size:20;default:'approved'" json:"moderationStatus"`
	IsFlagged        bool             `gorm:"not null;default:false;index" json:"isFlagged"`
	FlagReason       string           `gorm:"type:text" json:"flagReason,omitempty"`
	FlaggedAt        *time.Time       `json:"flaggedAt,omitempty"`
	FlaggedBy        *int64           `json:"flaggedBy,omitempty"`
	ModeratedBy      *int64           `json:"moderatedBy,omitempty"`
	ModeratedAt      *time.Time       `json:"moderatedAt,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

func (Comment) TableName() string {
	return "comments"
}

// Visible comments are shown under the recipe.
func (c *Comment) Visible() bool {
	return c.ModerationStatus == ModerationApproved
}

// CommentAction constants
const (
	CommentApprove = "approve"
	CommentReject  = "reject"
	CommentRemove  = "remove"
)

// RecipeAction constants
const (
	RecipeApprove = "approve"
	RecipeReject  = "reject"
)
