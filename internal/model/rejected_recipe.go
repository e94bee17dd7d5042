package model

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"
)

const DefaultRejectionReason = "No reason provided"

// RejectedRecipe is the archive copy written when a recipe is rejected.
// Rows are written once and never updated.
type RejectedRecipe struct {
	ID                int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	RecipeID          string         `gorm:"not null;size:64;index" json:"recipeId"`
	AuthorID          int64          `gorm:"not null;index" json:"authorId"`
	Title             string         `gorm:"not null;size:200" json:"title"`
	Description       string         `gorm:"type:text" json:"description"`
	Category          string         `gorm:"size:50" json:"category"`
	Difficulty        string         `gorm:"size:20" json:"difficulty"`
	PrepTime          int            `json:"prepTime"`
	CookTime          int            `json:"cookTime"`
	Servings          int            `json:"servings"`
	ImageURL          string         `json:"imageUrl"`
	Ingredients       datatypes.JSON `json:"ingredients"`
	Instructions      datatypes.JSON `json:"instructions"`
	Tags              datatypes.JSON `json:"tags"`
	ModerationNotes   string         `gorm:"type:text" json:"moderationNotes"`
	RejectionReason   string         `gorm:"type:text;not null" json:"rejectionReason"`
	RejectedBy        int64          `gorm:"not null" json:"rejectedBy"`
	RejectedAt        time.Time      `gorm:"not null;index" json:"rejectedAt"`
	OriginalCreatedAt time.Time      `json:"originalCreatedAt"`
}

func (RejectedRecipe) TableName() string {
	return "rejected_recipes"
}

// NewRejectedRecipe snapshots r as it currently is.
func NewRejectedRecipe(r *Recipe, reason string, rejectedBy int64, at time.Time) *RejectedRecipe {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultRejectionReason
	}
	return &RejectedRecipe{
		RecipeID:          r.ID,
		AuthorID:          r.AuthorID,
		Title:             r.Title,
		Description:       r.Description,
		Category:          r.Category,
		Difficulty:        r.Difficulty,
		PrepTime:          r.PrepTime,
		CookTime:          r.CookTime,
		Servings:          r.Servings,
		ImageURL:          r.ImageURL,
		Ingredients:       mustJSON(r.Ingredients, "[]"),
		Instructions:      mustJSON(r.Instructions, "[]"),
		Tags:              mustJSON(r.Tags, "[]"),
		ModerationNotes:   r.ModerationNotes,
		RejectionReason:   reason,
		RejectedBy:        rejectedBy,
		RejectedAt:        at,
		OriginalCreatedAt: r.CreatedAt,
	}
}

func mustJSON(v interface{}, fallback string) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return datatypes.JSON(fallback)
	}
	return datatypes.JSON(data)
}
