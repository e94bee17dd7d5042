package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationRejected ModerationStatus = "rejected"
)

func (s ModerationStatus) Valid() bool {
	switch s {
	case ModerationPending, ModerationApproved, ModerationRejected:
		return true
	}
	return false
}

// Ingredient is one line of a recipe's ingredient list.
type Ingredient struct {
	Text   string `json:"text"`
	Amount string `json:"amount,omitempty"`
	Unit   string `json:"unit,omitempty"`
}

// Instruction is one ordered preparation step.
type Instruction struct {
	Text string `json:"text"`
	Step int    `json:"step"`
}

// Ingredients is stored as a JSONB array.
type Ingredients []Ingredient

func (i Ingredients) Value() (driver.Value, error) {
	if i == nil {
		return json.Marshal([]Ingredient{})
	}
	return json.Marshal([]Ingredient(i))
}

func (i *Ingredients) Scan(value interface{}) error {
	return scanJSON(value, i, "Ingredients")
}

// Instructions is stored as a JSONB array.
type Instructions []Instruction

func (s Instructions) Value() (driver.Value, error) {
	if s == nil {
		return json.Marshal([]Instruction{})
	}
	return json.Marshal([]Instruction(s))
}

func (s *Instructions) Scan(value interface{}) error {
	return scanJSON(value, s, "Instructions")
}

// Tags is an unordered set of lowercase labels stored as a JSONB array.
type Tags []string

func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal([]string(t))
}

func (t *Tags) Scan(value interface{}) error {
	return scanJSON(value, t, "Tags")
}

func scanJSON(value interface{}, dest interface{}, name string) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		data = []byte("[]")
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("failed to unmarshal " + name + ": unsupported column type")
	}
	return json.Unmarshal(data, dest)
}

type Recipe struct {
	ID               string           `gorm:"primaryKey;size:64" json:"id"`
	AuthorID         int64            `gorm:"not null;index" json:"authorId"`
	Title            string           `gorm:"not null;size:200" json:"title"`
	Description      string           `gorm:"type:text" json:"description"`
	Category         string           `gorm:"not null;size:50;index" json:"category"`
	Difficulty       string           `gorm:"not null;size:20" json:"difficulty"`
	PrepTime         int              `json:"prepTime"`
	CookTime         int              `json:"cookTime"`
	Servings         int              `json:"servings"`
	ImageURL         string           `json:"imageUrl"`
	Ingredients      Ingredients      `gorm:"type:jsonb;not null;default:'[]'" json:"ingredients"`
	Instructions     Instructions     `gorm:"type:jsonb;not null;default:'[]'" json:"instructions"`
	Tags             Tags             `gorm:"type:jsonb;not null;default:'[]'" json:"tags"`
	ModerationStatus ModerationStatus `gorm:"not null;size:20;default:'pending';index:idx_recipes_feed,priority:1" json:"moderationStatus"`
	ModerationNotes  string           `gorm:"type:text" json:"moderationNotes"`
	IsPublished      bool             `gorm:"not null;default:false;index:idx_recipes_feed,priority:2" json:"isPublished"`
	ModeratedBy      *int64           `json:"moderatedBy,omitempty"`
	ModeratedAt      *time.Time       `json:"moderatedAt,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

func (Recipe) TableName() string {
	return "recipes"
}

// Visible reports whether the public feed may show the recipe.
func (r *Recipe) Visible() bool {
	return r.IsPublished && r.ModerationStatus == ModerationApproved
}

// Consistent checks is_published <=> moderation_status = approved.
func (r *Recipe) Consistent() bool {
	return r.IsPublished == (r.ModerationStatus == ModerationApproved)
}

// RecipeTag mirrors Recipe.Tags as rows so the feed can filter by tag.
type RecipeTag struct {
	RecipeID string `gorm:"primaryKey;size:64" json:"recipeId"`
	Tag      string `gorm:"primaryKey;size:50;index" json:"tag"`
}

func (RecipeTag) TableName() string {
	return "recipe_tags"
}

// NewRecipeID returns "<unix-millis>-<8 hex chars>".
func NewRecipeID(now time.Time) string {
	suffix := uuid.New().String()[:8]
	return fmt.Sprintf("%d-%s", now.UnixMilli(), suffix)
}

// Difficulty constants
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)
