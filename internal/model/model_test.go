package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleOrdering(t *testing.T) {
	assert.True(t, RoleOwner.AtLeast(RoleAdmin))
	assert.True(t, RoleAdmin.AtLeast(RoleModerator))
	assert.True(t, RoleModerator.AtLeast(RoleUser))
	assert.False(t, RoleUser.AtLeast(RoleModerator))
	assert.False(t, Role("root").AtLeast(RoleUser))
}

func TestUserPermissions(t *testing.T) {
	recipe := &Recipe{AuthorID: 7}

	author := &User{ID: 7, Role: RoleUser}
	stranger := &User{ID: 8, Role: RoleUser}
	moderator := &User{ID: 9, Role: RoleModerator}
	admin := &User{ID: 10, Role: RoleAdmin}

	assert.True(t, author.CanDeleteRecipe(recipe))
	assert.False(t, stranger.CanDeleteRecipe(recipe))
	assert.True(t, moderator.CanDeleteRecipe(recipe))

	assert.False(t, moderator.CanModerateRecipes())
	assert.True(t, admin.CanModerateRecipes())
	assert.True(t, moderator.CanReviewComments())
	assert.False(t, author.CanReviewComments())
}

func TestParseUserStatus(t *testing.T) {
	status, ok := ParseUserStatus("Blocked")
	require.True(t, ok)
	assert.Equal(t, StatusBanned, status)

	_, ok = ParseUserStatus("deleted")
	assert.False(t, ok)
}

func TestJSONColumnsRoundTripThroughDriver(t *testing.T) {
	var nilIngredients Ingredients
	v, err := nilIngredients.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", string(v.([]byte)))

	var scanned Instructions
	require.NoError(t, scanned.Scan([]byte(`[{"text":"bake","step":1}]`)))
	assert.Equal(t, Instructions{{Text: "bake", Step: 1}}, scanned)

	var tags Tags
	require.NoError(t, tags.Scan(nil))
	assert.Empty(t, tags)

	assert.Error(t, tags.Scan(42))
}

func TestNewRecipeID(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	id := NewRecipeID(now)
	parts := strings.SplitN(id, "-", 2)
	require.Len(t, parts, 2)
	assert.Equal(t, "1700000000123", parts[0])
	assert.Len(t, parts[1], 8)
	assert.NotEqual(t, id, NewRecipeID(now))
}

func TestRecipeConsistency(t *testing.T) {
	assert.True(t, (&Recipe{ModerationStatus: ModerationApproved, IsPublished: true}).Consistent())
	assert.True(t, (&Recipe{ModerationStatus: ModerationPending}).Consistent())
	assert.False(t, (&Recipe{ModerationStatus: ModerationPending, IsPublished: true}).Consistent())
	assert.False(t, (&Recipe{ModerationStatus: ModerationApproved}).Consistent())
}

func TestNewRejectedRecipe(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	rejectedAt := created.Add(time.Hour)
	r := &Recipe{
		ID:          "1-abcd1234",
		AuthorID:    3,
		Title:       "Soup",
		Ingredients: Ingredients{{Text: "water"}},
		CreatedAt:   created,
	}

	archived := NewRejectedRecipe(r, "  ", 99, rejectedAt)

	assert.Equal(t, DefaultRejectionReason, archived.RejectionReason)
	assert.Equal(t, "1-abcd1234", archived.RecipeID)
	assert.Equal(t, int64(3), archived.AuthorID)
	assert.Equal(t, int64(99), archived.RejectedBy)
	assert.Equal(t, created, archived.OriginalCreatedAt)
	assert.Equal(t, "[]", string(archived.Tags))

	var ingredients []Ingredient
	require.NoError(t, json.Unmarshal(archived.Ingredients, &ingredients))
	assert.Equal(t, []Ingredient{{Text: "water"}}, ingredients)
}
