package store

import (
	"context"
	"testing"
	"time"

	"github.com/recipeshare/api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPage(t *testing.T) {
	assert.Equal(t, Page{Page: 1, Limit: DefaultLimit}, Page{}.Normalize())
	assert.Equal(t, Page{Page: 1, Limit: DefaultLimit}, Page{Page: -3, Limit: 500}.Normalize())
	assert.Equal(t, 40, Page{Page: 3, Limit: 20}.Offset())
	assert.Equal(t, 3, Page{Limit: 20}.TotalPages(41))
	assert.Equal(t, 0, Page{Limit: 20}.TotalPages(0))
}

func seedRecipe(t *testing.T, m *Memory, id string, status model.ModerationStatus, created time.Time) *model.Recipe {
	t.Helper()
	r := &model.Recipe{
		ID:               id,
		AuthorID:         1,
		Title:            "Recipe " + id,
		Category:         "dessert",
		Difficulty:       model.DifficultyEasy,
		Ingredients:      model.Ingredients{{Text: "flour"}},
		Instructions:     model.Instructions{{Text: "bake", Step: 1}},
		Tags:             model.Tags{"sweet"},
		ModerationStatus: status,
		IsPublished:      status == model.ModerationApproved,
		CreatedAt:        created,
	}
	require.NoError(t, m.CreateRecipe(context.Background(), r))
	return r
}

func TestMemoryRejectArchivesAndCascades(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	r := seedRecipe(t, m, "r1", model.ModerationPending, time.Now())
	comment := &model.Comment{RecipeID: r.ID, AuthorID: 2, Content: "yum"}
	require.NoError(t, m.CreateComment(ctx, comment))

	archived, err := m.RejectRecipe(ctx, r.ID, "spam", 9, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "spam", archived.RejectionReason)
	assert.Equal(t, r.Title, archived.Title)

	_, err = m.GetRecipe(ctx, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.GetComment(ctx, comment.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.RejectRecipe(ctx, r.ID, "again", 9, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)

	count, err := m.CountRejected(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seedRecipe(t, m, "r1", model.ModerationPending, time.Now())

	got, err := m.GetRecipe(ctx, "r1")
	require.NoError(t, err)
	got.Ingredients[0].Text = "changed"

	again, err := m.GetRecipe(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "flour", again.Ingredients[0].Text)
}

func TestMemoryListPublishedFilters(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Now()
	seedRecipe(t, m, "old", model.ModerationApproved, base.Add(-time.Hour))
	seedRecipe(t, m, "new", model.ModerationApproved, base)
	seedRecipe(t, m, "pending", model.ModerationPending, base)

	recipes, total, err := m.ListPublished(ctx, FeedFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, recipes, 2)
	assert.Equal(t, "new", recipes[0].ID)

	recipes, _, err = m.ListPublished(ctx, FeedFilter{Tag: "SWEET", Search: "recipe old"})
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "old", recipes[0].ID)

	recipes, total, err = m.ListPublished(ctx, FeedFilter{Category: "soup"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, recipes)
}

func TestMemoryFlagKeepsFirstReason(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	c := &model.Comment{RecipeID: "r1", AuthorID: 1, Content: "hello"}
	require.NoError(t, m.CreateComment(ctx, c))

	_, err := m.FlagComment(ctx, c.ID, 2, "rude", time.Now())
	require.NoError(t, err)
	flagged, err := m.FlagComment(ctx, c.ID, 3, "spam", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "rude", flagged.FlagReason)
	assert.Equal(t, int64(2), *flagged.FlaggedBy)

	resolved, err := m.ResolveComment(ctx, c.ID, model.ModerationApproved, 5, time.Now())
	require.NoError(t, err)
	assert.False(t, resolved.IsFlagged)
	assert.Empty(t, resolved.FlagReason)

	_, err = m.ResolveComment(ctx, c.ID, model.ModerationRejected, 5, time.Now())
	assert.ErrorIs(t, err, ErrNotFlagged)

	count, err := m.CountFlaggedComments(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMemoryUsers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.CreateUser(ctx, &model.User{Email: "a@example.com", Name: "Ann"}))
	err := m.CreateUser(ctx, &model.User{Email: "A@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)

	u, err := m.GetUserByEmail(ctx, "A@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, u.Role)
	assert.Equal(t, model.StatusActive, u.Status)

	users, total, err := m.ListUsers(ctx, UserFilter{Search: "ann"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, u.ID, users[0].ID)
}

func TestMemoryUpdateUserKeepsUnownedColumns(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	u := &model.User{Email: "a@example.com", Name: "Ann"}
	require.NoError(t, m.CreateUser(ctx, u))

	banned := model.StatusBanned
	_, err := m.UpdateUser(ctx, u.ID, UserUpdate{Status: &banned})
	require.NoError(t, err)

	name := "Annie"
	updated, err := m.UpdateUser(ctx, u.ID, UserUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Annie", updated.Name)
	assert.Equal(t, model.StatusBanned, updated.Status)

	_, err = m.UpdateUser(ctx, 9999, UserUpdate{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserUpdateColumns(t *testing.T) {
	hash := "h"
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	assert.Empty(t, UserUpdate{}.columns())
	assert.Equal(t, map[string]any{"password_hash": "h", "last_login_at": at},
		UserUpdate{PasswordHash: &hash, LastLoginAt: &at}.columns())
}

func TestContainsPattern(t *testing.T) {
	tests := []struct {
		search string
		want   string
	}{
		{"Rye", "%rye%"},
		{"100%", `%100\%%`},
		{"a_b", `%a\_b%`},
		{`c:\x`, `%c:\\x%`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, containsPattern(tt.search), tt.search)
	}
}
