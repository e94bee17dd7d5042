package service

import (
	"bytes"
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/recipeshare/api/internal/apperr"
	"github.com/recipeshare/api/internal/cache"
	"github.com/recipeshare/api/internal/model"
	"github.com/recipeshare/api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitCreatesPendingRecipe(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, model.RoleUser)
	in := sampleInput()
	in.Tags = "Sweet, #Quick"

	r := f.submit(t, author, in)

	assert.Equal(t, model.ModerationPending, r.ModerationStatus)
	assert.False(t, r.IsPublished)
	assert.Equal(t, author.ID, r.AuthorID)
	assert.Equal(t, model.Ingredients{{Text: "flour"}}, r.Ingredients)
	assert.Equal(t, model.Instructions{{Text: "bake", Step: 1}}, r.Instructions)
	assert.Equal(t, model.Tags{"quick", "sweet"}, r.Tags)

	stored, err := f.store.GetRecipe(context.Background(), r.ID)
	require.NoError(t, err)
	assert.True(t, stored.Consistent())
}

func TestSubmitRejectsEmptyIngredientsBeforeWriting(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, model.RoleUser)
	in := sampleInput()
	in.Ingredients = []any{}
	in.Difficulty = "impossible"

	_, err := f.recipes.Submit(context.Background(), author, in)

	requireKind(t, err, apperr.KindValidation)
	details := apperr.From(err).Details
	assert.Contains(t, details, "ingredients must not be empty")
	assert.Contains(t, details, "difficulty must be one of: easy, medium, hard")

	_, total, err := f.store.ListByAuthor(context.Background(), author.ID, store.Page{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestSubmitRequiresSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.recipes.Submit(context.Background(), nil, sampleInput())
	requireKind(t, err, apperr.KindAuthentication)

	suspended := f.user(t, model.RoleUser)
	suspended.Status = model.StatusSuspended
	_, err = f.recipes.Submit(context.Background(), suspended, sampleInput())
	requireKind(t, err, apperr.KindAuthorization)
}

func TestGetHidesUnpublishedRecipes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, model.RoleUser)
	stranger := f.user(t, model.RoleUser)
	moderator := f.user(t, model.RoleModerator)
	r := f.submit(t, author, sampleInput())

	_, err := f.recipes.Get(ctx, nil, r.ID)
	requireKind(t, err, apperr.KindNotFound)
	_, err = f.recipes.Get(ctx, stranger, r.ID)
	requireKind(t, err, apperr.KindNotFound)

	got, err := f.recipes.Get(ctx, author, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)
	_, err = f.recipes.Get(ctx, moderator, r.ID)
	require.NoError(t, err)

	_, err = f.recipes.Get(ctx, nil, "missing")
	requireKind(t, err, apperr.KindNotFound)
}

func TestDeletePermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, model.RoleUser)
	stranger := f.user(t, model.RoleUser)
	moderator := f.user(t, model.RoleModerator)

	own := f.submit(t, author, sampleInput())
	other := f.submit(t, author, sampleInput())

	requireKind(t, f.recipes.Delete(ctx, stranger, own.ID, ""), apperr.KindAuthorization)
	require.NoError(t, f.recipes.Delete(ctx, author, own.ID, "duplicate"))
	require.NoError(t, f.recipes.Delete(ctx, moderator, other.ID, "cleanup"))
	requireKind(t, f.recipes.Delete(ctx, moderator, other.ID, ""), apperr.KindNotFound)

	// deletion does not archive
	count, err := f.store.CountRejected(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestListMineIncludesPending(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, model.RoleUser)
	f.submit(t, author, sampleInput())
	f.submit(t, author, sampleInput())

	page, err := f.recipes.ListMine(context.Background(), author, store.Page{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Data, 1)
}

func TestDeleteWithoutReasonLogsDeletionDefault(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, model.RoleUser)
	r := f.submit(t, author, sampleInput())

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	require.NoError(t, f.recipes.Delete(context.Background(), author, r.ID, "   "))

	assert.Contains(t, buf.String(), "deleted by user")
	assert.Contains(t, buf.String(), defaultDeleteReason)
	assert.NotContains(t, buf.String(), model.DefaultRejectionReason)
}

// listHookStore runs afterList once, right after the feed query returns.
type listHookStore struct {
	*store.Memory
	afterList func()
}

func (s *listHookStore) ListPublished(ctx context.Context, filter store.FeedFilter) ([]model.Recipe, int64, error) {
	recipes, total, err := s.Memory.ListPublished(ctx, filter)
	if hook := s.afterList; hook != nil {
		s.afterList = nil
		hook()
	}
	return recipes, total, err
}

func TestFeedCacheSkipsPagesReadBeforeInvalidate(t *testing.T) {
	mem := store.NewMemory()
	hooked := &listHookStore{Memory: mem}
	f := newCachedFixture(t, mem, hooked, cache.NewFeedCache(newMemKV(), time.Minute))
	ctx := context.Background()
	author := f.user(t, model.RoleUser)
	admin := f.user(t, model.RoleAdmin)
	r := f.submit(t, author, sampleInput())

	_, err := f.moderation.ModerateRecipe(ctx, admin, ModerateRecipeInput{RecipeID: r.ID, Action: "approve"})
	require.NoError(t, err)

	hooked.afterList = func() {
		_, err := f.moderation.ModerateRecipe(ctx, admin, ModerateRecipeInput{RecipeID: r.ID, Action: "reject"})
		require.NoError(t, err)
	}
	stale, err := f.recipes.ListPublished(ctx, store.FeedFilter{})
	require.NoError(t, err)
	require.Len(t, stale.Data, 1)

	feed, err := f.recipes.ListPublished(ctx, store.FeedFilter{})
	require.NoError(t, err)
	assert.Empty(t, feed.Data)
	assert.Zero(t, feed.TotalCount)
}

func TestFeedCacheServesRepeatReads(t *testing.T) {
	mem := store.NewMemory()
	hooked := &listHookStore{Memory: mem}
	f := newCachedFixture(t, mem, hooked, cache.NewFeedCache(newMemKV(), time.Minute))
	ctx := context.Background()
	author := f.user(t, model.RoleUser)
	admin := f.user(t, model.RoleAdmin)
	r := f.submit(t, author, sampleInput())
	_, err := f.moderation.ModerateRecipe(ctx, admin, ModerateRecipeInput{RecipeID: r.ID, Action: "approve"})
	require.NoError(t, err)

	_, err = f.recipes.ListPublished(ctx, store.FeedFilter{})
	require.NoError(t, err)

	// a cache hit never reaches the store
	hooked.afterList = func() { t.Error("feed query ran on a cached page") }
	feed, err := f.recipes.ListPublished(ctx, store.FeedFilter{})
	require.NoError(t, err)
	require.Len(t, feed.Data, 1)
	assert.Equal(t, r.ID, feed.Data[0].ID)
}
