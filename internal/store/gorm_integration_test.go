//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/recipeshare/api/internal/database"
	"github.com/recipeshare/api/internal/model"
	"github.com/recipeshare/api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgres(t *testing.T) *store.Gorm {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("recipeshare"),
		postgres.WithUsername("recipeshare"),
		postgres.WithPassword("recipeshare"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.Open(dsn, false)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return store.NewGorm(db)
}

func newRecipe(id string) *model.Recipe {
	return &model.Recipe{
		ID:               id,
		AuthorID:         1,
		Title:            "Test",
		Category:         "dessert",
		Difficulty:       model.DifficultyEasy,
		Ingredients:      model.Ingredients{{Text: "flour"}},
		Instructions:     model.Instructions{{Text: "bake", Step: 1}},
		Tags:             model.Tags{"sweet", "quick"},
		ModerationStatus: model.ModerationPending,
	}
}

func TestGormRecipeLifecycle(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	r := newRecipe(model.NewRecipeID(time.Now()))
	require.NoError(t, s.CreateRecipe(ctx, r))

	stored, err := s.GetRecipe(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ModerationPending, stored.ModerationStatus)
	assert.False(t, stored.IsPublished)
	assert.Equal(t, r.Ingredients, stored.Ingredients)

	now := time.Now()
	moderator := int64(7)
	stored.ModerationStatus = model.ModerationApproved
	stored.IsPublished = true
	stored.ModeratedBy = &moderator
	stored.ModeratedAt = &now
	stored.UpdatedAt = now
	stored.Tags = model.Tags{"sweet"}
	require.NoError(t, s.ApproveRecipe(ctx, stored))

	feed, total, err := s.ListPublished(ctx, store.FeedFilter{Tag: "sweet"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, r.ID, feed[0].ID)

	_, total, err = s.ListPublished(ctx, store.FeedFilter{Tag: "quick"})
	require.NoError(t, err)
	assert.Zero(t, total)

	archived, err := s.RejectRecipe(ctx, r.ID, "", moderator, time.Now())
	require.NoError(t, err)
	assert.Equal(t, model.DefaultRejectionReason, archived.RejectionReason)

	_, err = s.GetRecipe(ctx, r.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	rejected, total, err := s.ListRejected(ctx, store.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Test", rejected[0].Title)
	assert.JSONEq(t, `[{"text":"flour"}]`, string(rejected[0].Ingredients))
}

func TestGormConcurrentApproveAndReject(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	r := newRecipe(model.NewRecipeID(time.Now()))
	require.NoError(t, s.CreateRecipe(ctx, r))

	var wg sync.WaitGroup
	var approveErr, rejectErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		approved := *r
		approved.ModerationStatus = model.ModerationApproved
		approved.IsPublished = true
		approveErr = s.ApproveRecipe(ctx, &approved)
	}()
	go func() {
		defer wg.Done()
		_, rejectErr = s.RejectRecipe(ctx, r.ID, "spam", 1, time.Now())
	}()
	wg.Wait()

	require.NoError(t, rejectErr)
	if approveErr != nil {
		assert.ErrorIs(t, approveErr, store.ErrNotFound)
	}
	// whichever order the lock granted, the row is gone and archived once
	_, err := s.GetRecipe(ctx, r.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	count, err := s.CountRejected(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGormDuplicateEmail(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, &model.User{Email: "a@example.com", Role: model.RoleUser, Status: model.StatusActive}))
	err := s.CreateUser(ctx, &model.User{Email: "a@example.com", Role: model.RoleUser, Status: model.StatusActive})
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestGormSearchTreatsWildcardsLiterally(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	for _, title := range []string{"100% Rye", "Plain Loaf"} {
		r := newRecipe(model.NewRecipeID(time.Now()))
		r.Title = title
		r.ModerationStatus = model.ModerationApproved
		r.IsPublished = true
		require.NoError(t, s.CreateRecipe(ctx, r))
	}

	feed, total, err := s.ListPublished(ctx, store.FeedFilter{Search: "%"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "100% Rye", feed[0].Title)

	_, total, err = s.ListPublished(ctx, store.FeedFilter{Search: "_"})
	require.NoError(t, err)
	assert.Zero(t, total)

	require.NoError(t, s.CreateUser(ctx, &model.User{Email: "ann@example.com", Name: "Ann", Role: model.RoleUser, Status: model.StatusActive}))
	_, total, err = s.ListUsers(ctx, store.UserFilter{Search: "%"})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestGormUpdateUserWritesOwnedColumns(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	u := &model.User{Email: "cook@example.com", Name: "Cook", Role: model.RoleUser, Status: model.StatusActive}
	require.NoError(t, s.CreateUser(ctx, u))

	banned := model.StatusBanned
	_, err := s.UpdateUser(ctx, u.ID, store.UserUpdate{Status: &banned})
	require.NoError(t, err)

	bio := "bakes bread"
	updated, err := s.UpdateUser(ctx, u.ID, store.UserUpdate{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, model.StatusBanned, updated.Status)
	assert.Equal(t, "bakes bread", updated.Bio)
	assert.Equal(t, "Cook", updated.Name)

	_, err = s.UpdateUser(ctx, 9999, store.UserUpdate{Bio: &bio})
	assert.ErrorIs(t, err, store.ErrNotFound)
}
