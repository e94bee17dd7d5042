package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/recipeshare/api/internal/apperr"
	"github.com/recipeshare/api/internal/cache"
	"github.com/recipeshare/api/internal/model"
	"github.com/recipeshare/api/internal/normalize"
	"github.com/recipeshare/api/internal/notify"
	"github.com/recipeshare/api/internal/store"
	"github.com/recipeshare/api/internal/validator"
)

// UpdatedRecipe carries moderator edits applied on approval. Nil fields keep
// the stored value.
type UpdatedRecipe struct {
	Title        *string       `json:"title"`
	Description  *string       `json:"description"`
	Category     *string       `json:"category"`
	Difficulty   *string       `json:"difficulty"`
	PrepTime     *int          `json:"prepTime"`
	CookTime     *int          `json:"cookTime"`
	Servings     *int          `json:"servings"`
	ImageURL     *string       `json:"imageUrl"`
	Ingredients  normalize.Raw `json:"ingredients"`
	Instructions normalize.Raw `json:"instructions"`
	Tags         normalize.Raw `json:"tags"`
}

type ModerateRecipeInput struct {
	RecipeID      string         `json:"recipeId"`
	Action        string         `json:"action"`
	Notes         string         `json:"notes"`
	Reason        string         `json:"reason"`
	UpdatedRecipe *UpdatedRecipe `json:"updatedRecipe"`
}

type ModerationResult struct {
	Message  string                `json:"message"`
	Recipe   *model.Recipe         `json:"recipe,omitempty"`
	Archived *model.RejectedRecipe `json:"archived,omitempty"`
}

type DashboardStats struct {
	RecipesByStatus  map[model.ModerationStatus]int64 `json:"recipesByStatus"`
	PendingRecipes   int64                            `json:"pendingRecipes"`
	PublishedRecipes int64                            `json:"publishedRecipes"`
	RejectedRecipes  int64                            `json:"rejectedRecipes"`
	FlaggedComments  int64                            `json:"flaggedComments"`
	UsersByRole      map[model.Role]int64             `json:"usersByRole"`
	TotalUsers       int64                            `json:"totalUsers"`
	TopCategories    []store.CategoryCount            `json:"topCategories"`
}

type ModerationService struct {
	recipes  store.RecipeStore
	comments store.CommentStore
	users    store.UserStore
	feed     *cache.FeedCache
	notifier *notify.Notifier
	validate *validator.Validator
	now      clock
}

func NewModerationService(
	recipes store.RecipeStore,
	comments store.CommentStore,
	users store.UserStore,
	feed *cache.FeedCache,
	notifier *notify.Notifier,
	v *validator.Validator,
	now clock,
) *ModerationService {
	return &ModerationService{
		recipes:  recipes,
		comments: comments,
		users:    users,
		feed:     feed,
		notifier: notifier,
		validate: v,
		now:      now,
	}
}

// ModerateRecipe approves (optionally with edits) or rejects a recipe.
// Checks run in order: caller role, action, recipe existence.
func (s *ModerationService) ModerateRecipe(ctx context.Context, actor *model.User, in ModerateRecipeInput) (*ModerationResult, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if !actor.CanModerateRecipes() {
		return nil, apperr.Authorization("admin access required")
	}

	action := strings.ToLower(strings.TrimSpace(in.Action))
	if action != model.RecipeApprove && action != model.RecipeReject {
		return nil, apperr.Validation("invalid action").
			WithDetails("action must be one of: approve, reject")
	}
	if strings.TrimSpace(in.RecipeID) == "" {
		return nil, apperr.Validation("invalid request").WithDetails("recipeId is required")
	}

	current, err := s.recipes.GetRecipe(ctx, in.RecipeID)
	if err != nil {
		return nil, lookupErr(err, "recipe %s not found", in.RecipeID)
	}

	if action == model.RecipeApprove {
		return s.approve(ctx, actor, current, in)
	}
	return s.reject(ctx, actor, current, in)
}

func (s *ModerationService) approve(ctx context.Context, actor *model.User, current *model.Recipe, in ModerateRecipeInput) (*ModerationResult, error) {
	merged := *current
	if in.UpdatedRecipe != nil {
		applyEdits(&merged, in.UpdatedRecipe)
		if err := validateRecipe(s.validate, &merged, false); err != nil {
			return nil, err
		}
	}
	merged.Ingredients, merged.Instructions = normalize.WithPlaceholders(merged.Ingredients, merged.Instructions)

	now := s.now()
	moderatorID := actor.ID
	merged.ModerationStatus = model.ModerationApproved
	merged.IsPublished = true
	if notes := strings.TrimSpace(in.Notes); notes != "" {
		merged.ModerationNotes = notes
	}
	merged.ModeratedBy = &moderatorID
	merged.ModeratedAt = &now
	merged.UpdatedAt = now

	if err := s.recipes.ApproveRecipe(ctx, &merged); err != nil {
		return nil, lookupErr(err, "recipe %s not found", merged.ID)
	}

	stored, err := s.recipes.GetRecipe(ctx, merged.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Persistence("approval verification failed").
				WithDetails("recipe disappeared after update")
		}
		return nil, apperr.Wrap(err, "approval verification failed")
	}
	if stored.ModerationStatus != model.ModerationApproved || !stored.IsPublished {
		return nil, apperr.Persistence("approval verification failed").
			WithDetails("stored status is " + string(stored.ModerationStatus))
	}

	s.feed.Invalidate(ctx)
	log.Printf("recipe %s approved by user %d", stored.ID, actor.ID)

	title, id, notes, authorID := stored.Title, stored.ID, stored.ModerationNotes, stored.AuthorID
	s.notifier.Go(func(n *notify.Notifier) error {
		author, err := s.users.GetUser(context.Background(), authorID)
		if err != nil {
			return err
		}
		return n.RecipeApproved(author.Email, author.Name, title, id, notes)
	})

	return &ModerationResult{Message: "Recipe approved successfully", Recipe: stored}, nil
}

func (s *ModerationService) reject(ctx context.Context, actor *model.User, current *model.Recipe, in ModerateRecipeInput) (*ModerationResult, error) {
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = strings.TrimSpace(in.Notes)
	}

	archived, err := s.recipes.RejectRecipe(ctx, current.ID, reason, actor.ID, s.now())
	if err != nil {
		return nil, lookupErr(err, "recipe %s not found", current.ID)
	}

	if current.Visible() {
		s.feed.Invalidate(ctx)
	}
	log.Printf("recipe %s rejected by user %d: %s", current.ID, actor.ID, archived.RejectionReason)

	title, authorID := archived.Title, archived.AuthorID
	s.notifier.Go(func(n *notify.Notifier) error {
		author, err := s.users.GetUser(context.Background(), authorID)
		if err != nil {
			return err
		}
		return n.RecipeRejected(author.Email, author.Name, title, archived.RejectionReason)
	})

	return &ModerationResult{Message: "Recipe rejected and archived", Archived: archived}, nil
}

// applyEdits merges the provided fields over r. Collections are renormalized
// only when present in the edit.
func applyEdits(r *model.Recipe, e *UpdatedRecipe) {
	if e.Title != nil {
		r.Title = strings.TrimSpace(*e.Title)
	}
	if e.Description != nil {
		r.Description = strings.TrimSpace(*e.Description)
	}
	if e.Category != nil {
		r.Category = strings.ToLower(strings.TrimSpace(*e.Category))
	}
	if e.Difficulty != nil {
		r.Difficulty = strings.ToLower(strings.TrimSpace(*e.Difficulty))
	}
	if e.PrepTime != nil {
		r.PrepTime = *e.PrepTime
	}
	if e.CookTime != nil {
		r.CookTime = *e.CookTime
	}
	if e.Servings != nil {
		r.Servings = *e.Servings
	}
	if e.ImageURL != nil {
		r.ImageURL = strings.TrimSpace(*e.ImageURL)
	}
	if e.Ingredients != nil {
		r.Ingredients = normalize.Ingredients(e.Ingredients)
	}
	if e.Instructions != nil {
		r.Instructions = normalize.Instructions(e.Instructions)
	}
	if e.Tags != nil {
		r.Tags = normalize.Tags(e.Tags)
	}
}

// ListQueue lists recipes in the given moderation status, oldest first.
func (s *ModerationService) ListQueue(ctx context.Context, status string, page store.Page) (*Paged[model.Recipe], error) {
	st := model.ModerationStatus(strings.ToLower(strings.TrimSpace(status)))
	if st == "" {
		st = model.ModerationPending
	}
	if !st.Valid() {
		return nil, apperr.Validation("invalid status").
			WithDetails("status must be one of: pending, approved, rejected")
	}

	recipes, total, err := s.recipes.ListByStatus(ctx, st, page)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to list recipes")
	}
	return newPaged(recipes, total, page), nil
}

func (s *ModerationService) ListRejected(ctx context.Context, page store.Page) (*Paged[model.RejectedRecipe], error) {
	archived, total, err := s.recipes.ListRejected(ctx, page)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to list rejected recipes")
	}
	return newPaged(archived, total, page), nil
}

func (s *ModerationService) Stats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	var err error

	if stats.RecipesByStatus, err = s.recipes.CountRecipesByStatus(ctx); err != nil {
		return nil, apperr.Wrap(err, "failed to load stats")
	}
	stats.PendingRecipes = stats.RecipesByStatus[model.ModerationPending]
	stats.PublishedRecipes = stats.RecipesByStatus[model.ModerationApproved]

	if stats.RejectedRecipes, err = s.recipes.CountRejected(ctx); err != nil {
		return nil, apperr.Wrap(err, "failed to load stats")
	}
	if stats.FlaggedComments, err = s.comments.CountFlaggedComments(ctx); err != nil {
		return nil, apperr.Wrap(err, "failed to load stats")
	}
	if stats.UsersByRole, err = s.users.CountUsersByRole(ctx); err != nil {
		return nil, apperr.Wrap(err, "failed to load stats")
	}
	for _, n := range stats.UsersByRole {
		stats.TotalUsers += n
	}
	if stats.TopCategories, err = s.recipes.TopCategories(ctx, 10); err != nil {
		return nil, apperr.Wrap(err, "failed to load stats")
	}
	if stats.TopCategories == nil {
		stats.TopCategories = []store.CategoryCount{}
	}
	return &stats, nil
}
