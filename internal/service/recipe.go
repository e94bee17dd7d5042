package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/recipeshare/api/internal/apperr"
	"github.com/recipeshare/api/internal/cache"
	"github.com/recipeshare/api/internal/model"
	"github.com/recipeshare/api/internal/normalize"
	"github.com/recipeshare/api/internal/store"
	"github.com/recipeshare/api/internal/validator"
)

const defaultDeleteReason = "no reason given"

type SubmitRecipeInput struct {
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Category     string        `json:"category"`
	Difficulty   string        `json:"difficulty"`
	PrepTime     int           `json:"prepTime"`
	CookTime     int           `json:"cookTime"`
	Servings     int           `json:"servings"`
	ImageURL     string        `json:"imageUrl"`
	Ingredients  normalize.Raw `json:"ingredients"`
	Instructions normalize.Raw `json:"instructions"`
	Tags         normalize.Raw `json:"tags"`
}

// recipeFields holds the scalar fields checked on submission and on approval.
type recipeFields struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Category    string `json:"category" validate:"required,max=50"`
	Difficulty  string `json:"difficulty" validate:"required,oneof=easy medium hard"`
	PrepTime    int    `json:"prepTime" validate:"min=0,max=1440"`
	CookTime    int    `json:"cookTime" validate:"min=0,max=1440"`
	Servings    int    `json:"servings" validate:"min=0,max=100"`
	ImageURL    string `json:"imageUrl" validate:"omitempty,url"`
}

func fieldsOf(r *model.Recipe) recipeFields {
	return recipeFields{
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Difficulty:  r.Difficulty,
		PrepTime:    r.PrepTime,
		CookTime:    r.CookTime,
		Servings:    r.Servings,
		ImageURL:    r.ImageURL,
	}
}

// validateRecipe reports every problem with r in one ValidationError.
func validateRecipe(v *validator.Validator, r *model.Recipe, requireCollections bool) error {
	var problems []string
	if err := v.Struct(fieldsOf(r)); err != nil {
		problems = append(problems, apperr.From(err).Details)
	}
	if requireCollections {
		if len(r.Ingredients) == 0 {
			problems = append(problems, "ingredients must not be empty")
		}
		if len(r.Instructions) == 0 {
			problems = append(problems, "instructions must not be empty")
		}
	}
	if len(problems) > 0 {
		return apperr.Validation("invalid recipe").WithDetails(strings.Join(problems, "; "))
	}
	return nil
}

type RecipeService struct {
	recipes  store.RecipeStore
	feed     *cache.FeedCache
	validate *validator.Validator
	now      clock
}

func NewRecipeService(recipes store.RecipeStore, feed *cache.FeedCache, v *validator.Validator, now clock) *RecipeService {
	return &RecipeService{recipes: recipes, feed: feed, validate: v, now: now}
}

// Submit creates a pending, unpublished recipe owned by author.
func (s *RecipeService) Submit(ctx context.Context, author *model.User, in SubmitRecipeInput) (*model.Recipe, error) {
	if err := requireUser(author); err != nil {
		return nil, err
	}
	if !author.IsActive() {
		return nil, apperr.Authorization("account is %s", author.Status)
	}

	now := s.now()
	recipe := &model.Recipe{
		ID:               model.NewRecipeID(now),
		AuthorID:         author.ID,
		Title:            strings.TrimSpace(in.Title),
		Description:      strings.TrimSpace(in.Description),
		Category:         strings.ToLower(strings.TrimSpace(in.Category)),
		Difficulty:       strings.ToLower(strings.TrimSpace(in.Difficulty)),
		PrepTime:         in.PrepTime,
		CookTime:         in.CookTime,
		Servings:         in.Servings,
		ImageURL:         strings.TrimSpace(in.ImageURL),
		Ingredients:      normalize.Ingredients(in.Ingredients),
		Instructions:     normalize.Instructions(in.Instructions),
		Tags:             normalize.Tags(in.Tags),
		ModerationStatus: model.ModerationPending,
		IsPublished:      false,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := validateRecipe(s.validate, recipe, true); err != nil {
		return nil, err
	}

	if err := s.recipes.CreateRecipe(ctx, recipe); err != nil {
		return nil, apperr.Wrap(err, "failed to create recipe")
	}

	log.Printf("recipe %s submitted by user %d", recipe.ID, author.ID)
	return recipe, nil
}

// Get returns a published recipe to anyone and an unpublished one only to
// its author and to moderators.
func (s *RecipeService) Get(ctx context.Context, viewer *model.User, id string) (*model.Recipe, error) {
	recipe, err := s.recipes.GetRecipe(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "recipe %s not found", id)
	}
	if recipe.Visible() {
		return recipe, nil
	}
	if viewer != nil && (viewer.ID == recipe.AuthorID || viewer.Role.AtLeast(model.RoleModerator)) {
		return recipe, nil
	}
	return nil, apperr.NotFound("recipe %s not found", id)
}

func feedKey(f store.FeedFilter) string {
	p := f.Page.Normalize()
	return fmt.Sprintf("c=%s|t=%s|q=%s|p=%d|l=%d",
		strings.ToLower(f.Category), strings.ToLower(f.Tag), strings.ToLower(f.Search), p.Page, p.Limit)
}

// ListPublished returns the approved and published feed.
func (s *RecipeService) ListPublished(ctx context.Context, filter store.FeedFilter) (*Paged[model.Recipe], error) {
	key, cacheable := s.feed.Key(ctx, feedKey(filter))

	var cached Paged[model.Recipe]
	if cacheable && s.feed.Get(ctx, key, &cached) {
		return &cached, nil
	}

	recipes, total, err := s.recipes.ListPublished(ctx, filter)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to list recipes")
	}

	page := newPaged(recipes, total, filter.Page)
	if cacheable {
		s.feed.Put(ctx, key, page)
	}
	return page, nil
}

// ListMine returns every recipe the user submitted that is still live, any status.
func (s *RecipeService) ListMine(ctx context.Context, user *model.User, page store.Page) (*Paged[model.Recipe], error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	recipes, total, err := s.recipes.ListByAuthor(ctx, user.ID, page)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to list recipes")
	}
	return newPaged(recipes, total, page), nil
}

// Delete permanently removes a recipe and its dependents without archiving it.
func (s *RecipeService) Delete(ctx context.Context, actor *model.User, id, reason string) error {
	if err := requireUser(actor); err != nil {
		return err
	}

	recipe, err := s.recipes.GetRecipe(ctx, id)
	if err != nil {
		return lookupErr(err, "recipe %s not found", id)
	}
	if !actor.CanDeleteRecipe(recipe) {
		return apperr.Authorization("not allowed to delete this recipe")
	}

	if err := s.recipes.DeleteRecipe(ctx, id); err != nil {
		return lookupErr(err, "recipe %s not found", id)
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultDeleteReason
	}
	log.Printf("recipe %s (%q) deleted by user %d: %s", id, recipe.Title, actor.ID, reason)

	if recipe.Visible() {
		s.feed.Invalidate(ctx)
	}
	return nil
}
