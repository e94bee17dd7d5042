package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/recipeshare/api/internal/apperr"
	"github.com/recipeshare/api/internal/model"
	"github.com/recipeshare/api/internal/store"
)

const (
	MaxCommentLength  = 2000
	defaultFlagReason = "Flagged as inappropriate"
)

type ModerateCommentInput struct {
	CommentID int64  `json:"commentId"`
	Action    string `json:"action"`
	Reason    string `json:"reason"`
}

type CommentService struct {
	comments store.CommentStore
	recipes  store.RecipeStore
	now      clock
}

func NewCommentService(comments store.CommentStore, recipes store.RecipeStore, now clock) *CommentService {
	return &CommentService{comments: comments, recipes: recipes, now: now}
}

// Create posts an approved comment on a published recipe.
func (s *CommentService) Create(ctx context.Context, author *model.User, recipeID, content string) (*model.Comment, error) {
	if err := requireUser(author); err != nil {
		return nil, err
	}
	if !author.IsActive() {
		return nil, apperr.Authorization("account is %s", author.Status)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.Validation("invalid comment").WithDetails("content is required")
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return nil, apperr.Validation("invalid comment").
			WithDetails("content must be at most 2000 characters")
	}

	recipe, err := s.recipes.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, lookupErr(err, "recipe %s not found", recipeID)
	}
	if !recipe.Visible() {
		return nil, apperr.NotFound("recipe %s not found", recipeID)
	}

	now := s.now()
	comment := &model.Comment{
		RecipeID:         recipeID,
		AuthorID:         author.ID,
		Content:          content,
		ModerationStatus: model.ModerationApproved,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return nil, apperr.Wrap(err, "failed to create comment")
	}
	return comment, nil
}

func (s *CommentService) ListForRecipe(ctx context.Context, recipeID string, page store.Page) (*Paged[model.Comment], error) {
	comments, total, err := s.comments.ListVisibleComments(ctx, recipeID, page)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to list comments")
	}
	return newPaged(comments, total, page), nil
}

// Flag marks someone else's comment for review. Flagged comments stay
// visible until a moderator resolves them.
func (s *CommentService) Flag(ctx context.Context, actor *model.User, commentID int64, reason string) (*model.Comment, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if !actor.IsActive() {
		return nil, apperr.Authorization("account is %s", actor.Status)
	}

	comment, err := s.comments.GetComment(ctx, commentID)
	if err != nil {
		return nil, lookupErr(err, "comment %d not found", commentID)
	}
	if comment.AuthorID == actor.ID {
		return nil, apperr.Validation("you cannot flag your own comment")
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultFlagReason
	}

	flagged, err := s.comments.FlagComment(ctx, commentID, actor.ID, reason, s.now())
	if err != nil {
		return nil, lookupErr(err, "comment %d not found", commentID)
	}
	return flagged, nil
}

// Moderate resolves a comment. Moderators may approve; reject and remove
// need admin or owner. Approve and reject act only on flagged comments.
// Reject hides the comment and keeps the row, remove deletes it. The
// returned comment is nil after remove.
func (s *CommentService) Moderate(ctx context.Context, actor *model.User, in ModerateCommentInput) (*model.Comment, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if !actor.CanReviewComments() {
		return nil, apperr.Authorization("moderator access required")
	}

	action := strings.ToLower(strings.TrimSpace(in.Action))
	switch action {
	case model.CommentApprove, model.CommentReject, model.CommentRemove:
	default:
		return nil, apperr.Validation("invalid action").
			WithDetails("action must be one of: approve, reject, remove")
	}
	if action != model.CommentApprove && !actor.CanModerateRecipes() {
		return nil, apperr.Authorization("admin access required to %s comments", action)
	}

	current, err := s.comments.GetComment(ctx, in.CommentID)
	if err != nil {
		return nil, lookupErr(err, "comment %d not found", in.CommentID)
	}
	if action != model.CommentRemove && !current.IsFlagged {
		return nil, notFlagged(in.CommentID)
	}

	var comment *model.Comment
	switch action {
	case model.CommentApprove:
		comment, err = s.comments.ResolveComment(ctx, in.CommentID, model.ModerationApproved, actor.ID, s.now())
	case model.CommentReject:
		comment, err = s.comments.ResolveComment(ctx, in.CommentID, model.ModerationRejected, actor.ID, s.now())
	case model.CommentRemove:
		err = s.comments.DeleteComment(ctx, in.CommentID)
	}
	if errors.Is(err, store.ErrNotFlagged) {
		return nil, notFlagged(in.CommentID)
	}
	if err != nil {
		return nil, lookupErr(err, "comment %d not found", in.CommentID)
	}

	log.Printf("comment %d %s by user %d: %s", in.CommentID, action, actor.ID, strings.TrimSpace(in.Reason))
	return comment, nil
}

func notFlagged(id int64) error {
	return apperr.Validation("comment is not flagged").
		WithDetails(fmt.Sprintf("comment %d has no pending flag to resolve", id))
}

func (s *CommentService) ListFlagged(ctx context.Context, page store.Page) (*Paged[model.Comment], error) {
	comments, total, err := s.comments.ListFlaggedComments(ctx, page)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to list flagged comments")
	}
	return newPaged(comments, total, page), nil
}
