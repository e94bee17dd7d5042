// Package service implements the recipe, moderation, comment and account
// workflows on top of the store interfaces. Every returned error is an
// *apperr.Error.
package service

import (
	"errors"
	"time"

	"github.com/recipeshare/api/internal/apperr"
	"github.com/recipeshare/api/internal/model"
	"github.com/recipeshare/api/internal/store"
)

// Paged is a page of results in the shape the API returns.
type Paged[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int   `json:"totalPages"`
}

func newPaged[T any](items []T, total int64, page store.Page) *Paged[T] {
	page = page.Normalize()
	if items == nil {
		items = []T{}
	}
	return &Paged[T]{
		Data:       items,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalCount: total,
		TotalPages: page.TotalPages(total),
	}
}

// lookupErr maps store.ErrNotFound to a NotFoundError and anything else to a
// PersistenceError.
func lookupErr(err error, format string, args ...any) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(format, args...)
	}
	return apperr.Wrap(err, "database error")
}

func requireUser(u *model.User) error {
	if u == nil {
		return apperr.Authentication("authentication required")
	}
	return nil
}

type clock func() time.Time
