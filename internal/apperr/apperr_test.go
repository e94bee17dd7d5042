package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindStatus(t *testing.T) {
	cases := map[Kind]int{
		KindAuthentication: http.StatusUnauthorized,
		KindAuthorization:  http.StatusForbidden,
		KindValidation:     http.StatusBadRequest,
		KindNotFound:       http.StatusNotFound,
		KindConflict:       http.StatusConflict,
		KindRateLimited:    http.StatusTooManyRequests,
		KindPersistence:    http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, kind.Status(), kind.String())
	}
}

func TestFromWrapsUnknownErrors(t *testing.T) {
	raw := errors.New("connection refused")

	converted := From(raw)

	require.NotNil(t, converted)
	assert.Equal(t, KindPersistence, converted.Kind)
	assert.Equal(t, "connection refused", converted.Details)
	assert.ErrorIs(t, converted, raw)
}

func TestFromKeepsAppErrors(t *testing.T) {
	notFound := NotFound("recipe %s not found", "abc")
	wrapped := fmt.Errorf("moderate: %w", notFound)

	assert.Same(t, notFound, From(wrapped))
	assert.True(t, Is(wrapped, KindNotFound))
	assert.False(t, Is(wrapped, KindValidation))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "ignored"))

	err := Wrap(errors.New("deadlock detected"), "failed to approve recipe")
	assert.Equal(t, "failed to approve recipe", err.Message)
	assert.Equal(t, "deadlock detected", err.Details)

	validation := Validation("bad input")
	assert.Same(t, validation, Wrap(validation, "ignored"))
}

func TestWithDetailsCopies(t *testing.T) {
	base := Validation("invalid recipe")
	detailed := base.WithDetails("title is required")

	assert.Empty(t, base.Details)
	assert.Equal(t, "title is required", detailed.Details)
	assert.Contains(t, detailed.Error(), "title is required")
}
