package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/recipeshare/api/internal/apperr"
	"github.com/recipeshare/api/internal/auth"
	"github.com/recipeshare/api/internal/cache"
	"github.com/recipeshare/api/internal/model"
	"github.com/recipeshare/api/internal/notify"
	"github.com/recipeshare/api/internal/store"
	"github.com/recipeshare/api/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tickingClock advances one second per call so rows get distinct timestamps.
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (r *recordingMailer) Send(msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingMailer) subjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.sent))
	for i, m := range r.sent {
		out[i] = m.Subject
	}
	return out
}

type fixture struct {
	store      *store.Memory
	recipes    *RecipeService
	moderation *ModerationService
	comments   *CommentService
	accounts   *AccountService
	mailer     *recordingMailer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := store.NewMemory()
	return newFixtureWith(t, mem, mem)
}

// newFixtureWith lets a test swap the recipe store for a wrapper.
func newFixtureWith(t *testing.T, mem *store.Memory, recipes store.RecipeStore) *fixture {
	t.Helper()
	return newCachedFixture(t, mem, recipes, nil)
}

func newCachedFixture(t *testing.T, mem *store.Memory, recipes store.RecipeStore, feed *cache.FeedCache) *fixture {
	t.Helper()
	clk := &tickingClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	v := validator.New()
	mailer := &recordingMailer{}
	notifier := notify.NewNotifier(mailer, "https://recipes.test")
	sessions := auth.NewSessions("test-secret", time.Hour)

	return &fixture{
		store:      mem,
		recipes:    NewRecipeService(recipes, feed, v, clk.Now),
		moderation: NewModerationService(recipes, mem, mem, feed, notifier, v, clk.Now),
		comments:   NewCommentService(mem, recipes, clk.Now),
		accounts:   NewAccountService(mem, recipes, sessions, nil, v, clk.Now),
		mailer:     mailer,
	}
}

type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string][]byte)}
}

func (m *memKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return v, nil
}

func (m *memKV) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memKV) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, _ := strconv.ParseInt(string(m.data[key]), 10, 64)
	n++
	m.data[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

var userSeq atomic.Int64

func (f *fixture) user(t *testing.T, role model.Role) *model.User {
	t.Helper()
	u := &model.User{
		Email:  fmt.Sprintf("%s%d@example.com", role, userSeq.Add(1)),
		Name:   "User " + string(role),
		Role:   role,
		Status: model.StatusActive,
	}
	require.NoError(t, f.store.CreateUser(context.Background(), u))
	return u
}

func sampleInput() SubmitRecipeInput {
	return SubmitRecipeInput{
		Title:        "Test",
		Category:     "dessert",
		Difficulty:   "easy",
		Ingredients:  []any{"flour"},
		Instructions: []any{"bake"},
	}
}

func (f *fixture) submit(t *testing.T, author *model.User, in SubmitRecipeInput) *model.Recipe {
	t.Helper()
	r, err := f.recipes.Submit(context.Background(), author, in)
	require.NoError(t, err)
	return r
}

func requireKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apperr.Is(err, kind), "want %s, got %v", kind, err)
}
