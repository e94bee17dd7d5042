package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/recipeshare/api/internal/model"
)

// Memory is an in-process store used by tests and local tooling.
type Memory struct {
	mu       sync.RWMutex
	recipes  map[string]model.Recipe
	archive  []model.RejectedRecipe
	comments map[int64]model.Comment
	users    map[int64]model.User
	nextID   int64
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		recipes:  make(map[string]model.Recipe),
		comments: make(map[int64]model.Comment),
		users:    make(map[int64]model.User),
		now:      time.Now,
	}
}

func (m *Memory) id() int64 {
	m.nextID++
	return m.nextID
}

func cloneRecipe(r model.Recipe) model.Recipe {
	r.Ingredients = append(model.Ingredients{}, r.Ingredients...)
	r.Instructions = append(model.Instructions{}, r.Instructions...)
	r.Tags = append(model.Tags{}, r.Tags...)
	return r
}

func paginate[T any](items []T, page Page) ([]T, int64) {
	page = page.Normalize()
	total := int64(len(items))
	start := page.Offset()
	if start >= len(items) {
		return []T{}, total
	}
	end := start + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], total
}

func (m *Memory) CreateRecipe(_ context.Context, r *model.Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.recipes[r.ID]; exists {
		return ErrDuplicate
	}
	now := m.now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = now
	}
	m.recipes[r.ID] = cloneRecipe(*r)
	return nil
}

func (m *Memory) GetRecipe(_ context.Context, id string) (*model.Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.recipes[id]
	if !ok {
		return nil, ErrNotFound
	}
	r = cloneRecipe(r)
	return &r, nil
}

func (m *Memory) ApproveRecipe(_ context.Context, r *model.Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.recipes[r.ID]
	if !ok {
		return ErrNotFound
	}
	updated := cloneRecipe(*r)
	updated.AuthorID = current.AuthorID
	updated.CreatedAt = current.CreatedAt
	m.recipes[r.ID] = updated
	return nil
}

func (m *Memory) RejectRecipe(_ context.Context, id, reason string, rejectedBy int64, at time.Time) (*model.RejectedRecipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.recipes[id]
	if !ok {
		return nil, ErrNotFound
	}
	archived := model.NewRejectedRecipe(&current, reason, rejectedBy, at)
	archived.ID = m.id()
	m.archive = append(m.archive, *archived)
	m.deleteRecipeLocked(id)
	return archived, nil
}

func (m *Memory) DeleteRecipe(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.recipes[id]; !ok {
		return ErrNotFound
	}
	m.deleteRecipeLocked(id)
	return nil
}

func (m *Memory) deleteRecipeLocked(id string) {
	delete(m.recipes, id)
	for cid, c := range m.comments {
		if c.RecipeID == id {
			delete(m.comments, cid)
		}
	}
}

// sortedRecipes returns matching recipes ordered by creation time.
func (m *Memory) sortedRecipes(match func(model.Recipe) bool, newestFirst bool) []model.Recipe {
	var out []model.Recipe
	for _, r := range m.recipes {
		if match(r) {
			out = append(out, cloneRecipe(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		if newestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (m *Memory) ListPublished(_ context.Context, filter FeedFilter) ([]model.Recipe, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	category := strings.ToLower(filter.Category)
	tag := strings.ToLower(filter.Tag)
	search := strings.ToLower(filter.Search)

	recipes := m.sortedRecipes(func(r model.Recipe) bool {
		if !r.Visible() {
			return false
		}
		if category != "" && r.Category != category {
			return false
		}
		if tag != "" && !containsTag(r.Tags, tag) {
			return false
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(r.Title), search) &&
			!strings.Contains(strings.ToLower(r.Description), search) {
			return false
		}
		return true
	}, true)

	items, total := paginate(recipes, filter.Page)
	return items, total, nil
}

func containsTag(tags model.Tags, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (m *Memory) ListByStatus(_ context.Context, status model.ModerationStatus, page Page) ([]model.Recipe, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	recipes := m.sortedRecipes(func(r model.Recipe) bool { return r.ModerationStatus == status }, false)
	items, total := paginate(recipes, page)
	return items, total, nil
}

func (m *Memory) ListByAuthor(_ context.Context, authorID int64, page Page) ([]model.Recipe, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	recipes := m.sortedRecipes(func(r model.Recipe) bool { return r.AuthorID == authorID }, true)
	items, total := paginate(recipes, page)
	return items, total, nil
}

func (m *Memory) ListRejected(_ context.Context, page Page) ([]model.RejectedRecipe, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	archived := make([]model.RejectedRecipe, len(m.archive))
	// newest first
	for i, a := range m.archive {
		archived[len(m.archive)-1-i] = a
	}
	items, total := paginate(archived, page)
	return items, total, nil
}

func (m *Memory) CountRecipesByStatus(_ context.Context) (map[model.ModerationStatus]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[model.ModerationStatus]int64)
	for _, r := range m.recipes {
		counts[r.ModerationStatus]++
	}
	return counts, nil
}

func (m *Memory) CountPublishedByAuthor(_ context.Context, authorID int64) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, r := range m.recipes {
		if r.AuthorID == authorID && r.Visible() {
			count++
		}
	}
	return count, nil
}

func (m *Memory) CountRejected(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.archive)), nil
}

func (m *Memory) TopCategories(_ context.Context, limit int) ([]CategoryCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int64)
	for _, r := range m.recipes {
		if r.Visible() {
			counts[r.Category]++
		}
	}
	out := make([]CategoryCount, 0, len(counts))
	for category, count := range counts {
		out = append(out, CategoryCount{Category: category, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Category < out[j].Category
		}
		return out[i].Count > out[j].Count
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) CreateComment(_ context.Context, c *model.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c.ID = m.id()
	now := m.now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = c.CreatedAt
	if c.ModerationStatus == "" {
		c.ModerationStatus = model.ModerationApproved
	}
	m.comments[c.ID] = *c
	return nil
}

func (m *Memory) GetComment(_ context.Context, id int64) (*model.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.comments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *Memory) sortedComments(match func(model.Comment) bool, less func(a, b model.Comment) bool) []model.Comment {
	var out []model.Comment
	for _, c := range m.comments {
		if match(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func (m *Memory) ListVisibleComments(_ context.Context, recipeID string, page Page) ([]model.Comment, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	comments := m.sortedComments(
		func(c model.Comment) bool { return c.RecipeID == recipeID && c.Visible() },
		func(a, b model.Comment) bool { return a.ID < b.ID },
	)
	items, total := paginate(comments, page)
	return items, total, nil
}

func (m *Memory) ListFlaggedComments(_ context.Context, page Page) ([]model.Comment, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	comments := m.sortedComments(
		func(c model.Comment) bool { return c.IsFlagged },
		func(a, b model.Comment) bool {
			if a.FlaggedAt != nil && b.FlaggedAt != nil && !a.FlaggedAt.Equal(*b.FlaggedAt) {
				return a.FlaggedAt.Before(*b.FlaggedAt)
			}
			return a.ID < b.ID
		},
	)
	items, total := paginate(comments, page)
	return items, total, nil
}

func (m *Memory) FlagComment(_ context.Context, id, flaggedBy int64, reason string, at time.Time) (*model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.comments[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !c.IsFlagged {
		c.IsFlagged = true
		c.FlagReason = reason
		c.FlaggedAt = &at
		c.FlaggedBy = &flaggedBy
		c.UpdatedAt = at
		m.comments[id] = c
	}
	return &c, nil
}

func (m *Memory) ResolveComment(_ context.Context, id int64, status model.ModerationStatus, moderatedBy int64, at time.Time) (*model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.comments[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !c.IsFlagged {
		return nil, ErrNotFlagged
	}
	c.ModerationStatus = status
	c.IsFlagged = false
	c.ModeratedBy = &moderatedBy
	c.ModeratedAt = &at
	c.UpdatedAt = at
	if status == model.ModerationApproved {
		c.FlagReason = ""
		c.FlaggedAt = nil
		c.FlaggedBy = nil
	}
	m.comments[id] = c
	return &c, nil
}

func (m *Memory) DeleteComment(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.comments[id]; !ok {
		return ErrNotFound
	}
	delete(m.comments, id)
	return nil
}

func (m *Memory) CountFlaggedComments(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, c := range m.comments {
		if c.IsFlagged {
			count++
		}
	}
	return count, nil
}

func (m *Memory) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	email := strings.ToLower(u.Email)
	for _, existing := range m.users {
		if strings.ToLower(existing.Email) == email {
			return ErrDuplicate
		}
	}
	u.ID = m.id()
	now := m.now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = u.CreatedAt
	if u.Provider == "" {
		u.Provider = "local"
	}
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	if u.Status == "" {
		u.Status = model.StatusActive
	}
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) GetUser(_ context.Context, id int64) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	email = strings.ToLower(email)
	for _, u := range m.users {
		if strings.ToLower(u.Email) == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) GetUserByProvider(_ context.Context, provider, providerID string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Provider == provider && u.ProviderID == providerID {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) UpdateUser(_ context.Context, id int64, upd UserUpdate) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	upd.apply(&u)
	u.UpdatedAt = m.now()
	m.users[id] = u
	return &u, nil
}

func (m *Memory) ListUsers(_ context.Context, filter UserFilter) ([]model.User, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	var users []model.User
	for _, u := range m.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Status != "" && u.Status != filter.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(u.Email), search) &&
			!strings.Contains(strings.ToLower(u.Name), search) {
			continue
		}
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID > users[j].ID })

	items, total := paginate(users, filter.Page)
	return items, total, nil
}

func (m *Memory) CountUsersByRole(_ context.Context) (map[model.Role]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[model.Role]int64)
	for _, u := range m.users {
		counts[u.Role]++
	}
	return counts, nil
}

var (
	_ RecipeStore  = (*Memory)(nil)
	_ CommentStore = (*Memory)(nil)
	_ UserStore    = (*Memory)(nil)
	_ RecipeStore  = (*Gorm)(nil)
	_ CommentStore = (*Gorm)(nil)
	_ UserStore    = (*Gorm)(nil)
)
