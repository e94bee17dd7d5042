package model

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
	RoleOwner     Role = "owner"
)

var roleRank = map[Role]int{
	RoleUser:      0,
	RoleModerator: 1,
	RoleAdmin:     2,
	RoleOwner:     3,
}

// Rank orders roles by privilege. Unknown roles rank below user.
func (r Role) Rank() int {
	if rank, ok := roleRank[r]; ok {
		return rank
	}
	return -1
}

func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r carries at least the privileges of min.
func (r Role) AtLeast(min Role) bool {
	return r.Valid() && r.Rank() >= min.Rank()
}

type UserStatus string

const (
	StatusActive    UserStatus = "active"
	StatusSuspended UserStatus = "suspended"
	StatusBanned    UserStatus = "banned"
)

// ParseUserStatus accepts "blocked" as an alias of banned.
func ParseUserStatus(s string) (UserStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active":
		return StatusActive, true
	case "suspended":
		return StatusSuspended, true
	case "banned", "blocked":
		return StatusBanned, true
	}
	return "", false
}

type User struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string     `gorm:"not null;uniqueIndex;size:255" json:"email"`
	Name         string     `gorm:"size:255" json:"name"`
	PasswordHash string     `gorm:"size:255" json:"-"`
	Provider     string     `gorm:"not null;size:20;default:'local'" json:"provider"`
	ProviderID   string     `gorm:"size:255" json:"-"`
	AvatarURL    string     `json:"avatarUrl"`
	Bio          string     `gorm:"type:text" json:"bio"`
	Role         Role       `gorm:"not null;size:20;default:'user'" json:"role"`
	Status       UserStatus `gorm:"not null;size:20;default:'active'" json:"status"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// CanModerateRecipes covers approve/reject of recipes and reject/remove of comments.
func (u *User) CanModerateRecipes() bool {
	return u.Role == RoleAdmin || u.Role == RoleOwner
}

// CanReviewComments covers clearing a flag on a comment.
func (u *User) CanReviewComments() bool {
	return u.Role.AtLeast(RoleModerator)
}

// CanDeleteRecipe is true for the author and for moderator and above.
func (u *User) CanDeleteRecipe(r *Recipe) bool {
	return r.AuthorID == u.ID || u.Role.AtLeast(RoleModerator)
}

// PublicProfile is what other users see.
type PublicProfile struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	AvatarURL      string    `json:"avatarUrl"`
	Bio            string    `json:"bio"`
	Role           Role      `json:"role"`
	PublishedCount int64     `json:"publishedCount"`
	MemberSince    time.Time `json:"memberSince"`
}
