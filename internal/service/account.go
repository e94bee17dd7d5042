package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/recipeshare/api/internal/apperr"
	"github.com/recipeshare/api/internal/auth"
	"github.com/recipeshare/api/internal/model"
	"github.com/recipeshare/api/internal/notify"
	"github.com/recipeshare/api/internal/store"
	"github.com/recipeshare/api/internal/validator"
)

const ProviderGoogle = "google"

type SignupInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,max=100"`
}

type ProfileInput struct {
	Name      *string `json:"name" validate:"omitempty,min=1,max=100"`
	Bio       *string `json:"bio" validate:"omitempty,max=1000"`
	AvatarURL *string `json:"avatarUrl" validate:"omitempty,url"`
}

type passwordInput struct {
	Password string `json:"newPassword" validate:"min=8,max=72"`
}

type UpdateUserInput struct {
	Role   *string `json:"role"`
	Status *string `json:"status"`
}

type AccountService struct {
	users    store.UserStore
	recipes  store.RecipeStore
	sessions *auth.Sessions
	notifier *notify.Notifier
	validate *validator.Validator
	now      clock
}

func NewAccountService(
	users store.UserStore,
	recipes store.RecipeStore,
	sessions *auth.Sessions,
	notifier *notify.Notifier,
	v *validator.Validator,
	now clock,
) *AccountService {
	return &AccountService{
		users:    users,
		recipes:  recipes,
		sessions: sessions,
		notifier: notifier,
		validate: v,
		now:      now,
	}
}

func (s *AccountService) issue(u *model.User) (string, error) {
	token, err := s.sessions.Issue(u)
	if err != nil {
		return "", apperr.Wrap(err, "failed to issue session")
	}
	return token, nil
}

func (s *AccountService) touchLogin(ctx context.Context, u *model.User) {
	now := s.now()
	u.LastLoginAt = &now
	if _, err := s.users.UpdateUser(ctx, u.ID, store.UserUpdate{LastLoginAt: &now}); err != nil {
		log.Printf("Warning: failed to record login for user %d: %v", u.ID, err)
	}
}

// Signup creates a local account and returns it with a session token.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (*model.User, string, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.Struct(in); err != nil {
		return nil, "", err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, "", apperr.Wrap(err, "failed to hash password")
	}

	user := &model.User{
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		Provider:     "local",
		Role:         model.RoleUser,
		Status:       model.StatusActive,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, "", apperr.Conflict("email already registered")
		}
		return nil, "", apperr.Wrap(err, "failed to create user")
	}

	email, name := user.Email, user.Name
	s.notifier.Go(func(n *notify.Notifier) error { return n.Welcome(email, name) })

	token, err := s.issue(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login checks email and password. Banned accounts are refused; suspended
// accounts may sign in but cannot write.
func (s *AccountService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", apperr.Authentication("invalid email or password")
		}
		return nil, "", apperr.Wrap(err, "failed to load user")
	}

	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, "", apperr.Authentication("invalid email or password")
		}
		return nil, "", apperr.Wrap(err, "failed to verify password")
	}
	if user.Status == model.StatusBanned {
		return nil, "", apperr.Authorization("account is banned")
	}

	s.touchLogin(ctx, user)
	token, err := s.issue(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// LoginWithGoogle finds the account by Google id, then by email, and
// creates one if neither exists.
func (s *AccountService) LoginWithGoogle(ctx context.Context, info *auth.GoogleUserInfo) (*model.User, string, error) {
	if info == nil || info.ID == "" || info.Email == "" {
		return nil, "", apperr.Authentication("google account has no identity")
	}
	if !info.VerifiedEmail {
		return nil, "", apperr.Authentication("google email is not verified")
	}

	user, err := s.users.GetUserByProvider(ctx, ProviderGoogle, info.ID)
	if errors.Is(err, store.ErrNotFound) {
		user, err = s.users.GetUserByEmail(ctx, strings.ToLower(info.Email))
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		user = &model.User{
			Email:      strings.ToLower(info.Email),
			Name:       info.Name,
			Provider:   ProviderGoogle,
			ProviderID: info.ID,
			AvatarURL:  info.Picture,
			Role:       model.RoleUser,
			Status:     model.StatusActive,
		}
		if err := s.users.CreateUser(ctx, user); err != nil {
			return nil, "", apperr.Wrap(err, "failed to create user")
		}
		email, name := user.Email, user.Name
		s.notifier.Go(func(n *notify.Notifier) error { return n.Welcome(email, name) })
	case err != nil:
		return nil, "", apperr.Wrap(err, "failed to load user")
	default:
		if user.Status == model.StatusBanned {
			return nil, "", apperr.Authorization("account is banned")
		}
		if user.AvatarURL == "" {
			user.AvatarURL = info.Picture
		}
	}

	s.touchLogin(ctx, user)
	token, err := s.issue(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Authenticate resolves a session token to the current user row.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.sessions.Validate(token)
	if err != nil {
		return nil, apperr.Authentication("invalid or expired session")
	}
	user, err := s.users.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Authentication("invalid or expired session")
		}
		return nil, apperr.Wrap(err, "failed to load user")
	}
	return user, nil
}

func trimmed(s string) *string {
	s = strings.TrimSpace(s)
	return &s
}

func (s *AccountService) UpdateProfile(ctx context.Context, user *model.User, in ProfileInput) (*model.User, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	var upd store.UserUpdate
	if in.Name != nil {
		upd.Name = trimmed(*in.Name)
	}
	if in.Bio != nil {
		upd.Bio = trimmed(*in.Bio)
	}
	if in.AvatarURL != nil {
		upd.AvatarURL = trimmed(*in.AvatarURL)
	}
	updated, err := s.users.UpdateUser(ctx, user.ID, upd)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to update profile")
	}
	return updated, nil
}

// ChangePassword sets a new password. Accounts without one (Google sign-in)
// may set it without the current password.
func (s *AccountService) ChangePassword(ctx context.Context, user *model.User, current, next string) error {
	if err := requireUser(user); err != nil {
		return err
	}
	if user.PasswordHash != "" {
		if err := auth.CheckPassword(user.PasswordHash, current); err != nil {
			if errors.Is(err, auth.ErrPasswordMismatch) {
				return apperr.Authentication("current password is incorrect")
			}
			return apperr.Wrap(err, "failed to verify password")
		}
	}
	if err := s.validate.Struct(passwordInput{Password: next}); err != nil {
		return err
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return apperr.Wrap(err, "failed to hash password")
	}
	if _, err := s.users.UpdateUser(ctx, user.ID, store.UserUpdate{PasswordHash: &hash}); err != nil {
		return apperr.Wrap(err, "failed to update password")
	}
	return nil
}

func (s *AccountService) PublicProfile(ctx context.Context, id int64) (*model.PublicProfile, error) {
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "user %d not found", id)
	}
	if user.Status == model.StatusBanned {
		return nil, apperr.NotFound("user %d not found", id)
	}

	published, err := s.recipes.CountPublishedByAuthor(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to count recipes")
	}
	return &model.PublicProfile{
		ID:             user.ID,
		Name:           user.Name,
		AvatarURL:      user.AvatarURL,
		Bio:            user.Bio,
		Role:           user.Role,
		PublishedCount: published,
		MemberSince:    user.CreatedAt,
	}, nil
}

func (s *AccountService) ListUsers(ctx context.Context, filter store.UserFilter) (*Paged[model.User], error) {
	users, total, err := s.users.ListUsers(ctx, filter)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to list users")
	}
	return newPaged(users, total, filter.Page), nil
}

// UpdateUser changes a user's role or status. Admins and owners may manage
// users and moderators; only an owner may grant admin or act on an admin.
// Owner accounts and the caller's own account cannot be changed here.
func (s *AccountService) UpdateUser(ctx context.Context, actor *model.User, targetID int64, in UpdateUserInput) (*model.User, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if !actor.CanModerateRecipes() {
		return nil, apperr.Authorization("admin access required")
	}

	var (
		role   model.Role
		status model.UserStatus
	)
	if in.Role == nil && in.Status == nil {
		return nil, apperr.Validation("nothing to update").WithDetails("role or status is required")
	}
	if in.Role != nil {
		role = model.Role(strings.ToLower(strings.TrimSpace(*in.Role)))
		if !role.Valid() {
			return nil, apperr.Validation("invalid role").
				WithDetails("role must be one of: user, moderator, admin, owner")
		}
	}
	if in.Status != nil {
		var ok bool
		if status, ok = model.ParseUserStatus(*in.Status); !ok {
			return nil, apperr.Validation("invalid status").
				WithDetails("status must be one of: active, suspended, banned")
		}
	}

	target, err := s.users.GetUser(ctx, targetID)
	if err != nil {
		return nil, lookupErr(err, "user %d not found", targetID)
	}
	if target.ID == actor.ID {
		return nil, apperr.Authorization("you cannot modify your own account")
	}
	if target.Role == model.RoleOwner {
		return nil, apperr.Authorization("owner accounts cannot be modified")
	}
	if actor.Role != model.RoleOwner &&
		(target.Role.AtLeast(model.RoleAdmin) || (role != "" && role.AtLeast(model.RoleAdmin))) {
		return nil, apperr.Authorization("only the owner can grant or modify admin privileges")
	}

	var upd store.UserUpdate
	if role != "" {
		upd.Role = &role
	}
	if status != "" {
		upd.Status = &status
	}
	updated, err := s.users.UpdateUser(ctx, target.ID, upd)
	if err != nil {
		return nil, lookupErr(err, "user %d not found", target.ID)
	}

	log.Printf("user %d updated by user %d: role=%s status=%s", updated.ID, actor.ID, updated.Role, updated.Status)
	return updated, nil
}
