package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/rollcall/internal/apperr"
	"github.com/Leganyst/rollcall/internal/auth"
	"github.com/Leganyst/rollcall/internal/calendar"
	"github.com/Leganyst/rollcall/internal/model"
	"github.com/Leganyst/rollcall/internal/repository"
)

const minPasswordLen = 8

// Token — выданный access-токен.
type Token struct {
	AccessToken string      `json:"access_token"`
	ExpiresAt   time.Time   `json:"expires_at"`
	User        *model.User `json:"-"`
}

// IdentityService реализует регистрацию, вход и управление ролями.
type IdentityService struct {
	base
	tokens *auth.Issuer
}

func NewIdentityService(store *repository.Store, tokens *auth.Issuer, opts ...Option) *IdentityService {
	return &IdentityService{base: newBase("identity", store, opts), tokens: tokens}
}

// RegisterUser создаёт пользователя с bcrypt-хешем пароля.
func (s *IdentityService) RegisterUser(ctx context.Context, email, firstName, lastName, password string) (u *model.User, err error) {
	defer func() { err = s.finish(ctx, "register_user", err) }()

	u = &model.User{
		Email:     strings.ToLower(strings.TrimSpace(email)),
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if len(password) < minPasswordLen {
		return nil, apperr.Validation("Password must be at least %d characters.", minPasswordLen)
	}

	if _, err := s.store.Users.GetByEmail(ctx, u.Email); err == nil {
		return nil, apperr.Duplicate("A user with this email already exists.")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash

	if err := s.store.Users.Create(ctx, u); err != nil {
		return nil, apperr.FromStorage(err, "create user", "", "A user with this email already exists.")
	}
	return u, nil
}

// Authenticate проверяет пароль и выдаёт подписанный токен.
func (s *IdentityService) Authenticate(ctx context.Context, email, password string) (tok *Token, err error) {
	defer func() { err = s.finish(ctx, "authenticate", err) }()

	u, err := s.store.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthenticated("Invalid email or password.")
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperr.Unauthenticated("Invalid email or password.")
		}
		return nil, fmt.Errorf("check password: %w", err)
	}

	signed, expires, err := s.tokens.NewAccessToken(u.ID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Token{AccessToken: signed, ExpiresAt: expires, User: u}, nil
}

// AssignRole выдаёт пользователю роль.
func (s *IdentityService) AssignRole(ctx context.Context, userID uuid.UUID, role model.Role, by *uuid.UUID) (ur *model.UserRole, err error) {
	defer func() { err = s.finish(ctx, "assign_role", err, "user_id", userID, "role", role.String()) }()

	if !role.Valid() {
		return nil, apperr.Validation("Unknown role %s.", role)
	}
	u, err := s.store.Users.GetUser(ctx, userID)
	if err != nil {
		return nil, apperr.FromStorage(err, "get user", "No user found for given id", "")
	}
	if u.Deleted() {
		return nil, apperr.NotFound("No user found for given id")
	}

	has, err := s.store.Users.HasActiveRole(ctx, userID, role)
	if err != nil {
		return nil, fmt.Errorf("check role: %w", err)
	}
	if has {
		return nil, apperr.Duplicate("User already has this role.")
	}

	ur = &model.UserRole{UserID: userID, Role: role, Audit: model.Audit{CreatedByID: by}}
	if err := s.store.Users.AssignRole(ctx, ur); err != nil {
		return nil, apperr.FromStorage(err, "assign role", "No user found for given id", "User already has this role.")
	}
	return ur, nil
}

// RevokeRole мягко снимает активную роль.
func (s *IdentityService) RevokeRole(ctx context.Context, userID uuid.UUID, role model.Role, by *uuid.UUID) (err error) {
	defer func() { err = s.finish(ctx, "revoke_role", err, "user_id", userID, "role", role.String()) }()

	n, err := s.store.Users.RevokeRole(ctx, userID, role, by, s.clock())
	if err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}
	if n == 0 {
		return apperr.NotFound("User does not have this role.")
	}
	return nil
}

// ResolveActor загружает пользователя токена вместе с активными ролями.
func (s *IdentityService) ResolveActor(ctx context.Context, userID uuid.UUID) (*calendar.Actor, error) {
	actor, err := calendar.ResolveActor(ctx, s.store.Users, userID)
	switch {
	case err == nil:
		return actor, nil
	case errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, calendar.ErrUserNotFound),
		errors.Is(err, calendar.ErrUserInactive),
		errors.Is(err, calendar.ErrInvalidUserID):
		return nil, apperr.Unauthenticated("Authentication credentials were not provided or are invalid.")
	default:
		return nil, fmt.Errorf("resolve actor: %w", err)
	}
}
