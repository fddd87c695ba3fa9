package calendar

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Leganyst/rollcall/internal/model"
)

// Ошибки разрешения аутентифицированного пользователя.
var (
	ErrInvalidUserID = errors.New("invalid user id")
	ErrUserNotFound  = errors.New("user not found")
	ErrUserInactive  = errors.New("user is inactive")
)

// Actor — аутентифицированный пользователь с активными ролями.
type Actor struct {
	UserID uuid.UUID
	Email  string
	Roles  []model.Role
}

// Has сообщает, есть ли у пользователя активная роль role.
func (a *Actor) Has(role model.Role) bool {
	if a == nil {
		return false
	}
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Источник данных о пользователях и их ролях.
// В реале это репозиторий на GORM.
type ActorStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	ActiveRoles(ctx context.Context, userID uuid.UUID) ([]model.Role, error)
}

// ResolveActor:
//   - проверяет корректность идентификатора;
//   - вытаскивает пользователя из хранилища;
//   - проверяет, что пользователь не удалён;
//   - подтягивает активные роли.
func ResolveActor(ctx context.Context, store ActorStore, userID uuid.UUID) (*Actor, error) {
	if userID == uuid.Nil {
		return nil, ErrInvalidUserID
	}

	u, err := store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	if u.Deleted() {
		return nil, ErrUserInactive
	}

	roles, err := store.ActiveRoles(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	return &Actor{UserID: u.ID, Email: u.Email, Roles: roles}, nil
}
