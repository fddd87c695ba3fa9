package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/rollcall/internal/model"
)

type UserRepository interface {
	// Создать пользователя.
	Create(ctx context.Context, u *model.User) error
	// Найти пользователя по ID (включая удалённых).
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	// Найти активного пользователя по email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// Активные роли пользователя.
	ActiveRoles(ctx context.Context, userID uuid.UUID) ([]model.Role, error)
	// Есть ли у пользователя активная роль.
	HasActiveRole(ctx context.Context, userID uuid.UUID, role model.Role) (bool, error)
	// Сколько различных пользователей из ids держат активную роль.
	CountActiveRoleHolders(ctx context.Context, ids []uuid.UUID, role model.Role) (int64, error)
	// Назначить роль.
	AssignRole(ctx context.Context, ur *model.UserRole) error
	// Мягко снять роль. Возвращает число затронутых строк.
	RevokeRole(ctx context.Context, userID uuid.UUID, role model.Role, by *uuid.UUID, at time.Time) (int64, error)
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *GormUserRepository) Create(ctx context.Context, u *model.User) error {
	u.Email = normalizeEmail(u.Email)
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *GormUserRepository) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).
		Scopes(model.ActiveScope("users")).
		Where("email = ?", normalizeEmail(email)).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) ActiveRoles(ctx context.Context, userID uuid.UUID) ([]model.Role, error) {
	var roles []model.Role
	err := r.db.WithContext(ctx).
		Model(&model.UserRole{}).
		Scopes(model.ActiveScope("user_roles")).
		Where("user_id = ?", userID).
		Order("role ASC").
		Pluck("role", &roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *GormUserRepository) HasActiveRole(ctx context.Context, userID uuid.UUID, role model.Role) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.UserRole{}).
		Scopes(model.ActiveScope("user_roles")).
		Where("user_id = ? AND role = ?", userID, role).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormUserRepository) CountActiveRoleHolders(ctx context.Context, ids []uuid.UUID, role model.Role) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.UserRole{}).
		Joins("JOIN users ON users.id = user_roles.user_id AND users.date_deleted IS NULL").
		Scopes(model.ActiveScope("user_roles")).
		Where("user_roles.user_id IN ? AND user_roles.role = ?", ids, role).
		Distinct("user_roles.user_id").
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormUserRepository) AssignRole(ctx context.Context, ur *model.UserRole) error {
	return r.db.WithContext(ctx).Omit("User").Create(ur).Error
}

func (r *GormUserRepository) RevokeRole(ctx context.Context, userID uuid.UUID, role model.Role, by *uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.UserRole{}).
		Scopes(model.ActiveScope("user_roles")).
		Where("user_id = ? AND role = ?", userID, role).
		Updates(map[string]any{
			"date_deleted": at.UTC(),
			"updated_by":   by,
		})
	return res.RowsAffected, res.Error
}
