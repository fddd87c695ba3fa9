package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/rollcall/internal/model"
)

type RosterRepository interface {
	// Создать ростер.
	Create(ctx context.Context, r *model.Roster) error
	// Найти активный ростер по ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Roster, error)
	// Добавить менеджера ростера.
	AddManager(ctx context.Context, rm *model.RosterManager) error
	// Является ли пользователь активным менеджером ростера.
	IsManager(ctx context.Context, rosterID, managerID uuid.UUID) (bool, error)
}

type GormRosterRepository struct {
	db *gorm.DB
}

func NewGormRosterRepository(db *gorm.DB) *GormRosterRepository {
	return &GormRosterRepository{db: db}
}

func (r *GormRosterRepository) Create(ctx context.Context, roster *model.Roster) error {
	return r.db.WithContext(ctx).Create(roster).Error
}

func (r *GormRosterRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Roster, error) {
	var roster model.Roster
	err := r.db.WithContext(ctx).
		Scopes(model.ActiveScope("rosters")).
		Where("id = ?", id).
		First(&roster).Error
	if err != nil {
		return nil, err
	}
	return &roster, nil
}

func (r *GormRosterRepository) AddManager(ctx context.Context, rm *model.RosterManager) error {
	return r.db.WithContext(ctx).Omit("Roster", "Manager").Create(rm).Error
}

func (r *GormRosterRepository) IsManager(ctx context.Context, rosterID, managerID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.RosterManager{}).
		Scopes(model.ActiveScope("roster_managers")).
		Where("roster_id = ? AND manager_id = ?", rosterID, managerID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
