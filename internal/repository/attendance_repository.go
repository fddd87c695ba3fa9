package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/rollcall/internal/model"
)

type AttendanceRepository interface {
	// Создать отметку о выходе на смену.
	Create(ctx context.Context, a *model.Attendance) error
	// Есть ли активная отметка для смены.
	ExistsForSchedule(ctx context.Context, scheduleID uuid.UUID) (bool, error)
}

type GormAttendanceRepository struct {
	db *gorm.DB
}

func NewGormAttendanceRepository(db *gorm.DB) *GormAttendanceRepository {
	return &GormAttendanceRepository{db: db}
}

func (r *GormAttendanceRepository) Create(ctx context.Context, a *model.Attendance) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(a).Error
}

func (r *GormAttendanceRepository) ExistsForSchedule(ctx context.Context, scheduleID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Attendance{}).
		Scopes(model.ActiveScope("attendances")).
		Where("roster_user_schedule_id = ?", scheduleID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
