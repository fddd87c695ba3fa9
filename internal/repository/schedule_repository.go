package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/rollcall/internal/model"
)

type ScheduleRepository interface {
	// Найти смену по ID (включая удалённые).
	GetByID(ctx context.Context, id uuid.UUID) (*model.RosterUserSchedule, error)
	// Найти активную смену по ID.
	GetActiveByID(ctx context.Context, id uuid.UUID) (*model.RosterUserSchedule, error)
	// Активная смена пользователя на дату (в любом ростере).
	FindActiveForUserOnDate(ctx context.Context, userID uuid.UUID, date datatypes.Date, lock bool) (*model.RosterUserSchedule, error)
	// Есть ли активная смена (roster, user, date), кроме excludeID.
	ExistsActiveOnDate(ctx context.Context, rosterID, userID uuid.UUID, date datatypes.Date, excludeID uuid.UUID) (bool, error)
	// Активные смены ростера, опционально только одного пользователя.
	ListActiveByRoster(ctx context.Context, rosterID uuid.UUID, userID *uuid.UUID, limit, offset int) ([]model.RosterUserSchedule, int64, error)
	// Вставить пачку смен одним запросом.
	BulkCreate(ctx context.Context, items []*model.RosterUserSchedule) error
	// Обновить дату/время смены.
	Update(ctx context.Context, s *model.RosterUserSchedule) error
	// Мягко удалить смены одним UPDATE. Возвращает число затронутых строк.
	SoftDeleteMany(ctx context.Context, ids []uuid.UUID, by *uuid.UUID, at time.Time) (int64, error)
}

type GormScheduleRepository struct {
	db *gorm.DB
}

func NewGormScheduleRepository(db *gorm.DB) *GormScheduleRepository {
	return &GormScheduleRepository{db: db}
}

func (r *GormScheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.RosterUserSchedule, error) {
	var s model.RosterUserSchedule
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormScheduleRepository) GetActiveByID(ctx context.Context, id uuid.UUID) (*model.RosterUserSchedule, error) {
	var s model.RosterUserSchedule
	err := r.db.WithContext(ctx).
		Scopes(model.ActiveScope("roster_user_schedules")).
		Where("id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormScheduleRepository) FindActiveForUserOnDate(
	ctx context.Context,
	userID uuid.UUID,
	date datatypes.Date,
	lock bool,
) (*model.RosterUserSchedule, error) {
	q := r.db.WithContext(ctx).
		Scopes(model.ActiveScope("roster_user_schedules")).
		Where("user_id = ? AND schedule_date = ?", userID, date)
	if lock {
		// SQLite молча игнорирует FOR UPDATE
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var s model.RosterUserSchedule
	if err := q.Order("start_time ASC").First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormScheduleRepository) ExistsActiveOnDate(
	ctx context.Context,
	rosterID, userID uuid.UUID,
	date datatypes.Date,
	excludeID uuid.UUID,
) (bool, error) {
	q := r.db.WithContext(ctx).
		Model(&model.RosterUserSchedule{}).
		Scopes(model.ActiveScope("roster_user_schedules")).
		Where("roster_id = ? AND user_id = ? AND schedule_date = ?", rosterID, userID, date)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormScheduleRepository) ListActiveByRoster(
	ctx context.Context,
	rosterID uuid.UUID,
	userID *uuid.UUID,
	limit, offset int,
) ([]model.RosterUserSchedule, int64, error) {
	var items []model.RosterUserSchedule
	q := r.db.WithContext(ctx).
		Model(&model.RosterUserSchedule{}).
		Scopes(model.ActiveScope("roster_user_schedules")).
		Where("roster_id = ?", rosterID)

	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	if err := q.Order("start_time ASC").Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *GormScheduleRepository) BulkCreate(ctx context.Context, items []*model.RosterUserSchedule) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(&items).Error
}

func (r *GormScheduleRepository) Update(ctx context.Context, s *model.RosterUserSchedule) error {
	return r.db.WithContext(ctx).
		Model(s).
		Select("schedule_date", "start_time", "end_time", "updated_by", "date_updated").
		Updates(s).Error
}

func (r *GormScheduleRepository) SoftDeleteMany(ctx context.Context, ids []uuid.UUID, by *uuid.UUID, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&model.RosterUserSchedule{}).
		Scopes(model.ActiveScope("roster_user_schedules")).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"date_deleted": at.UTC(),
			"updated_by":   by,
		})
	return res.RowsAffected, res.Error
}
