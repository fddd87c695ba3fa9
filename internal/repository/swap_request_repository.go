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

type SwapRequestRepository interface {
	// Создать заявку.
	Create(ctx context.Context, r *model.ScheduleSwapRequest) error
	// Есть ли активная заявка с той же тройкой (sender, receiver, schedule).
	ExistsActive(ctx context.Context, senderID, receiverID, scheduleID uuid.UUID) (bool, error)
	// Есть ли встречная PENDING-заявка от senderID к receiverID на дату.
	ExistsPendingOnDate(ctx context.Context, senderID, receiverID uuid.UUID, date datatypes.Date) (bool, error)
	// Активная PENDING-заявка получателя с активной сменой отправителя.
	FindPendingForReceiver(ctx context.Context, id, receiverID uuid.UUID, lock bool) (*model.ScheduleSwapRequest, error)
	// Закрыть заявку, если она всё ещё PENDING. Возвращает число затронутых строк.
	ClosePending(ctx context.Context, id uuid.UUID, status model.SwapStatus, by *uuid.UUID, at time.Time) (int64, error)
	// Активные PENDING-заявки получателя, новые первыми.
	ListPendingForReceiver(ctx context.Context, receiverID uuid.UUID, limit, offset int) ([]model.ScheduleSwapRequest, int64, error)
}

type GormSwapRequestRepository struct {
	db *gorm.DB
}

func NewGormSwapRequestRepository(db *gorm.DB) *GormSwapRequestRepository {
	return &GormSwapRequestRepository{db: db}
}

func (r *GormSwapRequestRepository) Create(ctx context.Context, req *model.ScheduleSwapRequest) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(req).Error
}

func (r *GormSwapRequestRepository) ExistsActive(ctx context.Context, senderID, receiverID, scheduleID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ScheduleSwapRequest{}).
		Scopes(model.ActiveScope("schedule_swap_requests")).
		Where("sender_id = ? AND receiver_id = ? AND sender_schedule_id = ?", senderID, receiverID, scheduleID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormSwapRequestRepository) ExistsPendingOnDate(
	ctx context.Context,
	senderID, receiverID uuid.UUID,
	date datatypes.Date,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ScheduleSwapRequest{}).
		Joins("JOIN roster_user_schedules ON roster_user_schedules.id = schedule_swap_requests.sender_schedule_id").
		Scopes(model.ActiveScope("schedule_swap_requests")).
		Where("schedule_swap_requests.sender_id = ? AND schedule_swap_requests.receiver_id = ?", senderID, receiverID).
		Where("schedule_swap_requests.status = ?", model.SwapStatusPending).
		Where("roster_user_schedules.schedule_date = ?", date).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormSwapRequestRepository) FindPendingForReceiver(
	ctx context.Context,
	id, receiverID uuid.UUID,
	lock bool,
) (*model.ScheduleSwapRequest, error) {
	q := r.db.WithContext(ctx).
		Model(&model.ScheduleSwapRequest{}).
		Joins("JOIN roster_user_schedules ON roster_user_schedules.id = schedule_swap_requests.sender_schedule_id AND roster_user_schedules.date_deleted IS NULL").
		Scopes(model.ActiveScope("schedule_swap_requests")).
		Where("schedule_swap_requests.id = ? AND schedule_swap_requests.receiver_id = ?", id, receiverID).
		Where("schedule_swap_requests.status = ?", model.SwapStatusPending)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "schedule_swap_requests"}})
	}

	var req model.ScheduleSwapRequest
	if err := q.Preload("SenderSchedule").First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *GormSwapRequestRepository) ClosePending(
	ctx context.Context,
	id uuid.UUID,
	status model.SwapStatus,
	by *uuid.UUID,
	at time.Time,
) (int64, error) {
	// закрытая заявка сразу уходит в архив: date_deleted вместе со статусом
	res := r.db.WithContext(ctx).
		Model(&model.ScheduleSwapRequest{}).
		Scopes(model.ActiveScope("schedule_swap_requests")).
		Where("id = ? AND status = ?", id, model.SwapStatusPending).
		Updates(map[string]any{
			"status":       status,
			"date_deleted": at.UTC(),
			"updated_by":   by,
		})
	return res.RowsAffected, res.Error
}

func (r *GormSwapRequestRepository) ListPendingForReceiver(
	ctx context.Context,
	receiverID uuid.UUID,
	limit, offset int,
) ([]model.ScheduleSwapRequest, int64, error) {
	var items []model.ScheduleSwapRequest
	q := r.db.WithContext(ctx).
		Model(&model.ScheduleSwapRequest{}).
		Scopes(model.ActiveScope("schedule_swap_requests")).
		Where("receiver_id = ? AND status = ?", receiverID, model.SwapStatusPending)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	if err := q.Preload("SenderSchedule").Order("date_created DESC").Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}
