package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/rollcall/internal/apperr"
	"github.com/Leganyst/rollcall/internal/model"
	"github.com/Leganyst/rollcall/internal/repository"
	"github.com/Leganyst/rollcall/internal/rules"
)

const msgDuplicateAttendance = "Attendance already marked for this schedule."

// ImageStore сохраняет фотографии отметок. Реализация: storage.LocalStore.
type ImageStore interface {
	SaveAttendanceImage(userID uuid.UUID, filename string, r io.Reader, at time.Time) (string, error)
	Remove(ref string) error
}

// AttendanceService отмечает выход сотрудника на смену.
type AttendanceService struct {
	base
	images ImageStore
}

func NewAttendanceService(store *repository.Store, images ImageStore, opts ...Option) *AttendanceService {
	return &AttendanceService{base: newBase("attendance", store, opts), images: images}
}

// CreateAttendance создаёт отметку для смены scheduleID. Нулевое at означает текущее время.
func (s *AttendanceService) CreateAttendance(
	ctx context.Context,
	scheduleID uuid.UUID,
	imageRef string,
	at time.Time,
	createdBy *uuid.UUID,
) (a *model.Attendance, err error) {
	defer func() { err = s.finish(ctx, "create_attendance", err, "schedule_id", scheduleID) }()
	return s.create(ctx, scheduleID, imageRef, at, createdBy)
}

func (s *AttendanceService) create(
	ctx context.Context,
	scheduleID uuid.UUID,
	imageRef string,
	at time.Time,
	createdBy *uuid.UUID,
) (*model.Attendance, error) {
	if at.IsZero() {
		at = s.clock()
	}
	if err := s.check(ctx, scheduleID, at); err != nil {
		return nil, err
	}
	return s.insert(ctx, scheduleID, imageRef, at, createdBy)
}

// check проверяет смену, окно отметки и отсутствие прежней отметки.
func (s *AttendanceService) check(ctx context.Context, scheduleID uuid.UUID, at time.Time) error {
	schedule, err := s.store.Schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return apperr.FromStorage(err, "get schedule", "No Schedule found for given schedule id", "")
	}
	if err := rules.ValidateAttendance(at, schedule); err != nil {
		return err
	}

	exists, err := s.store.Attendances.ExistsForSchedule(ctx, scheduleID)
	if err != nil {
		return fmt.Errorf("check attendance: %w", err)
	}
	if exists {
		return apperr.Duplicate(msgDuplicateAttendance)
	}
	return nil
}

// insert пишет отметку; гонку двух вставок разрешает уникальный индекс.
func (s *AttendanceService) insert(
	ctx context.Context,
	scheduleID uuid.UUID,
	imageRef string,
	at time.Time,
	createdBy *uuid.UUID,
) (*model.Attendance, error) {
	a := &model.Attendance{
		RosterUserScheduleID: scheduleID,
		CaptureImage:         imageRef,
		Time:                 at.UTC(),
		Audit:                model.Audit{CreatedByID: createdBy},
	}
	if err := s.store.Attendances.Create(ctx, a); err != nil {
		return nil, apperr.FromStorage(err, "create attendance", "No Schedule found for given schedule id", msgDuplicateAttendance)
	}
	return a, nil
}

// MarkAttendance отмечает сотрудника userID на его активной смене с фото.
// Файл пишется только после проверок; если вставка всё же не удалась,
// сохранённый файл удаляется.
func (s *AttendanceService) MarkAttendance(
	ctx context.Context,
	userID, scheduleID uuid.UUID,
	filename string,
	image io.Reader,
) (a *model.Attendance, err error) {
	defer func() { err = s.finish(ctx, "mark_attendance", err, "user_id", userID, "schedule_id", scheduleID) }()

	schedule, err := s.store.Schedules.GetActiveByID(ctx, scheduleID)
	if err != nil {
		return nil, apperr.FromStorage(err, "get schedule", "No Schedule found for given schedule id", "")
	}
	if schedule.UserID != userID {
		return nil, apperr.NotFound("No Schedule found for given schedule id")
	}

	now := s.clock()
	if err := s.check(ctx, scheduleID, now); err != nil {
		return nil, err
	}

	ref, err := s.images.SaveAttendanceImage(userID, filename, image, now)
	if err != nil {
		return nil, err
	}

	a, err = s.insert(ctx, scheduleID, ref, now, &userID)
	if err != nil {
		if rmErr := s.images.Remove(ref); rmErr != nil {
			return nil, fmt.Errorf("%w (cleanup: %v)", err, rmErr)
		}
		return nil, err
	}
	return a, nil
}
