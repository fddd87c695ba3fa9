package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/rollcall/internal/apperr"
	"github.com/Leganyst/rollcall/internal/calendar"
	"github.com/Leganyst/rollcall/internal/model"
	"github.com/Leganyst/rollcall/internal/repository"
	"github.com/Leganyst/rollcall/internal/rules"
)

const (
	msgRosterNotFound    = "No roster found for given id"
	msgScheduleNotFound  = "No User Schedule Found"
	msgDuplicateSchedule = "Staff user can only have one active schedule on a day."
	msgDuplicateManager  = "User is already manager for this roster."
)

// ScheduleEntry — одна смена во входном пакете.
type ScheduleEntry struct {
	UserID       uuid.UUID
	ScheduleDate time.Time
	StartTime    time.Time
	EndTime      time.Time
}

// SchedulePatch — частичное обновление смены; nil-поля не меняются.
type SchedulePatch struct {
	ScheduleDate *time.Time
	StartTime    *time.Time
	EndTime      *time.Time
}

func (p SchedulePatch) empty() bool {
	return p.ScheduleDate == nil && p.StartTime == nil && p.EndTime == nil
}

// RosterService управляет ростерами, их менеджерами и сменами сотрудников.
type RosterService struct {
	base
}

func NewRosterService(store *repository.Store, opts ...Option) *RosterService {
	return &RosterService{base: newBase("roster", store, opts)}
}

// CreateRoster создаёт ростер после проверки полей.
func (s *RosterService) CreateRoster(ctx context.Context, title string, isActive bool, createdBy *uuid.UUID) (roster *model.Roster, err error) {
	defer func() { err = s.finish(ctx, "create_roster", err) }()

	roster = &model.Roster{
		Title:    strings.TrimSpace(title),
		IsActive: isActive,
		Audit:    model.Audit{CreatedByID: createdBy},
	}
	if err := roster.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Rosters.Create(ctx, roster); err != nil {
		return nil, apperr.FromStorage(err, "create roster", msgRosterNotFound, "Roster already exists.")
	}
	return roster, nil
}

// CreateRosterManager делает managerID менеджером ростера rosterID.
func (s *RosterService) CreateRosterManager(ctx context.Context, rosterID, managerID uuid.UUID, createdBy *uuid.UUID) (rm *model.RosterManager, err error) {
	defer func() {
		err = s.finish(ctx, "create_roster_manager", err, "roster_id", rosterID, "manager_id", managerID)
	}()
	return s.addManager(ctx, s.store, rosterID, managerID, createdBy)
}

// CreateRosterWithManager создаёт активный ростер и назначает actorID его
// менеджером в одной транзакции.
func (s *RosterService) CreateRosterWithManager(ctx context.Context, title string, actorID uuid.UUID) (roster *model.Roster, err error) {
	defer func() { err = s.finish(ctx, "create_roster_with_manager", err, "actor_id", actorID) }()

	roster = &model.Roster{
		Title:    strings.TrimSpace(title),
		IsActive: true,
		Audit:    model.Audit{CreatedByID: &actorID},
	}
	if err := roster.Validate(); err != nil {
		return nil, err
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Rosters.Create(ctx, roster); err != nil {
			return apperr.FromStorage(err, "create roster", msgRosterNotFound, "Roster already exists.")
		}
		_, err := s.addManager(ctx, tx, roster.ID, actorID, &actorID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return roster, nil
}

func (s *RosterService) addManager(ctx context.Context, st *repository.Store, rosterID, managerID uuid.UUID, createdBy *uuid.UUID) (*model.RosterManager, error) {
	if _, err := st.Rosters.GetByID(ctx, rosterID); err != nil {
		return nil, apperr.FromStorage(err, "get roster", msgRosterNotFound, "")
	}

	isManager, err := st.Users.HasActiveRole(ctx, managerID, model.RoleManager)
	if err != nil {
		return nil, fmt.Errorf("check manager role: %w", err)
	}
	if err := rules.ValidateManagerRole(isManager); err != nil {
		return nil, err
	}

	exists, err := st.Rosters.IsManager(ctx, rosterID, managerID)
	if err != nil {
		return nil, fmt.Errorf("check roster manager: %w", err)
	}
	if exists {
		return nil, apperr.Duplicate(msgDuplicateManager)
	}

	rm := &model.RosterManager{
		RosterID:  rosterID,
		ManagerID: managerID,
		Audit:     model.Audit{CreatedByID: createdBy},
	}
	if err := st.Rosters.AddManager(ctx, rm); err != nil {
		return nil, apperr.FromStorage(err, "add roster manager", msgRosterNotFound, msgDuplicateManager)
	}
	return rm, nil
}

// IsRosterManager сообщает, управляет ли userID ростером rosterID.
func (s *RosterService) IsRosterManager(ctx context.Context, rosterID, userID uuid.UUID) (bool, error) {
	ok, err := s.store.Rosters.IsManager(ctx, rosterID, userID)
	if err != nil {
		return false, fmt.Errorf("check roster manager: %w", err)
	}
	return ok, nil
}

// BulkCreateRosterUserSchedules атомарно создаёт пакет смен ростера.
func (s *RosterService) BulkCreateRosterUserSchedules(
	ctx context.Context,
	rosterID uuid.UUID,
	entries []ScheduleEntry,
	createdBy *uuid.UUID,
) (created []*model.RosterUserSchedule, err error) {
	defer func() {
		err = s.finish(ctx, "bulk_create_schedules", err, "roster_id", rosterID, "entries", len(entries))
	}()

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		created, err = s.BulkCreateInTx(ctx, tx, rosterID, entries, createdBy)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.addSchedules(len(created))
	return created, nil
}

// BulkCreateInTx создаёт смены тем же путём внутри открытой транзакции tx.
func (s *RosterService) BulkCreateInTx(
	ctx context.Context,
	tx *repository.Store,
	rosterID uuid.UUID,
	entries []ScheduleEntry,
	createdBy *uuid.UUID,
) ([]*model.RosterUserSchedule, error) {
	if len(entries) == 0 {
		return nil, apperr.Validation("At least one user schedule is required")
	}

	roster, err := tx.Rosters.GetByID(ctx, rosterID)
	if err != nil {
		return nil, apperr.FromStorage(err, "get roster", msgRosterNotFound, "")
	}
	if err := rules.ValidateRosterAcceptsSchedules(roster); err != nil {
		return nil, err
	}

	userIDs := make([]uuid.UUID, 0, len(entries))
	seenUsers := make(map[uuid.UUID]struct{}, len(entries))
	for _, e := range entries {
		if _, ok := seenUsers[e.UserID]; ok {
			continue
		}
		seenUsers[e.UserID] = struct{}{}
		userIDs = append(userIDs, e.UserID)
	}
	staff, err := tx.Users.CountActiveRoleHolders(ctx, userIDs, model.RoleStaff)
	if err != nil {
		return nil, fmt.Errorf("count staff: %w", err)
	}
	if err := rules.ValidateBatchStaff(len(userIDs), staff); err != nil {
		return nil, err
	}

	type dayKey struct {
		user uuid.UUID
		date datatypes.Date
	}
	seenDays := make(map[dayKey]struct{}, len(entries))
	items := make([]*model.RosterUserSchedule, 0, len(entries))
	for _, e := range entries {
		item := &model.RosterUserSchedule{
			UserID:       e.UserID,
			RosterID:     rosterID,
			ScheduleDate: model.DateOf(e.ScheduleDate),
			StartTime:    e.StartTime.UTC(),
			EndTime:      e.EndTime.UTC(),
			Audit:        model.Audit{CreatedByID: createdBy},
		}
		if err := rules.ValidateSchedule(item, rules.ScheduleFacts{Roster: roster, UserIsStaff: true}); err != nil {
			return nil, err
		}

		key := dayKey{user: item.UserID, date: item.ScheduleDate}
		if _, ok := seenDays[key]; ok {
			return nil, apperr.Duplicate(msgDuplicateSchedule)
		}
		seenDays[key] = struct{}{}

		exists, err := tx.Schedules.ExistsActiveOnDate(ctx, rosterID, item.UserID, item.ScheduleDate, uuid.Nil)
		if err != nil {
			return nil, fmt.Errorf("check schedule duplicate: %w", err)
		}
		if exists {
			return nil, apperr.Duplicate(msgDuplicateSchedule)
		}

		items = append(items, item)
	}

	if err := tx.Schedules.BulkCreate(ctx, items); err != nil {
		return nil, apperr.FromStorage(err, "bulk create schedules", msgRosterNotFound, msgDuplicateSchedule)
	}
	return items, nil
}

// UpdateRosterUserSchedule применяет patch к активной смене и заново
// проверяет её целиком.
func (s *RosterService) UpdateRosterUserSchedule(
	ctx context.Context,
	scheduleID uuid.UUID,
	patch SchedulePatch,
	updatedBy *uuid.UUID,
) (schedule *model.RosterUserSchedule, err error) {
	defer func() { err = s.finish(ctx, "update_schedule", err, "schedule_id", scheduleID) }()

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Schedules.GetActiveByID(ctx, scheduleID)
		if err != nil {
			return apperr.FromStorage(err, "get schedule", msgScheduleNotFound, "")
		}
		if patch.empty() {
			return apperr.NoOp("At least one field must be updated.")
		}

		if patch.ScheduleDate != nil {
			current.ScheduleDate = model.DateOf(*patch.ScheduleDate)
		}
		if patch.StartTime != nil {
			current.StartTime = patch.StartTime.UTC()
		}
		if patch.EndTime != nil {
			current.EndTime = patch.EndTime.UTC()
		}
		current.UpdatedByID = updatedBy

		roster, err := tx.Rosters.GetByID(ctx, current.RosterID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("get roster: %w", err)
		}
		isStaff, err := tx.Users.HasActiveRole(ctx, current.UserID, model.RoleStaff)
		if err != nil {
			return fmt.Errorf("check staff role: %w", err)
		}
		if err := rules.ValidateSchedule(current, rules.ScheduleFacts{Roster: roster, UserIsStaff: isStaff}); err != nil {
			return err
		}

		exists, err := tx.Schedules.ExistsActiveOnDate(ctx, current.RosterID, current.UserID, current.ScheduleDate, current.ID)
		if err != nil {
			return fmt.Errorf("check schedule duplicate: %w", err)
		}
		if exists {
			return apperr.Duplicate(msgDuplicateSchedule)
		}

		if err := tx.Schedules.Update(ctx, current); err != nil {
			return apperr.FromStorage(err, "update schedule", msgScheduleNotFound, msgDuplicateSchedule)
		}
		schedule = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return schedule, nil
}

// ListRosterUserSchedules: менеджер видит все активные смены ростера,
// сотрудник — только свои.
func (s *RosterService) ListRosterUserSchedules(
	ctx context.Context,
	actor *calendar.Actor,
	rosterID uuid.UUID,
	page, pageSize int,
) (result calendar.Page[model.RosterUserSchedule], err error) {
	defer func() { err = s.finish(ctx, "list_schedules", err, "roster_id", rosterID) }()

	var onlyUser *uuid.UUID
	switch {
	case actor.Has(model.RoleManager):
	case actor.Has(model.RoleStaff):
		onlyUser = &actor.UserID
	default:
		return result, apperr.Role("You do not have permission to perform this action.")
	}

	if _, err := s.store.Rosters.GetByID(ctx, rosterID); err != nil {
		return result, apperr.FromStorage(err, "get roster", msgRosterNotFound, "")
	}

	limit, offset, page, pageSize := calendar.Window(page, pageSize)
	items, total, err := s.store.Schedules.ListActiveByRoster(ctx, rosterID, onlyUser, limit, offset)
	if err != nil {
		return result, fmt.Errorf("list schedules: %w", err)
	}
	return calendar.NewPage(items, total, page, pageSize), nil
}

// GetActiveSchedule возвращает активную смену по ID.
func (s *RosterService) GetActiveSchedule(ctx context.Context, scheduleID uuid.UUID) (*model.RosterUserSchedule, error) {
	sch, err := s.store.Schedules.GetActiveByID(ctx, scheduleID)
	if err != nil {
		return nil, apperr.FromStorage(err, "get schedule", msgScheduleNotFound, "")
	}
	return sch, nil
}

// GetOwnActiveSchedule возвращает активную смену, принадлежащую userID.
func (s *RosterService) GetOwnActiveSchedule(ctx context.Context, userID, scheduleID uuid.UUID) (*model.RosterUserSchedule, error) {
	sch, err := s.store.Schedules.GetActiveByID(ctx, scheduleID)
	if err != nil {
		return nil, apperr.FromStorage(err, "get schedule", "No schedule found for given data", "")
	}
	if sch.UserID != userID {
		return nil, apperr.NotFound("No schedule found for given data")
	}
	return sch, nil
}
