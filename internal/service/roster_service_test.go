package service

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/rollcall/internal/apperr"
	"github.com/Leganyst/rollcall/internal/calendar"
	"github.com/Leganyst/rollcall/internal/model"
)

func TestCreateRosterValidatesTitle(t *testing.T) {
	f := newFixture(t)

	if _, err := f.rosters.CreateRoster(f.ctx, "   ", true, nil); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	r, err := f.rosters.CreateRoster(f.ctx, " Night shift ", false, nil)
	if err != nil {
		t.Fatalf("CreateRoster: %v", err)
	}
	if r.Title != "Night shift" || r.IsActive {
		t.Fatalf("unexpected roster: %+v", r)
	}
}

func TestCreateRosterManager(t *testing.T) {
	f := newFixture(t)
	r := f.roster(true)
	manager := f.user("m@example.com", model.RoleManager)
	staff := f.user("s@example.com", model.RoleStaff)

	if _, err := f.rosters.CreateRosterManager(f.ctx, r.ID, staff.ID, nil); !errors.Is(err, apperr.ErrRole) {
		t.Fatalf("expected role error, got %v", err)
	}
	if _, err := f.rosters.CreateRosterManager(f.ctx, uuid.New(), manager.ID, nil); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := f.rosters.CreateRosterManager(f.ctx, r.ID, manager.ID, nil); err != nil {
		t.Fatalf("CreateRosterManager: %v", err)
	}
	_, err := f.rosters.CreateRosterManager(f.ctx, r.ID, manager.ID, nil)
	if !errors.Is(err, apperr.ErrDuplicate) || apperr.PublicMessage(err) != msgDuplicateManager {
		t.Fatalf("expected duplicate, got %v", err)
	}

	ok, err := f.rosters.IsRosterManager(f.ctx, r.ID, manager.ID)
	if err != nil || !ok {
		t.Fatalf("IsRosterManager = %v, %v", ok, err)
	}
}

func TestCreateRosterWithManagerRollsBackForNonManager(t *testing.T) {
	f := newFixture(t)
	manager := f.user("m@example.com", model.RoleManager)
	staff := f.user("s@example.com", model.RoleStaff)

	r, err := f.rosters.CreateRosterWithManager(f.ctx, "Ward A", manager.ID)
	if err != nil {
		t.Fatalf("CreateRosterWithManager: %v", err)
	}
	if !r.IsActive {
		t.Fatalf("roster must be active")
	}
	if ok, _ := f.rosters.IsRosterManager(f.ctx, r.ID, manager.ID); !ok {
		t.Fatalf("creator must manage the roster")
	}

	if _, err := f.rosters.CreateRosterWithManager(f.ctx, "Ward B", staff.ID); !errors.Is(err, apperr.ErrRole) {
		t.Fatalf("expected role error, got %v", err)
	}
	var count int64
	if err := f.store.DB().Model(&model.Roster{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("failed roster must be rolled back, have %d rosters", count)
	}
}

func TestBulkCreateFailFastOrder(t *testing.T) {
	f := newFixture(t)
	active := f.roster(true)
	inactive := f.roster(false)
	staff := f.user("s@example.com", model.RoleStaff)
	manager := f.user("m@example.com", model.RoleManager)

	cases := []struct {
		name     string
		rosterID uuid.UUID
		entries  []ScheduleEntry
		kind     error
		message  string
	}{
		{"empty", active.ID, nil, apperr.ErrValidation, "At least one user schedule is required"},
		// неактивный ростер проверяется раньше ролей
		{"inactive roster", inactive.ID, []ScheduleEntry{entry(manager.ID, 9, 2)}, apperr.ErrValidation, "Cannot add roster user schedule for an inactive roster."},
		{"not staff", active.ID, []ScheduleEntry{entry(staff.ID, 9, 8), entry(manager.ID, 9, 8)}, apperr.ErrRole, "All users must be staff members"},
		{"too short", active.ID, []ScheduleEntry{entry(staff.ID, 9, 5)}, apperr.ErrValidation, "A schedule must be at least 6 hours long."},
		{"end before start", active.ID, []ScheduleEntry{entry(staff.ID, 9, -1)}, apperr.ErrValidation, "End time must be greater than start time"},
		{"in-batch duplicate", active.ID, []ScheduleEntry{entry(staff.ID, 1, 8), entry(staff.ID, 12, 8)}, apperr.ErrDuplicate, msgDuplicateSchedule},
		{"missing roster", uuid.New(), []ScheduleEntry{entry(staff.ID, 9, 8)}, apperr.ErrNotFound, msgRosterNotFound},
	}
	for _, tc := range cases {
		_, err := f.rosters.BulkCreateRosterUserSchedules(f.ctx, tc.rosterID, tc.entries, nil)
		if !errors.Is(err, tc.kind) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.kind, err)
		}
		if apperr.PublicMessage(err) != tc.message {
			t.Fatalf("%s: message = %q, want %q", tc.name, apperr.PublicMessage(err), tc.message)
		}
	}

	if got := f.activeSchedules(active.ID); len(got) != 0 {
		t.Fatalf("nothing must be written on failure, found %d", len(got))
	}
}

func TestBulkCreateDateMismatch(t *testing.T) {
	f := newFixture(t)
	r := f.roster(true)
	staff := f.user("s@example.com", model.RoleStaff)

	e := entry(staff.ID, 9, 8)
	e.ScheduleDate = shiftDay.AddDate(0, 0, 1)
	_, err := f.rosters.BulkCreateRosterUserSchedules(f.ctx, r.ID, []ScheduleEntry{e}, nil)
	if apperr.PublicMessage(err) != "Schedule date and start time date should be same" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBulkCreateRejectsExistingDuplicateAtomically(t *testing.T) {
	f := newFixture(t)
	r := f.roster(true)
	a := f.user("a@example.com", model.RoleStaff)
	b := f.user("b@example.com", model.RoleStaff)

	f.schedule(r.ID, entry(a.ID, 9, 8))

	_, err := f.rosters.BulkCreateRosterUserSchedules(f.ctx, r.ID, []ScheduleEntry{entry(b.ID, 9, 8), entry(a.ID, 10, 8)}, nil)
	if !errors.Is(err, apperr.ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if got := f.activeSchedules(r.ID); len(got) != 1 {
		t.Fatalf("batch must not be partially written, have %d schedules", len(got))
	}

	created, err := f.rosters.BulkCreateRosterUserSchedules(f.ctx, r.ID, []ScheduleEntry{
		entry(b.ID, 9, 8),
		{UserID: a.ID, ScheduleDate: shiftDay.AddDate(0, 0, 1), StartTime: shiftDay.AddDate(0, 0, 1).Add(8 * time.Hour), EndTime: shiftDay.AddDate(0, 0, 1).Add(16 * time.Hour)},
	}, nil)
	if err != nil || len(created) != 2 {
		t.Fatalf("BulkCreate: %v (%d)", err, len(created))
	}
}

func TestUpdateRosterUserSchedule(t *testing.T) {
	f := newFixture(t)
	r := f.roster(true)
	staff := f.user("s@example.com", model.RoleStaff)
	editor := f.user("m@example.com", model.RoleManager)

	first := f.schedule(r.ID, entry(staff.ID, 9, 8))
	nextDay := shiftDay.AddDate(0, 0, 1)
	second := f.schedule(r.ID, ScheduleEntry{UserID: staff.ID, ScheduleDate: nextDay, StartTime: nextDay.Add(9 * time.Hour), EndTime: nextDay.Add(17 * time.Hour)})

	if _, err := f.rosters.UpdateRosterUserSchedule(f.ctx, first.ID, SchedulePatch{}, &editor.ID); !errors.Is(err, apperr.ErrNoOp) {
		t.Fatalf("expected no-op, got %v", err)
	}
	if _, err := f.rosters.UpdateRosterUserSchedule(f.ctx, uuid.New(), SchedulePatch{}, &editor.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	end := shiftDay.Add(12 * time.Hour)
	if _, err := f.rosters.UpdateRosterUserSchedule(f.ctx, first.ID, SchedulePatch{EndTime: &end}, &editor.ID); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected min duration violation, got %v", err)
	}

	// перенос на день, где уже есть смена, даёт дубликат
	start := nextDay.Add(6 * time.Hour)
	end = nextDay.Add(14 * time.Hour)
	_, err := f.rosters.UpdateRosterUserSchedule(f.ctx, first.ID, SchedulePatch{ScheduleDate: &nextDay, StartTime: &start, EndTime: &end}, &editor.ID)
	if !errors.Is(err, apperr.ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}

	// смена, пересекающая только саму себя, не дубликат
	start = nextDay.Add(7 * time.Hour)
	updated, err := f.rosters.UpdateRosterUserSchedule(f.ctx, second.ID, SchedulePatch{StartTime: &start}, &editor.ID)
	if err != nil {
		t.Fatalf("UpdateRosterUserSchedule: %v", err)
	}
	if !updated.StartTime.Equal(start) || updated.UpdatedByID == nil || *updated.UpdatedByID != editor.ID {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	stored, err := f.store.Schedules.GetActiveByID(f.ctx, second.ID)
	if err != nil || !stored.StartTime.Equal(start) {
		t.Fatalf("update not stored: %v %+v", err, stored)
	}
}

func TestUpdateRejectsWhenUserLostStaffRole(t *testing.T) {
	f := newFixture(t)
	r := f.roster(true)
	staff := f.user("s@example.com", model.RoleStaff)
	sch := f.schedule(r.ID, entry(staff.ID, 9, 8))

	if err := f.identity.RevokeRole(f.ctx, staff.ID, model.RoleStaff, nil); err != nil {
		t.Fatalf("RevokeRole: %v", err)
	}
	start := shiftDay.Add(8 * time.Hour)
	if _, err := f.rosters.UpdateRosterUserSchedule(f.ctx, sch.ID, SchedulePatch{StartTime: &start}, nil); !errors.Is(err, apperr.ErrRole) {
		t.Fatalf("expected role error, got %v", err)
	}
}

func TestListRosterUserSchedulesVisibility(t *testing.T) {
	f := newFixture(t)
	r := f.roster(true)
	a := f.user("a@example.com", model.RoleStaff)
	b := f.user("b@example.com", model.RoleStaff)
	f.schedule(r.ID, entry(a.ID, 9, 8))
	f.schedule(r.ID, entry(b.ID, 10, 8))

	manager := &calendar.Actor{UserID: uuid.New(), Roles: []model.Role{model.RoleManager}}
	page, err := f.rosters.ListRosterUserSchedules(f.ctx, manager, r.ID, 1, 10)
	if err != nil || page.Total != 2 {
		t.Fatalf("manager list: %v total=%d", err, page.Total)
	}

	staff := &calendar.Actor{UserID: a.ID, Roles: []model.Role{model.RoleStaff}}
	page, err = f.rosters.ListRosterUserSchedules(f.ctx, staff, r.ID, 1, 10)
	if err != nil || page.Total != 1 || page.Items[0].UserID != a.ID {
		t.Fatalf("staff list: %v %+v", err, page)
	}

	if _, err := f.rosters.ListRosterUserSchedules(f.ctx, &calendar.Actor{UserID: uuid.New()}, r.ID, 1, 10); !errors.Is(err, apperr.ErrRole) {
		t.Fatalf("expected role error, got %v", err)
	}
}

func TestGetOwnActiveSchedule(t *testing.T) {
	f := newFixture(t)
	r := f.roster(true)
	a := f.user("a@example.com", model.RoleStaff)
	b := f.user("b@example.com", model.RoleStaff)
	sch := f.schedule(r.ID, entry(a.ID, 9, 8))

	if _, err := f.rosters.GetOwnActiveSchedule(f.ctx, a.ID, sch.ID); err != nil {
		t.Fatalf("GetOwnActiveSchedule: %v", err)
	}
	if _, err := f.rosters.GetOwnActiveSchedule(f.ctx, b.ID, sch.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found for foreign schedule, got %v", err)
	}
}
