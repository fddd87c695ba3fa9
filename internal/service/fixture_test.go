package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Leganyst/rollcall/internal/auth"
	"github.com/Leganyst/rollcall/internal/db/dbtest"
	"github.com/Leganyst/rollcall/internal/model"
	"github.com/Leganyst/rollcall/internal/repository"
	"github.com/Leganyst/rollcall/internal/storage"
)

// день смен и "сейчас" по умолчанию: сутки до начала смен
var (
	shiftDay = time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	baseNow  = time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)
)

type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *repository.Store
	now   time.Time

	metrics    *Metrics
	rosters    *RosterService
	swaps      *SwapService
	attendance *AttendanceService
	identity   *IdentityService
	images     *storage.LocalStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		t:     t,
		ctx:   context.Background(),
		store: repository.NewStore(dbtest.Open(t)),
		now:   baseNow,
	}
	f.metrics = NewMetrics(prometheus.NewRegistry())
	opts := []Option{WithMetrics(f.metrics), WithClock(func() time.Time { return f.now })}

	f.images = storage.NewLocalStore(t.TempDir(), 1)
	f.rosters = NewRosterService(f.store, opts...)
	f.swaps = NewSwapService(f.store, f.rosters, opts...)
	f.attendance = NewAttendanceService(f.store, f.images, opts...)
	f.identity = NewIdentityService(f.store, auth.NewIssuer("secret", "RollCall_Backend", "EndUser", time.Hour), opts...)
	return f
}

func (f *fixture) user(email string, roles ...model.Role) *model.User {
	f.t.Helper()
	u := &model.User{Email: email, FirstName: "Test", PasswordHash: "x"}
	if err := f.store.Users.Create(f.ctx, u); err != nil {
		f.t.Fatalf("create user: %v", err)
	}
	for _, role := range roles {
		if err := f.store.Users.AssignRole(f.ctx, &model.UserRole{UserID: u.ID, Role: role}); err != nil {
			f.t.Fatalf("assign role: %v", err)
		}
	}
	return u
}

func (f *fixture) roster(active bool) *model.Roster {
	f.t.Helper()
	r, err := f.rosters.CreateRoster(f.ctx, "Roster", active, nil)
	if err != nil {
		f.t.Fatalf("create roster: %v", err)
	}
	return r
}

// entry — смена на shiftDay с startHour длительностью hours часов.
func entry(userID uuid.UUID, startHour, hours int) ScheduleEntry {
	start := shiftDay.Add(time.Duration(startHour) * time.Hour)
	return ScheduleEntry{
		UserID:       userID,
		ScheduleDate: shiftDay,
		StartTime:    start,
		EndTime:      start.Add(time.Duration(hours) * time.Hour),
	}
}

func (f *fixture) schedule(rosterID uuid.UUID, e ScheduleEntry) *model.RosterUserSchedule {
	f.t.Helper()
	created, err := f.rosters.BulkCreateRosterUserSchedules(f.ctx, rosterID, []ScheduleEntry{e}, nil)
	if err != nil {
		f.t.Fatalf("create schedule: %v", err)
	}
	return created[0]
}

func (f *fixture) activeSchedules(rosterID uuid.UUID) []model.RosterUserSchedule {
	f.t.Helper()
	items, _, err := f.store.Schedules.ListActiveByRoster(f.ctx, rosterID, nil, 0, 0)
	if err != nil {
		f.t.Fatalf("list schedules: %v", err)
	}
	return items
}
