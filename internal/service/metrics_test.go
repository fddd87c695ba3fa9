package service

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Leganyst/rollcall/internal/apperr"
	"github.com/Leganyst/rollcall/internal/model"
)

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.observe("roster", "op", errors.New("boom"))
	m.addSchedules(3)
	m.swapResolved("ACCEPTED")
}

func TestMetricsCountOutcomes(t *testing.T) {
	f := newFixture(t)
	r := f.roster(true)
	staff := f.user("s@example.com", model.RoleStaff)

	if _, err := f.rosters.BulkCreateRosterUserSchedules(f.ctx, r.ID, nil, nil); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	f.schedule(r.ID, entry(staff.ID, 9, 8))

	if got := testutil.ToFloat64(f.metrics.operations.WithLabelValues("roster", "bulk_create_schedules", "validation")); got != 1 {
		t.Fatalf("validation outcomes = %v", got)
	}
	if got := testutil.ToFloat64(f.metrics.operations.WithLabelValues("roster", "bulk_create_schedules", "ok")); got != 1 {
		t.Fatalf("ok outcomes = %v", got)
	}
	if got := testutil.ToFloat64(f.metrics.schedulesCreated); got != 1 {
		t.Fatalf("schedules created = %v", got)
	}
}

func TestMetricsSwapResolved(t *testing.T) {
	f := newFixture(t)
	s := newSwapSetup(f)

	req, err := f.swaps.CreateSwapRequest(f.ctx, s.sender.ID, s.receiver.ID, s.senderSchedule.ID)
	if err != nil {
		t.Fatalf("CreateSwapRequest: %v", err)
	}
	if _, err := f.swaps.RespondToSwapRequest(f.ctx, req.ID, s.receiver.ID, model.SwapActionAccept); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if got := testutil.ToFloat64(f.metrics.swapsResolved.WithLabelValues("ACCEPTED")); got != 1 {
		t.Fatalf("accepted swaps = %v", got)
	}
	// 2 исходные смены + 2 после обмена
	if got := testutil.ToFloat64(f.metrics.schedulesCreated); got != 4 {
		t.Fatalf("schedules created = %v", got)
	}
}
