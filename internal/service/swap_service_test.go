package service

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/rollcall/internal/apperr"
	"github.com/Leganyst/rollcall/internal/model"
)

type swapSetup struct {
	roster           *model.Roster
	sender, receiver *model.User
	senderSchedule   *model.RosterUserSchedule
	receiverSchedule *model.RosterUserSchedule
}

// Отправитель работает 09-17, получатель 06-14 в один и тот же день.
func newSwapSetup(f *fixture) swapSetup {
	f.t.Helper()
	r := f.roster(true)
	sender := f.user("sender@example.com", model.RoleStaff)
	receiver := f.user("receiver@example.com", model.RoleStaff)
	return swapSetup{
		roster:           r,
		sender:           sender,
		receiver:         receiver,
		senderSchedule:   f.schedule(r.ID, entry(sender.ID, 9, 8)),
		receiverSchedule: f.schedule(r.ID, entry(receiver.ID, 6, 8)),
	}
}

func TestCreateSwapRequestInvariants(t *testing.T) {
	f := newFixture(t)
	s := newSwapSetup(f)
	idle := f.user("idle@example.com", model.RoleStaff)

	cases := []struct {
		name       string
		sender     uuid.UUID
		receiver   uuid.UUID
		scheduleID uuid.UUID
		kind       error
		message    string
	}{
		{"missing schedule", s.sender.ID, s.receiver.ID, uuid.New(), apperr.ErrNotFound, "No schedule found for given data"},
		{"missing receiver", s.sender.ID, uuid.New(), s.senderSchedule.ID, apperr.ErrNotFound, "No receiver found for given data"},
		{"foreign schedule", s.receiver.ID, s.sender.ID, s.senderSchedule.ID, apperr.ErrValidation, "Sender and sender schedule should be same"},
		{"self swap", s.sender.ID, s.sender.ID, s.senderSchedule.ID, apperr.ErrValidation, "Sender and receiver cannot be same"},
		{"receiver idle", s.sender.ID, idle.ID, s.senderSchedule.ID, apperr.ErrValidation, "Receiver does not have any active schedule for the date 2024-03-02"},
	}
	for _, tc := range cases {
		_, err := f.swaps.CreateSwapRequest(f.ctx, tc.sender, tc.receiver, tc.scheduleID)
		if !errors.Is(err, tc.kind) || apperr.PublicMessage(err) != tc.message {
			t.Fatalf("%s: got %v", tc.name, err)
		}
	}

	req, err := f.swaps.CreateSwapRequest(f.ctx, s.sender.ID, s.receiver.ID, s.senderSchedule.ID)
	if err != nil {
		t.Fatalf("CreateSwapRequest: %v", err)
	}
	if req.Status != model.SwapStatusPending {
		t.Fatalf("new request must be pending, got %s", req.Status)
	}

	if _, err := f.swaps.CreateSwapRequest(f.ctx, s.sender.ID, s.receiver.ID, s.senderSchedule.ID); !errors.Is(err, apperr.ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}

	// встречная заявка на ту же дату запрещена
	_, err = f.swaps.CreateSwapRequest(f.ctx, s.receiver.ID, s.sender.ID, s.receiverSchedule.ID)
	if apperr.PublicMessage(err) != "Already received a request from receiver to swap given date schedule" {
		t.Fatalf("expected reciprocal rejection, got %v", err)
	}
}

func TestCreateSwapRequestSeveralReceiversAllowed(t *testing.T) {
	f := newFixture(t)
	s := newSwapSetup(f)
	other := f.user("other@example.com", model.RoleStaff)
	f.schedule(s.roster.ID, entry(other.ID, 10, 8))

	if _, err := f.swaps.CreateSwapRequest(f.ctx, s.sender.ID, s.receiver.ID, s.senderSchedule.ID); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if _, err := f.swaps.CreateSwapRequest(f.ctx, s.sender.ID, other.ID, s.senderSchedule.ID); err != nil {
		t.Fatalf("second receiver must be allowed: %v", err)
	}
}

func TestCreateSwapRequestLockWindow(t *testing.T) {
	f := newFixture(t)
	s := newSwapSetup(f)

	f.now = s.senderSchedule.StartTime.Add(-time.Hour)
	_, err := f.swaps.CreateSwapRequest(f.ctx, s.sender.ID, s.receiver.ID, s.senderSchedule.ID)
	if apperr.PublicMessage(err) != "Cannot create/update swap request an hour before schedule start time" {
		t.Fatalf("expected lock window error, got %v", err)
	}

	f.now = s.senderSchedule.StartTime.Add(-time.Hour - time.Second)
	if _, err := f.swaps.CreateSwapRequest(f.ctx, s.sender.ID, s.receiver.ID, s.senderSchedule.ID); err != nil {
		t.Fatalf("request just outside the window must pass: %v", err)
	}
}

func TestCreateSwapRequestOnArchivedSchedule(t *testing.T) {
	f := newFixture(t)
	s := newSwapSetup(f)

	if _, err := f.store.Schedules.SoftDeleteMany(f.ctx, []uuid.UUID{s.senderSchedule.ID}, nil, f.now); err != nil {
		t.Fatalf("SoftDeleteMany: %v", err)
	}
	_, err := f.swaps.CreateSwapRequest(f.ctx, s.sender.ID, s.receiver.ID, s.senderSchedule.ID)
	if apperr.PublicMessage(err) != "Cannot create a swap request for inactive schedule." {
		t.Fatalf("expected inactive schedule error, got %v", err)
	}
}

func TestAcceptSwapExchangesSchedules(t *testing.T) {
	f := newFixture(t)
	s := newSwapSetup(f)

	req, err := f.swaps.CreateSwapRequest(f.ctx, s.sender.ID, s.receiver.ID, s.senderSchedule.ID)
	if err != nil {
		t.Fatalf("CreateSwapRequest: %v", err)
	}

	// отправитель не может ответить на свою же заявку
	if _, err := f.swaps.RespondToSwapRequest(f.ctx, req.ID, s.sender.ID, model.SwapActionAccept); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found for sender, got %v", err)
	}

	got, err := f.swaps.RespondToSwapRequest(f.ctx, req.ID, s.receiver.ID, model.SwapActionAccept)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if got.Status != model.SwapStatusAccepted || !got.Deleted() {
		t.Fatalf("accepted request must be closed: %+v", got)
	}

	active := f.activeSchedules(s.roster.ID)
	if len(active) != 2 {
		t.Fatalf("expected 2 active schedules, got %d", len(active))
	}
	byUser := map[uuid.UUID]model.RosterUserSchedule{}
	for _, sch := range active {
		byUser[sch.UserID] = sch
	}
	if !byUser[s.sender.ID].StartTime.Equal(s.receiverSchedule.StartTime) {
		t.Fatalf("sender must take receiver times: %+v", byUser[s.sender.ID])
	}
	if !byUser[s.receiver.ID].StartTime.Equal(s.senderSchedule.StartTime) {
		t.Fatalf("receiver must take sender times: %+v", byUser[s.receiver.ID])
	}

	for _, id := range []uuid.UUID{s.senderSchedule.ID, s.receiverSchedule.ID} {
		old, err := f.store.Schedules.GetByID(f.ctx, id)
		if err != nil || !old.Deleted() || old.UpdatedByID == nil || *old.UpdatedByID != s.receiver.ID {
			t.Fatalf("original schedule must be archived by receiver: %v %+v", err, old)
		}
	}

	// повторное принятие — заявки уже нет среди PENDING
	if _, err := f.swaps.RespondToSwapRequest(f.ctx, req.ID, s.receiver.ID, model.SwapActionAccept); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("second accept must be not found, got %v", err)
	}
	if len(f.activeSchedules(s.roster.ID)) != 2 {
		t.Fatalf("second accept must not touch schedules")
	}
}

func TestSwapRoundTripRestoresTimes(t *testing.T) {
	f := newFixture(t)
	s := newSwapSetup(f)

	req, err := f.swaps.CreateSwapRequest(f.ctx, s.sender.ID, s.receiver.ID, s.senderSchedule.ID)
	if err != nil {
		t.Fatalf("CreateSwapRequest: %v", err)
	}
	if _, err := f.swaps.RespondToSwapRequest(f.ctx, req.ID, s.receiver.ID, model.SwapActionAccept); err != nil {
		t.Fatalf("accept: %v", err)
	}

	receiverNow, err := f.store.Schedules.FindActiveForUserOnDate(f.ctx, s.receiver.ID, s.senderSchedule.ScheduleDate, false)
	if err != nil {
		t.Fatalf("find receiver schedule: %v", err)
	}
	back, err := f.swaps.CreateSwapRequest(f.ctx, s.receiver.ID, s.sender.ID, receiverNow.ID)
	if err != nil {
		t.Fatalf("reverse request: %v", err)
	}
	if _, err := f.swaps.RespondToSwapRequest(f.ctx, back.ID, s.sender.ID, model.SwapActionAccept); err != nil {
		t.Fatalf("reverse accept: %v", err)
	}

	for _, want := range []*model.RosterUserSchedule{s.senderSchedule, s.receiverSchedule} {
		got, err := f.store.Schedules.FindActiveForUserOnDate(f.ctx, want.UserID, want.ScheduleDate, false)
		if err != nil {
			t.Fatalf("find schedule: %v", err)
		}
		if !got.StartTime.Equal(want.StartTime) || !got.EndTime.Equal(want.EndTime) {
			t.Fatalf("round trip must restore times: got %v-%v want %v-%v", got.StartTime, got.EndTime, want.StartTime, want.EndTime)
		}
	}
}

func TestRejectSwapKeepsSchedules(t *testing.T) {
	f := newFixture(t)
	s := newSwapSetup(f)

	req, err := f.swaps.CreateSwapRequest(f.ctx, s.sender.ID, s.receiver.ID, s.senderSchedule.ID)
	if err != nil {
		t.Fatalf("CreateSwapRequest: %v", err)
	}

	// отклонить можно и внутри окна заморозки
	f.now = s.senderSchedule.StartTime.Add(-10 * time.Minute)
	got, err := f.swaps.RespondToSwapRequest(f.ctx, req.ID, s.receiver.ID, model.SwapActionReject)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if got.Status != model.SwapStatusRejected {
		t.Fatalf("unexpected status %s", got.Status)
	}

	for _, want := range []*model.RosterUserSchedule{s.senderSchedule, s.receiverSchedule} {
		if _, err := f.store.Schedules.GetActiveByID(f.ctx, want.ID); err != nil {
			t.Fatalf("rejection must not alter schedules: %v", err)
		}
	}

	page, err := f.swaps.ListPendingSwapRequests(f.ctx, s.receiver.ID, 1, 10)
	if err != nil || page.Total != 0 {
		t.Fatalf("rejected request must leave the pending list: %v %+v", err, page)
	}
}

func TestAcceptSwapInsideLockWindow(t *testing.T) {
	f := newFixture(t)
	s := newSwapSetup(f)

	req, err := f.swaps.CreateSwapRequest(f.ctx, s.sender.ID, s.receiver.ID, s.senderSchedule.ID)
	if err != nil {
		t.Fatalf("CreateSwapRequest: %v", err)
	}

	f.now = s.senderSchedule.StartTime.Add(-30 * time.Minute)
	if _, err := f.swaps.RespondToSwapRequest(f.ctx, req.ID, s.receiver.ID, model.SwapActionAccept); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected lock window validation error, got %v", err)
	}

	page, err := f.swaps.ListPendingSwapRequests(f.ctx, s.receiver.ID, 1, 10)
	if err != nil || page.Total != 1 {
		t.Fatalf("request must stay pending: %v %+v", err, page)
	}
}

func TestAcceptSwapRollsBackOnInvariantFailure(t *testing.T) {
	f := newFixture(t)
	s := newSwapSetup(f)

	req, err := f.swaps.CreateSwapRequest(f.ctx, s.sender.ID, s.receiver.ID, s.senderSchedule.ID)
	if err != nil {
		t.Fatalf("CreateSwapRequest: %v", err)
	}

	// новые смены не пройдут проверку роли: отправитель больше не STAFF
	if err := f.identity.RevokeRole(f.ctx, s.sender.ID, model.RoleStaff, nil); err != nil {
		t.Fatalf("RevokeRole: %v", err)
	}

	_, err = f.swaps.RespondToSwapRequest(f.ctx, req.ID, s.receiver.ID, model.SwapActionAccept)
	if !errors.Is(err, apperr.ErrRole) {
		t.Fatalf("expected role error from re-validation, got %v", err)
	}

	for _, want := range []*model.RosterUserSchedule{s.senderSchedule, s.receiverSchedule} {
		if _, err := f.store.Schedules.GetActiveByID(f.ctx, want.ID); err != nil {
			t.Fatalf("originals must stay active after rollback: %v", err)
		}
	}
	page, err := f.swaps.ListPendingSwapRequests(f.ctx, s.receiver.ID, 1, 10)
	if err != nil || page.Total != 1 || page.Items[0].Status != model.SwapStatusPending {
		t.Fatalf("request must stay pending after rollback: %v %+v", err, page)
	}
}

func TestAcceptSwapWithoutReceiverSchedule(t *testing.T) {
	f := newFixture(t)
	s := newSwapSetup(f)

	req, err := f.swaps.CreateSwapRequest(f.ctx, s.sender.ID, s.receiver.ID, s.senderSchedule.ID)
	if err != nil {
		t.Fatalf("CreateSwapRequest: %v", err)
	}
	if _, err := f.store.Schedules.SoftDeleteMany(f.ctx, []uuid.UUID{s.receiverSchedule.ID}, nil, f.now); err != nil {
		t.Fatalf("SoftDeleteMany: %v", err)
	}

	_, err = f.swaps.RespondToSwapRequest(f.ctx, req.ID, s.receiver.ID, model.SwapActionAccept)
	if !errors.Is(err, apperr.ErrInconsistentState) {
		t.Fatalf("expected inconsistent state, got %v", err)
	}
	if _, err := f.store.Schedules.GetActiveByID(f.ctx, s.senderSchedule.ID); err != nil {
		t.Fatalf("sender schedule must survive: %v", err)
	}
}

func TestAcceptSwapAcrossRosters(t *testing.T) {
	f := newFixture(t)
	r1 := f.roster(true)
	r2 := f.roster(true)
	sender := f.user("sender@example.com", model.RoleStaff)
	receiver := f.user("receiver@example.com", model.RoleStaff)
	senderSchedule := f.schedule(r1.ID, entry(sender.ID, 9, 8))
	receiverSchedule := f.schedule(r2.ID, entry(receiver.ID, 6, 8))

	req, err := f.swaps.CreateSwapRequest(f.ctx, sender.ID, receiver.ID, senderSchedule.ID)
	if err != nil {
		t.Fatalf("CreateSwapRequest: %v", err)
	}
	if _, err := f.swaps.RespondToSwapRequest(f.ctx, req.ID, receiver.ID, model.SwapActionAccept); err != nil {
		t.Fatalf("accept: %v", err)
	}

	// каждая новая строка остаётся в ростере заменённой
	inR1 := f.activeSchedules(r1.ID)
	inR2 := f.activeSchedules(r2.ID)
	if len(inR1) != 1 || inR1[0].UserID != receiver.ID || !inR1[0].StartTime.Equal(senderSchedule.StartTime) {
		t.Fatalf("unexpected roster 1 schedules: %+v", inR1)
	}
	if len(inR2) != 1 || inR2[0].UserID != sender.ID || !inR2[0].StartTime.Equal(receiverSchedule.StartTime) {
		t.Fatalf("unexpected roster 2 schedules: %+v", inR2)
	}
}
