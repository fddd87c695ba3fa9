package rules

import (
	"time"

	"github.com/Leganyst/rollcall/internal/apperr"
	"github.com/Leganyst/rollcall/internal/model"
)

// SwapLockWindow — за сколько до начала смены заявки замораживаются.
const SwapLockWindow = time.Hour

// SwapFacts — данные хранилища, нужные для проверки заявки на обмен.
type SwapFacts struct {
	Now               time.Time
	SenderSchedule    *model.RosterUserSchedule
	ReciprocalPending bool // получатель уже отправил отправителю заявку на ту же дату
	ReceiverScheduled bool // у получателя есть активная смена на ту же дату
}

// ValidateSwapRequest проверяет создание заявки, инварианты идут в фиксированном
// порядке. Ответ на заявку проверяет ValidateSwapTransition, дубликат тройки
// (sender, receiver, schedule) проверяет сервис.
func ValidateSwapRequest(r *model.ScheduleSwapRequest, f SwapFacts) error {
	s := f.SenderSchedule
	if s == nil {
		return apperr.NotFound("No schedule found for given data")
	}
	if f.ReciprocalPending {
		return apperr.Validation("Already received a request from receiver to swap given date schedule")
	}
	if s.Deleted() {
		return apperr.Validation("Cannot create a swap request for inactive schedule.")
	}
	if s.UserID != r.SenderID {
		return apperr.Validation("Sender and sender schedule should be same")
	}
	if err := r.Validate(); err != nil {
		return err
	}
	if SwapLocked(s.StartTime, f.Now) {
		return apperr.Validation("Cannot create/update swap request an hour before schedule start time")
	}
	if !f.ReceiverScheduled {
		return apperr.Validation("Receiver does not have any active schedule for the date %s", model.FormatDate(s.ScheduleDate))
	}
	if r.Status != model.SwapStatusPending {
		return apperr.Validation("Swap request can only be created with pending status")
	}
	return nil
}

// ValidateSwapTransition проверяет ответ получателя на заявку.
// Отклонить можно всегда, принять можно не позже чем за час до начала смены.
func ValidateSwapTransition(from, to model.SwapStatus, scheduleStart, now time.Time) error {
	if !from.CanTransition(to) {
		return apperr.Validation("Swap request cannot move from %s to %s", from, to)
	}
	if to != model.SwapStatusRejected && SwapLocked(scheduleStart, now) {
		return apperr.Validation("Cannot create/update swap request an hour before schedule start time")
	}
	return nil
}

// SwapLocked сообщает, наступило ли окно заморозки: start - 1h <= now.
func SwapLocked(scheduleStart, now time.Time) bool {
	return !scheduleStart.Add(-SwapLockWindow).After(now)
}
