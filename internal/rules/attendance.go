package rules

import (
	"time"

	"github.com/Leganyst/rollcall/internal/apperr"
	"github.com/Leganyst/rollcall/internal/calendar"
	"github.com/Leganyst/rollcall/internal/model"
)

// AttendanceWindow — допуск отметки относительно начала смены.
const AttendanceWindow = time.Hour

// ValidateAttendance проверяет отметку против смены, к которой она привязана.
func ValidateAttendance(at time.Time, s *model.RosterUserSchedule) error {
	if s == nil || s.Deleted() {
		return apperr.NotFound("No Schedule found for given schedule id")
	}
	if !calendar.Around(s.StartTime, AttendanceWindow).Contains(at) {
		return apperr.Validation("Attendance can only be marked within one hour of the schedule start time.")
	}
	return nil
}
