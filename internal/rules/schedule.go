package rules

import (
	"github.com/Leganyst/rollcall/internal/apperr"
	"github.com/Leganyst/rollcall/internal/model"
)

// ScheduleFacts — данные хранилища, нужные для проверки смены.
type ScheduleFacts struct {
	Roster      *model.Roster
	UserIsStaff bool
}

// ValidateSchedule проверяет смену целиком: роль сотрудника, активность
// ростера и временные поля.
func ValidateSchedule(s *model.RosterUserSchedule, f ScheduleFacts) error {
	if !f.UserIsStaff {
		return apperr.Role("Schedule can be added for users with staff role only.")
	}
	if err := ValidateRosterAcceptsSchedules(f.Roster); err != nil {
		return err
	}
	return s.Validate()
}

// ValidateRosterAcceptsSchedules требует существующий активный ростер.
func ValidateRosterAcceptsSchedules(r *model.Roster) error {
	if r == nil || !r.IsActive || r.Deleted() {
		return apperr.Validation("Cannot add roster user schedule for an inactive roster.")
	}
	return nil
}

// ValidateBatchStaff сравнивает число различных пользователей пакета с числом
// активных STAFF среди них, полученным одним запросом.
func ValidateBatchStaff(distinctUsers int, staffCount int64) error {
	if int64(distinctUsers) != staffCount {
		return apperr.Role("All users must be staff members")
	}
	return nil
}

// ValidateManagerRole: менеджером ростера может быть только MANAGER.
func ValidateManagerRole(isManager bool) error {
	if !isManager {
		return apperr.Role("Only users with managers role can be added as a roster manager")
	}
	return nil
}
