package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/rollcall/internal/apperr"
)

// MinScheduleDuration — минимальная длительность смены.
const MinScheduleDuration = 6 * time.Hour

// roster_user_schedules — смена сотрудника в ростере на конкретную дату.
// На (roster, user, schedule_date) допускается не более одной активной строки.
type RosterUserSchedule struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	UserID   uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_schedules_active_day,where:date_deleted IS NULL"`
	RosterID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_schedules_active_day,where:date_deleted IS NULL"`

	// чистая дата без времени
	ScheduleDate datatypes.Date `gorm:"not null;index;uniqueIndex:idx_schedules_active_day,where:date_deleted IS NULL"`

	StartTime time.Time `gorm:"not null"`
	EndTime   time.Time `gorm:"not null"`

	Audit

	User   *User   `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Roster *Roster `gorm:"foreignKey:RosterID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (s *RosterUserSchedule) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// Date возвращает schedule_date как time.Time (полночь UTC).
func (s *RosterUserSchedule) Date() time.Time {
	return time.Time(s.ScheduleDate)
}

// Validate проверяет поля времени смены. Роль и активность ростера
// проверяются в rules, им нужны данные из хранилища.
func (s *RosterUserSchedule) Validate() error {
	if !s.EndTime.After(s.StartTime) {
		return apperr.Validation("End time must be greater than start time")
	}
	if !SameDate(s.Date(), s.StartTime) {
		return apperr.Validation("Schedule date and start time date should be same")
	}
	if s.EndTime.Sub(s.StartTime) < MinScheduleDuration {
		return apperr.Validation("A schedule must be at least 6 hours long.")
	}
	return nil
}

// DateOf возвращает календарную дату момента t в UTC.
func DateOf(t time.Time) datatypes.Date {
	y, m, d := t.UTC().Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// SameDate сравнивает календарные даты в UTC.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// FormatDate печатает дату в виде 2006-01-02.
func FormatDate(d datatypes.Date) string {
	return time.Time(d).UTC().Format(time.DateOnly)
}
