package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ограничения на снимок при отметке.
const (
	MaxAttendanceImageMB = 10
)

// AttendanceImageExtensions — допустимые расширения снимка.
var AttendanceImageExtensions = []string{"jpeg", "jpg", "png"}

// attendances — отметка о приходе, строго одна на смену.
type Attendance struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	RosterUserScheduleID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`

	// Ссылка на файл во внешнем хранилище.
	CaptureImage string `gorm:"type:varchar(512)"`

	Time time.Time `gorm:"not null"`

	Audit

	RosterUserSchedule *RosterUserSchedule `gorm:"foreignKey:RosterUserScheduleID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (a *Attendance) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
