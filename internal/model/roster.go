package model

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/rollcall/internal/apperr"
)

const maxRosterTitleLen = 256

// rosters — группа смен одной команды.
type Roster struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	Title    string `gorm:"type:varchar(256);not null"`
	IsActive bool   `gorm:"not null;default:false;index"`

	Audit
}

func (r *Roster) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

func (r *Roster) Validate() error {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return apperr.Validation("Roster title is required.")
	}
	if utf8.RuneCountInString(title) > maxRosterTitleLen {
		return apperr.Validation("Roster title must be at most %d characters.", maxRosterTitleLen)
	}
	return nil
}

// roster_managers — менеджеры ростера. Уникальна активная пара (roster, manager).
type RosterManager struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	RosterID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_roster_managers_active,where:date_deleted IS NULL"`
	ManagerID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_roster_managers_active,where:date_deleted IS NULL"`

	Audit

	Roster  *Roster `gorm:"foreignKey:RosterID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Manager *User   `gorm:"foreignKey:ManagerID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (rm *RosterManager) BeforeCreate(*gorm.DB) error {
	ensureID(&rm.ID)
	return nil
}
