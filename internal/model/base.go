package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LifecycleState — состояние записи: активна или мягко удалена.
type LifecycleState int

const (
	StateActive LifecycleState = iota
	StateDeleted
)

func (s LifecycleState) String() string {
	if s == StateDeleted {
		return "deleted"
	}
	return "active"
}

// Lifecycle явно описывает мягкое удаление.
type Lifecycle struct {
	State     LifecycleState
	DeletedAt time.Time // нулевое значение для активных записей
}

// Audit — общие поля аудита для всех сущностей.
// date_deleted = NULL означает активную запись.
type Audit struct {
	DateCreated time.Time  `gorm:"column:date_created;autoCreateTime;not null"`
	DateUpdated time.Time  `gorm:"column:date_updated;autoUpdateTime;not null"`
	DateDeleted *time.Time `gorm:"column:date_deleted;index"`
	CreatedByID *uuid.UUID `gorm:"column:created_by;type:uuid"`
	UpdatedByID *uuid.UUID `gorm:"column:updated_by;type:uuid"`
}

func (a Audit) Lifecycle() Lifecycle {
	if a.DateDeleted == nil {
		return Lifecycle{State: StateActive}
	}
	return Lifecycle{State: StateDeleted, DeletedAt: *a.DateDeleted}
}

// Deleted сообщает, удалена ли запись мягко.
func (a Audit) Deleted() bool {
	return a.Lifecycle().State == StateDeleted
}

// MarkDeleted переводит запись в состояние Deleted.
func (a *Audit) MarkDeleted(at time.Time, by *uuid.UUID) {
	at = at.UTC()
	a.DateDeleted = &at
	a.UpdatedByID = by
}

// ActiveScope фильтрует только активные записи таблицы table.
func ActiveScope(table string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(table + ".date_deleted IS NULL")
	}
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
