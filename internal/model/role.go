package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role — роль пользователя. Значения совпадают с хранимыми в БД.
type Role int16

const (
	RoleStaff   Role = 1
	RoleManager Role = 2
)

func (r Role) String() string {
	switch r {
	case RoleStaff:
		return "STAFF"
	case RoleManager:
		return "MANAGER"
	default:
		return fmt.Sprintf("Role(%d)", int16(r))
	}
}

func (r Role) Valid() bool {
	return r == RoleStaff || r == RoleManager
}

// ParseRole разбирает код роли без учёта регистра.
func ParseRole(code string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "STAFF":
		return RoleStaff, nil
	case "MANAGER":
		return RoleManager, nil
	}
	return 0, fmt.Errorf("unknown role %q", code)
}

// user_roles — у пользователя может быть несколько ролей,
// но не более одной активной строки на пару (user, role).
type UserRole struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_roles_active,where:date_deleted IS NULL"`
	Role   Role      `gorm:"type:smallint;not null;uniqueIndex:idx_user_roles_active,where:date_deleted IS NULL"`
	Audit

	User *User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (ur *UserRole) BeforeCreate(*gorm.DB) error {
	ensureID(&ur.ID)
	return nil
}
