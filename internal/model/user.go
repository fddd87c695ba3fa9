package model

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/rollcall/internal/apperr"
)

// users
type User struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	Email        string `gorm:"type:varchar(256);not null;uniqueIndex"`
	FirstName    string `gorm:"type:varchar(256);not null"`
	LastName     string `gorm:"type:varchar(256)"`
	PasswordHash string `gorm:"type:varchar(255);not null"`

	Audit
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

func (u *User) FullName() string {
	return strings.TrimRight(strings.TrimSpace(u.FirstName)+" "+strings.TrimSpace(u.LastName), " ")
}

func (u *User) Validate() error {
	if strings.TrimSpace(u.Email) == "" || !strings.Contains(u.Email, "@") {
		return apperr.Validation("Enter a valid email address.")
	}
	if len(u.Email) > 256 {
		return apperr.Validation("Email must be at most 256 characters.")
	}
	if strings.TrimSpace(u.FirstName) == "" {
		return apperr.Validation("First name is required.")
	}
	return nil
}
