package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/rollcall/internal/apperr"
)

// Статус заявки на обмен сменами. PENDING — начальный, остальные терминальные.
type SwapStatus int16

const (
	SwapStatusPending  SwapStatus = 1
	SwapStatusAccepted SwapStatus = 2
	SwapStatusRejected SwapStatus = 3
)

func (s SwapStatus) String() string {
	switch s {
	case SwapStatusPending:
		return "PENDING"
	case SwapStatusAccepted:
		return "ACCEPTED"
	case SwapStatusRejected:
		return "REJECTED"
	default:
		return fmt.Sprintf("SwapStatus(%d)", int16(s))
	}
}

func (s SwapStatus) Terminal() bool {
	return s == SwapStatusAccepted || s == SwapStatusRejected
}

// CanTransition проверяет переход конечного автомата заявки.
func (s SwapStatus) CanTransition(to SwapStatus) bool {
	return s == SwapStatusPending && to.Terminal()
}

// SwapAction — ответ получателя на заявку.
type SwapAction string

const (
	SwapActionAccept SwapAction = "ACCEPT"
	SwapActionReject SwapAction = "REJECT"
)

// ParseSwapAction принимает как ACCEPT/REJECT, так и ACCEPTED/REJECTED.
func ParseSwapAction(v string) (SwapAction, error) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "ACCEPT", "ACCEPTED":
		return SwapActionAccept, nil
	case "REJECT", "REJECTED":
		return SwapActionReject, nil
	}
	return "", apperr.Validation("Action must be one of ACCEPTED, REJECTED.")
}

func (a SwapAction) TargetStatus() SwapStatus {
	if a == SwapActionAccept {
		return SwapStatusAccepted
	}
	return SwapStatusRejected
}

// schedule_swap_requests
type ScheduleSwapRequest struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	SenderID         uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_swap_requests_active,where:date_deleted IS NULL"`
	ReceiverID       uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_swap_requests_active,where:date_deleted IS NULL"`
	SenderScheduleID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_swap_requests_active,where:date_deleted IS NULL"`
	Status           SwapStatus `gorm:"type:smallint;not null;default:1;index"`

	Audit

	Sender         *User               `gorm:"foreignKey:SenderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Receiver       *User               `gorm:"foreignKey:ReceiverID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	SenderSchedule *RosterUserSchedule `gorm:"foreignKey:SenderScheduleID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (r *ScheduleSwapRequest) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// Validate проверяет поля без обращения к хранилищу.
func (r *ScheduleSwapRequest) Validate() error {
	if r.SenderID == r.ReceiverID {
		return apperr.Validation("Sender and receiver cannot be same")
	}
	switch r.Status {
	case SwapStatusPending, SwapStatusAccepted, SwapStatusRejected:
	default:
		return apperr.Validation("Unknown swap request status %d", int16(r.Status))
	}
	return nil
}
