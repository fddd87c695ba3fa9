// Package apperr описывает таксономию ошибок доменного ядра.
package apperr

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Виды ошибок. Конкретные ошибки сравниваются с ними через errors.Is.
var (
	ErrValidation        = errors.New("validation error")
	ErrRole              = errors.New("role error")
	ErrDuplicate         = errors.New("duplicate error")
	ErrNotFound          = errors.New("not found")
	ErrInconsistentState = errors.New("inconsistent state")
	ErrNoOp              = errors.New("no-op")
	ErrUnauthenticated   = errors.New("unauthenticated")
)

// Error — ошибка ядра с сообщением, пригодным для показа пользователю.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error { return newError(ErrValidation, format, args...) }

func Role(format string, args ...any) error { return newError(ErrRole, format, args...) }

func Duplicate(format string, args ...any) error { return newError(ErrDuplicate, format, args...) }

func NotFound(format string, args ...any) error { return newError(ErrNotFound, format, args...) }

func NoOp(format string, args ...any) error { return newError(ErrNoOp, format, args...) }

func Unauthenticated(format string, args ...any) error {
	return newError(ErrUnauthenticated, format, args...)
}

func InconsistentState(format string, args ...any) error {
	return newError(ErrInconsistentState, format, args...)
}

// FromStorage переводит ошибки GORM в доменные виды. Остальные ошибки
// оборачиваются с контекстом op.
func FromStorage(err error, op, notFoundMsg, duplicateMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound("%s", notFoundMsg)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return Duplicate("%s", duplicateMsg)
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Kind возвращает стабильную метку вида ошибки для логов и метрик.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrRole):
		return "role"
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInconsistentState):
		return "inconsistent_state"
	case errors.Is(err, ErrNoOp):
		return "no_op"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	default:
		return "unexpected"
	}
}

// PublicMessage возвращает текст для клиента. Для несогласованного состояния
// и непредвиденных ошибок детали не раскрываются.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	switch Kind(err) {
	case "inconsistent_state":
		return "The request could not be completed because the data changed concurrently. Please retry."
	case "unexpected":
		return "Internal server error."
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
