package apperrors

import (
	"errors"

	"github.com/google/uuid"
)

// Базовые ошибки планировщика. Проверяются через errors.Is.
var (
	ErrInvalidInterval  = errors.New("invalid interval")
	ErrSlotUnavailable  = errors.New("slot unavailable")
	ErrInvalidState     = errors.New("invalid state")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
)

// Error несёт вид ошибки (одна из базовых) и сообщение для пользователя
type Error struct {
	Kind    error
	Message string

	// ConflictingID заполняется только для ErrSlotUnavailable,
	// если пересечение найдено с конкретной сессией
	ConflictingID uuid.UUID
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Kind != nil {
		return e.Kind.Error()
	}
	return "unknown error"
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// InvalidInterval: некорректный интервал или интервал через полночь
func InvalidInterval(message string) error {
	return &Error{Kind: ErrInvalidInterval, Message: message}
}

// SlotUnavailable: интервал пересекается с существующей сессией или вне окна доступности
func SlotUnavailable(message string, conflictingID uuid.UUID) error {
	return &Error{Kind: ErrSlotUnavailable, Message: message, ConflictingID: conflictingID}
}

// InvalidState: переход из терминального или недопустимого статуса
func InvalidState(message string) error {
	return &Error{Kind: ErrInvalidState, Message: message}
}

// PermissionDenied: у актора нет прав на переход
func PermissionDenied(message string) error {
	return &Error{Kind: ErrPermissionDenied, Message: message}
}

// NotFound: учитель, курс или сессия не найдены
func NotFound(message string) error {
	return &Error{Kind: ErrNotFound, Message: message}
}

// Validation: некорректные входные данные (рейтинг, длительность и т.п.)
func Validation(message string) error {
	return &Error{Kind: ErrValidation, Message: message}
}

// ConflictingSession достаёт id конфликтующей сессии из цепочки ошибок
func ConflictingSession(err error) (uuid.UUID, bool) {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.ConflictingID != uuid.Nil {
		return appErr.ConflictingID, true
	}
	return uuid.Nil, false
}
