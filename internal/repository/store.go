package repository

import (
	"context"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/google/uuid"
)

// SessionTx: операции над сессиями внутри сериализованной по учителю транзакции.
// Insert и Update возвращают apperrors.SlotUnavailable, если сработал
// уникальный индекс активных сессий.
type SessionTx interface {
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Session, error)
	ListActiveOnDate(ctx context.Context, teacherID uuid.UUID, date time.Time) ([]*model.Session, error)
	Insert(ctx context.Context, session *model.Session) error
	Update(ctx context.Context, session *model.Session) error
}

// SessionStore: хранилище сессий. InTeacherTx гарантирует, что проверка
// и запись для одного учителя не выполняются параллельно.
type SessionStore interface {
	InTeacherTx(ctx context.Context, teacherID uuid.UUID, fn func(ctx context.Context, tx SessionTx) error) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error)
	ListByTeacher(ctx context.Context, teacherID uuid.UUID, from, to time.Time) ([]*model.Session, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID, from, to time.Time) ([]*model.Session, error)
	ListPendingReminders(ctx context.Context, from, to time.Time) ([]*model.Session, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID) error
}

// AvailabilityStore: правила доступности учителей.
// Create возвращает apperrors.Validation при дубле окна (teacher, day_of_week, start, end).
type AvailabilityStore interface {
	Create(ctx context.Context, rule *model.AvailabilityRule) error
	Update(ctx context.Context, rule *model.AvailabilityRule) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.AvailabilityRule, error)
	ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*model.AvailabilityRule, error)
}
