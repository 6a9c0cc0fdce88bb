package service

import (
	"context"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/google/uuid"
)

// UserDirectory: сервис профилей: роль, часовой пояс, чат в Telegram.
// GetByID возвращает nil, nil, если пользователя нет.
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// CourseCatalog: каталог курсов: длительность занятия, активность, число уроков
type CourseCatalog interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Course, error)
}

// EnrollmentStore: записи на курсы. Активная запись означает оплаченный доступ.
type EnrollmentStore interface {
	Get(ctx context.Context, studentID, courseID uuid.UUID) (*model.Enrollment, error)
	RecordLesson(ctx context.Context, studentID, courseID uuid.UUID, lessonKey string, totalLessons int) (*model.Enrollment, error)
}

// Notifier получает события сессий. Ошибка доставки не откатывает переход.
type Notifier interface {
	Notify(ctx context.Context, session *model.Session, kind model.EventKind) error
}
