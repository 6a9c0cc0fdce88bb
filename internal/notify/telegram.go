// Package notify доставляет события сессий участникам: в Telegram или в лог.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/Freeeeeet/lesson_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// MessageSender: часть *bot.Bot, которая нужна для отправки
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TelegramNotifier отправляет уведомление обоим участникам сессии
type TelegramNotifier struct {
	sender  MessageSender
	users   service.UserDirectory
	courses service.CourseCatalog
	logger  *zap.Logger
}

func NewTelegramNotifier(sender MessageSender, users service.UserDirectory, courses service.CourseCatalog, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		sender:  sender,
		users:   users,
		courses: courses,
		logger:  logger,
	}
}

// Notify возвращает ошибку, если хотя бы одному участнику с привязанным
// чатом сообщение не ушло
func (n *TelegramNotifier) Notify(ctx context.Context, session *model.Session, kind model.EventKind) error {
	teacher, err := n.users.GetByID(ctx, session.TeacherID)
	if err != nil {
		return fmt.Errorf("get teacher: %w", err)
	}
	student, err := n.users.GetByID(ctx, session.StudentID)
	if err != nil {
		return fmt.Errorf("get student: %w", err)
	}
	if teacher == nil || student == nil {
		return fmt.Errorf("session %s participants not found", session.ID)
	}

	var title string
	course, err := n.courses.GetByID(ctx, session.CourseID)
	if err != nil {
		n.logger.Warn("Failed to load course for notification", zap.Error(err))
	} else if course != nil {
		title = course.Title
	}

	var errs []error
	for _, recipient := range []*model.User{teacher, student} {
		if recipient.TelegramID == 0 {
			n.logger.Debug("Recipient has no telegram chat, skipping",
				zap.String("user_id", recipient.ID.String()))
			continue
		}

		text := Render(Envelope{
			Session:     session,
			Kind:        kind,
			CourseTitle: title,
			Teacher:     teacher,
			Student:     student,
			Recipient:   recipient,
		})

		_, err := n.sender.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:    recipient.TelegramID,
			Text:      text,
			ParseMode: models.ParseModeHTML,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("send to %s: %w", recipient.ID, err))
			continue
		}

		n.logger.Info("Notification sent",
			zap.String("session_id", session.ID.String()),
			zap.String("event", string(kind)),
			zap.Int64("chat_id", recipient.TelegramID),
		)
	}

	return errors.Join(errs...)
}

// LogNotifier пишет события в лог; используется, когда бот не настроен
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, session *model.Session, kind model.EventKind) error {
	n.logger.Info("Session event",
		zap.String("event", string(kind)),
		zap.String("session_id", session.ID.String()),
		zap.String("teacher_id", session.TeacherID.String()),
		zap.String("student_id", session.StudentID.String()),
		zap.Stringer("interval", session.Interval()),
		zap.String("status", string(session.Status)),
	)
	return nil
}
