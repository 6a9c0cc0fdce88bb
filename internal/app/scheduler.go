package app

import (
	"context"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/Freeeeeet/lesson_scheduler/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReminderSource: операции SessionService, нужные планировщику напоминаний
type ReminderSource interface {
	DueReminders(ctx context.Context, window time.Duration) ([]*model.Session, error)
	MarkReminderSent(ctx context.Context, sessionID uuid.UUID) error
}

// ReminderScheduler управляет фоновой рассылкой напоминаний
type ReminderScheduler struct {
	sessions ReminderSource
	notifier service.Notifier
	window   time.Duration
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
}

// NewReminderScheduler создаёт новый планировщик
func NewReminderScheduler(sessions ReminderSource, notifier service.Notifier, window, interval time.Duration, logger *zap.Logger) *ReminderScheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ReminderScheduler{
		sessions: sessions,
		notifier: notifier,
		window:   window,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Stop останавливает фоновую задачу
func (s *ReminderScheduler) Stop() {
	s.logger.Info("Stopping reminder scheduler")
	close(s.stopChan)
}

// Run периодически рассылает напоминания до остановки или отмены ctx
func (s *ReminderScheduler) Run(ctx context.Context) error {
	// Первый запуск сразу при старте
	s.SendDue(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.SendDue(ctx)
		case <-s.stopChan:
			s.logger.Info("Reminder task stopped")
			return nil
		case <-ctx.Done():
			s.logger.Info("Reminder task cancelled")
			return nil
		}
	}
}

// SendDue отправляет напоминания по всем подошедшим сессиям и возвращает
// число подтверждённых. Флаг ставится только после успешной отправки,
// неудачные повторяются на следующем тике.
func (s *ReminderScheduler) SendDue(ctx context.Context) int {
	due, err := s.sessions.DueReminders(ctx, s.window)
	if err != nil {
		s.logger.Error("Failed to load due reminders", zap.Error(err))
		return 0
	}
	if len(due) == 0 {
		return 0
	}

	sent := 0
	for _, session := range due {
		if ctx.Err() != nil {
			break
		}

		if err := s.notifier.Notify(ctx, session, model.EventReminder); err != nil {
			s.logger.Warn("Failed to send reminder, will retry",
				zap.String("session_id", session.ID.String()),
				zap.Error(err),
			)
			continue
		}

		if err := s.sessions.MarkReminderSent(ctx, session.ID); err != nil {
			s.logger.Error("Failed to mark reminder sent",
				zap.String("session_id", session.ID.String()),
				zap.Error(err),
			)
			continue
		}
		sent++
	}

	s.logger.Info("Reminders processed",
		zap.Int("due", len(due)),
		zap.Int("sent", sent),
	)
	return sent
}
