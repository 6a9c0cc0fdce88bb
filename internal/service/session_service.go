package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/apperrors"
	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/Freeeeeet/lesson_scheduler/internal/repository"
	"github.com/Freeeeeet/lesson_scheduler/internal/slots"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// окно входа в сессию относительно начала
	joinOpensBefore = 60 * time.Minute
	joinClosesAfter = 15 * time.Minute
)

// BookRequest: параметры бронирования
type BookRequest struct {
	CourseID  uuid.UUID
	TeacherID uuid.UUID
	StudentID uuid.UUID
	Date      time.Time
	StartTime model.Clock
	Platform  model.Platform
	Topic     string
	Notes     string
	CreatedBy uuid.UUID
}

// MeetingDetails: данные подключения, которые задаёт учитель
type MeetingDetails struct {
	Platform model.Platform
	Link     string
	ID       string
	Password string
	Topic    string
}

// SessionService: единственная точка изменения статуса сессии
type SessionService struct {
	sessions    repository.SessionStore
	rules       repository.AvailabilityStore
	users       UserDirectory
	courses     CourseCatalog
	enrollments EnrollmentStore
	notifier    Notifier
	logger      *zap.Logger
	now         func() time.Time
}

func NewSessionService(
	sessions repository.SessionStore,
	rules repository.AvailabilityStore,
	users UserDirectory,
	courses CourseCatalog,
	enrollments EnrollmentStore,
	notifier Notifier,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		sessions:    sessions,
		rules:       rules,
		users:       users,
		courses:     courses,
		enrollments: enrollments,
		notifier:    notifier,
		logger:      logger,
		now:         time.Now,
	}
}

// Book создаёт сессию в статусе scheduled, если интервал лежит в окне
// доступности учителя и не пересекается с его активными сессиями
func (s *SessionService) Book(ctx context.Context, req BookRequest) (*model.Session, error) {
	// Курс
	course, err := s.courses.GetByID(ctx, req.CourseID)
	if err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}
	if course == nil {
		return nil, apperrors.NotFound("course not found")
	}
	if !course.IsActive {
		return nil, apperrors.InvalidState("course is not active")
	}

	// Участники
	teacher, err := s.getTeacher(ctx, req.TeacherID)
	if err != nil {
		return nil, err
	}
	student, err := s.users.GetByID(ctx, req.StudentID)
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	if student == nil {
		return nil, apperrors.NotFound("student not found")
	}
	if req.TeacherID == req.StudentID {
		return nil, apperrors.Validation("teacher and student must be different users")
	}

	createdBy := req.CreatedBy
	if createdBy == uuid.Nil {
		createdBy = req.StudentID
	}
	if createdBy != req.StudentID && createdBy != req.TeacherID {
		return nil, apperrors.PermissionDenied("only the teacher or the student can book a session")
	}

	// Проверяем что курс оплачен
	enrollment, err := s.enrollments.Get(ctx, req.StudentID, req.CourseID)
	if err != nil {
		return nil, fmt.Errorf("get enrollment: %w", err)
	}
	if enrollment == nil || enrollment.Status != model.EnrollmentStatusActive {
		return nil, apperrors.PermissionDenied("student has no active enrollment for the course")
	}

	platform := req.Platform
	if platform == "" {
		platform = model.PlatformZoom
	}
	if !platform.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("unsupported platform %q", platform))
	}

	duration := course.SessionDurationMinutes
	if duration == 0 {
		duration = model.DefaultSlotMinutes
	}
	if duration < model.MinSessionMinutes || duration > model.MaxSessionMinutes {
		return nil, apperrors.Validation(fmt.Sprintf("course session duration %d is out of range", duration))
	}

	interval, err := model.NewTimeSlot(req.Date, req.StartTime, duration)
	if err != nil {
		return nil, err
	}
	if err := s.ensureFuture(interval, teacher); err != nil {
		return nil, err
	}

	rules, err := s.rules.ListByTeacher(ctx, req.TeacherID)
	if err != nil {
		return nil, fmt.Errorf("list availability rules: %w", err)
	}

	session := &model.Session{
		ID:              uuid.New(),
		CourseID:        req.CourseID,
		TeacherID:       req.TeacherID,
		StudentID:       req.StudentID,
		Date:            interval.Date,
		StartTime:       interval.Start,
		EndTime:         interval.End,
		DurationMinutes: duration,
		Platform:        platform,
		Status:          model.SessionStatusScheduled,
		Topic:           req.Topic,
		StudentNotes:    req.Notes,
		CreatedBy:       createdBy,
	}

	err = s.sessions.InTeacherTx(ctx, req.TeacherID, func(ctx context.Context, tx repository.SessionTx) error {
		active, err := tx.ListActiveOnDate(ctx, req.TeacherID, interval.Date)
		if err != nil {
			return err
		}
		if err := checkSlot(interval, rules, active, uuid.Nil); err != nil {
			return err
		}
		return tx.Insert(ctx, session)
	})
	if err != nil {
		return nil, fmt.Errorf("book session: %w", err)
	}

	s.logger.Info("Session booked",
		zap.String("session_id", session.ID.String()),
		zap.String("teacher_id", session.TeacherID.String()),
		zap.String("student_id", session.StudentID.String()),
		zap.Stringer("interval", interval),
	)

	s.notify(ctx, session, model.EventBooked)

	return session, nil
}

// Reschedule переносит сессию на новую дату/время той же длительности.
// Сессия остаётся той же записью, статус сбрасывается в scheduled.
func (s *SessionService) Reschedule(ctx context.Context, sessionID, actorID uuid.UUID, newDate time.Time, newStart model.Clock, reason string, notifyOther bool) (*model.Session, error) {
	current, err := s.getParty(ctx, sessionID, actorID)
	if err != nil {
		return nil, err
	}
	if current.Status.IsTerminal() {
		return nil, apperrors.InvalidState(fmt.Sprintf("cannot reschedule a %s session", current.Status))
	}

	teacher, err := s.getTeacher(ctx, current.TeacherID)
	if err != nil {
		return nil, err
	}

	interval, err := model.NewTimeSlot(newDate, newStart, current.DurationMinutes)
	if err != nil {
		return nil, err
	}
	if err := s.ensureFuture(interval, teacher); err != nil {
		return nil, err
	}

	rules, err := s.rules.ListByTeacher(ctx, current.TeacherID)
	if err != nil {
		return nil, fmt.Errorf("list availability rules: %w", err)
	}

	var result *model.Session
	err = s.sessions.InTeacherTx(ctx, current.TeacherID, func(ctx context.Context, tx repository.SessionTx) error {
		session, err := tx.GetForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		if session == nil {
			return apperrors.NotFound("session not found")
		}
		if session.Status.IsTerminal() {
			return apperrors.InvalidState(fmt.Sprintf("cannot reschedule a %s session", session.Status))
		}

		active, err := tx.ListActiveOnDate(ctx, session.TeacherID, interval.Date)
		if err != nil {
			return err
		}
		if err := checkSlot(interval, rules, active, session.ID); err != nil {
			return err
		}

		note := fmt.Sprintf("Rescheduled from %s %s. Reason: %s\n",
			session.Date.Format(model.DateLayout), session.StartTime, reason)
		if actorID == session.TeacherID {
			session.TeacherNotes = note + session.TeacherNotes
		} else {
			session.StudentNotes = note + session.StudentNotes
		}

		session.Date = interval.Date
		session.StartTime = interval.Start
		session.EndTime = interval.End
		session.Status = model.SessionStatusScheduled
		session.ReminderSent = false

		if err := tx.Update(ctx, session); err != nil {
			return err
		}
		result = session
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reschedule session: %w", err)
	}

	s.logger.Info("Session rescheduled",
		zap.String("session_id", sessionID.String()),
		zap.String("actor_id", actorID.String()),
		zap.Stringer("interval", interval),
	)

	if notifyOther {
		s.notify(ctx, result, model.EventRescheduled)
	}

	return result, nil
}

// Cancel отменяет сессию. Повторная отмена ничего не меняет и не считается ошибкой.
func (s *SessionService) Cancel(ctx context.Context, sessionID, actorID uuid.UUID) (*model.Session, error) {
	current, err := s.getParty(ctx, sessionID, actorID)
	if err != nil {
		return nil, err
	}

	var (
		result  *model.Session
		changed bool
	)
	err = s.sessions.InTeacherTx(ctx, current.TeacherID, func(ctx context.Context, tx repository.SessionTx) error {
		session, err := tx.GetForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		if session == nil {
			return apperrors.NotFound("session not found")
		}

		switch session.Status {
		case model.SessionStatusCancelled:
			result = session
			return nil
		case model.SessionStatusCompleted, model.SessionStatusNoShow:
			return apperrors.InvalidState(fmt.Sprintf("cannot cancel a %s session", session.Status))
		}

		session.Status = model.SessionStatusCancelled
		if err := tx.Update(ctx, session); err != nil {
			return err
		}
		result = session
		changed = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cancel session: %w", err)
	}

	if changed {
		s.logger.Info("Session cancelled",
			zap.String("session_id", sessionID.String()),
			zap.String("actor_id", actorID.String()),
		)
		s.notify(ctx, result, model.EventCancelled)
	}

	return result, nil
}

// Complete завершает сессию (только учитель) и засчитывает урок в прогресс студента
func (s *SessionService) Complete(ctx context.Context, sessionID, actorID uuid.UUID) (*model.Session, error) {
	current, err := s.getTeacherOwned(ctx, sessionID, actorID)
	if err != nil {
		return nil, err
	}

	result, err := s.transition(ctx, current.TeacherID, sessionID, func(session *model.Session) error {
		if !session.Status.BlocksSlot() {
			return apperrors.InvalidState(fmt.Sprintf("cannot complete a %s session", session.Status))
		}
		session.Status = model.SessionStatusCompleted
		session.AttendanceMarked = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}

	s.logger.Info("Session completed",
		zap.String("session_id", sessionID.String()),
		zap.String("student_id", result.StudentID.String()),
	)

	s.recordProgress(ctx, result)

	return result, nil
}

// MarkNoShow отмечает неявку студента (только учитель, только из scheduled)
func (s *SessionService) MarkNoShow(ctx context.Context, sessionID, actorID uuid.UUID) (*model.Session, error) {
	current, err := s.getTeacherOwned(ctx, sessionID, actorID)
	if err != nil {
		return nil, err
	}

	result, err := s.transition(ctx, current.TeacherID, sessionID, func(session *model.Session) error {
		if session.Status != model.SessionStatusScheduled {
			return apperrors.InvalidState(fmt.Sprintf("cannot mark a %s session as no-show", session.Status))
		}
		session.Status = model.SessionStatusNoShow
		session.AttendanceMarked = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("mark no-show: %w", err)
	}

	s.logger.Info("Session marked as no-show",
		zap.String("session_id", sessionID.String()),
		zap.String("student_id", result.StudentID.String()),
	)

	return result, nil
}

// Start: участник подключается к сессии в окне входа, сессия переходит в in_progress
func (s *SessionService) Start(ctx context.Context, sessionID, actorID uuid.UUID) (*model.Session, error) {
	current, err := s.getParty(ctx, sessionID, actorID)
	if err != nil {
		return nil, err
	}
	teacher, err := s.getTeacher(ctx, current.TeacherID)
	if err != nil {
		return nil, err
	}

	result, err := s.transition(ctx, current.TeacherID, sessionID, func(session *model.Session) error {
		if !session.Status.BlocksSlot() {
			return apperrors.InvalidState(fmt.Sprintf("cannot join a %s session", session.Status))
		}

		startsAt := session.StartsAt(teacher.Location())
		now := s.now()
		if now.Before(startsAt.Add(-joinOpensBefore)) || now.After(startsAt.Add(joinClosesAfter)) {
			return apperrors.InvalidState("session can be joined from 60 minutes before until 15 minutes after its start")
		}

		session.Status = model.SessionStatusInProgress
		if actorID == session.TeacherID {
			session.TeacherAttended = true
		} else {
			session.StudentAttended = true
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	s.logger.Info("Session joined",
		zap.String("session_id", sessionID.String()),
		zap.String("actor_id", actorID.String()),
	)

	return result, nil
}

// LeaveFeedback: оценка завершённой сессии студентом
func (s *SessionService) LeaveFeedback(ctx context.Context, sessionID, actorID uuid.UUID, rating int, comment string) (*model.Session, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.Validation("rating must be between 1 and 5")
	}

	current, err := s.getParty(ctx, sessionID, actorID)
	if err != nil {
		return nil, err
	}
	if actorID != current.StudentID {
		return nil, apperrors.PermissionDenied("only the student can leave feedback")
	}

	result, err := s.transition(ctx, current.TeacherID, sessionID, func(session *model.Session) error {
		if session.Status != model.SessionStatusCompleted {
			return apperrors.InvalidState("feedback is accepted only for completed sessions")
		}
		session.FeedbackRating = &rating
		session.FeedbackComment = comment
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("leave feedback: %w", err)
	}

	s.logger.Info("Feedback received",
		zap.String("session_id", sessionID.String()),
		zap.Int("rating", rating),
	)

	return result, nil
}

// UpdateMeeting меняет данные подключения (только учитель, только активная сессия)
func (s *SessionService) UpdateMeeting(ctx context.Context, sessionID, actorID uuid.UUID, details MeetingDetails) (*model.Session, error) {
	if details.Platform != "" && !details.Platform.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("unsupported platform %q", details.Platform))
	}

	current, err := s.getTeacherOwned(ctx, sessionID, actorID)
	if err != nil {
		return nil, err
	}

	result, err := s.transition(ctx, current.TeacherID, sessionID, func(session *model.Session) error {
		if session.Status.IsTerminal() {
			return apperrors.InvalidState(fmt.Sprintf("cannot change meeting of a %s session", session.Status))
		}
		if details.Platform != "" {
			session.Platform = details.Platform
		}
		session.MeetingLink = details.Link
		session.MeetingID = details.ID
		session.MeetingPassword = details.Password
		if details.Topic != "" {
			session.Topic = details.Topic
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update meeting: %w", err)
	}

	return result, nil
}

// MarkReminderSent вызывается после подтверждённой доставки напоминания
func (s *SessionService) MarkReminderSent(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.sessions.MarkReminderSent(ctx, sessionID); err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	return nil
}

// DueReminders: запланированные сессии без напоминания, начинающиеся в ближайшие window
func (s *SessionService) DueReminders(ctx context.Context, window time.Duration) ([]*model.Session, error) {
	now := s.now()

	// запас в сутки покрывает разницу часовых поясов учителей
	candidates, err := s.sessions.ListPendingReminders(ctx, now.AddDate(0, 0, -1), now.Add(window).AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("list pending reminders: %w", err)
	}

	locations := make(map[uuid.UUID]*time.Location)
	var due []*model.Session
	for _, session := range candidates {
		loc, ok := locations[session.TeacherID]
		if !ok {
			teacher, err := s.users.GetByID(ctx, session.TeacherID)
			if err != nil {
				return nil, fmt.Errorf("get teacher: %w", err)
			}
			loc = teacher.Location()
			locations[session.TeacherID] = loc
		}

		startsAt := session.StartsAt(loc)
		if startsAt.After(now) && !startsAt.After(now.Add(window)) {
			due = append(due, session)
		}
	}

	return due, nil
}

// Get возвращает сессию участнику
func (s *SessionService) Get(ctx context.Context, sessionID, actorID uuid.UUID) (*model.Session, error) {
	return s.getParty(ctx, sessionID, actorID)
}

// ListForUser: сессии пользователя за период: как учителя или как студента
func (s *SessionService) ListForUser(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*model.Session, error) {
	if to.Before(from) {
		return nil, apperrors.Validation("period end is before period start")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, apperrors.NotFound("user not found")
	}

	if user.IsTeacher {
		return s.sessions.ListByTeacher(ctx, userID, from, to)
	}
	return s.sessions.ListByStudent(ctx, userID, from, to)
}

// transition загружает сессию под блокировкой учителя, применяет mutate и сохраняет
func (s *SessionService) transition(ctx context.Context, teacherID, sessionID uuid.UUID, mutate func(*model.Session) error) (*model.Session, error) {
	var result *model.Session
	err := s.sessions.InTeacherTx(ctx, teacherID, func(ctx context.Context, tx repository.SessionTx) error {
		session, err := tx.GetForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		if session == nil {
			return apperrors.NotFound("session not found")
		}
		if err := mutate(session); err != nil {
			return err
		}
		if err := tx.Update(ctx, session); err != nil {
			return err
		}
		result = session
		return nil
	})
	return result, err
}

func (s *SessionService) getSession(ctx context.Context, sessionID uuid.UUID) (*model.Session, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return nil, apperrors.NotFound("session not found")
	}
	return session, nil
}

// getParty: сессия, если актор её учитель или студент
func (s *SessionService) getParty(ctx context.Context, sessionID, actorID uuid.UUID) (*model.Session, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsParty(actorID) {
		return nil, apperrors.PermissionDenied("only the teacher or the student of the session can do this")
	}
	return session, nil
}

// getTeacherOwned: сессия, если актор её учитель
func (s *SessionService) getTeacherOwned(ctx context.Context, sessionID, actorID uuid.UUID) (*model.Session, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.TeacherID != actorID {
		return nil, apperrors.PermissionDenied("only the teacher of the session can do this")
	}
	return session, nil
}

func (s *SessionService) getTeacher(ctx context.Context, teacherID uuid.UUID) (*model.User, error) {
	teacher, err := s.users.GetByID(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("get teacher: %w", err)
	}
	if teacher == nil || !teacher.IsTeacher {
		return nil, apperrors.NotFound("teacher not found")
	}
	return teacher, nil
}

// ensureFuture: начало интервала ещё не наступило по часам учителя
func (s *SessionService) ensureFuture(interval model.TimeSlot, teacher *model.User) error {
	startsAt := model.At(interval.Date, interval.Start, teacher.Location())
	if !startsAt.After(s.now()) {
		return apperrors.InvalidInterval("cannot schedule a session in the past")
	}
	return nil
}

func (s *SessionService) recordProgress(ctx context.Context, session *model.Session) {
	course, err := s.courses.GetByID(ctx, session.CourseID)
	if err != nil || course == nil {
		s.logger.Warn("Failed to load course for progress update",
			zap.String("session_id", session.ID.String()),
			zap.Error(err),
		)
		return
	}

	enrollment, err := s.enrollments.RecordLesson(ctx, session.StudentID, session.CourseID, model.LessonKey(session.ID), course.TotalLessons)
	if err != nil {
		s.logger.Warn("Failed to update student progress",
			zap.String("session_id", session.ID.String()),
			zap.String("student_id", session.StudentID.String()),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("Student progress updated",
		zap.String("student_id", session.StudentID.String()),
		zap.String("course_id", session.CourseID.String()),
		zap.String("progress", enrollment.ProgressPercentage.StringFixed(2)),
	)
}

func (s *SessionService) notify(ctx context.Context, session *model.Session, kind model.EventKind) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, session.Clone(), kind); err != nil {
		s.logger.Warn("Failed to dispatch notification",
			zap.String("session_id", session.ID.String()),
			zap.String("event", string(kind)),
			zap.Error(err),
		)
	}
}

// checkSlot: интервал лежит в окне активного правила со свободной ёмкостью
// и не пересекается с активными сессиями (кроме skipID)
func checkSlot(interval model.TimeSlot, rules []*model.AvailabilityRule, active []*model.Session, skipID uuid.UUID) error {
	if slots.WithinRule(interval, rules) == nil {
		return apperrors.SlotUnavailable("requested time is outside the teacher's availability", uuid.Nil)
	}

	admitted := false
	for _, rule := range rules {
		if !rule.AppliesTo(interval.Date) || !interval.Within(rule.StartTime, rule.EndTime) {
			continue
		}
		if rule.MaxSessions <= 0 || slots.CountInWindow(rule, active, skipID) < rule.MaxSessions {
			admitted = true
			break
		}
	}
	if !admitted {
		return apperrors.SlotUnavailable("availability window is fully booked", uuid.Nil)
	}

	if conflict := slots.FindConflict(interval, active, skipID); conflict != nil {
		return apperrors.SlotUnavailable(
			fmt.Sprintf("requested time overlaps session %s (%s)", conflict.ID, conflict.Interval()),
			conflict.ID,
		)
	}
	return nil
}
