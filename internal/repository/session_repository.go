package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/apperrors"
	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/Freeeeeet/lesson_scheduler/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// activeSessionKey: частичный уникальный индекс (teacher_id, date, start_time) по активным статусам
const activeSessionKey = "sessions_teacher_active_start_key"

const sessionColumns = `
	id, course_id, teacher_id, student_id, date, start_time, end_time, duration_minutes,
	platform, status, meeting_link, meeting_id, meeting_password, topic,
	teacher_notes, student_notes, attendance_marked, teacher_attended, student_attended,
	reminder_sent, feedback_rating, feedback_comment, created_by, created_at, updated_at`

type SessionRepository struct {
	*base.Repository
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{Repository: base.NewRepository(pool)}
}

// InTeacherTx открывает транзакцию и берёт advisory-lock учителя до её конца.
// Параллельные бронирования одного учителя выстраиваются в очередь,
// разные учителя друг друга не блокируют.
func (r *SessionRepository) InTeacherTx(ctx context.Context, teacherID uuid.UUID, fn func(ctx context.Context, tx SessionTx) error) error {
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, teacherID); err != nil {
			return fmt.Errorf("lock teacher schedule: %w", err)
		}
		return fn(ctx, &sessionTx{db: tx})
	})
}

// GetByID получает сессию по ID
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`

	session, err := scanSession(r.Pool().QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session by id: %w", err)
	}

	return session, nil
}

// ListByTeacher получает сессии учителя за период [from, to] по дате
func (r *SessionRepository) ListByTeacher(ctx context.Context, teacherID uuid.UUID, from, to time.Time) ([]*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE teacher_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date, start_time
	`

	sessions, err := querySessions(ctx, r.Pool(), query, teacherID, model.DateOf(from), model.DateOf(to))
	if err != nil {
		return nil, fmt.Errorf("list sessions by teacher: %w", err)
	}
	return sessions, nil
}

// ListByStudent получает сессии студента за период [from, to] по дате
func (r *SessionRepository) ListByStudent(ctx context.Context, studentID uuid.UUID, from, to time.Time) ([]*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE student_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date, start_time
	`

	sessions, err := querySessions(ctx, r.Pool(), query, studentID, model.DateOf(from), model.DateOf(to))
	if err != nil {
		return nil, fmt.Errorf("list sessions by student: %w", err)
	}
	return sessions, nil
}

// ListPendingReminders: запланированные сессии без отправленного напоминания в диапазоне дат
func (r *SessionRepository) ListPendingReminders(ctx context.Context, from, to time.Time) ([]*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE status = 'scheduled' AND reminder_sent = FALSE AND date BETWEEN $1 AND $2
		ORDER BY date, start_time
	`

	sessions, err := querySessions(ctx, r.Pool(), query, model.DateOf(from), model.DateOf(to))
	if err != nil {
		return nil, fmt.Errorf("list pending reminders: %w", err)
	}
	return sessions, nil
}

// MarkReminderSent отмечает, что напоминание доставлено
func (r *SessionRepository) MarkReminderSent(ctx context.Context, id uuid.UUID) error {
	affected, err := base.ExecAffected(ctx, r.Pool(),
		`UPDATE sessions SET reminder_sent = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	if affected == 0 {
		return apperrors.NotFound("session not found")
	}
	return nil
}

// sessionTx: операции внутри транзакции InTeacherTx
type sessionTx struct {
	db base.DBTX
}

func (t *sessionTx) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1 FOR UPDATE`

	session, err := scanSession(t.db.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session for update: %w", err)
	}
	return session, nil
}

func (t *sessionTx) ListActiveOnDate(ctx context.Context, teacherID uuid.UUID, date time.Time) ([]*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE teacher_id = $1 AND date = $2 AND status IN ('scheduled', 'in_progress')
		ORDER BY start_time
	`

	sessions, err := querySessions(ctx, t.db, query, teacherID, model.DateOf(date))
	if err != nil {
		return nil, fmt.Errorf("list active sessions on date: %w", err)
	}
	return sessions, nil
}

// Insert создаёт новую сессию
func (t *sessionTx) Insert(ctx context.Context, s *model.Session) error {
	query := `
		INSERT INTO sessions (
			id, course_id, teacher_id, student_id, date, start_time, end_time, duration_minutes,
			platform, status, meeting_link, meeting_id, meeting_password, topic,
			teacher_notes, student_notes, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING created_at, updated_at
	`

	err := t.db.QueryRow(
		ctx, query,
		s.ID,
		s.CourseID,
		s.TeacherID,
		s.StudentID,
		s.Date,
		s.StartTime,
		s.EndTime,
		s.DurationMinutes,
		s.Platform,
		s.Status,
		s.MeetingLink,
		s.MeetingID,
		s.MeetingPassword,
		s.Topic,
		s.TeacherNotes,
		s.StudentNotes,
		s.CreatedBy,
	).Scan(&s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		if base.IsUniqueViolation(err, activeSessionKey) {
			return apperrors.SlotUnavailable("slot was taken by a concurrent booking", uuid.Nil)
		}
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

// Update сохраняет изменяемые поля сессии
func (t *sessionTx) Update(ctx context.Context, s *model.Session) error {
	query := `
		UPDATE sessions
		SET date = $2, start_time = $3, end_time = $4, duration_minutes = $5,
			platform = $6, status = $7, meeting_link = $8, meeting_id = $9, meeting_password = $10,
			topic = $11, teacher_notes = $12, student_notes = $13, attendance_marked = $14,
			teacher_attended = $15, student_attended = $16, reminder_sent = $17,
			feedback_rating = $18, feedback_comment = $19, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := t.db.QueryRow(
		ctx, query,
		s.ID,
		s.Date,
		s.StartTime,
		s.EndTime,
		s.DurationMinutes,
		s.Platform,
		s.Status,
		s.MeetingLink,
		s.MeetingID,
		s.MeetingPassword,
		s.Topic,
		s.TeacherNotes,
		s.StudentNotes,
		s.AttendanceMarked,
		s.TeacherAttended,
		s.StudentAttended,
		s.ReminderSent,
		s.FeedbackRating,
		s.FeedbackComment,
	).Scan(&s.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return apperrors.NotFound("session not found")
		}
		if base.IsUniqueViolation(err, activeSessionKey) {
			return apperrors.SlotUnavailable("slot was taken by a concurrent booking", uuid.Nil)
		}
		return fmt.Errorf("update session: %w", err)
	}

	return nil
}

func scanSession(row pgx.Row) (*model.Session, error) {
	var s model.Session
	err := row.Scan(
		&s.ID,
		&s.CourseID,
		&s.TeacherID,
		&s.StudentID,
		&s.Date,
		&s.StartTime,
		&s.EndTime,
		&s.DurationMinutes,
		&s.Platform,
		&s.Status,
		&s.MeetingLink,
		&s.MeetingID,
		&s.MeetingPassword,
		&s.Topic,
		&s.TeacherNotes,
		&s.StudentNotes,
		&s.AttendanceMarked,
		&s.TeacherAttended,
		&s.StudentAttended,
		&s.ReminderSent,
		&s.FeedbackRating,
		&s.FeedbackComment,
		&s.CreatedBy,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func querySessions(ctx context.Context, db base.DBTX, query string, args ...any) ([]*model.Session, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}
