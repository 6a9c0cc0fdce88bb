package model

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionStatusScheduled   SessionStatus = "scheduled"
	SessionStatusInProgress  SessionStatus = "in_progress"
	SessionStatusCompleted   SessionStatus = "completed"
	SessionStatusCancelled   SessionStatus = "cancelled"
	SessionStatusRescheduled SessionStatus = "rescheduled" // информационный, после переноса сразу scheduled
	SessionStatusNoShow      SessionStatus = "no_show"
)

// IsTerminal: из терминального статуса переходов нет
func (s SessionStatus) IsTerminal() bool {
	switch s {
	case SessionStatusCompleted, SessionStatusCancelled, SessionStatusNoShow:
		return true
	}
	return false
}

// BlocksSlot: статус участвует в проверке пересечений
func (s SessionStatus) BlocksSlot() bool {
	return s == SessionStatusScheduled || s == SessionStatusInProgress
}

type Platform string

const (
	PlatformTeams      Platform = "teams"
	PlatformZoom       Platform = "zoom"
	PlatformGoogleMeet Platform = "google_meet"
	PlatformWhatsApp   Platform = "whatsapp"
	PlatformSkype      Platform = "skype"
)

// Valid проверяет, что платформа из поддерживаемого списка
func (p Platform) Valid() bool {
	switch p {
	case PlatformTeams, PlatformZoom, PlatformGoogleMeet, PlatformWhatsApp, PlatformSkype:
		return true
	}
	return false
}

type Session struct {
	ID               uuid.UUID     `json:"id"`
	CourseID         uuid.UUID     `json:"course_id"`
	TeacherID        uuid.UUID     `json:"teacher_id"`
	StudentID        uuid.UUID     `json:"student_id"`
	Date             time.Time     `json:"date"`
	StartTime        Clock         `json:"start_time"`
	EndTime          Clock         `json:"end_time"`
	DurationMinutes  int           `json:"duration_minutes"`
	Platform         Platform      `json:"platform"`
	Status           SessionStatus `json:"status"`
	MeetingLink      string        `json:"meeting_link"`
	MeetingID        string        `json:"meeting_id"`
	MeetingPassword  string        `json:"meeting_password,omitempty"`
	Topic            string        `json:"topic"`
	TeacherNotes     string        `json:"-"` // приватные заметки учителя
	StudentNotes     string        `json:"student_notes"`
	AttendanceMarked bool          `json:"attendance_marked"`
	TeacherAttended  bool          `json:"teacher_attended"`
	StudentAttended  bool          `json:"student_attended"`
	ReminderSent     bool          `json:"reminder_sent"`
	FeedbackRating   *int          `json:"feedback_rating"`
	FeedbackComment  string        `json:"feedback_comment"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
	CreatedBy        uuid.UUID     `json:"created_by"`
}

// Interval: занимаемый сессией интервал
func (s *Session) Interval() TimeSlot {
	return TimeSlot{Date: s.Date, Start: s.StartTime, End: s.EndTime}
}

// StartsAt: абсолютный момент начала в часовом поясе учителя
func (s *Session) StartsAt(loc *time.Location) time.Time {
	return At(s.Date, s.StartTime, loc)
}

// IsParty: пользователь является учителем или студентом этой сессии
func (s *Session) IsParty(userID uuid.UUID) bool {
	return userID == s.TeacherID || userID == s.StudentID
}

// Clone возвращает копию, чтобы хранилище не делило указатели с вызывающим
func (s *Session) Clone() *Session {
	c := *s
	if s.FeedbackRating != nil {
		rating := *s.FeedbackRating
		c.FeedbackRating = &rating
	}
	return &c
}
