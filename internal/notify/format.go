package notify

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
)

// FormatDate форматирует только дату
func FormatDate(t time.Time) string {
	return t.Format("02.01.2006")
}

// FormatTimeRange форматирует диапазон времени
func FormatTimeRange(start, end time.Time) string {
	return fmt.Sprintf("%s-%s", start.Format("15:04"), end.Format("15:04"))
}

// FormatDuration форматирует длительность в минутах
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d мин", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		return fmt.Sprintf("%d ч", hours)
	}
	return fmt.Sprintf("%d ч %d мин", hours, mins)
}

// WeekdayName возвращает название дня недели на русском
func WeekdayName(weekday time.Weekday) string {
	names := []string{
		"Воскресенье",
		"Понедельник",
		"Вторник",
		"Среда",
		"Четверг",
		"Пятница",
		"Суббота",
	}
	if weekday >= 0 && int(weekday) < len(names) {
		return names[weekday]
	}
	return "Неизвестно"
}

var headers = map[model.EventKind]string{
	model.EventBooked:      "✅ <b>Занятие забронировано</b>",
	model.EventReminder:    "⏰ <b>Напоминание о занятии</b>",
	model.EventRescheduled: "🔄 <b>Занятие перенесено</b>",
	model.EventCancelled:   "❌ <b>Занятие отменено</b>",
}

// Envelope: всё, что нужно для текста уведомления одному получателю
type Envelope struct {
	Session     *model.Session
	Kind        model.EventKind
	CourseTitle string
	Teacher     *model.User
	Student     *model.User
	Recipient   *model.User
}

// Render собирает HTML-текст уведомления. Время показывается в часовом поясе
// получателя, сессия хранится во времени учителя.
func Render(e Envelope) string {
	header, ok := headers[e.Kind]
	if !ok {
		header = "ℹ️ <b>Занятие</b>"
	}

	start := e.Session.StartsAt(e.Teacher.Location()).In(e.Recipient.Location())
	end := start.Add(time.Duration(e.Session.DurationMinutes) * time.Minute)

	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n\n")

	if e.CourseTitle != "" {
		fmt.Fprintf(&sb, "📚 %s\n", html.EscapeString(e.CourseTitle))
	}
	if e.Session.Topic != "" {
		fmt.Fprintf(&sb, "📝 Тема: %s\n", html.EscapeString(e.Session.Topic))
	}
	fmt.Fprintf(&sb, "📅 %s, %s\n", WeekdayName(start.Weekday()), FormatDate(start))
	fmt.Fprintf(&sb, "🕐 %s (%s)\n", FormatTimeRange(start, end), FormatDuration(e.Session.DurationMinutes))

	if e.Recipient.ID == e.Teacher.ID {
		fmt.Fprintf(&sb, "👤 Студент: %s\n", html.EscapeString(e.Student.FullName()))
	} else {
		fmt.Fprintf(&sb, "👤 Учитель: %s\n", html.EscapeString(e.Teacher.FullName()))
	}

	fmt.Fprintf(&sb, "💻 Платформа: %s\n", e.Session.Platform)
	if e.Session.MeetingLink != "" && e.Kind != model.EventCancelled {
		fmt.Fprintf(&sb, "🔗 %s\n", html.EscapeString(e.Session.MeetingLink))
	}

	return sb.String()
}

// StatusDisplay: emoji и текст статуса сессии
type StatusDisplay struct {
	Emoji string
	Text  string
}

// GetStatusDisplay возвращает emoji и текст для статуса сессии
func GetStatusDisplay(status model.SessionStatus) StatusDisplay {
	displays := map[model.SessionStatus]StatusDisplay{
		model.SessionStatusScheduled:   {"📅", "Запланировано"},
		model.SessionStatusInProgress:  {"▶️", "Идёт"},
		model.SessionStatusCompleted:   {"✔️", "Завершено"},
		model.SessionStatusCancelled:   {"❌", "Отменено"},
		model.SessionStatusRescheduled: {"🔄", "Перенесено"},
		model.SessionStatusNoShow:      {"🚫", "Неявка"},
	}

	if display, ok := displays[status]; ok {
		return display
	}

	return StatusDisplay{"❓", "Неизвестно"}
}
