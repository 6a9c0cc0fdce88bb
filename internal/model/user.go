package model

import (
	"time"

	"github.com/google/uuid"
)

// User: то, что планировщику нужно знать о пользователе из сервиса профилей
type User struct {
	ID         uuid.UUID `json:"id"`
	TelegramID int64     `json:"telegram_id"` // 0: чат не привязан
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	IsTeacher  bool      `json:"is_teacher"`
	TimeZone   string    `json:"time_zone"`
	CreatedAt  time.Time `json:"created_at"`
}

// Location возвращает часовой пояс пользователя, UTC при пустом или неизвестном
func (u *User) Location() *time.Location {
	if u == nil || u.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(u.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
