package model

// EventKind: повод для уведомления участников сессии
type EventKind string

const (
	EventBooked      EventKind = "booked"
	EventReminder    EventKind = "reminder"
	EventRescheduled EventKind = "rescheduled"
	EventCancelled   EventKind = "cancelled"
)
