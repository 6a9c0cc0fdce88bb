package api

import (
	"net/http"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/Freeeeeet/lesson_scheduler/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type bookRequest struct {
	CourseID  uuid.UUID      `json:"course_id" binding:"required"`
	TeacherID uuid.UUID      `json:"teacher_id" binding:"required"`
	Date      string         `json:"date" binding:"required"`
	StartTime *model.Clock   `json:"start_time" binding:"required"`
	Platform  model.Platform `json:"platform"`
	Topic     string         `json:"topic"`
	Notes     string         `json:"notes"`
}

type rescheduleRequest struct {
	Date        string       `json:"date" binding:"required"`
	StartTime   *model.Clock `json:"start_time" binding:"required"`
	Reason      string       `json:"reason"`
	NotifyOther *bool        `json:"notify_other"`
}

type feedbackRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type meetingRequest struct {
	Platform model.Platform `json:"platform"`
	Link     string         `json:"link"`
	ID       string         `json:"meeting_id"`
	Password string         `json:"password"`
	Topic    string         `json:"topic"`
}

// BookSession бронирует слот от имени текущего пользователя-студента
func (h *Handler) BookSession(c *gin.Context) {
	actorID, err := actor(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	date, err := model.ParseDate(req.Date)
	if err != nil {
		badRequest(c, err)
		return
	}

	session, err := h.sessions.Book(c.Request.Context(), service.BookRequest{
		CourseID:  req.CourseID,
		TeacherID: req.TeacherID,
		StudentID: actorID,
		Date:      date,
		StartTime: *req.StartTime,
		Platform:  req.Platform,
		Topic:     req.Topic,
		Notes:     req.Notes,
		CreatedBy: actorID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// ListSessions: сессии текущего пользователя за период
func (h *Handler) ListSessions(c *gin.Context) {
	actorID, err := actor(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	from, to, err := h.period(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	sessions, err := h.sessions.ListForUser(c.Request.Context(), actorID, from, to)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if sessions == nil {
		sessions = []*model.Session{}
	}

	c.JSON(http.StatusOK, sessions)
}

func (h *Handler) GetSession(c *gin.Context) {
	h.withSession(c, func(id, actorID uuid.UUID) (*model.Session, error) {
		return h.sessions.Get(c.Request.Context(), id, actorID)
	})
}

func (h *Handler) RescheduleSession(c *gin.Context) {
	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	date, err := model.ParseDate(req.Date)
	if err != nil {
		badRequest(c, err)
		return
	}
	notifyOther := req.NotifyOther == nil || *req.NotifyOther

	h.withSession(c, func(id, actorID uuid.UUID) (*model.Session, error) {
		return h.sessions.Reschedule(c.Request.Context(), id, actorID, date, *req.StartTime, req.Reason, notifyOther)
	})
}

func (h *Handler) CancelSession(c *gin.Context) {
	h.withSession(c, func(id, actorID uuid.UUID) (*model.Session, error) {
		return h.sessions.Cancel(c.Request.Context(), id, actorID)
	})
}

func (h *Handler) CompleteSession(c *gin.Context) {
	h.withSession(c, func(id, actorID uuid.UUID) (*model.Session, error) {
		return h.sessions.Complete(c.Request.Context(), id, actorID)
	})
}

func (h *Handler) MarkNoShow(c *gin.Context) {
	h.withSession(c, func(id, actorID uuid.UUID) (*model.Session, error) {
		return h.sessions.MarkNoShow(c.Request.Context(), id, actorID)
	})
}

func (h *Handler) StartSession(c *gin.Context) {
	h.withSession(c, func(id, actorID uuid.UUID) (*model.Session, error) {
		return h.sessions.Start(c.Request.Context(), id, actorID)
	})
}

func (h *Handler) LeaveFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	h.withSession(c, func(id, actorID uuid.UUID) (*model.Session, error) {
		return h.sessions.LeaveFeedback(c.Request.Context(), id, actorID, req.Rating, req.Comment)
	})
}

func (h *Handler) UpdateMeeting(c *gin.Context) {
	var req meetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	h.withSession(c, func(id, actorID uuid.UUID) (*model.Session, error) {
		return h.sessions.UpdateMeeting(c.Request.Context(), id, actorID, service.MeetingDetails{
			Platform: req.Platform,
			Link:     req.Link,
			ID:       req.ID,
			Password: req.Password,
			Topic:    req.Topic,
		})
	})
}

// withSession разбирает id сессии и актора, вызывает операцию и пишет ответ
func (h *Handler) withSession(c *gin.Context, op func(id, actorID uuid.UUID) (*model.Session, error)) {
	actorID, err := actor(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	id, err := pathID(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	session, err := op(id, actorID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}
