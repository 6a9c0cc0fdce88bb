package api

import (
	"net/http"

	"github.com/Freeeeeet/lesson_scheduler/internal/apperrors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// статистику пользователь видит только свою
func (h *Handler) selfOnly(c *gin.Context) (uuid.UUID, bool) {
	actorID, err := actor(c)
	if err != nil {
		badRequest(c, err)
		return uuid.Nil, false
	}
	id, err := pathID(c)
	if err != nil {
		badRequest(c, err)
		return uuid.Nil, false
	}
	if id != actorID {
		h.respondError(c, apperrors.PermissionDenied("statistics are only available to their owner"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) GetTeacherStats(c *gin.Context) {
	teacherID, ok := h.selfOnly(c)
	if !ok {
		return
	}
	from, to, err := h.period(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	stats, err := h.stats.TeacherStats(c.Request.Context(), teacherID, from, to)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetStudentStats(c *gin.Context) {
	studentID, ok := h.selfOnly(c)
	if !ok {
		return
	}
	from, to, err := h.period(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	stats, err := h.stats.StudentStats(c.Request.Context(), studentID, from, to)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
