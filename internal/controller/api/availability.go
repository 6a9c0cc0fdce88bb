package api

import (
	"net/http"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/gin-gonic/gin"
)

type ruleRequest struct {
	DayOfWeek    *int         `json:"day_of_week" binding:"required"`
	StartTime    *model.Clock `json:"start_time" binding:"required"`
	EndTime      *model.Clock `json:"end_time" binding:"required"`
	IsActive     *bool        `json:"is_active"`
	MaxSessions  int          `json:"max_sessions"`
	BreakMinutes *int         `json:"break_minutes"`
	SlotMinutes  int          `json:"slot_minutes"`
	Notes        string       `json:"notes"`
}

func (r ruleRequest) toRule() *model.AvailabilityRule {
	rule := &model.AvailabilityRule{
		DayOfWeek:    model.DayOfWeek(*r.DayOfWeek),
		StartTime:    *r.StartTime,
		EndTime:      *r.EndTime,
		IsActive:     r.IsActive == nil || *r.IsActive,
		MaxSessions:  r.MaxSessions,
		BreakMinutes: model.DefaultBreakMinutes,
		SlotMinutes:  r.SlotMinutes,
		Notes:        r.Notes,
	}
	if r.BreakMinutes != nil {
		rule.BreakMinutes = *r.BreakMinutes
	}
	return rule
}

// GetAvailableSlots: свободные слоты учителя на дату
func (h *Handler) GetAvailableSlots(c *gin.Context) {
	teacherID, err := pathID(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	date, err := model.ParseDate(c.Query("date"))
	if err != nil {
		badRequest(c, err)
		return
	}
	courseID, err := optionalUUID(c, "course_id")
	if err != nil {
		badRequest(c, err)
		return
	}

	slots, err := h.availability.GetAvailableSlots(c.Request.Context(), teacherID, date, courseID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if slots == nil {
		slots = []model.Slot{}
	}

	c.JSON(http.StatusOK, slots)
}

// ListRules: правила текущего учителя
func (h *Handler) ListRules(c *gin.Context) {
	actorID, err := actor(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	rules, err := h.availability.ListRules(c.Request.Context(), actorID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if rules == nil {
		rules = []*model.AvailabilityRule{}
	}

	c.JSON(http.StatusOK, rules)
}

func (h *Handler) CreateRule(c *gin.Context) {
	actorID, err := actor(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	rule, err := h.availability.CreateRule(c.Request.Context(), actorID, req.toRule())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rule)
}

func (h *Handler) UpdateRule(c *gin.Context) {
	actorID, err := actor(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	ruleID, err := pathID(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rule := req.toRule()
	rule.ID = ruleID

	updated, err := h.availability.UpdateRule(c.Request.Context(), actorID, rule)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteRule(c *gin.Context) {
	actorID, err := actor(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	ruleID, err := pathID(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	if err := h.availability.DeleteRule(c.Request.Context(), actorID, ruleID); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
