package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/auth"
	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// период статистики и списков по умолчанию: ±defaultPeriodDays от сегодня
const defaultPeriodDays = 30

var errNoActor = errors.New("missing authenticated user")

func actor(c *gin.Context) (uuid.UUID, error) {
	id, ok := auth.ActorID(c)
	if !ok {
		return uuid.Nil, errNoActor
	}
	return id, nil
}

func pathID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q", c.Param("id"))
	}
	return id, nil
}

func optionalUUID(c *gin.Context, key string) (uuid.UUID, error) {
	raw := c.Query(key)
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s %q", key, raw)
	}
	return id, nil
}

func (h *Handler) period(c *gin.Context) (time.Time, time.Time, error) {
	today := model.DateOf(h.now())
	from := today.AddDate(0, 0, -defaultPeriodDays)
	to := today.AddDate(0, 0, defaultPeriodDays)

	if raw := c.Query("from"); raw != "" {
		d, err := model.ParseDate(raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = d
	}
	if raw := c.Query("to"); raw != "" {
		d, err := model.ParseDate(raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = d
	}
	return from, to, nil
}
