// Package api: HTTP-интерфейс планировщика поверх gin.
package api

import (
	"net/http"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/auth"
	"github.com/Freeeeeet/lesson_scheduler/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler держит сервисы, которые обслуживают HTTP-запросы
type Handler struct {
	sessions     *service.SessionService
	availability *service.AvailabilityService
	stats        *service.StatsService
	logger       *zap.Logger
	now          func() time.Time
}

func NewHandler(
	sessions *service.SessionService,
	availability *service.AvailabilityService,
	stats *service.StatsService,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		sessions:     sessions,
		availability: availability,
		stats:        stats,
		logger:       logger,
		now:          time.Now,
	}
}

// NewRouter собирает маршруты /api/v1
func NewRouter(h *Handler, tokens *auth.TokenService) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1", tokens.Middleware())
	{
		v1.GET("/teachers/:id/slots", h.GetAvailableSlots)
		v1.GET("/teachers/:id/stats", h.GetTeacherStats)
		v1.GET("/students/:id/stats", h.GetStudentStats)

		v1.GET("/availability", h.ListRules)
		v1.POST("/availability", h.CreateRule)
		v1.PUT("/availability/:id", h.UpdateRule)
		v1.DELETE("/availability/:id", h.DeleteRule)

		v1.POST("/sessions", h.BookSession)
		v1.GET("/sessions", h.ListSessions)
		v1.GET("/sessions/:id", h.GetSession)
		v1.POST("/sessions/:id/reschedule", h.RescheduleSession)
		v1.POST("/sessions/:id/cancel", h.CancelSession)
		v1.POST("/sessions/:id/complete", h.CompleteSession)
		v1.POST("/sessions/:id/no-show", h.MarkNoShow)
		v1.POST("/sessions/:id/start", h.StartSession)
		v1.POST("/sessions/:id/feedback", h.LeaveFeedback)
		v1.PUT("/sessions/:id/meeting", h.UpdateMeeting)
	}

	return r
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		h.logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
