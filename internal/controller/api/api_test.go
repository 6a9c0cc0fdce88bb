package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/auth"
	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/Freeeeeet/lesson_scheduler/internal/notify"
	"github.com/Freeeeeet/lesson_scheduler/internal/repository/memory"
	"github.com/Freeeeeet/lesson_scheduler/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// понедельник заведомо в будущем
const bookingDate = "2030-01-07"

type testServer struct {
	t       *testing.T
	router  *gin.Engine
	tokens  *auth.TokenService
	teacher *model.User
	student *model.User
	course  *model.Course
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	logger := zap.NewNop()

	sessions := memory.NewSessionStore()
	rules := memory.NewAvailabilityStore()
	users := memory.NewUserStore()
	courses := memory.NewCourseStore()
	enrollments := memory.NewEnrollmentStore()

	s := &testServer{
		t:       t,
		tokens:  auth.NewTokenService("secret", "test", time.Hour),
		teacher: &model.User{ID: uuid.New(), FirstName: "Anna", IsTeacher: true, TimeZone: "UTC"},
		student: &model.User{ID: uuid.New(), FirstName: "Ivan", TimeZone: "UTC"},
		course:  &model.Course{ID: uuid.New(), Title: "English", SessionDurationMinutes: 30, TotalLessons: 10, IsActive: true},
	}
	require.NoError(t, users.Upsert(ctx, s.teacher))
	require.NoError(t, users.Upsert(ctx, s.student))
	require.NoError(t, courses.Upsert(ctx, s.course))
	require.NoError(t, enrollments.Upsert(ctx, &model.Enrollment{
		StudentID: s.student.ID,
		CourseID:  s.course.ID,
		Status:    model.EnrollmentStatusActive,
	}))

	notifier := notify.NewLogNotifier(logger)
	h := NewHandler(
		service.NewSessionService(sessions, rules, users, courses, enrollments, notifier, logger),
		service.NewAvailabilityService(rules, sessions, users, courses, logger),
		service.NewStatsService(sessions, users, logger),
		logger,
	)
	s.router = NewRouter(h, s.tokens)
	return s
}

func (s *testServer) do(method, path string, user *model.User, body any) *httptest.ResponseRecorder {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		token, err := s.tokens.Issue(user.ID)
		require.NoError(s.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) createRule() {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/v1/availability", s.teacher, gin.H{
		"day_of_week": 0,
		"start_time":  "09:00",
		"end_time":    "12:00",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
}

func (s *testServer) book(start string) *httptest.ResponseRecorder {
	return s.do(http.MethodPost, "/api/v1/sessions", s.student, gin.H{
		"course_id":  s.course.ID,
		"teacher_id": s.teacher.ID,
		"date":       bookingDate,
		"start_time": start,
	})
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthIsPublic(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/v1/sessions", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBookingFlow(t *testing.T) {
	s := newTestServer(t)
	s.createRule()

	w := s.do(http.MethodGet, "/api/v1/teachers/"+s.teacher.ID.String()+"/slots?date="+bookingDate, s.student, nil)
	require.Equal(t, http.StatusOK, w.Code)
	slots := decode[[]map[string]any](t, w)
	require.NotEmpty(t, slots)
	assert.Equal(t, "09:00", slots[0]["start"])

	w = s.book("09:00")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	session := decode[model.Session](t, w)
	assert.Equal(t, model.SessionStatusScheduled, session.Status)
	assert.Equal(t, "09:30", session.EndTime.String())

	// пересечение возвращает id конфликтующей сессии
	w = s.book("09:15")
	require.Equal(t, http.StatusConflict, w.Code)
	body := decode[errorResponse](t, w)
	assert.Equal(t, "slot_unavailable", body.Error.Code)
	assert.Equal(t, session.ID.String(), body.Error.ConflictingSessionID)

	path := "/api/v1/sessions/" + session.ID.String()

	w = s.do(http.MethodGet, path, s.teacher, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPost, path+"/reschedule", s.student, gin.H{
		"date":       bookingDate,
		"start_time": "10:20",
		"reason":     "exam",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "10:20", decode[model.Session](t, w).StartTime.String())

	w = s.do(http.MethodPost, path+"/complete", s.student, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, path+"/complete", s.teacher, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPost, path+"/feedback", s.student, gin.H{"rating": 9})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(http.MethodPost, path+"/feedback", s.student, gin.H{"rating": 5, "comment": "great"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPost, path+"/cancel", s.student, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "invalid_state", decode[errorResponse](t, w).Error.Code)

	w = s.do(http.MethodGet, "/api/v1/sessions?from=2030-01-01&to=2030-01-31", s.student, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Session](t, w), 1)
}

func TestCancelAndMeeting(t *testing.T) {
	s := newTestServer(t)
	s.createRule()

	w := s.book("09:00")
	require.Equal(t, http.StatusCreated, w.Code)
	path := "/api/v1/sessions/" + decode[model.Session](t, w).ID.String()

	w = s.do(http.MethodPut, path+"/meeting", s.teacher, gin.H{"link": "https://meet/1", "platform": "teams"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "https://meet/1", decode[model.Session](t, w).MeetingLink)

	w = s.do(http.MethodPost, path+"/cancel", s.teacher, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.SessionStatusCancelled, decode[model.Session](t, w).Status)

	// слот снова свободен
	w = s.book("09:00")
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)
	s.createRule()

	tests := []struct {
		name   string
		method string
		path   string
		user   *model.User
		body   any
		status int
	}{
		{"bad session id", http.MethodGet, "/api/v1/sessions/nope", s.student, nil, http.StatusBadRequest},
		{"unknown session", http.MethodGet, "/api/v1/sessions/" + uuid.NewString(), s.student, nil, http.StatusNotFound},
		{"missing date", http.MethodGet, "/api/v1/teachers/" + s.teacher.ID.String() + "/slots", s.student, nil, http.StatusBadRequest},
		{"inverted rule", http.MethodPost, "/api/v1/availability", s.teacher, gin.H{"day_of_week": 1, "start_time": "12:00", "end_time": "09:00"}, http.StatusBadRequest},
		{"student creates rule", http.MethodPost, "/api/v1/availability", s.student, gin.H{"day_of_week": 1, "start_time": "09:00", "end_time": "12:00"}, http.StatusForbidden},
		{"rule without day of week", http.MethodPost, "/api/v1/availability", s.teacher, gin.H{"start_time": "09:00", "end_time": "12:00"}, http.StatusBadRequest},
		{"outside availability", http.MethodPost, "/api/v1/sessions", s.student, gin.H{"course_id": s.course.ID, "teacher_id": s.teacher.ID, "date": bookingDate, "start_time": "15:00"}, http.StatusConflict},
		{"foreign stats", http.MethodGet, "/api/v1/teachers/" + s.teacher.ID.String() + "/stats", s.student, nil, http.StatusForbidden},
		{"inverted period", http.MethodGet, "/api/v1/students/" + s.student.ID.String() + "/stats?from=2030-02-01&to=2030-01-01", s.student, nil, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(tt.method, tt.path, tt.user, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestRuleCRUD(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/v1/availability", s.teacher, gin.H{
		"day_of_week":   2,
		"start_time":    "14:00",
		"end_time":      "18:00",
		"break_minutes": 0,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	rule := decode[model.AvailabilityRule](t, w)
	assert.Zero(t, rule.BreakMinutes)
	assert.True(t, rule.IsActive)

	path := "/api/v1/availability/" + rule.ID.String()
	w = s.do(http.MethodPut, path, s.teacher, gin.H{"day_of_week": 2, "start_time": "15:00", "end_time": "18:00"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.DefaultBreakMinutes, decode[model.AvailabilityRule](t, w).BreakMinutes)

	w = s.do(http.MethodGet, "/api/v1/availability", s.teacher, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.AvailabilityRule](t, w), 1)

	w = s.do(http.MethodDelete, path, s.teacher, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(http.MethodDelete, path, s.teacher, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOwnStats(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/v1/teachers/"+s.teacher.ID.String()+"/stats", s.teacher, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[map[string]any](t, w)
	assert.EqualValues(t, 0, stats["session_count"])

	w = s.do(http.MethodGet, "/api/v1/students/"+s.student.ID.String()+"/stats", s.student, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
