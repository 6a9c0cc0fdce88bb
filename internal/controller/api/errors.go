package api

import (
	"errors"
	"net/http"

	"github.com/Freeeeeet/lesson_scheduler/internal/apperrors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorBody struct {
	Code                 string `json:"code"`
	Message              string `json:"message"`
	ConflictingSessionID string `json:"conflicting_session_id,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

var errorStatuses = []struct {
	kind   error
	status int
	code   string
}{
	{apperrors.ErrInvalidInterval, http.StatusBadRequest, "invalid_interval"},
	{apperrors.ErrSlotUnavailable, http.StatusConflict, "slot_unavailable"},
	{apperrors.ErrInvalidState, http.StatusConflict, "invalid_state"},
	{apperrors.ErrPermissionDenied, http.StatusForbidden, "permission_denied"},
	{apperrors.ErrNotFound, http.StatusNotFound, "not_found"},
	{apperrors.ErrValidation, http.StatusUnprocessableEntity, "validation_failed"},
}

// respondError переводит доменную ошибку в HTTP-ответ
func (h *Handler) respondError(c *gin.Context, err error) {
	for _, e := range errorStatuses {
		if !errors.Is(err, e.kind) {
			continue
		}

		body := errorBody{Code: e.code, Message: err.Error()}
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			body.Message = appErr.Error()
		}
		if id, ok := apperrors.ConflictingSession(err); ok {
			body.ConflictingSessionID = id.String()
		}

		c.JSON(e.status, errorResponse{Error: body})
		return
	}

	h.logger.Error("Unhandled request error",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, errorResponse{Error: errorBody{
		Code:    "internal",
		Message: "internal server error",
	}})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: errorBody{
		Code:    "bad_request",
		Message: err.Error(),
	}})
}
