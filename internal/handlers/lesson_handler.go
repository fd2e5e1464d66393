package handlers

import (
	"net/http"

	"github.com/dyslexiaaid/screening-service/internal/services"
	"github.com/dyslexiaaid/screening-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type LessonHandler struct {
	BaseHandler
	lessonService services.LessonService
}

func NewLessonHandler(lessonService services.LessonService, logger utils.Logger) *LessonHandler {
	return &LessonHandler{
		BaseHandler:   NewBaseHandler(logger),
		lessonService: lessonService,
	}
}

func (h *LessonHandler) ListLessons(c *gin.Context) {
	view, err := h.lessonService.List(c.Request.Context(), CurrentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Lessons retrieved", view)
}

func (h *LessonHandler) GetLesson(c *gin.Context) {
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	lesson, err := h.lessonService.Get(c.Request.Context(), CurrentUser(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Lesson retrieved", lesson)
}

func (h *LessonHandler) RecordAttempt(c *gin.Context) {
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}
	h.LogRequest(c, "Recording lesson attempt", "lesson_id", id)

	var req services.LessonAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", nil, err.Error())
		return
	}

	attempt, err := h.lessonService.RecordAttempt(c.Request.Context(), CurrentUser(c), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"ok":         true,
		"is_correct": attempt.IsCorrect,
		"attempt_id": attempt.ID,
	})
}
