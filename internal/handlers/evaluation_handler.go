package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dyslexiaaid/screening-service/internal/models"
	"github.com/dyslexiaaid/screening-service/internal/services"
	"github.com/dyslexiaaid/screening-service/internal/session"
	"github.com/dyslexiaaid/screening-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type EvaluationHandler struct {
	BaseHandler
	evaluationService services.EvaluationService
	now               func() time.Time
}

func NewEvaluationHandler(evaluationService services.EvaluationService, logger utils.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		BaseHandler:       NewBaseHandler(logger),
		evaluationService: evaluationService,
		now:               time.Now,
	}
}

// Questions serves the subtype's bank and starts its timer.
func (h *EvaluationHandler) Questions(c *gin.Context) {
	subtype, ok := h.subtypeParam(c)
	if !ok {
		return
	}

	sess := session.From(c)
	sess.StartEvaluation(subtype, h.now())
	if err := sess.Save(); err != nil {
		h.LogError(c, err, "Failed to save evaluation timer")
	}

	h.RespondWithSuccess(c, http.StatusOK, "Evaluation questions", gin.H{
		"dyslexia_type": subtype,
		"questions":     h.evaluationService.Questions(subtype),
	})
}

// Submit scores the posted form, records it and redirects to the subject's
// dashboard, which shows the summary once.
func (h *EvaluationHandler) Submit(c *gin.Context) {
	subtype, ok := h.subtypeParam(c)
	if !ok {
		return
	}
	actor := CurrentUser(c)
	sess := session.From(c)
	h.LogRequest(c, "Submitting evaluation", "dyslexia_type", subtype)

	batch := h.readBatch(c, sess, subtype)

	var evalCtx services.EvaluationContext
	if current, ok := sess.CurrentSubject(); ok {
		evalCtx.CurrentSubjectID = &current
	}

	submission, err := h.evaluationService.Submit(c.Request.Context(), actor, subtype, batch, evalCtx)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	sess.FinishEvaluation(subtype)

	summary := submission.Summary()
	target := services.ChildDashboardPath(actor.ID)
	if submission.Profile != nil {
		sess.SetCurrentSubject(submission.Profile.SubjectUserID)
		target = services.ChildDashboardPath(submission.Profile.SubjectUserID)
	} else if actor.Role == models.RoleParent {
		target = services.ParentDashboardPath
	} else {
		summary.SubjectUserID = actor.ID
	}
	if err := sess.SetPendingSummary(summary); err != nil {
		h.LogError(c, err, "Failed to keep evaluation summary")
	}
	if err := sess.Save(); err != nil {
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to save session", err)
		return
	}
	c.Redirect(http.StatusFound, target)
}

// readBatch collects answers, assistive-tech usage and timings from the
// form. Malformed auxiliary fields are logged and treated as absent.
func (h *EvaluationHandler) readBatch(c *gin.Context, sess *session.Context, subtype models.Subtype) models.ResponseBatch {
	batch := models.ResponseBatch{Answers: map[int]string{}}
	for _, q := range h.evaluationService.Questions(subtype) {
		batch.Answers[q.ID] = c.PostForm(fmt.Sprintf("q%d", q.ID))
	}

	ids, err := parseQuestionIDs(c.PostForm("tts_usage"))
	if err != nil {
		h.LogWarn(c, "Ignoring malformed tts_usage", "error", err)
	}
	batch.AssistiveTech = ids

	latencies, err := parseLatencies(c.PostForm("response_times"))
	if err != nil {
		h.LogWarn(c, "Ignoring malformed response_times", "error", err)
	}
	batch.Latencies = latencies

	if started, ok := parseUnixSeconds(c.PostForm("start_time")); ok {
		batch.StartedAt = started
	} else if started, ok := sess.EvaluationStartedAt(subtype); ok {
		batch.StartedAt = started
	}
	return batch
}

func (h *EvaluationHandler) subtypeParam(c *gin.Context) (models.Subtype, bool) {
	subtype, err := models.ParseSubtype(c.Param("subtype"))
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, services.ErrUnknownSubtype.Error(), nil, err.Error())
		return "", false
	}
	return subtype, true
}
