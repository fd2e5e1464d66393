package handlers

import (
	"net/http"

	"github.com/dyslexiaaid/screening-service/internal/models"
	"github.com/dyslexiaaid/screening-service/internal/services"
	"github.com/dyslexiaaid/screening-service/internal/session"
	"github.com/dyslexiaaid/screening-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	BaseHandler
	dashboardService services.DashboardService
}

func NewDashboardHandler(dashboardService services.DashboardService, logger utils.Logger) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler:      NewBaseHandler(logger),
		dashboardService: dashboardService,
	}
}

func (h *DashboardHandler) ChildDashboard(c *gin.Context) {
	childID, ok := ParseUintParam(c, "child_id")
	if !ok {
		return
	}

	view, err := h.dashboardService.ChildDashboard(c.Request.Context(), CurrentUser(c), childID, h.popPending(c, childID))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Dashboard", view)
}

func (h *DashboardHandler) Results(c *gin.Context) {
	childID, ok := ParseUintParam(c, "child_id")
	if !ok {
		return
	}

	view, err := h.dashboardService.Results(c.Request.Context(), CurrentUser(c), childID, h.popPending(c, childID))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Evaluation results", view)
}

// popPending consumes the summary left by the last submission for this subject.
func (h *DashboardHandler) popPending(c *gin.Context, subjectUserID uint) *models.EvaluationSummary {
	sess := session.From(c)
	pending, ok := sess.PopPendingSummary(subjectUserID)
	if !ok {
		return nil
	}
	if err := sess.Save(); err != nil {
		h.LogError(c, err, "Failed to save session")
	}
	return pending
}
