package handlers

import (
	"net/http"
	"net/url"

	"github.com/dyslexiaaid/screening-service/internal/models"
	"github.com/dyslexiaaid/screening-service/internal/services"
	"github.com/dyslexiaaid/screening-service/internal/session"
	"github.com/dyslexiaaid/screening-service/internal/utils"
	"github.com/dyslexiaaid/screening-service/internal/validator"
	"github.com/gin-gonic/gin"
)

type SubjectHandler struct {
	BaseHandler
	profileService services.ProfileService
	validator      *validator.Validator
}

func NewSubjectHandler(profileService services.ProfileService, validator *validator.Validator, logger utils.Logger) *SubjectHandler {
	return &SubjectHandler{
		BaseHandler:    NewBaseHandler(logger),
		profileService: profileService,
		validator:      validator,
	}
}

type typeSelectionRequest struct {
	DyslexiaType string `form:"dyslexia_type" json:"dyslexia_type" validate:"required,dyslexia_type"`
}

// TypeSelectionForm lists the selectable subtypes and the current choice.
func (h *SubjectHandler) TypeSelectionForm(c *gin.Context) {
	childID, ok := ParseUintParam(c, "child_id")
	if !ok {
		return
	}

	profile, err := h.profileService.GetSubject(c.Request.Context(), CurrentUser(c), childID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Type selection", gin.H{
		"profile":  profile,
		"current":  profile.AssignedSubtype(),
		"subtypes": models.SubtypeNames(),
	})
}

// SelectType assigns the posted subtype and sends the caller to its
// evaluation.
func (h *SubjectHandler) SelectType(c *gin.Context) {
	childID, ok := ParseUintParam(c, "child_id")
	if !ok {
		return
	}
	h.LogRequest(c, "Selecting dyslexia type", "child_id", childID)

	var req typeSelectionRequest
	if err := c.ShouldBind(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", nil, err.Error())
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	subtype := models.Subtype(req.DyslexiaType)
	if _, err := h.profileService.SelectSubtype(c.Request.Context(), CurrentUser(c), childID, subtype); err != nil {
		h.handleServiceError(c, err)
		return
	}

	sess := session.From(c)
	sess.SetCurrentSubject(childID)
	if err := sess.Save(); err != nil {
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to save session", err)
		return
	}
	c.Redirect(http.StatusFound, EvaluationPath(subtype))
}

func EvaluationPath(subtype models.Subtype) string {
	return "/evaluation/" + url.PathEscape(string(subtype))
}
