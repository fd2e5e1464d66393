package handlers

import (
	"net/http"
	"time"

	"github.com/dyslexiaaid/screening-service/internal/services"
	"github.com/dyslexiaaid/screening-service/internal/session"
	"github.com/dyslexiaaid/screening-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const loginRedirectPath = "/login/redirect"

type AccountHandler struct {
	BaseHandler
	accountService services.AccountService
	now            func() time.Time
}

func NewAccountHandler(accountService services.AccountService, logger utils.Logger) *AccountHandler {
	return &AccountHandler{
		BaseHandler:    NewBaseHandler(logger),
		accountService: accountService,
		now:            time.Now,
	}
}

type loginRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// RegisterParent creates a parent account and signs it in.
func (h *AccountHandler) RegisterParent(c *gin.Context) {
	h.LogRequest(c, "Registering parent")

	var req services.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", nil, err.Error())
		return
	}

	user, err := h.accountService.RegisterParent(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	if !h.signIn(c, user.ID) {
		return
	}
	h.RespondWithSuccess(c, http.StatusCreated, "Parent registered", user)
}

// RegisterIndependent creates a self-evaluating account and signs it in.
func (h *AccountHandler) RegisterIndependent(c *gin.Context) {
	h.LogRequest(c, "Registering independent user")

	var req services.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", nil, err.Error())
		return
	}

	user, profile, err := h.accountService.RegisterIndependent(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	if !h.signIn(c, user.ID) {
		return
	}
	h.RespondWithSuccess(c, http.StatusCreated, "Account registered", gin.H{
		"user":    user,
		"profile": profile,
	})
}

// RegisterChild lets a signed-in parent add a child account.
func (h *AccountHandler) RegisterChild(c *gin.Context) {
	parent := CurrentUser(c)
	h.LogRequest(c, "Registering child")

	var req services.RegisterChildRequest
	if err := c.ShouldBind(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", nil, err.Error())
		return
	}

	profile, err := h.accountService.RegisterChild(c.Request.Context(), parent, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusCreated, "Child registered", profile)
}

// Login checks credentials and redirects to the role's landing page.
func (h *AccountHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", nil, err.Error())
		return
	}

	user, err := h.accountService.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	if !h.signIn(c, user.ID) {
		return
	}
	c.Redirect(http.StatusFound, loginRedirectPath)
}

// Logout drops the whole session, including any impersonation.
func (h *AccountHandler) Logout(c *gin.Context) {
	sess := session.From(c)
	sess.Clear()
	if err := sess.Save(); err != nil {
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to end session", err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Logged out", nil)
}

func (h *AccountHandler) LoginRedirect(c *gin.Context) {
	path, err := h.accountService.LandingPath(c.Request.Context(), CurrentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Redirect(http.StatusFound, path)
}

func (h *AccountHandler) ParentDashboard(c *gin.Context) {
	children, err := h.accountService.ListChildren(c.Request.Context(), CurrentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Children retrieved", gin.H{
		"children": children,
	})
}

func (h *AccountHandler) DeleteChild(c *gin.Context) {
	childID, ok := ParseUintParam(c, "child_id")
	if !ok {
		return
	}
	h.LogRequest(c, "Deleting child", "child_id", childID)

	if err := h.accountService.DeleteChild(c.Request.Context(), CurrentUser(c), childID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	sess := session.From(c)
	if current, ok := sess.CurrentSubject(); ok && current == childID {
		sess.ClearCurrentSubject()
		if err := sess.Save(); err != nil {
			h.LogError(c, err, "Failed to save session")
		}
	}
	h.RespondWithSuccess(c, http.StatusOK, "Child deleted", nil)
}

// SwitchToChild signs the parent in as one of their children until they
// switch back or log out.
func (h *AccountHandler) SwitchToChild(c *gin.Context) {
	childID, ok := ParseUintParam(c, "child_id")
	if !ok {
		return
	}
	parent := CurrentUser(c)

	if _, err := h.accountService.SwitchToChild(c.Request.Context(), parent, childID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	sess := session.From(c)
	sess.Impersonate(parent.ID, childID, h.now())
	if err := sess.Save(); err != nil {
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to save session", err)
		return
	}
	c.Redirect(http.StatusFound, services.ChildDashboardPath(childID))
}

func (h *AccountHandler) SwitchBack(c *gin.Context) {
	sess := session.From(c)
	if _, ok := sess.EndImpersonation(); !ok {
		h.RespondWithError(c, http.StatusBadRequest, services.ErrNotImpersonating.Error(), nil)
		return
	}
	if err := sess.Save(); err != nil {
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to save session", err)
		return
	}
	c.Redirect(http.StatusFound, services.ParentDashboardPath)
}

func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	childID, ok := ParseUintParam(c, "child_id")
	if !ok {
		return
	}

	var req services.UpdateProfileRequest
	if err := c.ShouldBind(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", nil, err.Error())
		return
	}

	profile, err := h.accountService.UpdateProfile(c.Request.Context(), CurrentUser(c), childID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Profile updated", profile)
}

// signIn replaces the session with one for userID. It writes an error
// response and returns false when the session cannot be saved.
func (h *AccountHandler) signIn(c *gin.Context, userID uint) bool {
	sess := session.From(c)
	sess.Login(userID)
	if err := sess.Save(); err != nil {
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to start session", err)
		return false
	}
	return true
}
