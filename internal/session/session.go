// Package session holds the short-lived per-browser state of the screening
// flow: the signed-in user, the subject a parent is acting for, evaluation
// timers and the summary shown once after a submission.
package session

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/dyslexiaaid/screening-service/internal/models"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const (
	CookieName = "screening_session"

	keyUserID         = "user_id"
	keyCurrentSubject = "current_subject_id"
	keyImpersonator   = "impersonator_id"
	keyImpersonatedAt = "impersonated_at"
	keyPendingSummary = "pending_summary"
	keyEvalStartedAt  = "evaluation_started_at:"
)

// Middleware installs a signed cookie store. Values are gob encoded, so only
// builtin scalar types are stored.
func Middleware(secret string, secure bool) gin.HandlerFunc {
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400 * 7,
	})
	return sessions.Sessions(CookieName, store)
}

// Context is a typed view over the request's session.
type Context struct {
	s sessions.Session
}

func From(c *gin.Context) *Context {
	return &Context{s: sessions.Default(c)}
}

func (s *Context) Save() error {
	return s.s.Save()
}

func (s *Context) UserID() (uint, bool) {
	return s.getUint(keyUserID)
}

func (s *Context) Login(userID uint) {
	s.s.Clear()
	s.s.Set(keyUserID, userID)
}

// Clear drops every value and expires the cookie.
func (s *Context) Clear() {
	s.s.Clear()
	s.s.Options(sessions.Options{Path: "/", MaxAge: -1})
}

// CurrentSubject is the subject user a parent last selected or evaluated for.
func (s *Context) CurrentSubject() (uint, bool) {
	return s.getUint(keyCurrentSubject)
}

func (s *Context) SetCurrentSubject(subjectUserID uint) {
	s.s.Set(keyCurrentSubject, subjectUserID)
}

func (s *Context) ClearCurrentSubject() {
	s.s.Delete(keyCurrentSubject)
}

// Impersonation records a parent acting as one of their children.
type Impersonation struct {
	ParentID uint
	Since    time.Time
}

// Impersonate signs in as the child while remembering the parent.
func (s *Context) Impersonate(parentID, childUserID uint, at time.Time) {
	s.s.Clear()
	s.s.Set(keyUserID, childUserID)
	s.s.Set(keyCurrentSubject, childUserID)
	s.s.Set(keyImpersonator, parentID)
	s.s.Set(keyImpersonatedAt, at.Unix())
}

func (s *Context) Impersonation() (Impersonation, bool) {
	parentID, ok := s.getUint(keyImpersonator)
	if !ok {
		return Impersonation{}, false
	}
	at, _ := s.s.Get(keyImpersonatedAt).(int64)
	return Impersonation{ParentID: parentID, Since: time.Unix(at, 0)}, true
}

// EndImpersonation restores the parent as the signed-in user.
func (s *Context) EndImpersonation() (uint, bool) {
	imp, ok := s.Impersonation()
	if !ok {
		return 0, false
	}
	s.Login(imp.ParentID)
	return imp.ParentID, true
}

func (s *Context) StartEvaluation(subtype models.Subtype, at time.Time) {
	s.s.Set(keyEvalStartedAt+string(subtype), at.Unix())
}

// EvaluationStartedAt returns when the questions for subtype were served.
func (s *Context) EvaluationStartedAt(subtype models.Subtype) (time.Time, bool) {
	at, ok := s.s.Get(keyEvalStartedAt + string(subtype)).(int64)
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(at, 0), true
}

func (s *Context) FinishEvaluation(subtype models.Subtype) {
	s.s.Delete(keyEvalStartedAt + string(subtype))
}

func (s *Context) SetPendingSummary(summary models.EvaluationSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	s.s.Set(keyPendingSummary, string(payload))
	return nil
}

// PopPendingSummary returns the summary at most once, and only to the
// dashboard of the subject it was recorded for. The caller must Save.
func (s *Context) PopPendingSummary(subjectUserID uint) (*models.EvaluationSummary, bool) {
	raw, ok := s.s.Get(keyPendingSummary).(string)
	if !ok {
		return nil, false
	}

	var summary models.EvaluationSummary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		s.s.Delete(keyPendingSummary)
		return nil, false
	}
	if summary.SubjectUserID != subjectUserID {
		return nil, false
	}
	s.s.Delete(keyPendingSummary)
	return &summary, true
}

func (s *Context) getUint(key string) (uint, bool) {
	switch v := s.s.Get(key).(type) {
	case uint:
		return v, v != 0
	case int:
		return uint(v), v > 0
	case string:
		n, err := strconv.ParseUint(v, 10, 64)
		return uint(n), err == nil && n != 0
	default:
		return 0, false
	}
}
