package session

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/dyslexiaaid/screening-service/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// sessionClient replays cookies between requests against one router.
type sessionClient struct {
	t       *testing.T
	router  *gin.Engine
	cookies []*http.Cookie
}

func newSessionClient(t *testing.T, routes func(r *gin.Engine)) *sessionClient {
	r := gin.New()
	r.Use(Middleware("test-secret", false))
	routes(r)
	return &sessionClient{t: t, router: r}
}

func (sc *sessionClient) do(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range sc.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	sc.router.ServeHTTP(w, req)
	if fresh := w.Result().Cookies(); len(fresh) > 0 {
		sc.cookies = fresh
	}
	return w
}

func TestLoginAndClear(t *testing.T) {
	client := newSessionClient(t, func(r *gin.Engine) {
		r.GET("/login", func(c *gin.Context) {
			s := From(c)
			s.Login(12)
			require.NoError(t, s.Save())
		})
		r.GET("/whoami", func(c *gin.Context) {
			id, ok := From(c).UserID()
			c.JSON(http.StatusOK, gin.H{"id": id, "ok": ok})
		})
		r.GET("/logout", func(c *gin.Context) {
			s := From(c)
			s.Clear()
			require.NoError(t, s.Save())
		})
	})

	client.do("/login")
	assert.JSONEq(t, `{"id": 12, "ok": true}`, client.do("/whoami").Body.String())

	client.do("/logout")
	assert.JSONEq(t, `{"id": 0, "ok": false}`, client.do("/whoami").Body.String())
}

func TestImpersonation(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	client := newSessionClient(t, func(r *gin.Engine) {
		r.GET("/switch", func(c *gin.Context) {
			s := From(c)
			s.Login(1)
			s.Impersonate(1, 5, at)
			require.NoError(t, s.Save())
		})
		r.GET("/state", func(c *gin.Context) {
			s := From(c)
			user, _ := s.UserID()
			subject, _ := s.CurrentSubject()
			imp, ok := s.Impersonation()
			c.JSON(http.StatusOK, gin.H{"user": user, "subject": subject, "parent": imp.ParentID, "since": imp.Since.Unix(), "ok": ok})
		})
		r.GET("/back", func(c *gin.Context) {
			s := From(c)
			_, ok := s.EndImpersonation()
			require.True(t, ok)
			require.NoError(t, s.Save())
		})
	})

	client.do("/switch")
	w := client.do("/state")
	assert.JSONEq(t, `{"user": 5, "subject": 5, "parent": 1, "since": 1709285400, "ok": true}`, w.Body.String())

	client.do("/back")
	w = client.do("/state")
	assert.JSONEq(t, `{"user": 1, "subject": 0, "parent": 0, "since": -62135596800, "ok": false}`, w.Body.String())
}

func TestPendingSummaryIsConsumedOnce(t *testing.T) {
	client := newSessionClient(t, func(r *gin.Engine) {
		r.GET("/submit", func(c *gin.Context) {
			s := From(c)
			require.NoError(t, s.SetPendingSummary(models.EvaluationSummary{RecordID: 3, SubjectUserID: 7, Score: 4, TotalQuestions: 5, Percentage: 80}))
			require.NoError(t, s.Save())
		})
		r.GET("/dashboard/:subject", func(c *gin.Context) {
			s := From(c)
			subject, _ := strconv.ParseUint(c.Param("subject"), 10, 64)
			summary, ok := s.PopPendingSummary(uint(subject))
			require.NoError(t, s.Save())
			if !ok {
				c.JSON(http.StatusOK, gin.H{"ok": false})
				return
			}
			c.JSON(http.StatusOK, gin.H{"ok": true, "score": summary.Score})
		})
	})

	client.do("/submit")
	assert.JSONEq(t, `{"ok": false}`, client.do("/dashboard/8").Body.String(), "another subject's dashboard")
	assert.JSONEq(t, `{"ok": true, "score": 4}`, client.do("/dashboard/7").Body.String())
	assert.JSONEq(t, `{"ok": false}`, client.do("/dashboard/7").Body.String())
}

func TestEvaluationTimer(t *testing.T) {
	started := time.Unix(1700000000, 0)
	client := newSessionClient(t, func(r *gin.Engine) {
		r.GET("/start", func(c *gin.Context) {
			s := From(c)
			s.StartEvaluation(models.SubtypeVisual, started)
			require.NoError(t, s.Save())
		})
		r.GET("/finish", func(c *gin.Context) {
			s := From(c)
			at, ok := s.EvaluationStartedAt(models.SubtypeVisual)
			_, other := s.EvaluationStartedAt(models.SubtypeSurface)
			s.FinishEvaluation(models.SubtypeVisual)
			require.NoError(t, s.Save())
			c.JSON(http.StatusOK, gin.H{"at": at.Unix(), "ok": ok, "other": other})
		})
	})

	client.do("/start")
	assert.JSONEq(t, `{"at": 1700000000, "ok": true, "other": false}`, client.do("/finish").Body.String())
	assert.JSONEq(t, `{"at": -62135596800, "ok": false, "other": false}`, client.do("/finish").Body.String())
}
