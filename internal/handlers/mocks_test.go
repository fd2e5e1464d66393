package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/dyslexiaaid/screening-service/internal/auth"
	"github.com/dyslexiaaid/screening-service/internal/models"
	"github.com/dyslexiaaid/screening-service/internal/repositories"
	"github.com/dyslexiaaid/screening-service/internal/services"
	"github.com/dyslexiaaid/screening-service/internal/session"
	"github.com/dyslexiaaid/screening-service/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
)

func testLogger() utils.Logger {
	return utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// newTestEngine installs sessions and signs user in without touching storage.
func newTestEngine(user *models.User, register func(r *gin.Engine)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(session.Middleware("test-session-secret", false))
	r.Use(func(c *gin.Context) {
		if user != nil {
			setCurrentUser(c, user)
		}
		c.Next()
	})
	register(r)
	return r
}

// withCookies copies the session cookie set by a previous response.
func withCookies(req *http.Request, rec *httptest.ResponseRecorder) *http.Request {
	for _, cookie := range rec.Result().Cookies() {
		req.AddCookie(cookie)
	}
	return req
}

type mockProfileService struct {
	mock.Mock
}

func (m *mockProfileService) GetSubject(ctx context.Context, actor *models.User, subjectUserID uint) (*models.Profile, error) {
	args := m.Called(ctx, actor, subjectUserID)
	profile, _ := args.Get(0).(*models.Profile)
	return profile, args.Error(1)
}

func (m *mockProfileService) SelectSubtype(ctx context.Context, actor *models.User, subjectUserID uint, subtype models.Subtype) (*services.SelectionResult, error) {
	args := m.Called(ctx, actor, subjectUserID, subtype)
	result, _ := args.Get(0).(*services.SelectionResult)
	return result, args.Error(1)
}

func (m *mockProfileService) ResolveSubject(ctx context.Context, actor *models.User, currentSubjectID *uint) (*models.Profile, error) {
	args := m.Called(ctx, actor, currentSubjectID)
	profile, _ := args.Get(0).(*models.Profile)
	return profile, args.Error(1)
}

type mockEvaluationService struct {
	mock.Mock
}

func (m *mockEvaluationService) Questions(subtype models.Subtype) []models.QuestionView {
	args := m.Called(subtype)
	views, _ := args.Get(0).([]models.QuestionView)
	return views
}

func (m *mockEvaluationService) Submit(ctx context.Context, actor *models.User, subtype models.Subtype, batch models.ResponseBatch, evalCtx services.EvaluationContext) (*services.SubmissionResult, error) {
	args := m.Called(ctx, actor, subtype, batch, evalCtx)
	result, _ := args.Get(0).(*services.SubmissionResult)
	return result, args.Error(1)
}

func (m *mockEvaluationService) LatestSummary(ctx context.Context, profileID uint) (*models.EvaluationSummary, error) {
	args := m.Called(ctx, profileID)
	summary, _ := args.Get(0).(*models.EvaluationSummary)
	return summary, args.Error(1)
}

type mockDashboardService struct {
	mock.Mock
}

func (m *mockDashboardService) ChildDashboard(ctx context.Context, actor *models.User, subjectUserID uint, pending *models.EvaluationSummary) (*services.DashboardView, error) {
	args := m.Called(ctx, actor, subjectUserID, pending)
	view, _ := args.Get(0).(*services.DashboardView)
	return view, args.Error(1)
}

func (m *mockDashboardService) Results(ctx context.Context, actor *models.User, subjectUserID uint, pending *models.EvaluationSummary) (*services.ResultsView, error) {
	args := m.Called(ctx, actor, subjectUserID, pending)
	view, _ := args.Get(0).(*services.ResultsView)
	return view, args.Error(1)
}

type stubExportService struct {
	body string
	err  error
}

func (s *stubExportService) BuildTable(ctx context.Context, filters repositories.EvaluationFilters) (*services.ExportTable, error) {
	return &services.ExportTable{}, s.err
}

func (s *stubExportService) Write(ctx context.Context, w io.Writer, format services.ExportFormat, filters repositories.EvaluationFilters) error {
	if s.err != nil {
		return s.err
	}
	_, err := io.WriteString(w, s.body)
	return err
}

type stubRecognizer struct {
	text string
	err  error
}

func (s *stubRecognizer) Recognize(ctx context.Context, audio io.Reader) (string, error) {
	if _, err := io.ReadAll(audio); err != nil {
		return "", err
	}
	return s.text, s.err
}

type stubVerifier struct {
	principal *auth.Principal
	err       error
}

func (s *stubVerifier) Verify(token string) (*auth.Principal, error) {
	return s.principal, s.err
}
