package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dyslexiaaid/screening-service/internal/auth"
	"github.com/dyslexiaaid/screening-service/internal/models"
	"github.com/dyslexiaaid/screening-service/internal/services"
	"github.com/dyslexiaaid/screening-service/internal/speech"
	"github.com/dyslexiaaid/screening-service/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestSubjectHandler_SelectType(t *testing.T) {
	parent := &models.User{ID: 1, Role: models.RoleParent}
	profiles := &mockProfileService{}
	handler := NewSubjectHandler(profiles, validator.New(), testLogger())
	engine := newTestEngine(parent, func(r *gin.Engine) {
		r.POST("/subjects/:child_id/type-selection", handler.SelectType)
	})

	t.Run("unknown type is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, postForm("/subjects/2/type-selection", url.Values{"dyslexia_type": {"Spelling"}}))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "dyslexia_type")
		profiles.AssertNotCalled(t, "SelectSubtype", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing type is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, postForm("/subjects/2/type-selection", url.Values{}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("valid type redirects to the evaluation", func(t *testing.T) {
		profiles.On("SelectSubtype", mock.Anything, parent, uint(2), models.SubtypeVisual).
			Return(&services.SelectionResult{Changed: true}, nil).Once()

		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, postForm("/subjects/2/type-selection", url.Values{"dyslexia_type": {"Visual dyslexia"}}))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/evaluation/Visual%20dyslexia", rec.Header().Get("Location"))
		profiles.AssertExpectations(t)
	})

	t.Run("foreign child is forbidden", func(t *testing.T) {
		profiles.On("SelectSubtype", mock.Anything, parent, uint(3), models.SubtypeSurface).
			Return(nil, services.NewPermissionError(1, 3, "profile", "select_subtype", "not the subject or their parent")).Once()

		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, postForm("/subjects/3/type-selection", url.Values{"dyslexia_type": {"Surface dyslexia"}}))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestEvaluationHandler_SubmitThenDashboardShowsSummaryOnce(t *testing.T) {
	child := &models.User{ID: 2, Role: models.RoleChild}
	evaluations := &mockEvaluationService{}
	dashboards := &mockDashboardService{}
	evalHandler := NewEvaluationHandler(evaluations, testLogger())
	dashHandler := NewDashboardHandler(dashboards, testLogger())
	engine := newTestEngine(child, func(r *gin.Engine) {
		r.POST("/evaluation/:subtype", evalHandler.Submit)
		r.GET("/dashboard/child/:child_id", dashHandler.ChildDashboard)
	})

	evaluations.On("Questions", models.SubtypePhonological).
		Return([]models.QuestionView{{ID: 1}, {ID: 2}})
	evaluations.On("Submit", mock.Anything, child, models.SubtypePhonological,
		mock.MatchedBy(func(b models.ResponseBatch) bool {
			return b.Answers[1] == "cat" && b.Answers[2] == "" &&
				assert.ObjectsAreEqual([]int{1, 2}, b.AssistiveTech) &&
				b.Latencies[1] == 2.5 &&
				b.StartedAt.Equal(time.Unix(1700000000, 0))
		}), services.EvaluationContext{}).
		Return(&services.SubmissionResult{
			Result: &models.EvaluationResult{
				Subtype:        models.SubtypePhonological,
				Score:          1,
				TotalQuestions: 2,
				Percentage:     50,
			},
			RecordID: 5,
			Profile:  &models.Profile{ID: 10, SubjectUserID: 2},
		}, nil).Once()

	form := url.Values{
		"q1":             {"cat"},
		"tts_usage":      {`[1, "2"]`},
		"response_times": {`{"1": 2.5}`},
		"start_time":     {"1700000000"},
	}
	submitRec := httptest.NewRecorder()
	engine.ServeHTTP(submitRec, postForm("/evaluation/Phonological%20dyslexia", form))

	require.Equal(t, http.StatusFound, submitRec.Code)
	assert.Equal(t, "/dashboard/child/2", submitRec.Header().Get("Location"))
	evaluations.AssertExpectations(t)

	dashboards.On("ChildDashboard", mock.Anything, child, uint(2),
		mock.MatchedBy(func(p *models.EvaluationSummary) bool { return p != nil && p.RecordID == 5 })).
		Return(&services.DashboardView{EvaluationCompleted: true}, nil).Once()
	dashboards.On("ChildDashboard", mock.Anything, child, uint(2),
		mock.MatchedBy(func(p *models.EvaluationSummary) bool { return p == nil })).
		Return(&services.DashboardView{}, nil).Once()

	firstRec := httptest.NewRecorder()
	engine.ServeHTTP(firstRec, withCookies(httptest.NewRequest(http.MethodGet, "/dashboard/child/2", nil), submitRec))
	require.Equal(t, http.StatusOK, firstRec.Code)

	secondRec := httptest.NewRecorder()
	engine.ServeHTTP(secondRec, withCookies(httptest.NewRequest(http.MethodGet, "/dashboard/child/2", nil), firstRec))
	require.Equal(t, http.StatusOK, secondRec.Code)

	dashboards.AssertExpectations(t)
}

func TestEvaluationHandler_UnknownSubtype(t *testing.T) {
	evaluations := &mockEvaluationService{}
	handler := NewEvaluationHandler(evaluations, testLogger())
	engine := newTestEngine(&models.User{ID: 2, Role: models.RoleChild}, func(r *gin.Engine) {
		r.GET("/evaluation/:subtype", handler.Questions)
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/evaluation/Dysgraphia", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	evaluations.AssertNotCalled(t, "Questions", mock.Anything)
}

func speechRequest(t *testing.T, audio []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if audio != nil {
		part, err := writer.CreateFormFile("audio", "answer.webm")
		require.NoError(t, err)
		_, err = part.Write(audio)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/speech-to-text", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestSpeechHandler_SpeechToText(t *testing.T) {
	tests := []struct {
		name       string
		audio      []byte
		recognizer *stubRecognizer
		expected   SpeechResponse
	}{
		{"missing file", nil, &stubRecognizer{}, SpeechResponse{Error: "No audio file provided"}},
		{"transcribed", []byte("RIFF"), &stubRecognizer{text: "cat"}, SpeechResponse{Success: true, Text: "cat"}},
		{"not understood", []byte("RIFF"), &stubRecognizer{err: speech.ErrNoSpeech}, SpeechResponse{Error: "Could not understand audio"}},
		{"too large", []byte("RIFF"), &stubRecognizer{err: speech.ErrAudioTooLarge}, SpeechResponse{Error: "Audio file is too large"}},
		{"service failure", []byte("RIFF"), &stubRecognizer{err: errors.New("timeout")}, SpeechResponse{Error: "Speech recognition service error"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewSpeechHandler(tt.recognizer, testLogger())
			engine := newTestEngine(&models.User{ID: 2, Role: models.RoleChild}, func(r *gin.Engine) {
				r.POST("/speech-to-text", handler.SpeechToText)
			})

			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, speechRequest(t, tt.audio))

			assert.Equal(t, http.StatusOK, rec.Code)
			var got SpeechResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestAdminRequired(t *testing.T) {
	tests := []struct {
		name     string
		user     *models.User
		header   string
		verifier auth.TokenVerifier
		expected int
	}{
		{"staff session", &models.User{ID: 1, IsStaff: true}, "", nil, http.StatusOK},
		{"plain user", &models.User{ID: 2, Role: models.RoleParent}, "", nil, http.StatusForbidden},
		{"guest", nil, "", nil, http.StatusForbidden},
		{"admin token", nil, "Bearer abc", &stubVerifier{principal: &auth.Principal{Name: "ops", IsAdmin: true}}, http.StatusOK},
		{"non-admin token", nil, "Bearer abc", &stubVerifier{principal: &auth.Principal{Name: "dev"}}, http.StatusForbidden},
		{"invalid token", nil, "Bearer abc", &stubVerifier{err: auth.ErrInvalidToken}, http.StatusForbidden},
		{"token without verifier", nil, "Bearer abc", nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(tt.user, func(r *gin.Engine) {
				r.GET("/admin/ping", AdminRequired(tt.verifier, testLogger()), func(c *gin.Context) {
					c.Status(http.StatusOK)
				})
			})

			req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, req)
			assert.Equal(t, tt.expected, rec.Code)
		})
	}
}

func TestAuthRequired(t *testing.T) {
	engine := newTestEngine(nil, func(r *gin.Engine) {
		r.GET("/lessons", AuthRequired(), func(c *gin.Context) { c.Status(http.StatusOK) })
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lessons", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExportHandler_ExportEvaluations(t *testing.T) {
	handler := NewExportHandler(&stubExportService{body: "record_id,user_id\n"}, testLogger())
	engine := newTestEngine(&models.User{ID: 1, IsStaff: true}, func(r *gin.Engine) {
		r.GET("/admin/export", handler.ExportEvaluations)
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/export?format=csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "dyslexia_training_data.csv")
	assert.Equal(t, "record_id,user_id\n", rec.Body.String())

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/export?format=pdf", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/export?date_from=yesterday", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEvaluationHandler_SummaryStaysWithItsSubject(t *testing.T) {
	parent := &models.User{ID: 1, Role: models.RoleParent}
	evaluations := &mockEvaluationService{}
	dashboards := &mockDashboardService{}
	evalHandler := NewEvaluationHandler(evaluations, testLogger())
	dashHandler := NewDashboardHandler(dashboards, testLogger())
	engine := newTestEngine(parent, func(r *gin.Engine) {
		r.POST("/evaluation/:subtype", evalHandler.Submit)
		r.GET("/dashboard/child/:child_id", dashHandler.ChildDashboard)
	})

	evaluations.On("Questions", models.SubtypeVisual).Return([]models.QuestionView{{ID: 1}})
	evaluations.On("Submit", mock.Anything, parent, models.SubtypeVisual, mock.Anything, mock.Anything).
		Return(&services.SubmissionResult{
			Result:   &models.EvaluationResult{Subtype: models.SubtypeVisual, Score: 1, TotalQuestions: 1, Percentage: 100},
			RecordID: 9,
			Profile:  &models.Profile{ID: 20, SubjectUserID: 7, ParentUserID: &parent.ID},
		}, nil).Once()

	submitRec := httptest.NewRecorder()
	engine.ServeHTTP(submitRec, postForm("/evaluation/Visual%20dyslexia", url.Values{"q1": {"b"}}))
	require.Equal(t, http.StatusFound, submitRec.Code)
	assert.Equal(t, "/dashboard/child/7", submitRec.Header().Get("Location"))

	dashboards.On("ChildDashboard", mock.Anything, parent, uint(8),
		mock.MatchedBy(func(p *models.EvaluationSummary) bool { return p == nil })).
		Return(&services.DashboardView{}, nil).Once()
	dashboards.On("ChildDashboard", mock.Anything, parent, uint(7),
		mock.MatchedBy(func(p *models.EvaluationSummary) bool {
			return p != nil && p.RecordID == 9 && p.SubjectUserID == 7
		})).
		Return(&services.DashboardView{EvaluationCompleted: true}, nil).Once()

	otherRec := httptest.NewRecorder()
	engine.ServeHTTP(otherRec, withCookies(httptest.NewRequest(http.MethodGet, "/dashboard/child/8", nil), submitRec))
	require.Equal(t, http.StatusOK, otherRec.Code)

	ownRec := httptest.NewRecorder()
	engine.ServeHTTP(ownRec, withCookies(httptest.NewRequest(http.MethodGet, "/dashboard/child/7", nil), submitRec))
	require.Equal(t, http.StatusOK, ownRec.Code)

	dashboards.AssertExpectations(t)
}

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"validation", services.ValidationErrors{{Field: "dyslexia_type", Message: "is invalid"}}, http.StatusBadRequest},
		{"unknown subtype", services.ErrUnknownSubtype, http.StatusBadRequest},
		{"permission", services.NewPermissionError(1, 2, "profile", "read", "nope"), http.StatusForbidden},
		{"not parent", services.ErrNotParent, http.StatusForbidden},
		{"lesson for parent", services.ErrLessonAccessDenied, http.StatusForbidden},
		{"missing profile", services.ErrProfileNotFound, http.StatusNotFound},
		{"username taken", services.ErrUsernameTaken, http.StatusConflict},
		{"bad credentials", services.ErrInvalidCredentials, http.StatusUnauthorized},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewBaseHandler(testLogger())
			engine := newTestEngine(nil, func(r *gin.Engine) {
				r.GET("/", func(c *gin.Context) { h.handleServiceError(c, tt.err) })
			})

			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.expected, rec.Code)
		})
	}
}
