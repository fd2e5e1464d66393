package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dyslexiaaid/screening-service/internal/cache"
	"github.com/dyslexiaaid/screening-service/internal/classifier"
	"github.com/dyslexiaaid/screening-service/internal/events"
	"github.com/dyslexiaaid/screening-service/internal/models"
	"github.com/dyslexiaaid/screening-service/internal/repositories"
	"github.com/dyslexiaaid/screening-service/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestDashboardService(suggester classifier.Suggester) (DashboardService, *MockRepository) {
	repo := NewMockRepository()
	publisher := events.NewMockEventPublisher(nil)
	memory := cache.NewMemoryCache()
	profiles := NewProfileService(repo, publisher, discardLogger())
	evaluations := NewEvaluationService(repo, profiles, scoring.NewScorer(), publisher, memory, discardLogger())
	return NewDashboardService(repo, profiles, evaluations, suggester, memory, discardLogger()), repo
}

func TestDashboardService_ChildDashboardWithPendingSummary(t *testing.T) {
	service, repo := newTestDashboardService(&stubSuggester{err: classifier.ErrUnavailable})
	ctx := context.Background()

	child := &models.User{ID: 2, Role: models.RoleChild}
	profile := &models.Profile{ID: 10, SubjectUserID: 2, Subtype: subtypePtr(models.SubtypePhonological)}
	repo.Profiles.On("GetBySubjectUserID", mock.Anything, uint(2)).Return(profile, nil)
	repo.Evaluations.On("CountByProfile", mock.Anything, uint(10)).Return(int64(1), nil)
	repo.Lessons.On("GetProgress", mock.Anything, uint(2)).Return(&repositories.LessonProgress{Attempts: 6, CorrectAttempts: 3, Accuracy: 50}, nil)

	pending := &models.EvaluationSummary{RecordID: 11, Subtype: models.SubtypePhonological, Score: 13, TotalQuestions: 20, Percentage: 65}
	view, err := service.ChildDashboard(ctx, child, 2, pending)
	require.NoError(t, err)

	assert.Equal(t, models.StateEvaluated, view.State)
	assert.Equal(t, models.SubtypePhonological, view.AssignedSubtype)
	assert.Nil(t, view.SuggestedSubtype)
	assert.True(t, view.EvaluationCompleted)
	assert.Equal(t, models.SeverityModerate, view.Progress.Severity)
	assert.Equal(t, 13, view.Progress.Completed)
	assert.Equal(t, 3, view.Progress.Points)
	require.Len(t, view.Modules, 2)
	assert.Equal(t, 50, view.Modules[0].Progress)
	repo.Evaluations.AssertNotCalled(t, "GetLatestForProfile", mock.Anything, mock.Anything)
}

func TestDashboardService_SuggestionIsCached(t *testing.T) {
	suggester := &stubSuggester{label: "Visual"}
	service, repo := newTestDashboardService(suggester)
	ctx := context.Background()

	child := &models.User{ID: 2, Role: models.RoleChild}
	profile := &models.Profile{ID: 10, SubjectUserID: 2}
	repo.Profiles.On("GetBySubjectUserID", mock.Anything, uint(2)).Return(profile, nil)
	repo.Evaluations.On("CountByProfile", mock.Anything, uint(10)).Return(int64(0), nil)
	repo.Lessons.On("GetProgress", mock.Anything, uint(2)).Return(nil, errors.New("db down"))

	for i := 0; i < 2; i++ {
		view, err := service.ChildDashboard(ctx, child, 2, nil)
		require.NoError(t, err)
		require.NotNil(t, view.SuggestedSubtype)
		assert.Equal(t, "Visual", *view.SuggestedSubtype)
		assert.Equal(t, models.StateUnassigned, view.State)
		assert.Empty(t, view.Modules)
	}
	assert.Equal(t, 1, suggester.calls)
}

func TestDashboardService_ChildDashboardForbidden(t *testing.T) {
	service, repo := newTestDashboardService(&stubSuggester{})
	profile := &models.Profile{ID: 10, SubjectUserID: 2, ParentUserID: uintPtr(1)}
	repo.Profiles.On("GetBySubjectUserID", mock.Anything, uint(2)).Return(profile, nil)

	_, err := service.ChildDashboard(context.Background(), &models.User{ID: 3, Role: models.RoleChild}, 2, nil)
	assert.True(t, IsUnauthorized(err))
}

func TestDashboardService_ResultsSeverity(t *testing.T) {
	service, repo := newTestDashboardService(&stubSuggester{})
	parent := &models.User{ID: 1, Role: models.RoleParent}
	profile := &models.Profile{ID: 10, SubjectUserID: 2, ParentUserID: uintPtr(1)}
	repo.Profiles.On("GetBySubjectUserID", mock.Anything, uint(2)).Return(profile, nil)
	repo.Evaluations.On("GetLatestForProfile", mock.Anything, uint(10)).
		Return(&models.EvaluationRecord{ID: 5, Subtype: models.SubtypeVisual, Score: 3, TotalQuestions: 10, Percentage: 30, CreatedAt: time.Now()}, nil)

	view, err := service.Results(context.Background(), parent, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, models.SeveritySevere, view.Severity)
	assert.Equal(t, models.SubtypeVisual, view.Subtype)

	view, err = service.Results(context.Background(), parent, 2, &models.EvaluationSummary{Percentage: 85, Subtype: models.SubtypeVisual})
	require.NoError(t, err)
	assert.Equal(t, models.SeverityMild, view.Severity)
}
