package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dyslexiaaid/screening-service/internal/cache"
	"github.com/dyslexiaaid/screening-service/internal/classifier"
	"github.com/dyslexiaaid/screening-service/internal/models"
	"github.com/dyslexiaaid/screening-service/internal/repositories"
)

const suggestionTTL = time.Hour

func suggestionKey(subjectUserID uint) string {
	return fmt.Sprintf("suggestion:%d", subjectUserID)
}

type dashboardService struct {
	repo        repositories.Repository
	profiles    ProfileService
	evaluations EvaluationService
	suggester   classifier.Suggester
	cache       cache.CacheService
	logger      *slog.Logger
	now         func() time.Time
}

func NewDashboardService(
	repo repositories.Repository,
	profiles ProfileService,
	evaluations EvaluationService,
	suggester classifier.Suggester,
	cacheService cache.CacheService,
	logger *slog.Logger,
) DashboardService {
	return &dashboardService{
		repo:        repo,
		profiles:    profiles,
		evaluations: evaluations,
		suggester:   suggester,
		cache:       cacheService,
		logger:      logger,
		now:         time.Now,
	}
}

// ChildDashboard assembles the subject's home view. pending is the summary
// handed over by a submission that just happened, if any.
func (s *dashboardService) ChildDashboard(ctx context.Context, actor *models.User, subjectUserID uint, pending *models.EvaluationSummary) (*DashboardView, error) {
	profile, err := s.profiles.GetSubject(ctx, actor, subjectUserID)
	if err != nil {
		return nil, err
	}

	evaluated, err := s.repo.Evaluation().CountByProfile(ctx, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count evaluations: %w", err)
	}

	view := &DashboardView{
		Profile:             profile,
		State:               profile.State(evaluated > 0),
		AssignedSubtype:     profile.AssignedSubtype(),
		Modules:             models.ModulesFor(profile.AssignedSubtype()),
		EvaluationCompleted: pending != nil,
	}

	if suggestion, ok := s.suggest(ctx, profile.SubjectUserID); ok {
		view.SuggestedSubtype = &suggestion
	}

	last := pending
	if last == nil && evaluated > 0 {
		if last, err = s.evaluations.LatestSummary(ctx, profile.ID); err != nil {
			s.logger.Warn("Failed to load latest evaluation", "profile_id", profile.ID, "error", err)
			last = nil
		}
	}
	if last != nil {
		view.LastEvaluation = last
		view.Progress = ProgressView{
			Completed:  last.Score,
			Total:      last.TotalQuestions,
			Percentage: last.Percentage,
			Severity:   models.SeverityFor(last.Percentage),
		}
	}

	lessons, err := s.repo.Lesson().GetProgress(ctx, profile.SubjectUserID)
	if err != nil {
		s.logger.Warn("Failed to load lesson progress", "user_id", profile.SubjectUserID, "error", err)
	} else {
		view.Progress.Points = lessons.CorrectAttempts
		for i := range view.Modules {
			view.Modules[i].Progress = int(lessons.Accuracy)
		}
	}

	return view, nil
}

func (s *dashboardService) Results(ctx context.Context, actor *models.User, subjectUserID uint, pending *models.EvaluationSummary) (*ResultsView, error) {
	profile, err := s.profiles.GetSubject(ctx, actor, subjectUserID)
	if err != nil {
		return nil, err
	}

	summary := pending
	if summary == nil {
		if summary, err = s.evaluations.LatestSummary(ctx, profile.ID); err != nil {
			return nil, err
		}
	}

	view := &ResultsView{
		Profile:    profile,
		Evaluation: summary,
		Severity:   models.SeverityFor(0),
		ReviewedAt: s.now().UTC(),
	}
	if summary != nil {
		view.Subtype = summary.Subtype
		view.Percentage = summary.Percentage
		view.Severity = models.SeverityFor(summary.Percentage)
	}
	return view, nil
}

// suggest returns the advisory label, or false when the model cannot answer.
func (s *dashboardService) suggest(ctx context.Context, subjectUserID uint) (string, bool) {
	var cached string
	if err := s.cache.Get(ctx, suggestionKey(subjectUserID), &cached); err == nil {
		return cached, true
	}

	label, err := s.suggester.Suggest(ctx, subjectUserID)
	if err != nil {
		if errors.Is(err, classifier.ErrUnavailable) {
			s.logger.Debug("Subtype suggestion skipped", "subject_user_id", subjectUserID, "reason", err)
		} else {
			s.logger.Error("Subtype suggestion failed", "subject_user_id", subjectUserID, "error", err)
		}
		return "", false
	}

	if err := s.cache.Set(ctx, suggestionKey(subjectUserID), label, suggestionTTL); err != nil {
		s.logger.Warn("Failed to cache subtype suggestion", "subject_user_id", subjectUserID, "error", err)
	}
	return label, true
}
