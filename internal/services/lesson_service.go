package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dyslexiaaid/screening-service/internal/auth"
	"github.com/dyslexiaaid/screening-service/internal/events"
	"github.com/dyslexiaaid/screening-service/internal/models"
	"github.com/dyslexiaaid/screening-service/internal/repositories"
	"github.com/dyslexiaaid/screening-service/internal/validator"
)

type lessonService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	validator *validator.Validator
	logger    *slog.Logger
}

func NewLessonService(repo repositories.Repository, publisher events.EventPublisher, validator *validator.Validator, logger *slog.Logger) LessonService {
	return &lessonService{
		repo:      repo,
		publisher: publisher,
		validator: validator,
		logger:    logger,
	}
}

// List returns the lessons for the caller's assigned subtype, or every lesson
// when the caller has no profile or no subtype yet.
func (s *lessonService) List(ctx context.Context, actor *models.User) (*LessonListView, error) {
	var filters repositories.LessonFilters

	profile, err := s.repo.Profile().GetBySubjectUserID(ctx, actor.ID)
	switch {
	case err == nil:
		filters.Subtype = profile.Subtype
	case repositories.IsNotFoundError(err):
	default:
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	lessons, err := s.repo.Lesson().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	return &LessonListView{Subtype: filters.Subtype, Lessons: lessons}, nil
}

func (s *lessonService) Get(ctx context.Context, actor *models.User, lessonID uint) (*models.Lesson, error) {
	if !auth.CanOpenLessons(actor.Role) {
		return nil, ErrLessonAccessDenied
	}
	lesson, err := s.repo.Lesson().GetByID(ctx, lessonID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	return lesson, nil
}

func (s *lessonService) RecordAttempt(ctx context.Context, actor *models.User, lessonID uint, req *LessonAttemptRequest) (*models.LessonAttempt, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	lesson, err := s.Get(ctx, actor, lessonID)
	if err != nil {
		return nil, err
	}

	choice := strings.ToUpper(strings.TrimSpace(req.SelectedChoice))
	attempt := &models.LessonAttempt{
		UserID:         actor.ID,
		LessonID:       lesson.ID,
		SelectedChoice: choice,
		IsCorrect:      lesson.IsCorrect(choice),
		TimeSpentMs:    req.TimeSpentMs,
		TTSPlays:       req.TTSPlays,
		Repeats:        req.Repeats,
	}
	if err := s.repo.Lesson().CreateAttempt(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to save lesson attempt: %w", err)
	}

	event := events.NewEvent(events.EventLessonAttempted, events.LessonAttemptedEvent{
		AttemptID: attempt.ID,
		LessonID:  lesson.ID,
		UserID:    actor.ID,
		IsCorrect: attempt.IsCorrect,
		Subtype:   string(lesson.Subtype),
	})
	if pubErr := s.publisher.Publish(ctx, event); pubErr != nil {
		s.logger.Error("Failed to publish lesson attempted event", "attempt_id", attempt.ID, "error", pubErr)
	}

	return attempt, nil
}
