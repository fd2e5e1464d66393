package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dyslexiaaid/screening-service/internal/bank"
	"github.com/dyslexiaaid/screening-service/internal/cache"
	"github.com/dyslexiaaid/screening-service/internal/events"
	"github.com/dyslexiaaid/screening-service/internal/models"
	"github.com/dyslexiaaid/screening-service/internal/repositories"
	"github.com/dyslexiaaid/screening-service/internal/scoring"
)

const latestSummaryTTL = 24 * time.Hour

func latestSummaryKey(profileID uint) string {
	return fmt.Sprintf("evaluation:latest:%d", profileID)
}

type evaluationService struct {
	repo      repositories.Repository
	profiles  ProfileService
	scorer    *scoring.Scorer
	publisher events.EventPublisher
	cache     cache.CacheService
	logger    *slog.Logger
	ops       *ServiceLogger
}

func NewEvaluationService(
	repo repositories.Repository,
	profiles ProfileService,
	scorer *scoring.Scorer,
	publisher events.EventPublisher,
	cacheService cache.CacheService,
	logger *slog.Logger,
) EvaluationService {
	return &evaluationService{
		repo:      repo,
		profiles:  profiles,
		scorer:    scorer,
		publisher: publisher,
		cache:     cacheService,
		logger:    logger,
		ops:       NewServiceLogger(logger, "evaluation"),
	}
}

// Questions returns the bank for subtype with expected answers withheld.
func (s *evaluationService) Questions(subtype models.Subtype) []models.QuestionView {
	return bank.Views(subtype)
}

// Submit scores a batch and persists exactly one telemetry record. Event
// publishing and caching failures are logged and never fail the submission.
func (s *evaluationService) Submit(ctx context.Context, actor *models.User, subtype models.Subtype, batch models.ResponseBatch, evalCtx EvaluationContext) (submission *SubmissionResult, err error) {
	op := s.ops.WithOperation(ctx, "submit_evaluation", actor.ID)
	defer func() {
		var recordID uint
		if submission != nil {
			recordID = submission.RecordID
		}
		op.LogResult(recordID, "evaluation_record", err)
	}()

	if !subtype.IsValid() {
		return nil, ErrUnknownSubtype
	}

	result := s.scorer.Score(subtype, bank.Questions(subtype), batch)

	profile, err := s.profiles.ResolveSubject(ctx, actor, evalCtx.CurrentSubjectID)
	if err != nil {
		s.logger.Warn("Could not resolve evaluation subject", "user_id", actor.ID, "error", err)
		profile, err = nil, nil
	}
	var profileID *uint
	if profile != nil {
		id := profile.ID
		profileID = &id
	} else {
		s.logger.Warn("Recording evaluation without a subject profile", "user_id", actor.ID, "subtype", subtype)
	}

	record, err := models.NewEvaluationRecord(result, actor.ID, profileID, batch)
	if err != nil {
		return nil, err
	}
	if err = s.repo.Evaluation().Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save evaluation: %w", err)
	}

	submission = &SubmissionResult{Result: result, RecordID: record.ID, Profile: profile}

	event := events.NewEvent(events.EventEvaluationSubmitted, events.EvaluationSubmittedEvent{
		RecordID:       record.ID,
		UserID:         actor.ID,
		ProfileID:      profileID,
		Subtype:        string(subtype),
		Score:          result.Score,
		TotalQuestions: result.TotalQuestions,
		Percentage:     result.Percentage,
		SubmittedAt:    record.CreatedAt,
	})
	if pubErr := s.publisher.Publish(ctx, event); pubErr != nil {
		s.logger.Error("Failed to publish evaluation submitted event", "record_id", record.ID, "error", pubErr)
	}

	if profileID != nil {
		if cacheErr := s.cache.Set(ctx, latestSummaryKey(*profileID), submission.Summary(), latestSummaryTTL); cacheErr != nil {
			s.logger.Warn("Failed to cache evaluation summary", "profile_id", *profileID, "error", cacheErr)
		}
	}

	return submission, nil
}

// LatestSummary reads through the cache to the newest stored record.
// It returns (nil, nil) when the subject has never been evaluated.
func (s *evaluationService) LatestSummary(ctx context.Context, profileID uint) (*models.EvaluationSummary, error) {
	var summary models.EvaluationSummary
	err := s.cache.Get(ctx, latestSummaryKey(profileID), &summary)
	if err == nil {
		return &summary, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("Evaluation summary cache unavailable", "profile_id", profileID, "error", err)
	}

	record, err := s.repo.Evaluation().GetLatestForProfile(ctx, profileID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest evaluation: %w", err)
	}

	summary = record.Summary()
	if cacheErr := s.cache.Set(ctx, latestSummaryKey(profileID), summary, latestSummaryTTL); cacheErr != nil {
		s.logger.Warn("Failed to cache evaluation summary", "profile_id", profileID, "error", cacheErr)
	}
	return &summary, nil
}
