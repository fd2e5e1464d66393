package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dyslexiaaid/screening-service/internal/auth"
	"github.com/dyslexiaaid/screening-service/internal/events"
	"github.com/dyslexiaaid/screening-service/internal/models"
	"github.com/dyslexiaaid/screening-service/internal/repositories"
)

type profileService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	ops       *ServiceLogger
	now       func() time.Time
}

func NewProfileService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger) ProfileService {
	return &profileService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		ops:       NewServiceLogger(logger, "profile"),
		now:       time.Now,
	}
}

// GetSubject loads a subject profile the actor is allowed to see: the subject
// themself or the subject's parent.
func (s *profileService) GetSubject(ctx context.Context, actor *models.User, subjectUserID uint) (*models.Profile, error) {
	profile, err := s.repo.Profile().GetBySubjectUserID(ctx, subjectUserID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if !profile.IsManagedBy(actor.ID) {
		return nil, NewPermissionError(actor.ID, subjectUserID, "profile", "read", "not the subject or their parent")
	}
	return profile, nil
}

// SelectSubtype assigns a subtype. Re-selecting the current subtype changes
// nothing and publishes nothing.
func (s *profileService) SelectSubtype(ctx context.Context, actor *models.User, subjectUserID uint, subtype models.Subtype) (result *SelectionResult, err error) {
	op := s.ops.WithOperation(ctx, "select_subtype", actor.ID)
	defer func() { op.LogResult(subjectUserID, "profile", err) }()

	if !subtype.IsValid() {
		return nil, ErrUnknownSubtype
	}

	profile, err := s.repo.Profile().GetBySubjectUserID(ctx, subjectUserID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if !auth.CanActFor(actor, profile) {
		return nil, NewPermissionError(actor.ID, subjectUserID, "profile", "select_subtype", "not the subject or their parent")
	}

	previous := profile.AssignedSubtype()
	if previous == subtype {
		return &SelectionResult{Profile: profile, Changed: false}, nil
	}

	if err = s.repo.Profile().UpdateSubtype(ctx, profile.ID, subtype); err != nil {
		return nil, fmt.Errorf("failed to update subtype: %w", err)
	}
	profile.Subtype = &subtype
	op.LogAudit(AuditEventUpdate, profile.ID, "profile.subtype", string(previous), string(subtype))

	event := events.NewEvent(events.EventSubtypeSelected, events.SubtypeSelectedEvent{
		ProfileID:       profile.ID,
		SubjectUserID:   profile.SubjectUserID,
		SelectedBy:      actor.ID,
		PreviousSubtype: string(previous),
		Subtype:         string(subtype),
		SelectedAt:      s.now().UTC(),
	})
	if pubErr := s.publisher.Publish(ctx, event); pubErr != nil {
		s.logger.Error("Failed to publish subtype selected event", "profile_id", profile.ID, "error", pubErr)
	}

	return &SelectionResult{Profile: profile, Changed: true}, nil
}

func (s *profileService) ResolveSubject(ctx context.Context, actor *models.User, currentSubjectID *uint) (*models.Profile, error) {
	var (
		profile *models.Profile
		err     error
	)

	switch actor.Role {
	case models.RoleChild, models.RoleIndependent:
		profile, err = s.repo.Profile().GetBySubjectUserID(ctx, actor.ID)
	case models.RoleParent:
		if currentSubjectID != nil {
			profile, err = s.repo.Profile().GetBySubjectUserID(ctx, *currentSubjectID)
			if err == nil && !auth.CanActFor(actor, profile) {
				s.logger.Warn("Ignoring session subject not owned by parent",
					"parent_id", actor.ID, "subject_user_id", *currentSubjectID)
				profile, err = nil, nil
			}
		}
		if profile == nil && (err == nil || repositories.IsNotFoundError(err)) {
			profile, err = s.repo.Profile().FirstChildOf(ctx, actor.ID)
		}
	default:
		return nil, fmt.Errorf("unhandled role %q", actor.Role)
	}

	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve subject: %w", err)
	}
	return profile, nil
}
