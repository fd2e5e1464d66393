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

const (
	ParentDashboardPath = "/dashboard/parent"
)

func ChildDashboardPath(subjectUserID uint) string {
	return fmt.Sprintf("/dashboard/child/%d", subjectUserID)
}

func TypeSelectionPath(subjectUserID uint) string {
	return fmt.Sprintf("/subjects/%d/type-selection", subjectUserID)
}

type accountService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	validator *validator.Validator
	logger    *slog.Logger
	ops       *ServiceLogger
}

func NewAccountService(repo repositories.Repository, publisher events.EventPublisher, validator *validator.Validator, logger *slog.Logger) AccountService {
	return &accountService{
		repo:      repo,
		publisher: publisher,
		validator: validator,
		logger:    logger,
		ops:       NewServiceLogger(logger, "account"),
	}
}

func (s *accountService) RegisterParent(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	user, err := s.newUser(ctx, req, models.RoleParent)
	if err != nil {
		return nil, err
	}
	if err := s.repo.User().Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("Parent registered", "user_id", user.ID)
	return user, nil
}

// RegisterIndependent creates a self-evaluating account together with its
// Unassigned profile.
func (s *accountService) RegisterIndependent(ctx context.Context, req *RegisterRequest) (*models.User, *models.Profile, error) {
	user, err := s.newUser(ctx, req, models.RoleIndependent)
	if err != nil {
		return nil, nil, err
	}

	profile := &models.Profile{DisplayName: user.Username}
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.User().Create(ctx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		profile.SubjectUserID = user.ID
		if err := tx.Profile().Create(ctx, profile); err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("Independent user registered", "user_id", user.ID, "profile_id", profile.ID)
	return user, profile, nil
}

func (s *accountService) RegisterChild(ctx context.Context, parent *models.User, req *RegisterChildRequest) (profile *models.Profile, err error) {
	op := s.ops.WithOperation(ctx, "register_child", parent.ID)
	defer func() {
		var id uint
		if profile != nil {
			id = profile.ID
		}
		op.LogResult(id, "profile", err)
	}()

	if !auth.CanRegisterChild(parent.Role) {
		return nil, ErrNotParent
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	child, err := s.newUser(ctx, &req.RegisterRequest, models.RoleChild)
	if err != nil {
		return nil, err
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = child.Username
	}
	parentID := parent.ID
	profile = &models.Profile{
		ParentUserID: &parentID,
		DisplayName:  displayName,
		Age:          req.Age,
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.User().Create(ctx, child); err != nil {
			return fmt.Errorf("failed to create child user: %w", err)
		}
		profile.SubjectUserID = child.ID
		if err := tx.Profile().Create(ctx, profile); err != nil {
			return fmt.Errorf("failed to create child profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	profile.Subject = *child
	op.LogAudit(AuditEventCreate, profile.ID, "profile", nil, child.Username)

	event := events.NewEvent(events.EventChildRegistered, events.ChildRegisteredEvent{
		ParentID:  parent.ID,
		ChildID:   child.ID,
		ProfileID: profile.ID,
	})
	if pubErr := s.publisher.Publish(ctx, event); pubErr != nil {
		s.logger.Error("Failed to publish child registered event", "profile_id", profile.ID, "error", pubErr)
	}

	return profile, nil
}

// newUser validates a registration and builds an unsaved user with a hashed
// password.
func (s *accountService) newUser(ctx context.Context, req *RegisterRequest, role models.Role) (*models.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(req.Username)
	exists, err := s.repo.User().ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, ErrUsernameTaken
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, ValidationErrors{*NewValidationError("password1", err.Error(), nil)}
	}

	return &models.User{
		Username:     username,
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		Role:         role,
	}, nil
}

func (s *accountService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.repo.User().GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		s.logger.Warn("Failed login attempt", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *accountService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *accountService) ListChildren(ctx context.Context, parent *models.User) ([]*ChildSummary, error) {
	if !auth.CanRegisterChild(parent.Role) {
		return nil, ErrNotParent
	}

	profiles, err := s.repo.Profile().ListByParent(ctx, parent.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}

	children := make([]*ChildSummary, 0, len(profiles))
	for _, profile := range profiles {
		count, err := s.repo.Evaluation().CountByProfile(ctx, profile.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count evaluations: %w", err)
		}
		children = append(children, &ChildSummary{
			Profile:        profile,
			State:          profile.State(count > 0),
			EvaluationsRun: count,
		})
	}
	return children, nil
}

// ownedChild loads the profile of childUserID and checks that parent owns it.
func (s *accountService) ownedChild(ctx context.Context, parent *models.User, childUserID uint, action string) (*models.Profile, error) {
	if !auth.CanRegisterChild(parent.Role) {
		return nil, ErrNotParent
	}
	profile, err := s.repo.Profile().GetBySubjectUserID(ctx, childUserID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile.ParentUserID == nil || *profile.ParentUserID != parent.ID {
		return nil, NewPermissionError(parent.ID, childUserID, "child", action, "not the child's parent")
	}
	return profile, nil
}

// DeleteChild removes a child account with its profile, evaluations and
// lesson attempts.
func (s *accountService) DeleteChild(ctx context.Context, parent *models.User, childUserID uint) (err error) {
	op := s.ops.WithOperation(ctx, "delete_child", parent.ID)
	defer func() { op.LogResult(childUserID, "child", err) }()

	profile, err := s.ownedChild(ctx, parent, childUserID, "delete")
	if err != nil {
		return err
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Evaluation().DeleteByProfile(ctx, profile.ID); err != nil {
			return fmt.Errorf("failed to delete evaluations: %w", err)
		}
		if err := tx.Evaluation().DeleteByUser(ctx, childUserID); err != nil {
			return fmt.Errorf("failed to delete evaluations: %w", err)
		}
		if err := tx.Lesson().DeleteAttemptsByUser(ctx, childUserID); err != nil {
			return fmt.Errorf("failed to delete lesson attempts: %w", err)
		}
		if err := tx.Profile().Delete(ctx, profile.ID); err != nil {
			return fmt.Errorf("failed to delete profile: %w", err)
		}
		if err := tx.User().Delete(ctx, childUserID); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	op.LogAudit(AuditEventDelete, profile.ID, "profile", profile.DisplayName, nil)
	return nil
}

func (s *accountService) SwitchToChild(ctx context.Context, parent *models.User, childUserID uint) (*models.Profile, error) {
	profile, err := s.ownedChild(ctx, parent, childUserID, "switch")
	if err != nil {
		return nil, err
	}
	s.ops.LogAudit(ctx, AuditEventAccess, parent.ID, profile.ID, "profile", nil, "impersonate")
	return profile, nil
}

func (s *accountService) UpdateProfile(ctx context.Context, actor *models.User, subjectUserID uint, req *UpdateProfileRequest) (*models.Profile, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	profile, err := s.repo.Profile().GetBySubjectUserID(ctx, subjectUserID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if !auth.CanActFor(actor, profile) {
		return nil, NewPermissionError(actor.ID, subjectUserID, "profile", "update", "not the subject or their parent")
	}

	if name := strings.TrimSpace(req.DisplayName); name != "" {
		profile.DisplayName = name
	}
	if req.Age != nil {
		profile.Age = req.Age
	}
	if err := s.repo.Profile().Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return profile, nil
}

func (s *accountService) LandingPath(ctx context.Context, user *models.User) (string, error) {
	switch user.Role {
	case models.RoleParent:
		return ParentDashboardPath, nil
	case models.RoleChild, models.RoleIndependent:
		profile, err := s.repo.Profile().GetBySubjectUserID(ctx, user.ID)
		if err != nil {
			if !repositories.IsNotFoundError(err) {
				return "", fmt.Errorf("failed to get profile: %w", err)
			}
			if user.Role == models.RoleChild {
				return "", NewPermissionError(user.ID, user.ID, "profile", "read", "child account has no profile")
			}
			return "", ErrProfileNotFound
		}
		if user.Role == models.RoleIndependent && profile.Subtype == nil {
			return TypeSelectionPath(user.ID), nil
		}
		return ChildDashboardPath(user.ID), nil
	default:
		return "", fmt.Errorf("unhandled role %q", user.Role)
	}
}
