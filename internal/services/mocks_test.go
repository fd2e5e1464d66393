package services

import (
	"context"
	"io"
	"log/slog"

	"github.com/dyslexiaaid/screening-service/internal/models"
	"github.com/dyslexiaaid/screening-service/internal/repositories"
	"github.com/stretchr/testify/mock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockRepository wires the per-entity mocks. WithTransaction runs fn against
// the same mocks.
type MockRepository struct {
	Users       *MockUserRepository
	Profiles    *MockProfileRepository
	Evaluations *MockEvaluationRepository
	Lessons     *MockLessonRepository
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		Users:       &MockUserRepository{},
		Profiles:    &MockProfileRepository{},
		Evaluations: &MockEvaluationRepository{},
		Lessons:     &MockLessonRepository{},
	}
}

func (m *MockRepository) User() repositories.UserRepository             { return m.Users }
func (m *MockRepository) Profile() repositories.ProfileRepository       { return m.Profiles }
func (m *MockRepository) Evaluation() repositories.EvaluationRepository { return m.Evaluations }
func (m *MockRepository) Lesson() repositories.LessonRepository         { return m.Lessons }

func (m *MockRepository) WithTransaction(ctx context.Context, fn func(tx repositories.Repository) error) error {
	return fn(m)
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockProfileRepository is a mock implementation of ProfileRepository
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockProfileRepository) GetByID(ctx context.Context, id uint) (*models.Profile, error) {
	args := m.Called(ctx, id)
	profile, _ := args.Get(0).(*models.Profile)
	return profile, args.Error(1)
}

func (m *MockProfileRepository) GetBySubjectUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	profile, _ := args.Get(0).(*models.Profile)
	return profile, args.Error(1)
}

func (m *MockProfileRepository) ListByParent(ctx context.Context, parentID uint) ([]*models.Profile, error) {
	args := m.Called(ctx, parentID)
	profiles, _ := args.Get(0).([]*models.Profile)
	return profiles, args.Error(1)
}

func (m *MockProfileRepository) FirstChildOf(ctx context.Context, parentID uint) (*models.Profile, error) {
	args := m.Called(ctx, parentID)
	profile, _ := args.Get(0).(*models.Profile)
	return profile, args.Error(1)
}

func (m *MockProfileRepository) Update(ctx context.Context, profile *models.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockProfileRepository) UpdateSubtype(ctx context.Context, id uint, subtype models.Subtype) error {
	args := m.Called(ctx, id, subtype)
	return args.Error(0)
}

func (m *MockProfileRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockEvaluationRepository is a mock implementation of EvaluationRepository
type MockEvaluationRepository struct {
	mock.Mock
}

func (m *MockEvaluationRepository) Create(ctx context.Context, record *models.EvaluationRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockEvaluationRepository) GetLatestForProfile(ctx context.Context, profileID uint) (*models.EvaluationRecord, error) {
	args := m.Called(ctx, profileID)
	record, _ := args.Get(0).(*models.EvaluationRecord)
	return record, args.Error(1)
}

func (m *MockEvaluationRepository) CountByProfile(ctx context.Context, profileID uint) (int64, error) {
	args := m.Called(ctx, profileID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEvaluationRepository) List(ctx context.Context, filters repositories.EvaluationFilters) ([]*models.EvaluationRecord, error) {
	args := m.Called(ctx, filters)
	records, _ := args.Get(0).([]*models.EvaluationRecord)
	return records, args.Error(1)
}

func (m *MockEvaluationRepository) DeleteByUser(ctx context.Context, userID uint) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockEvaluationRepository) DeleteByProfile(ctx context.Context, profileID uint) error {
	args := m.Called(ctx, profileID)
	return args.Error(0)
}

// MockLessonRepository is a mock implementation of LessonRepository
type MockLessonRepository struct {
	mock.Mock
}

func (m *MockLessonRepository) List(ctx context.Context, filters repositories.LessonFilters) ([]*models.Lesson, error) {
	args := m.Called(ctx, filters)
	lessons, _ := args.Get(0).([]*models.Lesson)
	return lessons, args.Error(1)
}

func (m *MockLessonRepository) GetByID(ctx context.Context, id uint) (*models.Lesson, error) {
	args := m.Called(ctx, id)
	lesson, _ := args.Get(0).(*models.Lesson)
	return lesson, args.Error(1)
}

func (m *MockLessonRepository) CreateAttempt(ctx context.Context, attempt *models.LessonAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockLessonRepository) GetProgress(ctx context.Context, userID uint) (*repositories.LessonProgress, error) {
	args := m.Called(ctx, userID)
	progress, _ := args.Get(0).(*repositories.LessonProgress)
	return progress, args.Error(1)
}

func (m *MockLessonRepository) DeleteAttemptsByUser(ctx context.Context, userID uint) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// stubSuggester returns a fixed label or error.
type stubSuggester struct {
	label string
	err   error
	calls int
}

func (s *stubSuggester) Suggest(ctx context.Context, subjectUserID uint) (string, error) {
	s.calls++
	return s.label, s.err
}

func uintPtr(v uint) *uint { return &v }

func subtypePtr(s models.Subtype) *models.Subtype { return &s }
