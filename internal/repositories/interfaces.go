package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/dyslexiaaid/screening-service/internal/models"
	"gorm.io/gorm"
)

// Repository groups the per-entity repositories behind one handle so services
// can run multi-table changes in a single transaction.
type Repository interface {
	User() UserRepository
	Profile() ProfileRepository
	Evaluation() EvaluationRepository
	Lesson() LessonRepository

	// WithTransaction runs fn against a repository bound to one transaction.
	// Returning an error from fn rolls the transaction back.
	WithTransaction(ctx context.Context, fn func(tx Repository) error) error
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Delete(ctx context.Context, id uint) error
}

type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id uint) (*models.Profile, error)
	GetBySubjectUserID(ctx context.Context, userID uint) (*models.Profile, error)
	ListByParent(ctx context.Context, parentID uint) ([]*models.Profile, error)
	FirstChildOf(ctx context.Context, parentID uint) (*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
	UpdateSubtype(ctx context.Context, id uint, subtype models.Subtype) error
	Delete(ctx context.Context, id uint) error
}

type EvaluationRepository interface {
	Create(ctx context.Context, record *models.EvaluationRecord) error
	GetLatestForProfile(ctx context.Context, profileID uint) (*models.EvaluationRecord, error)
	CountByProfile(ctx context.Context, profileID uint) (int64, error)
	List(ctx context.Context, filters EvaluationFilters) ([]*models.EvaluationRecord, error)
	DeleteByUser(ctx context.Context, userID uint) error
	DeleteByProfile(ctx context.Context, profileID uint) error
}

type LessonRepository interface {
	List(ctx context.Context, filters LessonFilters) ([]*models.Lesson, error)
	GetByID(ctx context.Context, id uint) (*models.Lesson, error)
	CreateAttempt(ctx context.Context, attempt *models.LessonAttempt) error
	GetProgress(ctx context.Context, userID uint) (*LessonProgress, error)
	DeleteAttemptsByUser(ctx context.Context, userID uint) error
}

// ===== SHARED FILTER STRUCTS =====

type EvaluationFilters struct {
	Subtype  *models.Subtype `json:"subtype"`
	DateFrom *time.Time      `json:"date_from"`
	DateTo   *time.Time      `json:"date_to"`
	Limit    int             `json:"limit"`
	Offset   int             `json:"offset"`
}

type LessonFilters struct {
	Subtype  *models.Subtype `json:"subtype"`
	MaxLevel int             `json:"max_level"`
}

// ===== SHARED STATISTICS STRUCTS =====

type LessonProgress struct {
	Attempts        int     `json:"attempts"`
	CorrectAttempts int     `json:"correct_attempts"`
	LessonsTried    int     `json:"lessons_tried"`
	Accuracy        float64 `json:"accuracy"`
}

// IsNotFoundError reports whether err means the requested row does not exist.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
