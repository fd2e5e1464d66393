package postgres

import (
	"context"

	"github.com/dyslexiaaid/screening-service/internal/models"
	"github.com/dyslexiaaid/screening-service/internal/repositories"
	"gorm.io/gorm"
)

type LessonPostgreSQL struct {
	db *gorm.DB
}

func NewLessonPostgreSQL(db *gorm.DB) repositories.LessonRepository {
	return &LessonPostgreSQL{db: db}
}

func (l *LessonPostgreSQL) List(ctx context.Context, filters repositories.LessonFilters) ([]*models.Lesson, error) {
	var lessons []*models.Lesson

	query := l.db.WithContext(ctx).Model(&models.Lesson{})
	if filters.Subtype != nil {
		query = query.Where("subtype = ?", *filters.Subtype)
	}
	if filters.MaxLevel > 0 {
		query = query.Where("level <= ?", filters.MaxLevel)
	}

	if err := query.Order("level ASC, id ASC").Find(&lessons).Error; err != nil {
		return nil, err
	}
	return lessons, nil
}

func (l *LessonPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := l.db.WithContext(ctx).First(&lesson, id).Error; err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (l *LessonPostgreSQL) CreateAttempt(ctx context.Context, attempt *models.LessonAttempt) error {
	return l.db.WithContext(ctx).Create(attempt).Error
}

func (l *LessonPostgreSQL) GetProgress(ctx context.Context, userID uint) (*repositories.LessonProgress, error) {
	var row struct {
		Attempts        int
		CorrectAttempts int
		LessonsTried    int
	}
	if err := l.db.WithContext(ctx).
		Model(&models.LessonAttempt{}).
		Select("COUNT(*) AS attempts, "+
			"COALESCE(SUM(CASE WHEN is_correct THEN 1 ELSE 0 END), 0) AS correct_attempts, "+
			"COUNT(DISTINCT lesson_id) AS lessons_tried").
		Where("user_id = ?", userID).
		Scan(&row).Error; err != nil {
		return nil, err
	}

	progress := &repositories.LessonProgress{
		Attempts:        row.Attempts,
		CorrectAttempts: row.CorrectAttempts,
		LessonsTried:    row.LessonsTried,
	}
	if row.Attempts > 0 {
		progress.Accuracy = 100 * float64(row.CorrectAttempts) / float64(row.Attempts)
	}
	return progress, nil
}

func (l *LessonPostgreSQL) DeleteAttemptsByUser(ctx context.Context, userID uint) error {
	return l.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.LessonAttempt{}).Error
}
