package postgres

import (
	"context"

	"github.com/dyslexiaaid/screening-service/internal/models"
	"github.com/dyslexiaaid/screening-service/internal/repositories"
	"gorm.io/gorm"
)

type EvaluationPostgreSQL struct {
	db *gorm.DB
}

func NewEvaluationPostgreSQL(db *gorm.DB) repositories.EvaluationRepository {
	return &EvaluationPostgreSQL{db: db}
}

func (e *EvaluationPostgreSQL) Create(ctx context.Context, record *models.EvaluationRecord) error {
	return e.db.WithContext(ctx).Create(record).Error
}

func (e *EvaluationPostgreSQL) GetLatestForProfile(ctx context.Context, profileID uint) (*models.EvaluationRecord, error) {
	var record models.EvaluationRecord
	if err := e.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("created_at DESC, id DESC").
		First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (e *EvaluationPostgreSQL) CountByProfile(ctx context.Context, profileID uint) (int64, error) {
	var count int64
	if err := e.db.WithContext(ctx).
		Model(&models.EvaluationRecord{}).
		Where("profile_id = ?", profileID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// List returns records oldest first with their profiles loaded for export.
func (e *EvaluationPostgreSQL) List(ctx context.Context, filters repositories.EvaluationFilters) ([]*models.EvaluationRecord, error) {
	var records []*models.EvaluationRecord

	query := e.db.WithContext(ctx).Model(&models.EvaluationRecord{})
	query = e.applyFilters(query, filters)

	if err := query.Preload("Profile").Order("id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (e *EvaluationPostgreSQL) DeleteByUser(ctx context.Context, userID uint) error {
	return e.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.EvaluationRecord{}).Error
}

// DeleteByProfile removes records about a subject, including those a parent
// submitted on the subject's behalf.
func (e *EvaluationPostgreSQL) DeleteByProfile(ctx context.Context, profileID uint) error {
	return e.db.WithContext(ctx).Where("profile_id = ?", profileID).Delete(&models.EvaluationRecord{}).Error
}

func (e *EvaluationPostgreSQL) applyFilters(query *gorm.DB, filters repositories.EvaluationFilters) *gorm.DB {
	if filters.Subtype != nil {
		query = query.Where("subtype = ?", *filters.Subtype)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}
