package postgres

import (
	"context"

	"github.com/dyslexiaaid/screening-service/internal/models"
	"github.com/dyslexiaaid/screening-service/internal/repositories"
	"gorm.io/gorm"
)

type ProfilePostgreSQL struct {
	db *gorm.DB
}

func NewProfilePostgreSQL(db *gorm.DB) repositories.ProfileRepository {
	return &ProfilePostgreSQL{db: db}
}

func (p *ProfilePostgreSQL) Create(ctx context.Context, profile *models.Profile) error {
	return p.db.WithContext(ctx).Create(profile).Error
}

func (p *ProfilePostgreSQL) GetByID(ctx context.Context, id uint) (*models.Profile, error) {
	var profile models.Profile
	if err := p.db.WithContext(ctx).Preload("Subject").First(&profile, id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (p *ProfilePostgreSQL) GetBySubjectUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	var profile models.Profile
	if err := p.db.WithContext(ctx).
		Preload("Subject").
		Where("subject_user_id = ?", userID).
		First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (p *ProfilePostgreSQL) ListByParent(ctx context.Context, parentID uint) ([]*models.Profile, error) {
	var profiles []*models.Profile
	if err := p.db.WithContext(ctx).
		Preload("Subject").
		Where("parent_user_id = ?", parentID).
		Order("id ASC").
		Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

// FirstChildOf returns the earliest registered child of a parent.
func (p *ProfilePostgreSQL) FirstChildOf(ctx context.Context, parentID uint) (*models.Profile, error) {
	var profile models.Profile
	if err := p.db.WithContext(ctx).
		Where("parent_user_id = ?", parentID).
		Order("id ASC").
		First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (p *ProfilePostgreSQL) Update(ctx context.Context, profile *models.Profile) error {
	return p.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ?", profile.ID).
		Updates(map[string]interface{}{
			"display_name": profile.DisplayName,
			"age":          profile.Age,
		}).Error
}

func (p *ProfilePostgreSQL) UpdateSubtype(ctx context.Context, id uint, subtype models.Subtype) error {
	result := p.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ?", id).
		Update("subtype", subtype)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (p *ProfilePostgreSQL) Delete(ctx context.Context, id uint) error {
	return p.db.WithContext(ctx).Delete(&models.Profile{}, id).Error
}
