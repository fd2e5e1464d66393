package postgres

import (
	"context"

	"github.com/dyslexiaaid/screening-service/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{db: db}
}

func (r *repository) User() repositories.UserRepository {
	return NewUserPostgreSQL(r.db)
}

func (r *repository) Profile() repositories.ProfileRepository {
	return NewProfilePostgreSQL(r.db)
}

func (r *repository) Evaluation() repositories.EvaluationRepository {
	return NewEvaluationPostgreSQL(r.db)
}

func (r *repository) Lesson() repositories.LessonRepository {
	return NewLessonPostgreSQL(r.db)
}

func (r *repository) WithTransaction(ctx context.Context, fn func(tx repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&repository{db: tx})
	})
}
