package repository

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"portfolioapi/src/database"
	"portfolioapi/src/model"
)

// ExceptionRepository handles persistence of background failures.
type ExceptionRepository struct {
	db *gorm.DB
}

// NewExceptionRepository creates a new repository instance.
func NewExceptionRepository() *ExceptionRepository {
	return &ExceptionRepository{
		db: database.MainDB,
	}
}

// WithDB returns a copy of the repository bound to the given database handle.
func (r *ExceptionRepository) WithDB(db *gorm.DB) *ExceptionRepository {
	return &ExceptionRepository{db: db}
}

// Create persists a new exception in the database.
func (r *ExceptionRepository) Create(
	ctx context.Context,
	exc *model.Exception,
) error {

	logger.WithFields(map[string]interface{}{
		"component": exc.Component,
		"op":        exc.Op,
		"level":     exc.Level,
	}).Error("Persisting background exception")

	return r.db.WithContext(ctx).Create(exc).Error
}
