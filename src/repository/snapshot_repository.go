package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"portfolioapi/src/database"
	"portfolioapi/src/model"
)

// SnapshotRepository persists the valuation snapshots written by the
// valuation daemon.
type SnapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository creates a new repository instance using the main
// read/write database.
func NewSnapshotRepository() *SnapshotRepository {
	logger.WithField("component", "SnapshotRepository").
		Info("Creating new SnapshotRepository with MainDB")

	return &SnapshotRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *SnapshotRepository) WithDB(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Create inserts a new valuation snapshot.
func (r *SnapshotRepository) Create(
	ctx context.Context,
	snapshot *model.ValuationSnapshot,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":         "SnapshotRepository",
		"op":           "Create",
		"portfolio_id": snapshot.PortfolioID,
	}).Debug("Creating valuation snapshot")

	err := r.db.WithContext(ctx).Create(snapshot).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":         "SnapshotRepository",
			"op":           "Create",
			"portfolio_id": snapshot.PortfolioID,
		}).WithError(err).Error("Failed to create valuation snapshot")

		return err
	}

	return nil
}

// FindLatestByPortfolio returns the newest snapshot of one portfolio.
// Returns (nil, nil) when the portfolio has no snapshots yet.
func (r *SnapshotRepository) FindLatestByPortfolio(
	ctx context.Context,
	portfolioID uint,
) (*model.ValuationSnapshot, error) {

	logger.WithFields(map[string]interface{}{
		"repo":         "SnapshotRepository",
		"op":           "FindLatestByPortfolio",
		"portfolio_id": portfolioID,
	}).Debug("Fetching latest snapshot")

	var snapshot model.ValuationSnapshot

	err := r.db.WithContext(ctx).
		Where("portfolio_id = ?", portfolioID).
		Order("created_at DESC, id DESC").
		First(&snapshot).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo":         "SnapshotRepository",
			"op":           "FindLatestByPortfolio",
			"portfolio_id": portfolioID,
		}).WithError(err).Error("Failed to fetch latest snapshot")

		return nil, err
	}

	return &snapshot, nil
}

// ListByPortfolio returns the newest snapshots of one portfolio, newest
// first, capped at limit.
func (r *SnapshotRepository) ListByPortfolio(
	ctx context.Context,
	portfolioID uint,
	limit int,
) ([]model.ValuationSnapshot, error) {

	if limit <= 0 {
		limit = 20
	}

	logger.WithFields(map[string]interface{}{
		"repo":         "SnapshotRepository",
		"op":           "ListByPortfolio",
		"portfolio_id": portfolioID,
		"limit":        limit,
	}).Debug("Listing snapshots")

	var snapshots []model.ValuationSnapshot

	err := r.db.WithContext(ctx).
		Where("portfolio_id = ?", portfolioID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&snapshots).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":         "SnapshotRepository",
			"op":           "ListByPortfolio",
			"portfolio_id": portfolioID,
		}).WithError(err).Error("Failed to list snapshots")

		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":         "SnapshotRepository",
		"op":           "ListByPortfolio",
		"portfolio_id": portfolioID,
		"rows_return":  len(snapshots),
	}).Info("Snapshots fetched")

	return snapshots, nil
}
