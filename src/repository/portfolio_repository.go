package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"portfolioapi/src/database"
	"portfolioapi/src/model"
)

// PortfolioRepository handles read/write operations for portfolios.
type PortfolioRepository struct {
	db *gorm.DB
}

// NewPortfolioRepository creates a new repository instance using the main
// read/write database.
func NewPortfolioRepository() *PortfolioRepository {
	logger.WithField("component", "PortfolioRepository").
		Info("Creating new PortfolioRepository with MainDB")

	return &PortfolioRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *PortfolioRepository) WithDB(db *gorm.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// Create inserts a new portfolio.
func (r *PortfolioRepository) Create(
	ctx context.Context,
	portfolio *model.Portfolio,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":    "PortfolioRepository",
		"op":      "Create",
		"user_id": portfolio.UserID,
		"name":    portfolio.Name,
	}).Debug("Creating new portfolio")

	err := r.db.WithContext(ctx).Create(portfolio).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "PortfolioRepository",
			"op":   "Create",
		}).WithError(err).Error("Failed to create portfolio")

		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":         "PortfolioRepository",
		"op":           "Create",
		"portfolio_id": portfolio.ID,
	}).Info("Portfolio created successfully")

	return nil
}

// FindByID fetches a single portfolio by its primary ID.
// Returns (nil, nil) if the portfolio is not found.
func (r *PortfolioRepository) FindByID(
	ctx context.Context,
	id uint,
) (*model.Portfolio, error) {

	logger.WithFields(map[string]interface{}{
		"repo": "PortfolioRepository",
		"op":   "FindByID",
		"id":   id,
	}).Debug("Fetching portfolio by ID")

	var portfolio model.Portfolio

	err := r.db.WithContext(ctx).First(&portfolio, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithFields(map[string]interface{}{
				"repo": "PortfolioRepository",
				"op":   "FindByID",
				"id":   id,
			}).Info("Portfolio not found")

			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo": "PortfolioRepository",
			"op":   "FindByID",
			"id":   id,
		}).WithError(err).Error("Failed to fetch portfolio by ID")

		return nil, err
	}

	return &portfolio, nil
}

// FindByIDAndUser fetches a portfolio only if it belongs to the given user.
// Returns (nil, nil) when the portfolio does not exist or is owned by someone
// else; handlers map both to 404 without leaking which one it was.
func (r *PortfolioRepository) FindByIDAndUser(
	ctx context.Context,
	id uint,
	userID uint,
) (*model.Portfolio, error) {

	logger.WithFields(map[string]interface{}{
		"repo":    "PortfolioRepository",
		"op":      "FindByIDAndUser",
		"id":      id,
		"user_id": userID,
	}).Debug("Fetching portfolio by ID and user")

	var portfolio model.Portfolio

	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&portfolio).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithFields(map[string]interface{}{
				"repo":    "PortfolioRepository",
				"op":      "FindByIDAndUser",
				"id":      id,
				"user_id": userID,
			}).Info("Portfolio not found for user")

			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo":    "PortfolioRepository",
			"op":      "FindByIDAndUser",
			"id":      id,
			"user_id": userID,
		}).WithError(err).Error("Failed to fetch portfolio by ID and user")

		return nil, err
	}

	return &portfolio, nil
}

// ListByUser returns all portfolios owned by one user, oldest first.
func (r *PortfolioRepository) ListByUser(
	ctx context.Context,
	userID uint,
) ([]model.Portfolio, error) {

	logger.WithFields(map[string]interface{}{
		"repo":    "PortfolioRepository",
		"op":      "ListByUser",
		"user_id": userID,
	}).Debug("Listing portfolios for user")

	var portfolios []model.Portfolio

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&portfolios).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "PortfolioRepository",
			"op":      "ListByUser",
			"user_id": userID,
		}).WithError(err).Error("Failed to list portfolios")

		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":        "PortfolioRepository",
		"op":          "ListByUser",
		"user_id":     userID,
		"rows_return": len(portfolios),
	}).Info("Portfolios fetched")

	return portfolios, nil
}

// ListAll returns every portfolio, used by the valuation daemon to walk all
// ledgers on each tick.
func (r *PortfolioRepository) ListAll(
	ctx context.Context,
) ([]model.Portfolio, error) {

	logger.WithFields(map[string]interface{}{
		"repo": "PortfolioRepository",
		"op":   "ListAll",
	}).Debug("Listing all portfolios")

	var portfolios []model.Portfolio

	err := r.db.WithContext(ctx).
		Order("id ASC").
		Find(&portfolios).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "PortfolioRepository",
			"op":   "ListAll",
		}).WithError(err).Error("Failed to list portfolios")

		return nil, err
	}

	return portfolios, nil
}

// Delete removes a portfolio and its full transaction ledger in one database
// transaction, so a half-deleted portfolio can never be observed.
func (r *PortfolioRepository) Delete(
	ctx context.Context,
	id uint,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":         "PortfolioRepository",
		"op":           "Delete",
		"portfolio_id": id,
	}).Info("Deleting portfolio and its transactions")

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("portfolio_id = ?", id).Delete(&model.Transaction{}).Error; err != nil {
			logger.WithError(err).Error("Failed to delete portfolio transactions inside transaction")
			return err
		}

		if err := tx.Delete(&model.Portfolio{}, id).Error; err != nil {
			logger.WithError(err).Error("Failed to delete portfolio inside transaction")
			return err
		}

		return nil
	})
}
