package repository

import (
	"context"
	"errors"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"portfolioapi/src/database"
	"portfolioapi/src/model"
)

// TransactionRepository handles read/write operations for the transaction
// ledger. It implements engine.TransactionSource through ListForReplay.
type TransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new repository instance using the main
// read/write database.
func NewTransactionRepository() *TransactionRepository {
	logger.WithField("component", "TransactionRepository").
		Info("Creating new TransactionRepository with MainDB")

	return &TransactionRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *TransactionRepository) WithDB(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// TransactionSearchOptions are the filters of Search. PortfolioID is
// mandatory; everything else narrows the listing.
type TransactionSearchOptions struct {
	PortfolioID uint
	Symbol      *string
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// Create inserts a new transaction into the ledger.
// The given transaction is updated with the generated ID and timestamps.
func (r *TransactionRepository) Create(
	ctx context.Context,
	transaction *model.Transaction,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":         "TransactionRepository",
		"op":           "Create",
		"portfolio_id": transaction.PortfolioID,
		"symbol":       transaction.Symbol,
		"side":         transaction.Side,
		"qty":          transaction.Quantity,
	}).Debug("Creating new transaction")

	err := r.db.WithContext(ctx).Create(transaction).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "TransactionRepository",
			"op":   "Create",
		}).WithError(err).Error("Failed to create transaction")

		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":           "TransactionRepository",
		"op":             "Create",
		"transaction_id": transaction.ID,
	}).Info("Transaction created successfully")

	return nil
}

// FindByIDAndPortfolio fetches a single transaction scoped to one portfolio.
// Returns (nil, nil) if no such transaction exists in that portfolio.
func (r *TransactionRepository) FindByIDAndPortfolio(
	ctx context.Context,
	id uint,
	portfolioID uint,
) (*model.Transaction, error) {

	logger.WithFields(map[string]interface{}{
		"repo":         "TransactionRepository",
		"op":           "FindByIDAndPortfolio",
		"id":           id,
		"portfolio_id": portfolioID,
	}).Debug("Fetching transaction by ID and portfolio")

	var transaction model.Transaction

	err := r.db.WithContext(ctx).
		Where("id = ? AND portfolio_id = ?", id, portfolioID).
		First(&transaction).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithFields(map[string]interface{}{
				"repo":         "TransactionRepository",
				"op":           "FindByIDAndPortfolio",
				"id":           id,
				"portfolio_id": portfolioID,
			}).Info("Transaction not found")

			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo": "TransactionRepository",
			"op":   "FindByIDAndPortfolio",
			"id":   id,
		}).WithError(err).Error("Failed to fetch transaction")

		return nil, err
	}

	return &transaction, nil
}

// Search lists transactions of one portfolio, newest first, with optional
// symbol and timestamp-window filters plus pagination. This is the API
// listing order; the engine re-sorts ascending before replay.
func (r *TransactionRepository) Search(
	ctx context.Context,
	options TransactionSearchOptions,
) ([]model.Transaction, error) {

	logger.WithFields(map[string]interface{}{
		"repo":         "TransactionRepository",
		"op":           "Search",
		"portfolio_id": options.PortfolioID,
		"limit":        options.Limit,
		"offset":       options.Offset,
	}).Debug("Searching transactions")

	query := r.db.WithContext(ctx).
		Where("portfolio_id = ?", options.PortfolioID)

	if options.Symbol != nil {
		query = query.Where("symbol = ?", *options.Symbol)
	}
	if options.From != nil {
		query = query.Where("timestamp >= ?", *options.From)
	}
	if options.To != nil {
		query = query.Where("timestamp <= ?", *options.To)
	}
	if options.Limit > 0 {
		query = query.Limit(options.Limit)
	}
	if options.Offset > 0 {
		query = query.Offset(options.Offset)
	}

	var transactions []model.Transaction

	err := query.
		Order("timestamp DESC, id DESC").
		Find(&transactions).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":         "TransactionRepository",
			"op":           "Search",
			"portfolio_id": options.PortfolioID,
		}).WithError(err).Error("Failed to search transactions")

		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":         "TransactionRepository",
		"op":           "Search",
		"portfolio_id": options.PortfolioID,
		"rows_return":  len(transactions),
	}).Info("Transactions fetched")

	return transactions, nil
}

// ListForReplay returns the full ledger of one portfolio ordered by timestamp
// ascending then id ascending, the order the engine replays in.
func (r *TransactionRepository) ListForReplay(
	ctx context.Context,
	portfolioID uint,
) ([]model.Transaction, error) {

	logger.WithFields(map[string]interface{}{
		"repo":         "TransactionRepository",
		"op":           "ListForReplay",
		"portfolio_id": portfolioID,
	}).Debug("Loading ledger for replay")

	var transactions []model.Transaction

	err := r.db.WithContext(ctx).
		Where("portfolio_id = ?", portfolioID).
		Order("timestamp ASC, id ASC").
		Find(&transactions).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":         "TransactionRepository",
			"op":           "ListForReplay",
			"portfolio_id": portfolioID,
		}).WithError(err).Error("Failed to load ledger")

		return nil, err
	}

	return transactions, nil
}

// Update saves an edited transaction. Derived holdings and P&L are recomputed
// from scratch on the next query, so no aggregate needs touching here.
func (r *TransactionRepository) Update(
	ctx context.Context,
	transaction *model.Transaction,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":           "TransactionRepository",
		"op":             "Update",
		"transaction_id": transaction.ID,
	}).Debug("Updating transaction")

	err := r.db.WithContext(ctx).Save(transaction).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":           "TransactionRepository",
			"op":             "Update",
			"transaction_id": transaction.ID,
		}).WithError(err).Error("Failed to update transaction")

		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":           "TransactionRepository",
		"op":             "Update",
		"transaction_id": transaction.ID,
	}).Info("Transaction updated successfully")

	return nil
}

// Delete removes one transaction from the ledger.
func (r *TransactionRepository) Delete(
	ctx context.Context,
	id uint,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":           "TransactionRepository",
		"op":             "Delete",
		"transaction_id": id,
	}).Debug("Deleting transaction")

	err := r.db.WithContext(ctx).Delete(&model.Transaction{}, id).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":           "TransactionRepository",
			"op":             "Delete",
			"transaction_id": id,
		}).WithError(err).Error("Failed to delete transaction")

		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":           "TransactionRepository",
		"op":             "Delete",
		"transaction_id": id,
	}).Info("Transaction deleted successfully")

	return nil
}
