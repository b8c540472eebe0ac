package repository

import (
	"context"
	"errors"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"portfolioapi/src/database"
	"portfolioapi/src/model"
)

// DailyCloseRepository handles persistence of end-of-day closing prices.
// Rows are written by the closings daemon and read by the crypto quote
// adapter as its previous-close fallback (quote.CloseStore).
type DailyCloseRepository struct {
	db *gorm.DB
}

// NewDailyCloseRepository creates a new repository instance using the main
// read/write database.
func NewDailyCloseRepository() *DailyCloseRepository {
	logger.WithField("component", "DailyCloseRepository").
		Info("Creating new DailyCloseRepository with MainDB")

	return &DailyCloseRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *DailyCloseRepository) WithDB(db *gorm.DB) *DailyCloseRepository {
	return &DailyCloseRepository{db: db}
}

// Upsert inserts the close or, when a row for (symbol, date) already exists,
// updates its close price. Backfills re-run over the same window safely.
func (r *DailyCloseRepository) Upsert(
	ctx context.Context,
	close *model.DailyClose,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":   "DailyCloseRepository",
		"op":     "Upsert",
		"symbol": close.Symbol,
		"date":   close.Date,
	}).Debug("Upserting daily close")

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"close"}),
	}).Create(close).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "DailyCloseRepository",
			"op":     "Upsert",
			"symbol": close.Symbol,
		}).WithError(err).Error("Failed to upsert daily close")

		return err
	}

	return nil
}

// LatestBefore returns the most recent close of symbol strictly before the
// given time. Returns (nil, nil) when no close is stored yet.
func (r *DailyCloseRepository) LatestBefore(
	ctx context.Context,
	symbol string,
	before time.Time,
) (*model.DailyClose, error) {

	logger.WithFields(map[string]interface{}{
		"repo":   "DailyCloseRepository",
		"op":     "LatestBefore",
		"symbol": symbol,
		"before": before,
	}).Debug("Fetching latest close before date")

	var close model.DailyClose

	err := r.db.WithContext(ctx).
		Where("symbol = ? AND date < ?", symbol, before).
		Order("date DESC").
		First(&close).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithFields(map[string]interface{}{
				"repo":   "DailyCloseRepository",
				"op":     "LatestBefore",
				"symbol": symbol,
			}).Info("No stored close before date")

			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo":   "DailyCloseRepository",
			"op":     "LatestBefore",
			"symbol": symbol,
		}).WithError(err).Error("Failed to fetch latest close")

		return nil, err
	}

	return &close, nil
}

// LatestDate returns the date of the newest stored close for symbol, used by
// the closings daemon to resume a backfill where the last run stopped.
// Returns (zero time, nil) when the table has no rows for the symbol.
func (r *DailyCloseRepository) LatestDate(
	ctx context.Context,
	symbol string,
) (time.Time, error) {

	logger.WithFields(map[string]interface{}{
		"repo":   "DailyCloseRepository",
		"op":     "LatestDate",
		"symbol": symbol,
	}).Debug("Fetching latest stored close date")

	var latest *time.Time

	err := r.db.WithContext(ctx).
		Model(&model.DailyClose{}).
		Select("MAX(date)").
		Where("symbol = ?", symbol).
		Take(&latest).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo":   "DailyCloseRepository",
			"op":     "LatestDate",
			"symbol": symbol,
		}).WithError(err).Error("Failed to fetch latest close date")

		return time.Time{}, err
	}

	if latest == nil {
		return time.Time{}, nil
	}

	return *latest, nil
}
