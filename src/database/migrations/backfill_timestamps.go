package migrations

import (
	"time"

	"portfolioapi/src/model"

	"gorm.io/gorm"
)

// backfillTransactionTimestamps fills zero timestamps from created_at. Replays
// order by timestamp, so zero rows would all sort ahead of real ledger entries.
func backfillTransactionTimestamps(db *gorm.DB) error {
	cutoff := time.Date(1971, 1, 1, 0, 0, 0, 0, time.UTC)

	return db.Model(&model.Transaction{}).
		Where("timestamp < ?", cutoff).
		Update("timestamp", gorm.Expr("created_at")).Error
}
