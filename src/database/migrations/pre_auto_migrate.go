package migrations

import (
	"database/sql"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// PrepareLegacyTransactionColumns normalizes schemas that previously stored the
// transaction side in a column named "type" so that AutoMigrate can manage the
// side column without leaving the legacy one behind.
func PrepareLegacyTransactionColumns(db *gorm.DB) error {
	legacyType, legacyExists, err := lookupColumnType(db, "transactions", "type")
	if err != nil {
		return fmt.Errorf("inspect transactions.type: %w", err)
	}
	if !legacyExists || !isStringy(legacyType) {
		return nil
	}

	_, sideExists, err := lookupColumnType(db, "transactions", "side")
	if err != nil {
		return fmt.Errorf("inspect transactions.side: %w", err)
	}

	if !sideExists {
		if err := db.Exec(`ALTER TABLE transactions RENAME COLUMN "type" TO side`).Error; err != nil {
			return fmt.Errorf("rename transactions.type to side: %w", err)
		}
		return nil
	}

	// Both columns exist: only backfill rows the new column never saw, then
	// drop the legacy one.
	if err := db.Exec(`UPDATE transactions SET side = "type" WHERE (side IS NULL OR side = '') AND "type" IS NOT NULL`).Error; err != nil {
		return fmt.Errorf("backfill side from type: %w", err)
	}

	if err := db.Exec(`ALTER TABLE transactions DROP COLUMN "type"`).Error; err != nil {
		return fmt.Errorf("drop legacy type column on transactions: %w", err)
	}

	return nil
}

func lookupColumnType(db *gorm.DB, table, column string) (dataType string, exists bool, err error) {
	row := db.Raw(
		`SELECT data_type FROM information_schema.columns WHERE table_name = ? AND column_name = ?`,
		table,
		column,
	).Row()

	if scanErr := row.Scan(&dataType); scanErr != nil {
		if scanErr == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, scanErr
	}

	return dataType, true, nil
}

func isStringy(dataType string) bool {
	dataType = strings.ToLower(dataType)
	return strings.Contains(dataType, "char") || dataType == "text"
}
