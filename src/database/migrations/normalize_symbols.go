package migrations

import (
	"fmt"

	"portfolioapi/src/model"

	"gorm.io/gorm"
)

// normalizeSymbols uppercases every stored symbol. The API normalizes symbols
// on write, but rows created before that was enforced can still carry
// lowercase variants, which would split one holding into two during replay.
func normalizeSymbols(db *gorm.DB) error {
	if err := db.Model(&model.Transaction{}).
		Where("symbol <> upper(symbol)").
		Update("symbol", gorm.Expr("upper(symbol)")).Error; err != nil {
		return fmt.Errorf("normalize transaction symbols: %w", err)
	}

	if err := db.Model(&model.DailyClose{}).
		Where("symbol <> upper(symbol)").
		Update("symbol", gorm.Expr("upper(symbol)")).Error; err != nil {
		return fmt.Errorf("normalize daily close symbols: %w", err)
	}

	return nil
}
