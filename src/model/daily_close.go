package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyClose stores one end-of-day closing price per symbol, backfilled from
// exchange klines. The quote layer uses it as a previous-close fallback when the
// live kline request fails.
type DailyClose struct {
	ID     uint            `gorm:"primaryKey" json:"id"`
	Symbol string          `json:"symbol" gorm:"type:varchar(50);not null;uniqueIndex:ux_daily_closes_symbol_date,priority:1"`
	Date   time.Time       `json:"date"   gorm:"not null;uniqueIndex:ux_daily_closes_symbol_date,priority:2;index:idx_daily_closes_date"`
	Close  decimal.Decimal `json:"close"  gorm:"type:double precision;not null"`
}

func (DailyClose) TableName() string {
	return "daily_closes"
}
