package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ValuationSnapshot is one persisted point-in-time valuation of a portfolio,
// written by the valuationd loop. Snapshots are an audit trail only; live
// endpoints always recompute from the ledger and fresh quotes.
type ValuationSnapshot struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	PortfolioID   uint            `gorm:"not null;index" json:"portfolio_id"`
	MarketValue   decimal.Decimal `gorm:"type:double precision;not null" json:"market_value"`
	CostBasis     decimal.Decimal `gorm:"type:double precision;not null" json:"cost_basis"`
	RealizedPnL   decimal.Decimal `gorm:"type:double precision;not null;column:realized_pnl" json:"realized_pnl"`
	UnrealizedPnL decimal.Decimal `gorm:"type:double precision;not null;column:unrealized_pnl" json:"unrealized_pnl"`
	Change24hPct  decimal.Decimal `gorm:"type:double precision;not null;column:change_24h_pct" json:"change_24h_percentage"`
	// SkippedSymbols lists symbols omitted from MarketValue because no usable
	// quote was available, comma separated. Empty means full coverage.
	SkippedSymbols string    `gorm:"type:text" json:"skipped_symbols,omitempty"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

func (ValuationSnapshot) TableName() string {
	return "valuation_snapshots"
}
