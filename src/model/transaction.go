package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TransactionSideBuy  = "buy"
	TransactionSideSell = "sell"
)

// Transaction is one immutable ledger entry of a portfolio. Updates and deletes
// through the API are ledger edits: derived holdings and P&L are recomputed from
// scratch on the next query, so no stored aggregate can drift.
type Transaction struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	PortfolioID uint            `gorm:"not null;index:idx_transactions_portfolio_timestamp,priority:1" json:"portfolio_id"`
	Symbol      string          `gorm:"type:varchar(50);not null" json:"symbol"`
	Side        string          `gorm:"size:10;not null" json:"side"` // buy, sell
	Quantity    decimal.Decimal `gorm:"type:double precision;not null" json:"quantity"`
	Price       decimal.Decimal `gorm:"type:double precision;not null" json:"price"`
	Timestamp   time.Time       `gorm:"not null;index:idx_transactions_portfolio_timestamp,priority:2" json:"timestamp"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}

type CreateTransactionPayload struct {
	Symbol    string          `json:"symbol"`
	Side      string          `json:"side"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Timestamp *time.Time      `json:"timestamp"`
}

type UpdateTransactionPayload struct {
	Symbol    *string          `json:"symbol"`
	Side      *string          `json:"side"`
	Quantity  *decimal.Decimal `json:"quantity"`
	Price     *decimal.Decimal `json:"price"`
	Timestamp *time.Time       `json:"timestamp"`
}
