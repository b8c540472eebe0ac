package engine

import (
	"context"
	"math"

	"portfolioapi/src/model"
)

// TransactionSource gives the engine read access to the ordered transaction
// log of one portfolio. Implemented by repository.TransactionRepository; tests
// use in-memory fakes.
type TransactionSource interface {
	ListForReplay(ctx context.Context, portfolioID uint) ([]model.Transaction, error)
}

// Engine derives holdings, P&L and market value from a portfolio's transaction
// log. It holds no mutable state of its own: every computation replays the log
// from scratch, so results can never drift from the ledger.
type Engine struct {
	transactions TransactionSource
}

// New creates an engine reading transactions from the given source. Quote
// providers are passed per call, not stored, so one engine can serve requests
// with different providers.
func New(transactions TransactionSource) *Engine {
	return &Engine{transactions: transactions}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
