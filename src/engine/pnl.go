package engine

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"portfolioapi/src/quote"
)

// PnLReport is the per-request P&L summary of one portfolio. Money values are
// rounded to two decimal places. SkippedSymbols lists held symbols omitted
// from MarketValue because no usable quote was available; Oversells lists
// sells that exceeded the open quantity during replay. Both are diagnostics:
// their presence means reduced coverage, not failure.
type PnLReport struct {
	RealizedPnL    float64    `json:"realized_pnl"`
	UnrealizedPnL  float64    `json:"unrealized_pnl"`
	MarketValue    float64    `json:"market_value"`
	CostBasis      float64    `json:"cost_basis"`
	SkippedSymbols []string   `json:"skipped_symbols,omitempty"`
	Oversells      []Oversell `json:"oversells,omitempty"`
}

// ComputePnL replays the portfolio's ledger, prices the remaining holdings and
// returns realized P&L (from matched buy/sell lots), cost basis of the open
// lots, their market value and the unrealized P&L (market value minus cost
// basis). Per-symbol quote failures zero that symbol's market value
// contribution and are reported in SkippedSymbols; they never fail the call.
func (e *Engine) ComputePnL(ctx context.Context, portfolioID uint, provider quote.Provider) (PnLReport, error) {
	transactions, err := e.transactions.ListForReplay(ctx, portfolioID)
	if err != nil {
		return PnLReport{}, fmt.Errorf("load transactions for portfolio %d: %w", portfolioID, err)
	}

	result := replay(transactions)
	holdings := result.holdings()
	costBasis := result.costBasis()

	var marketValue float64
	var skipped []string

	symbols := heldSymbols(holdings)
	if len(symbols) > 0 {
		quotes, err := fetchQuotes(ctx, provider, symbols)
		if err != nil {
			return PnLReport{}, err
		}

		for _, sq := range quotes {
			if !sq.ok || !sq.quote.HasCurrentPrice() {
				skipped = append(skipped, sq.symbol)
				continue
			}
			marketValue += *sq.quote.CurrentPrice * holdings[sq.symbol].Quantity
		}
	}

	if len(skipped) > 0 {
		logger.WithFields(map[string]interface{}{
			"component":       "engine",
			"op":              "ComputePnL",
			"portfolio_id":    portfolioID,
			"skipped_symbols": skipped,
		}).Warn("market value computed with reduced symbol coverage")
	}

	if len(result.oversells) > 0 {
		logger.WithFields(map[string]interface{}{
			"component":    "engine",
			"op":           "ComputePnL",
			"portfolio_id": portfolioID,
			"oversells":    len(result.oversells),
		}).Warn("ledger contains sells exceeding open quantity")
	}

	return PnLReport{
		RealizedPnL:    round2(result.realized),
		UnrealizedPnL:  round2(marketValue - costBasis),
		MarketValue:    round2(marketValue),
		CostBasis:      round2(costBasis),
		SkippedSymbols: skipped,
		Oversells:      result.oversells,
	}, nil
}

// Holdings loads the portfolio's ledger and returns the derived holding per
// symbol, including symbols that were fully sold (quantity zero).
func (e *Engine) Holdings(ctx context.Context, portfolioID uint) (map[string]Holding, error) {
	transactions, err := e.transactions.ListForReplay(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("load transactions for portfolio %d: %w", portfolioID, err)
	}
	return ComputeHoldings(transactions), nil
}
