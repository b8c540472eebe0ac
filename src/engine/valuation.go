package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"

	logger "github.com/sirupsen/logrus"

	"portfolioapi/src/quote"
)

type symbolQuote struct {
	symbol string
	quote  quote.Quote
	ok     bool
}

// fetchQuotes asks the provider for every symbol in parallel, one goroutine
// per symbol, each writing only into its own slot. It joins all fetches before
// returning, then fails the whole batch if the caller's context was cancelled
// in the meantime: a partially summed total must never leak out as a real one.
// Individual quote failures are logged and reported as ok=false slots.
func fetchQuotes(ctx context.Context, provider quote.Provider, symbols []string) ([]symbolQuote, error) {
	results := make([]symbolQuote, len(symbols))

	var wg sync.WaitGroup
	for i, symbol := range symbols {
		wg.Add(1)
		go func(slot int, symbol string) {
			defer wg.Done()

			q, ok, err := provider.Quote(ctx, symbol)
			if err != nil {
				logger.WithFields(map[string]interface{}{
					"component": "engine",
					"op":        "fetchQuotes",
					"symbol":    symbol,
				}).WithError(err).Warn("quote fetch failed, symbol skipped")

				results[slot] = symbolQuote{symbol: symbol}
				return
			}

			results[slot] = symbolQuote{symbol: symbol, quote: q, ok: ok}
		}(i, symbol)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("valuation cancelled: %w", err)
	}

	return results, nil
}

// heldSymbols returns the distinct symbols with open quantity, sorted so quote
// fan-out and logs are deterministic.
func heldSymbols(holdings map[string]Holding) []string {
	symbols := make([]string, 0, len(holdings))
	for symbol, holding := range holdings {
		if holding.Quantity > 0 {
			symbols = append(symbols, symbol)
		}
	}
	sort.Strings(symbols)
	return symbols
}

// ComputeValue returns the current market value of the portfolio's holdings:
// current price times open quantity, summed over every symbol the provider
// could price. Symbols without a usable quote contribute nothing. An empty
// portfolio, or one where every quote failed, values to 0.0. Only context
// cancellation makes the call fail as a whole.
func (e *Engine) ComputeValue(ctx context.Context, portfolioID uint, provider quote.Provider) (float64, error) {
	transactions, err := e.transactions.ListForReplay(ctx, portfolioID)
	if err != nil {
		return 0, fmt.Errorf("load transactions for portfolio %d: %w", portfolioID, err)
	}

	holdings := replay(transactions).holdings()
	symbols := heldSymbols(holdings)
	if len(symbols) == 0 {
		return 0.0, nil
	}

	quotes, err := fetchQuotes(ctx, provider, symbols)
	if err != nil {
		return 0, err
	}

	var total float64
	for _, sq := range quotes {
		if !sq.ok || !sq.quote.HasCurrentPrice() {
			logger.WithFields(map[string]interface{}{
				"component":    "engine",
				"op":           "ComputeValue",
				"portfolio_id": portfolioID,
				"symbol":       sq.symbol,
			}).Warn("no usable current price, symbol skipped")
			continue
		}
		total += *sq.quote.CurrentPrice * holdings[sq.symbol].Quantity
	}

	return total, nil
}

// ComputeDailyChangePercent returns the 24 hour percentage change of the
// portfolio's market value. Only holdings with BOTH a current price and a
// previous close take part, contributing to the current and previous totals
// as a pair. With no such holding the change is 0.0. A previous total of zero
// is the new-portfolio edge case: 100.0 when the current total is positive,
// 0.0 otherwise.
func (e *Engine) ComputeDailyChangePercent(ctx context.Context, portfolioID uint, provider quote.Provider) (float64, error) {
	transactions, err := e.transactions.ListForReplay(ctx, portfolioID)
	if err != nil {
		return 0, fmt.Errorf("load transactions for portfolio %d: %w", portfolioID, err)
	}

	holdings := replay(transactions).holdings()
	symbols := heldSymbols(holdings)
	if len(symbols) == 0 {
		return 0.0, nil
	}

	quotes, err := fetchQuotes(ctx, provider, symbols)
	if err != nil {
		return 0, err
	}

	var totalCurrent, totalPrevious float64
	anyPaired := false

	for _, sq := range quotes {
		if !sq.ok || !sq.quote.HasCurrentPrice() || !sq.quote.HasPreviousClose() {
			logger.WithFields(map[string]interface{}{
				"component":    "engine",
				"op":           "ComputeDailyChangePercent",
				"portfolio_id": portfolioID,
				"symbol":       sq.symbol,
			}).Warn("missing current price or previous close, symbol skipped")
			continue
		}

		qty := holdings[sq.symbol].Quantity
		totalCurrent += *sq.quote.CurrentPrice * qty
		totalPrevious += *sq.quote.PreviousClose * qty
		anyPaired = true
	}

	if !anyPaired {
		return 0.0, nil
	}

	if totalPrevious == 0 {
		if totalCurrent > 0 {
			return 100.0, nil
		}
		return 0.0, nil
	}

	return (totalCurrent - totalPrevious) / totalPrevious * 100, nil
}
