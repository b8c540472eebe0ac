package engine

import (
	"math"
	"sort"

	"portfolioapi/src/model"
)

// Lot is an open quantity of a symbol acquired at one price. Lots only exist
// inside a single replay pass and are never persisted.
type Lot struct {
	Quantity  float64 `json:"quantity"`
	CostPrice float64 `json:"cost_price"`
}

// Holding is the derived position of one symbol: the total open quantity plus
// the FIFO queue of open lots it is made of (oldest first).
type Holding struct {
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
	Lots     []Lot   `json:"lots,omitempty"`
}

// CostBasis returns quantity times cost price summed over the open lots.
func (h Holding) CostBasis() float64 {
	var basis float64
	for _, lot := range h.Lots {
		basis += lot.Quantity * lot.CostPrice
	}
	return basis
}

// Oversell reports a sell whose quantity exceeded the open quantity of its
// symbol at that point of the replay. The unmatched remainder is ignored for
// realized P&L; the replay never fails on it.
type Oversell struct {
	TransactionID uint    `json:"transaction_id"`
	Symbol        string  `json:"symbol"`
	Quantity      float64 `json:"quantity"`
}

type replayResult struct {
	lots      map[string][]Lot
	realized  float64
	oversells []Oversell
}

// replay walks the transaction log in chronological order and matches sells
// against open buy lots, oldest first. The input slice is left untouched; the
// sort works on a copy so two replays of the same log are bit-identical.
func replay(transactions []model.Transaction) replayResult {
	txs := make([]model.Transaction, len(transactions))
	copy(txs, transactions)

	sort.SliceStable(txs, func(i, j int) bool {
		if txs[i].Timestamp.Equal(txs[j].Timestamp) {
			return txs[i].ID < txs[j].ID
		}
		return txs[i].Timestamp.Before(txs[j].Timestamp)
	})

	result := replayResult{lots: make(map[string][]Lot)}

	for _, tx := range txs {
		qty := tx.Quantity.InexactFloat64()
		price := tx.Price.InexactFloat64()

		switch tx.Side {
		case model.TransactionSideBuy:
			result.lots[tx.Symbol] = append(result.lots[tx.Symbol], Lot{Quantity: qty, CostPrice: price})

		case model.TransactionSideSell:
			queue := result.lots[tx.Symbol]
			remaining := qty

			for remaining > 0 && len(queue) > 0 {
				lot := queue[0]
				matched := math.Min(remaining, lot.Quantity)

				result.realized += (price - lot.CostPrice) * matched
				remaining -= matched

				if matched < lot.Quantity {
					// Partially consumed lot keeps its place at the front
					// with the reduced quantity.
					queue[0].Quantity = lot.Quantity - matched
				} else {
					queue = queue[1:]
				}
			}

			result.lots[tx.Symbol] = queue

			if remaining > 0 {
				result.oversells = append(result.oversells, Oversell{
					TransactionID: tx.ID,
					Symbol:        tx.Symbol,
					Quantity:      remaining,
				})
			}
		}
	}

	return result
}

// holdings flattens the replayed lot queues into one Holding per symbol.
// Symbols that were fully sold stay present with quantity zero so callers can
// distinguish "sold out" from "never held".
func (r replayResult) holdings() map[string]Holding {
	out := make(map[string]Holding, len(r.lots))
	for symbol, lots := range r.lots {
		holding := Holding{Symbol: symbol}
		for _, lot := range lots {
			holding.Quantity += lot.Quantity
		}
		if len(lots) > 0 {
			holding.Lots = append([]Lot(nil), lots...)
		}
		out[symbol] = holding
	}
	return out
}

// costBasis sums quantity times cost price over every remaining open lot.
func (r replayResult) costBasis() float64 {
	var basis float64
	for _, lots := range r.lots {
		for _, lot := range lots {
			basis += lot.Quantity * lot.CostPrice
		}
	}
	return basis
}

// ComputeHoldings replays the given transactions and returns the derived
// holding per symbol. Pure: same input, same output, no side effects.
func ComputeHoldings(transactions []model.Transaction) map[string]Holding {
	return replay(transactions).holdings()
}
