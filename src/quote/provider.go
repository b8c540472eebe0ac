package quote

import "context"

// Quote carries the two reference prices the valuation engine consumes.
// Either field may be nil when the upstream answered with a partial payload;
// callers must tolerate one or both being absent.
type Quote struct {
	CurrentPrice  *float64 `json:"current_price,omitempty"`
	PreviousClose *float64 `json:"previous_close,omitempty"`
}

// HasCurrentPrice reports whether the quote includes a usable current price.
func (q Quote) HasCurrentPrice() bool {
	return q.CurrentPrice != nil
}

// HasPreviousClose reports whether the quote includes a usable previous close.
func (q Quote) HasPreviousClose() bool {
	return q.PreviousClose != nil
}

// Provider fetches reference prices for one symbol. Implementations must be
// safe for concurrent use: the valuation engine issues one Quote call per held
// symbol in parallel.
//
// ok reports whether the upstream produced any data at all; err reports
// transport and decode failures. The engine treats !ok and err alike and skips
// the symbol, so implementations should prefer (Quote{}, false, nil) for empty
// upstream answers and reserve err for real failures worth logging.
type Provider interface {
	Quote(ctx context.Context, symbol string) (Quote, bool, error)
}

// ProviderFunc adapts a plain function to the Provider interface.
type ProviderFunc func(ctx context.Context, symbol string) (Quote, bool, error)

func (f ProviderFunc) Quote(ctx context.Context, symbol string) (Quote, bool, error) {
	return f(ctx, symbol)
}
