package quote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nntaoli-project/goex"
	"github.com/nntaoli-project/goex/binance"
	logger "github.com/sirupsen/logrus"

	"portfolioapi/src/model"
)

// CloseStore serves persisted end-of-day closes. The crypto adapter uses it as
// the previous-close fallback when the live kline request fails. Implemented by
// repository.DailyCloseRepository; rows are written by the closings daemon.
type CloseStore interface {
	LatestBefore(ctx context.Context, symbol string, before time.Time) (*model.DailyClose, error)
}

// Crypto serves quotes for crypto symbols from the Binance spot API. The
// current price comes from the 24h ticker; the previous close comes from the
// last completed daily kline, falling back to the close store when the kline
// request fails. Symbols are normalized to SYMBOL_<quote currency> pairs.
type Crypto struct {
	exchange      goex.API
	quoteCurrency string
	closes        CloseStore
}

// NewCrypto builds an adapter against the public Binance endpoint. closes may
// be nil when no daily-close table is available.
func NewCrypto(quoteCurrency string, closes CloseStore) *Crypto {
	apiConfig := &goex.APIConfig{
		HttpClient: http.DefaultClient,
		Endpoint:   binance.GLOBAL_API_BASE_URL,
	}
	return NewCryptoWithExchange(binance.NewWithConfig(apiConfig), quoteCurrency, closes)
}

// NewCryptoWithExchange injects the exchange client, used by tests to point
// the adapter at a fake upstream.
func NewCryptoWithExchange(exchange goex.API, quoteCurrency string, closes CloseStore) *Crypto {
	if strings.TrimSpace(quoteCurrency) == "" {
		quoteCurrency = "USDT"
	}
	return &Crypto{
		exchange:      exchange,
		quoteCurrency: strings.ToUpper(quoteCurrency),
		closes:        closes,
	}
}

// Quote returns the current price and previous daily close of symbol. A failed
// ticker request fails the quote; a failed previous-close lookup only leaves
// PreviousClose nil, since valuation can still use the current price.
func (c *Crypto) Quote(ctx context.Context, symbol string) (Quote, bool, error) {
	if strings.TrimSpace(symbol) == "" {
		return Quote{}, false, errors.New("symbol is required")
	}
	if err := ctx.Err(); err != nil {
		return Quote{}, false, err
	}

	pair := goex.NewCurrencyPair(
		goex.Currency{Symbol: strings.ToUpper(symbol)},
		goex.Currency{Symbol: c.quoteCurrency},
	)

	ticker, err := c.exchange.GetTicker(pair)
	if err != nil {
		return Quote{}, false, fmt.Errorf("binance ticker for %s: %w", pair.String(), err)
	}
	if ticker == nil || ticker.Last <= 0 {
		logger.WithFields(map[string]interface{}{
			"component": "Crypto",
			"symbol":    symbol,
			"pair":      pair.String(),
		}).Warn("ticker answered without a usable last price")

		return Quote{}, false, nil
	}

	current := ticker.Last

	return Quote{
		CurrentPrice:  &current,
		PreviousClose: c.previousClose(ctx, pair, symbol),
	}, true, nil
}

// previousClose reads the close of the last completed daily candle. Binance
// returns klines oldest first with the running day as the final entry, so with
// two candles the first one is yesterday's.
func (c *Crypto) previousClose(ctx context.Context, pair goex.CurrencyPair, symbol string) *float64 {
	klines, err := c.exchange.GetKlineRecords(pair, goex.KLINE_PERIOD_1DAY, 2)
	if err == nil && len(klines) >= 2 {
		previous := klines[len(klines)-2].Close
		if previous > 0 {
			return &previous
		}
	}

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"component": "Crypto",
			"symbol":    symbol,
			"pair":      pair.String(),
		}).WithError(err).Warn("daily kline request failed, trying close store")
	}

	return c.storedClose(ctx, symbol)
}

// storedClose serves the latest persisted close strictly before today (UTC).
func (c *Crypto) storedClose(ctx context.Context, symbol string) *float64 {
	if c.closes == nil {
		return nil
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	row, err := c.closes.LatestBefore(ctx, strings.ToUpper(symbol), today)
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"component": "Crypto",
			"symbol":    symbol,
		}).WithError(err).Warn("close store lookup failed")

		return nil
	}
	if row == nil {
		return nil
	}

	close := row.Close.InexactFloat64()
	if close <= 0 {
		return nil
	}
	return &close
}
