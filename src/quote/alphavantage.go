package quote

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"
)

const (
	defaultAlphaVantageBaseURL = "https://www.alphavantage.co"

	defaultRetryAttempts   = 5
	defaultRetryBaseDelay  = 500 * time.Millisecond
	defaultRetryMaxBackoff = 8 * time.Second
)

// The upstream GLOBAL_QUOTE payload carries prices as strings under numbered
// keys. Parsing that shape stays inside this adapter; nothing above the quote
// package ever sees it.
const (
	fieldPrice         = "05. price"
	fieldPreviousClose = "08. previous close"
)

type globalQuoteResponse struct {
	GlobalQuote map[string]string `json:"Global Quote"`
}

// AlphaVantage serves equity quotes from the Alpha Vantage GLOBAL_QUOTE
// endpoint. Safe for concurrent use: the underlying resty client is shared and
// every call builds its own request.
type AlphaVantage struct {
	apiKey string
	http   *resty.Client
}

func isRetryableResp(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}

	code := r.StatusCode()
	if code >= 500 && code <= 599 {
		return true
	}
	if code == 429 {
		return true
	}
	if code == 408 {
		return true
	}
	return false
}

func NewAlphaVantage(apiKey, baseURL string, timeout time.Duration) *AlphaVantage {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultAlphaVantageBaseURL
		logger.Warnf("No base URL provided, using default: %s", baseURL)
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(defaultRetryAttempts - 1).
		SetRetryWaitTime(defaultRetryBaseDelay).
		SetRetryMaxWaitTime(defaultRetryMaxBackoff).
		AddRetryCondition(isRetryableResp)

	return &AlphaVantage{
		apiKey: apiKey,
		http:   httpClient,
	}
}

// Quote fetches the GLOBAL_QUOTE record for symbol. A 200 answer with an
// empty quote object (rate limiting, unknown symbol) yields (Quote{}, false,
// nil); missing or non-numeric price fields leave the corresponding Quote
// field nil without failing the call.
func (c *AlphaVantage) Quote(ctx context.Context, symbol string) (Quote, bool, error) {
	if strings.TrimSpace(symbol) == "" {
		return Quote{}, false, errors.New("symbol is required")
	}

	var out globalQuoteResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParams(map[string]string{
			"function": "GLOBAL_QUOTE",
			"symbol":   symbol,
			"apikey":   c.apiKey,
		}).
		SetResult(&out).
		Get("/query")
	if err != nil {
		return Quote{}, false, fmt.Errorf("alphavantage request for %s: %w", symbol, err)
	}
	if resp.IsError() {
		return Quote{}, false, fmt.Errorf("alphavantage returned status %d for %s", resp.StatusCode(), symbol)
	}

	if len(out.GlobalQuote) == 0 {
		logger.WithFields(map[string]interface{}{
			"component": "AlphaVantage",
			"symbol":    symbol,
		}).Warn("empty quote payload, likely rate limited or unknown symbol")

		return Quote{}, false, nil
	}

	return Quote{
		CurrentPrice:  parsePriceField(out.GlobalQuote, fieldPrice, symbol),
		PreviousClose: parsePriceField(out.GlobalQuote, fieldPreviousClose, symbol),
	}, true, nil
}

func parsePriceField(payload map[string]string, key, symbol string) *float64 {
	raw, present := payload[key]
	if !present {
		return nil
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"component": "AlphaVantage",
			"symbol":    symbol,
			"field":     key,
			"raw":       raw,
		}).Warn("non-numeric price field in quote payload")

		return nil
	}

	return &value
}
