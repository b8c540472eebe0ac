package quote

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Provider            string        `envconfig:"QUOTE_PROVIDER" default:"alphavantage"` // alphavantage | crypto
	AlphaVantageAPIKey  string        `envconfig:"ALPHAVANTAGE_API_KEY" default:"demo"`
	AlphaVantageBaseURL string        `envconfig:"ALPHAVANTAGE_BASE_URL" default:"https://www.alphavantage.co"`
	HTTPTimeout         time.Duration `envconfig:"QUOTE_HTTP_TIMEOUT" default:"15s"`
	CacheTTL            time.Duration `envconfig:"QUOTE_CACHE_TTL" default:"60s"`
	CryptoQuoteCurrency string        `envconfig:"CRYPTO_QUOTE_CURRENCY" default:"USDT"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}

// NewFromEnv builds the provider selected by QUOTE_PROVIDER, wrapped in the
// shared TTL cache. closes feeds the crypto adapter's previous-close fallback
// and may be nil.
func NewFromEnv(closes CloseStore) Provider {
	config := GetConfig()

	var provider Provider
	switch strings.ToLower(config.Provider) {
	case "crypto":
		provider = NewCrypto(config.CryptoQuoteCurrency, closes)
	default:
		provider = NewAlphaVantage(config.AlphaVantageAPIKey, config.AlphaVantageBaseURL, config.HTTPTimeout)
	}

	return NewCache(provider, config.CacheTTL)
}
