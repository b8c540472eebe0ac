package closings

import (
	"context"
	"net/http"
	"strings"
	"time"

	"portfolioapi/src/model"
	"portfolioapi/src/repository"
	"portfolioapi/src/utils"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"github.com/nntaoli-project/goex"
	"github.com/nntaoli-project/goex/binance"
)

// Closings backfills one end-of-day close per symbol and day from Binance
// daily klines. Rows are upserted on (symbol, date), so reruns over the same
// window are safe and the running day's row is corrected by the next run.
type Closings struct {
	Log      *logger.Entry
	Closes   *repository.DailyCloseRepository
	Config   *Config
	exchange goex.API
}

func (c *Closings) Start() error {
	ctx := context.Background()
	c.Config = GetConfig()

	c.exchange = c.newBinanceInstance()

	for _, symbol := range c.Config.Symbols {
		if err := c.backfillSymbol(ctx, symbol); err != nil {
			return err
		}
	}

	return nil
}

func (*Closings) newBinanceInstance() *binance.Binance {
	apiConfig := &goex.APIConfig{
		HttpClient: http.DefaultClient,
		Endpoint:   binance.GLOBAL_API_BASE_URL,
	}
	return binance.NewWithConfig(apiConfig)
}

func (c *Closings) backfillSymbol(ctx context.Context, symbol string) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	start, end := c.Config.StartDt, c.Config.EndDt
	if c.Config.AutoMode {
		var err error
		start, end, err = c.determineWindow(ctx, symbol)
		if err != nil {
			return err
		}
	}

	klines, err := c.fetchDailyKlines(symbol, start, end)
	if err != nil {
		return err
	}

	for i := range klines {
		result := klines[i]

		row := &model.DailyClose{
			Symbol: symbol,
			Date:   utils.ResetTime(time.Unix(result.Timestamp, 0).UTC(), "day"),
			Close:  decimal.NewFromFloat(result.Close),
		}

		if err := c.Closes.Upsert(ctx, row); err != nil {
			c.Log.WithError(err).Error("backfillSymbol, Upsert, ")
			return err
		}

		c.Log.WithFields(logger.Fields{
			"Symbol": symbol,
			"Date":   row.Date,
			"Close":  row.Close,
		}).Info("Daily close inserted or updated in database")
	}

	return nil
}

// determineWindow resumes from the newest stored close so reruns only fetch
// what is missing. The last stored day is fetched again because its close may
// have been written while that day was still running.
func (c *Closings) determineWindow(ctx context.Context, symbol string) (time.Time, time.Time, error) {
	start := c.Config.StartDt
	end := time.Now()

	latest, err := c.Closes.LatestDate(ctx, symbol)
	if err != nil {
		c.Log.
			WithError(err).
			Error("Failed to query latest close date")
		return time.Time{}, time.Time{}, err
	}

	if latest.IsZero() {
		c.Log.
			WithField("StartDt", start.String()).
			WithField("EndDt", end.String()).
			Info("no stored closes found, starting from the configured StartDt")
		return start, end, nil
	}

	start = latest.Add(-24 * time.Hour)
	c.Log.
		WithField("StartDt", start.String()).
		WithField("EndDt", end.String()).
		Info("determineWindow resuming from stored closes")

	return start, end, nil
}

func (c *Closings) fetchDailyKlines(symbol string, start, end time.Time) ([]goex.Kline, error) {
	pair := goex.NewCurrencyPair(goex.Currency{Symbol: symbol}, goex.Currency{Symbol: c.Config.Quote})

	const millis = 1000
	klines, err := c.exchange.GetKlineRecords(
		pair,
		goex.KLINE_PERIOD_1DAY,
		c.Config.Limit,
		goex.OptionalParameter{}.
			Optional("startTime", start.Unix()*millis).
			Optional("endTime", end.Unix()*millis),
	)
	if err != nil {
		return nil, err
	}

	return klines, nil
}
