package valuationd

import (
	"context"
	"strings"
	"time"

	"portfolioapi/src/database"
	"portfolioapi/src/engine"
	"portfolioapi/src/model"
	"portfolioapi/src/quote"
	"portfolioapi/src/repository"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
)

type portfolioLister interface {
	ListAll(ctx context.Context) ([]model.Portfolio, error)
}

type valuationEngine interface {
	ComputePnL(ctx context.Context, portfolioID uint, provider quote.Provider) (engine.PnLReport, error)
	ComputeDailyChangePercent(ctx context.Context, portfolioID uint, provider quote.Provider) (float64, error)
}

type snapshotWriter interface {
	Create(ctx context.Context, snapshot *model.ValuationSnapshot) error
}

type exceptionWriter interface {
	Create(ctx context.Context, exc *model.Exception) error
}

// snapshotter runs one valuation pass over every portfolio. Reads go through
// the read-only connection, snapshot and exception writes through the main one.
type snapshotter struct {
	portfolios portfolioLister
	engine     valuationEngine
	provider   quote.Provider
	snapshots  snapshotWriter
	exceptions exceptionWriter
}

// StartLoop ticks every LoopPeriod until ctx is cancelled. A failed pass is
// logged and retried on the next tick; it never stops the daemon.
func StartLoop(ctx context.Context) error {
	config := GetConfig()

	ticker := time.NewTicker(config.LoopPeriod) // Set up a ticker that fires periodically
	defer ticker.Stop()

	s := &snapshotter{
		portfolios: repository.NewPortfolioRepository().WithDB(database.ReadOnlyDB),
		engine:     engine.New(repository.NewTransactionRepository().WithDB(database.ReadOnlyDB)),
		provider:   quote.NewFromEnv(repository.NewDailyCloseRepository().WithDB(database.ReadOnlyDB)),
		snapshots:  repository.NewSnapshotRepository(),
		exceptions: repository.NewExceptionRepository(),
	}

	for {
		select {
		case <-ctx.Done():
			logger.Println("loop stopped")
			return nil

		case <-ticker.C:
			logger.Info("loop tick")
			if err := s.runOnce(ctx); err != nil {
				logger.WithError(err).Error("valuation pass failed, will retry next tick")
			}
		}
	}
}

// runOnce snapshots every portfolio. Per-portfolio failures are recorded as
// exceptions and skipped so one broken ledger cannot starve the rest.
func (s *snapshotter) runOnce(ctx context.Context) error {
	portfolios, err := s.portfolios.ListAll(ctx)
	if err != nil {
		logger.WithError(err).Error("Failed to list portfolios")
		return err
	}

	for i := range portfolios {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		portfolio := &portfolios[i]

		if err := s.snapshotPortfolio(ctx, portfolio); err != nil {
			logger.
				WithField("portfolio_id", portfolio.ID).
				WithError(err).
				Error("Failed to snapshot portfolio, skipping")

			s.recordException(ctx, portfolio.ID, err)
		}
	}

	return nil
}

func (s *snapshotter) snapshotPortfolio(ctx context.Context, portfolio *model.Portfolio) error {
	report, err := s.engine.ComputePnL(ctx, portfolio.ID, s.provider)
	if err != nil {
		return err
	}

	change, err := s.engine.ComputeDailyChangePercent(ctx, portfolio.ID, s.provider)
	if err != nil {
		return err
	}

	if len(report.Oversells) > 0 {
		logger.WithFields(logger.Fields{
			"portfolio_id": portfolio.ID,
			"oversells":    len(report.Oversells),
		}).Warn("ledger contains sells exceeding open quantity")
	}

	snapshot := &model.ValuationSnapshot{
		PortfolioID:    portfolio.ID,
		MarketValue:    decimal.NewFromFloat(report.MarketValue),
		CostBasis:      decimal.NewFromFloat(report.CostBasis),
		RealizedPnL:    decimal.NewFromFloat(report.RealizedPnL),
		UnrealizedPnL:  decimal.NewFromFloat(report.UnrealizedPnL),
		Change24hPct:   decimal.NewFromFloat(change),
		SkippedSymbols: strings.Join(report.SkippedSymbols, ","),
	}

	if err := s.snapshots.Create(ctx, snapshot); err != nil {
		return err
	}

	logger.WithFields(logger.Fields{
		"portfolio_id":    portfolio.ID,
		"market_value":    report.MarketValue,
		"realized_pnl":    report.RealizedPnL,
		"unrealized_pnl":  report.UnrealizedPnL,
		"change_24h_pct":  change,
		"skipped_symbols": report.SkippedSymbols,
	}).Info("Valuation snapshot persisted")

	return nil
}

// recordException writes the failure to the exceptions table. Recording is
// best effort: a write failure is only logged, the pass keeps going.
func (s *snapshotter) recordException(ctx context.Context, portfolioID uint, cause error) {
	pid := portfolioID
	exc := &model.Exception{
		Component:   "valuationd",
		Op:          "snapshotPortfolio",
		PortfolioID: &pid,
		Message:     cause.Error(),
		Level:       "error",
	}

	if err := s.exceptions.Create(ctx, exc); err != nil {
		logger.
			WithField("portfolio_id", portfolioID).
			WithError(err).
			Error("Failed to record exception")
	}
}
