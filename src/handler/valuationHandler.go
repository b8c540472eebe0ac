package handler

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"sort"

	logger "github.com/sirupsen/logrus"

	"portfolioapi/src/engine"
	"portfolioapi/src/quote"
	"portfolioapi/src/repository"
)

type valuer interface {
	ComputeValue(ctx context.Context, portfolioID uint, provider quote.Provider) (float64, error)
	ComputeDailyChangePercent(ctx context.Context, portfolioID uint, provider quote.Provider) (float64, error)
}

type pnlComputer interface {
	ComputePnL(ctx context.Context, portfolioID uint, provider quote.Provider) (engine.PnLReport, error)
}

type holdingsComputer interface {
	Holdings(ctx context.Context, portfolioID uint) (map[string]engine.Holding, error)
}

type portfolioValueResponse struct {
	PortfolioID      uint    `json:"portfolio_id"`
	TotalValue       float64 `json:"total_value"`
	Change24hPercent float64 `json:"change_24h_percentage"`
}

type portfolioPnLResponse struct {
	PortfolioID    uint              `json:"portfolio_id"`
	RealizedPnL    float64           `json:"realized_pnl"`
	UnrealizedPnL  float64           `json:"unrealized_pnl"`
	MarketValue    float64           `json:"market_value"`
	CostBasis      float64           `json:"cost_basis"`
	SkippedSymbols []string          `json:"skipped_symbols"`
	Oversells      []engine.Oversell `json:"oversells,omitempty"`
}

type positionResponse struct {
	Symbol    string  `json:"symbol"`
	Quantity  float64 `json:"quantity"`
	CostBasis float64 `json:"cost_basis"`
}

// roundMoney rounds reported money values to 2 decimal places at the API
// boundary. Intermediate engine math stays unrounded.
func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// PortfolioValueHandler returns a handler serving the current market value and
// 24h change of a portfolio. Per-symbol quote failures reduce coverage without
// failing the request; only engine or storage failures answer 5xx.
func PortfolioValueHandler(portfolios portfolioFinder, eng valuer, provider quote.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		portfolio, ok := resolveOwnedPortfolio(w, r, portfolios)
		if !ok {
			return
		}

		total, err := eng.ComputeValue(r.Context(), portfolio.ID, provider)
		if err != nil {
			logger.WithError(err).Error("failed to compute portfolio value")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		change, err := eng.ComputeDailyChangePercent(r.Context(), portfolio.ID, provider)
		if err != nil {
			logger.WithError(err).Error("failed to compute 24h change")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		response := portfolioValueResponse{
			PortfolioID:      portfolio.ID,
			TotalValue:       roundMoney(total),
			Change24hPercent: change,
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			logger.WithError(err).Error("failed to encode portfolio value response")
		}
	}
}

// PortfolioPnLHandler returns a handler serving the realized/unrealized P&L
// report of a portfolio.
func PortfolioPnLHandler(portfolios portfolioFinder, eng pnlComputer, provider quote.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		portfolio, ok := resolveOwnedPortfolio(w, r, portfolios)
		if !ok {
			return
		}

		report, err := eng.ComputePnL(r.Context(), portfolio.ID, provider)
		if err != nil {
			logger.WithError(err).Error("failed to compute portfolio P&L")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if len(report.Oversells) > 0 {
			logger.WithFields(map[string]interface{}{
				"portfolio_id": portfolio.ID,
				"oversells":    len(report.Oversells),
			}).Warn("P&L served for a ledger with oversells")
		}

		skipped := report.SkippedSymbols
		if skipped == nil {
			skipped = []string{}
		}

		w.Header().Set("Content-Type", "application/json")
		response := portfolioPnLResponse{
			PortfolioID:    portfolio.ID,
			RealizedPnL:    report.RealizedPnL,
			UnrealizedPnL:  report.UnrealizedPnL,
			MarketValue:    report.MarketValue,
			CostBasis:      report.CostBasis,
			SkippedSymbols: skipped,
			Oversells:      report.Oversells,
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			logger.WithError(err).Error("failed to encode P&L response")
		}
	}
}

// PortfolioPositionsHandler returns a handler listing the derived holdings of
// a portfolio, sorted by symbol. Fully sold symbols stay listed with quantity
// zero so callers can tell "sold out" from "never held".
func PortfolioPositionsHandler(portfolios portfolioFinder, eng holdingsComputer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		portfolio, ok := resolveOwnedPortfolio(w, r, portfolios)
		if !ok {
			return
		}

		holdings, err := eng.Holdings(r.Context(), portfolio.ID)
		if err != nil {
			logger.WithError(err).Error("failed to compute holdings")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		positions := make([]positionResponse, 0, len(holdings))
		for _, holding := range holdings {
			positions = append(positions, positionResponse{
				Symbol:    holding.Symbol,
				Quantity:  holding.Quantity,
				CostBasis: roundMoney(holding.CostBasis()),
			})
		}
		sort.Slice(positions, func(i, j int) bool {
			return positions[i].Symbol < positions[j].Symbol
		})

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(positions); err != nil {
			logger.WithError(err).Error("failed to encode positions response")
		}
	}
}

// ValuationHandlers bundles the three read endpoints built over one shared
// engine and provider, so cached quotes are reused across them.
type ValuationHandlers struct {
	Value     http.HandlerFunc
	PnL       http.HandlerFunc
	Positions http.HandlerFunc
}

// DefaultValuationHandlers wires the valuation endpoints to the production
// engine, repositories and the env-configured provider.
func DefaultValuationHandlers() ValuationHandlers {
	portfolios := repository.NewPortfolioRepository()
	eng := engine.New(repository.NewTransactionRepository())
	provider := quote.NewFromEnv(repository.NewDailyCloseRepository())

	return ValuationHandlers{
		Value:     PortfolioValueHandler(portfolios, eng, provider),
		PnL:       PortfolioPnLHandler(portfolios, eng, provider),
		Positions: PortfolioPositionsHandler(portfolios, eng),
	}
}
