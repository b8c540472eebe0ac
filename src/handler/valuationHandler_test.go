package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"portfolioapi/src/engine"
	"portfolioapi/src/model"
	"portfolioapi/src/quote"

	"github.com/stretchr/testify/assert"
)

type mockEngine struct {
	value     float64
	valueErr  error
	change    float64
	changeErr error
	report    engine.PnLReport
	reportErr error
	holdings  map[string]engine.Holding
	holdErr   error
}

func (m *mockEngine) ComputeValue(ctx context.Context, portfolioID uint, provider quote.Provider) (float64, error) {
	return m.value, m.valueErr
}

func (m *mockEngine) ComputeDailyChangePercent(ctx context.Context, portfolioID uint, provider quote.Provider) (float64, error) {
	return m.change, m.changeErr
}

func (m *mockEngine) ComputePnL(ctx context.Context, portfolioID uint, provider quote.Provider) (engine.PnLReport, error) {
	return m.report, m.reportErr
}

func (m *mockEngine) Holdings(ctx context.Context, portfolioID uint) (map[string]engine.Holding, error) {
	return m.holdings, m.holdErr
}

func ownedPortfolio(id uint) *mockPortfolioFinder {
	return &mockPortfolioFinder{portfolio: &model.Portfolio{ID: id, UserID: 7}}
}

func TestPortfolioValueHandler_ForeignPortfolio(t *testing.T) {
	handler := PortfolioValueHandler(&mockPortfolioFinder{portfolio: nil}, &mockEngine{}, nil)

	req := authenticated(httptest.NewRequest(http.MethodGet, "/portfolios/3/value", nil), 7)
	rr := serveTransactionRoute(http.MethodGet, "/portfolios/{portfolioID}/value", handler, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestPortfolioValueHandler_EngineError(t *testing.T) {
	handler := PortfolioValueHandler(ownedPortfolio(3), &mockEngine{valueErr: assert.AnError}, nil)

	req := authenticated(httptest.NewRequest(http.MethodGet, "/portfolios/3/value", nil), 7)
	rr := serveTransactionRoute(http.MethodGet, "/portfolios/{portfolioID}/value", handler, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
}

func TestPortfolioValueHandler_Success(t *testing.T) {
	handler := PortfolioValueHandler(ownedPortfolio(3), &mockEngine{value: 1234.5678, change: -2.5}, nil)

	req := authenticated(httptest.NewRequest(http.MethodGet, "/portfolios/3/value", nil), 7)
	rr := serveTransactionRoute(http.MethodGet, "/portfolios/{portfolioID}/value", handler, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var decoded struct {
		PortfolioID uint    `json:"portfolio_id"`
		TotalValue  float64 `json:"total_value"`
		Change      float64 `json:"change_24h_percentage"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if decoded.PortfolioID != 3 {
		t.Fatalf("expected portfolio id 3, got %d", decoded.PortfolioID)
	}

	if decoded.TotalValue != 1234.57 {
		t.Fatalf("expected total value rounded to 1234.57, got %v", decoded.TotalValue)
	}

	if decoded.Change != -2.5 {
		t.Fatalf("expected change -2.5, got %v", decoded.Change)
	}
}

func TestPortfolioPnLHandler_Success(t *testing.T) {
	report := engine.PnLReport{
		RealizedPnL:   250,
		UnrealizedPnL: -20.5,
		MarketValue:   179.5,
		CostBasis:     200,
	}
	handler := PortfolioPnLHandler(ownedPortfolio(3), &mockEngine{report: report}, nil)

	req := authenticated(httptest.NewRequest(http.MethodGet, "/portfolios/3/pnl", nil), 7)
	rr := serveTransactionRoute(http.MethodGet, "/portfolios/{portfolioID}/pnl", handler, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var decoded struct {
		PortfolioID    uint     `json:"portfolio_id"`
		RealizedPnL    float64  `json:"realized_pnl"`
		SkippedSymbols []string `json:"skipped_symbols"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if decoded.PortfolioID != 3 || decoded.RealizedPnL != 250 {
		t.Fatalf("unexpected report: %+v", decoded)
	}

	// No skipped symbols still serializes as an empty list, not null.
	if !strings.Contains(rr.Body.String(), `"skipped_symbols":[]`) {
		t.Fatalf("expected empty skipped_symbols list, got %q", rr.Body.String())
	}

	if strings.Contains(rr.Body.String(), "oversells") {
		t.Fatalf("expected oversells omitted when empty, got %q", rr.Body.String())
	}
}

func TestPortfolioPnLHandler_Diagnostics(t *testing.T) {
	report := engine.PnLReport{
		RealizedPnL:    50,
		SkippedSymbols: []string{"MSFT"},
		Oversells:      []engine.Oversell{{TransactionID: 4, Symbol: "AAPL", Quantity: 5}},
	}
	handler := PortfolioPnLHandler(ownedPortfolio(3), &mockEngine{report: report}, nil)

	req := authenticated(httptest.NewRequest(http.MethodGet, "/portfolios/3/pnl", nil), 7)
	rr := serveTransactionRoute(http.MethodGet, "/portfolios/{portfolioID}/pnl", handler, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var decoded struct {
		SkippedSymbols []string          `json:"skipped_symbols"`
		Oversells      []engine.Oversell `json:"oversells"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(decoded.SkippedSymbols) != 1 || decoded.SkippedSymbols[0] != "MSFT" {
		t.Fatalf("unexpected skipped symbols: %v", decoded.SkippedSymbols)
	}

	if len(decoded.Oversells) != 1 || decoded.Oversells[0].Symbol != "AAPL" {
		t.Fatalf("unexpected oversell diagnostics: %+v", decoded.Oversells)
	}
}

func TestPortfolioPnLHandler_EngineError(t *testing.T) {
	handler := PortfolioPnLHandler(ownedPortfolio(3), &mockEngine{reportErr: assert.AnError}, nil)

	req := authenticated(httptest.NewRequest(http.MethodGet, "/portfolios/3/pnl", nil), 7)
	rr := serveTransactionRoute(http.MethodGet, "/portfolios/{portfolioID}/pnl", handler, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
}

func TestPortfolioPositionsHandler_SortedBySymbol(t *testing.T) {
	holdings := map[string]engine.Holding{
		"ETH":  {Symbol: "ETH", Quantity: 2, Lots: []engine.Lot{{Quantity: 2, CostPrice: 3100.333}}},
		"AAPL": {Symbol: "AAPL", Quantity: 5, Lots: []engine.Lot{{Quantity: 5, CostPrice: 180}}},
		"BTC":  {Symbol: "BTC", Quantity: 0},
	}
	handler := PortfolioPositionsHandler(ownedPortfolio(3), &mockEngine{holdings: holdings})

	req := authenticated(httptest.NewRequest(http.MethodGet, "/portfolios/3/positions", nil), 7)
	rr := serveTransactionRoute(http.MethodGet, "/portfolios/{portfolioID}/positions", handler, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var decoded []struct {
		Symbol    string  `json:"symbol"`
		Quantity  float64 `json:"quantity"`
		CostBasis float64 `json:"cost_basis"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(decoded) != 3 {
		t.Fatalf("expected 3 positions, got %d", len(decoded))
	}

	if decoded[0].Symbol != "AAPL" || decoded[1].Symbol != "BTC" || decoded[2].Symbol != "ETH" {
		t.Fatalf("positions not sorted by symbol: %+v", decoded)
	}

	// Fully sold symbols stay listed with quantity zero.
	if decoded[1].Quantity != 0 {
		t.Fatalf("expected BTC quantity 0, got %v", decoded[1].Quantity)
	}

	if decoded[2].CostBasis != 6200.67 {
		t.Fatalf("expected rounded cost basis 6200.67, got %v", decoded[2].CostBasis)
	}
}
