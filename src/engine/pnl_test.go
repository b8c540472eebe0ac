package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"portfolioapi/src/model"
	"portfolioapi/src/quote"
)

func TestComputePnLFIFONumbers(t *testing.T) {
	// buy 10@10, buy 10@20, sell 15@30, current price 25:
	// realized 250, cost basis 5*20=100, market value 5*25=125, unrealized 25.
	source := &staticSource{transactions: []model.Transaction{
		tx(1, model.TransactionSideBuy, "BTC", 10, 10, ledgerBase),
		tx(2, model.TransactionSideBuy, "BTC", 10, 20, ledgerBase.Add(time.Hour)),
		tx(3, model.TransactionSideSell, "BTC", 15, 30, ledgerBase.Add(2*time.Hour)),
	}}
	provider := &fakeProvider{quotes: map[string]quote.Quote{"BTC": currentOnly(25)}}

	report, err := New(source).ComputePnL(context.Background(), 1, provider)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !almostEqual(report.RealizedPnL, 250) {
		t.Fatalf("realized mismatch. got=%v want=250", report.RealizedPnL)
	}
	if !almostEqual(report.CostBasis, 100) {
		t.Fatalf("cost basis mismatch. got=%v want=100", report.CostBasis)
	}
	if !almostEqual(report.MarketValue, 125) {
		t.Fatalf("market value mismatch. got=%v want=125", report.MarketValue)
	}
	if !almostEqual(report.UnrealizedPnL, 25) {
		t.Fatalf("unrealized mismatch. got=%v want=25", report.UnrealizedPnL)
	}
	if len(report.SkippedSymbols) != 0 {
		t.Fatalf("unexpected skipped symbols: %v", report.SkippedSymbols)
	}
	if len(report.Oversells) != 0 {
		t.Fatalf("unexpected oversell diagnostics: %v", report.Oversells)
	}
}

func TestComputePnLSkippedSymbols(t *testing.T) {
	// BAD cannot be priced: its market value contribution is zero and the
	// symbol is reported, while the cost basis still covers every open lot.
	source := &staticSource{transactions: []model.Transaction{
		tx(1, model.TransactionSideBuy, "AAPL", 10, 150, ledgerBase),
		tx(2, model.TransactionSideBuy, "BAD", 5, 10, ledgerBase.Add(time.Minute)),
	}}
	provider := &fakeProvider{
		quotes: map[string]quote.Quote{"AAPL": currentOnly(170)},
		errs:   map[string]error{"BAD": errors.New("upstream down")},
	}

	report, err := New(source).ComputePnL(context.Background(), 1, provider)
	if err != nil {
		t.Fatalf("partial pricing failure must not fail the call: %v", err)
	}

	if !almostEqual(report.MarketValue, 1700) {
		t.Fatalf("market value mismatch. got=%v want=1700", report.MarketValue)
	}
	if !almostEqual(report.CostBasis, 1550) {
		t.Fatalf("cost basis mismatch. got=%v want=1550", report.CostBasis)
	}
	if !almostEqual(report.UnrealizedPnL, 150) {
		t.Fatalf("unrealized mismatch. got=%v want=150", report.UnrealizedPnL)
	}
	if len(report.SkippedSymbols) != 1 || report.SkippedSymbols[0] != "BAD" {
		t.Fatalf("skipped symbols mismatch: %v", report.SkippedSymbols)
	}
}

func TestComputePnLOversellDiagnostic(t *testing.T) {
	source := &staticSource{transactions: []model.Transaction{
		tx(1, model.TransactionSideBuy, "DOGE", 5, 10, ledgerBase),
		tx(2, model.TransactionSideSell, "DOGE", 10, 20, ledgerBase.Add(time.Hour)),
	}}
	provider := &fakeProvider{}

	report, err := New(source).ComputePnL(context.Background(), 1, provider)
	if err != nil {
		t.Fatalf("oversell must not fail the call: %v", err)
	}

	if !almostEqual(report.RealizedPnL, 50) {
		t.Fatalf("realized mismatch. got=%v want=50", report.RealizedPnL)
	}
	if len(report.Oversells) != 1 {
		t.Fatalf("expected one oversell diagnostic, got %d", len(report.Oversells))
	}
	if report.Oversells[0].Symbol != "DOGE" || !almostEqual(report.Oversells[0].Quantity, 5) {
		t.Fatalf("oversell diagnostic mismatch: %+v", report.Oversells[0])
	}
	if report.MarketValue != 0 || report.CostBasis != 0 {
		t.Fatalf("sold out portfolio must carry zero value and basis, got %+v", report)
	}
	if provider.callCount() != 0 {
		t.Fatalf("nothing held, so no quotes should be fetched, got %d calls", provider.callCount())
	}
}

func TestComputePnLEmptyPortfolio(t *testing.T) {
	report, err := New(&staticSource{}).ComputePnL(context.Background(), 1, &fakeProvider{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.RealizedPnL != 0 || report.UnrealizedPnL != 0 || report.MarketValue != 0 || report.CostBasis != 0 {
		t.Fatalf("empty portfolio must report zeros, got %+v", report)
	}
}

func TestComputePnLSourceError(t *testing.T) {
	source := &staticSource{err: errors.New("db down")}

	if _, err := New(source).ComputePnL(context.Background(), 1, &fakeProvider{}); err == nil {
		t.Fatalf("source errors must propagate")
	}
}

func TestComputePnLCancelledContext(t *testing.T) {
	source := &staticSource{transactions: []model.Transaction{
		tx(1, model.TransactionSideBuy, "AAPL", 10, 150, ledgerBase),
	}}
	provider := &fakeProvider{
		quotes: map[string]quote.Quote{"AAPL": currentOnly(170)},
		delay:  50 * time.Millisecond,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New(source).ComputePnL(ctx, 1, provider); err == nil {
		t.Fatalf("cancelled context must fail the whole call")
	}
}

func TestComputePnLRoundsToTwoDecimals(t *testing.T) {
	source := &staticSource{transactions: []model.Transaction{
		tx(1, model.TransactionSideBuy, "AAPL", 1, 10.333, ledgerBase),
	}}
	provider := &fakeProvider{quotes: map[string]quote.Quote{"AAPL": currentOnly(10.777)}}

	report, err := New(source).ComputePnL(context.Background(), 1, provider)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.CostBasis != 10.33 {
		t.Fatalf("cost basis not rounded. got=%v want=10.33", report.CostBasis)
	}
	if report.MarketValue != 10.78 {
		t.Fatalf("market value not rounded. got=%v want=10.78", report.MarketValue)
	}
	if report.UnrealizedPnL != 0.44 {
		t.Fatalf("unrealized not rounded. got=%v want=0.44", report.UnrealizedPnL)
	}
}

func TestEngineHoldings(t *testing.T) {
	source := &staticSource{transactions: []model.Transaction{
		tx(1, model.TransactionSideBuy, "AAPL", 10, 150, ledgerBase),
		tx(2, model.TransactionSideSell, "AAPL", 10, 160, ledgerBase.Add(time.Hour)),
		tx(3, model.TransactionSideBuy, "MSFT", 2, 400, ledgerBase.Add(2*time.Hour)),
	}}

	holdings, err := New(source).Holdings(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(holdings) != 2 {
		t.Fatalf("expected 2 symbols (one sold out), got %d", len(holdings))
	}
	if !almostEqual(holdings["AAPL"].Quantity, 0) {
		t.Fatalf("sold out AAPL should report zero quantity, got %v", holdings["AAPL"].Quantity)
	}
	if !almostEqual(holdings["MSFT"].Quantity, 2) {
		t.Fatalf("MSFT quantity mismatch. got=%v want=2", holdings["MSFT"].Quantity)
	}
}
