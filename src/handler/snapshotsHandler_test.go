package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"portfolioapi/src/model"
)

type mockSnapshotReader struct {
	latest    *model.ValuationSnapshot
	latestErr error
	rows      []model.ValuationSnapshot
	rowsErr   error
	gotLimit  int
}

func (m *mockSnapshotReader) FindLatestByPortfolio(ctx context.Context, portfolioID uint) (*model.ValuationSnapshot, error) {
	return m.latest, m.latestErr
}

func (m *mockSnapshotReader) ListByPortfolio(ctx context.Context, portfolioID uint, limit int) ([]model.ValuationSnapshot, error) {
	m.gotLimit = limit
	return m.rows, m.rowsErr
}

func TestListSnapshotsHandler_Success(t *testing.T) {
	rows := []model.ValuationSnapshot{
		{ID: 2, PortfolioID: 3, MarketValue: decimal.NewFromFloat(410.25), CreatedAt: time.Now()},
		{ID: 1, PortfolioID: 3, MarketValue: decimal.NewFromFloat(400), CreatedAt: time.Now().Add(-time.Hour)},
	}
	snapshots := &mockSnapshotReader{rows: rows}
	handler := ListSnapshotsHandler(ownedPortfolio(3), snapshots)

	req := authenticated(httptest.NewRequest(http.MethodGet, "/portfolios/3/snapshots?limit=2", nil), 7)
	rr := serveTransactionRoute(http.MethodGet, "/portfolios/{portfolioID}/snapshots", handler, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	if snapshots.gotLimit != 2 {
		t.Fatalf("expected limit 2 passed through, got %d", snapshots.gotLimit)
	}

	var decoded []struct {
		ID          uint    `json:"id"`
		MarketValue float64 `json:"market_value"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(decoded) != 2 || decoded[0].ID != 2 || decoded[0].MarketValue != 410.25 {
		t.Fatalf("unexpected snapshot list: %+v", decoded)
	}
}

func TestListSnapshotsHandler_EmptyList(t *testing.T) {
	handler := ListSnapshotsHandler(ownedPortfolio(3), &mockSnapshotReader{})

	req := authenticated(httptest.NewRequest(http.MethodGet, "/portfolios/3/snapshots", nil), 7)
	rr := serveTransactionRoute(http.MethodGet, "/portfolios/{portfolioID}/snapshots", handler, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	if body := rr.Body.String(); body != "[]\n" {
		t.Fatalf("expected empty JSON list, got %q", body)
	}
}

func TestListSnapshotsHandler_InvalidLimit(t *testing.T) {
	handler := ListSnapshotsHandler(ownedPortfolio(3), &mockSnapshotReader{})

	req := authenticated(httptest.NewRequest(http.MethodGet, "/portfolios/3/snapshots?limit=zero", nil), 7)
	rr := serveTransactionRoute(http.MethodGet, "/portfolios/{portfolioID}/snapshots", handler, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestListSnapshotsHandler_ForeignPortfolio(t *testing.T) {
	handler := ListSnapshotsHandler(&mockPortfolioFinder{portfolio: nil}, &mockSnapshotReader{})

	req := authenticated(httptest.NewRequest(http.MethodGet, "/portfolios/3/snapshots", nil), 7)
	rr := serveTransactionRoute(http.MethodGet, "/portfolios/{portfolioID}/snapshots", handler, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestLatestSnapshotHandler_Success(t *testing.T) {
	latest := &model.ValuationSnapshot{
		ID:           5,
		PortfolioID:  3,
		MarketValue:  decimal.NewFromFloat(390),
		Change24hPct: decimal.NewFromFloat(4),
	}
	handler := LatestSnapshotHandler(ownedPortfolio(3), &mockSnapshotReader{latest: latest})

	req := authenticated(httptest.NewRequest(http.MethodGet, "/portfolios/3/snapshots/latest", nil), 7)
	rr := serveTransactionRoute(http.MethodGet, "/portfolios/{portfolioID}/snapshots/latest", handler, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var decoded struct {
		ID          uint    `json:"id"`
		PortfolioID uint    `json:"portfolio_id"`
		Change      float64 `json:"change_24h_percentage"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if decoded.ID != 5 || decoded.PortfolioID != 3 || decoded.Change != 4 {
		t.Fatalf("unexpected snapshot: %+v", decoded)
	}
}

func TestLatestSnapshotHandler_NoSnapshotsYet(t *testing.T) {
	handler := LatestSnapshotHandler(ownedPortfolio(3), &mockSnapshotReader{})

	req := authenticated(httptest.NewRequest(http.MethodGet, "/portfolios/3/snapshots/latest", nil), 7)
	rr := serveTransactionRoute(http.MethodGet, "/portfolios/{portfolioID}/snapshots/latest", handler, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestLatestSnapshotHandler_StoreError(t *testing.T) {
	handler := LatestSnapshotHandler(ownedPortfolio(3), &mockSnapshotReader{latestErr: assert.AnError})

	req := authenticated(httptest.NewRequest(http.MethodGet, "/portfolios/3/snapshots/latest", nil), 7)
	rr := serveTransactionRoute(http.MethodGet, "/portfolios/{portfolioID}/snapshots/latest", handler, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
}
