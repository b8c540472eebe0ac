package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	logger "github.com/sirupsen/logrus"

	"portfolioapi/src/model"
	"portfolioapi/src/repository"
)

type snapshotReader interface {
	FindLatestByPortfolio(ctx context.Context, portfolioID uint) (*model.ValuationSnapshot, error)
	ListByPortfolio(ctx context.Context, portfolioID uint, limit int) ([]model.ValuationSnapshot, error)
}

// ListSnapshotsHandler returns a handler serving the persisted valuation
// history of a portfolio, newest first. The optional limit query parameter
// caps the page.
func ListSnapshotsHandler(portfolios portfolioFinder, snapshots snapshotReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		portfolio, ok := resolveOwnedPortfolio(w, r, portfolios)
		if !ok {
			return
		}

		limit := 0
		if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
			parsed, err := strconv.Atoi(limitParam)
			if err != nil || parsed <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		rows, err := snapshots.ListByPortfolio(r.Context(), portfolio.ID, limit)
		if err != nil {
			logger.WithError(err).Error("failed to list snapshots")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if rows == nil {
			rows = []model.ValuationSnapshot{}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(rows); err != nil {
			logger.WithError(err).Error("failed to encode snapshots response")
		}
	}
}

// LatestSnapshotHandler returns a handler serving the newest persisted
// valuation of a portfolio. Answers 404 until the valuation daemon has written
// the first snapshot.
func LatestSnapshotHandler(portfolios portfolioFinder, snapshots snapshotReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		portfolio, ok := resolveOwnedPortfolio(w, r, portfolios)
		if !ok {
			return
		}

		snapshot, err := snapshots.FindLatestByPortfolio(r.Context(), portfolio.ID)
		if err != nil {
			logger.WithError(err).Error("failed to fetch latest snapshot")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if snapshot == nil {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snapshot); err != nil {
			logger.WithError(err).Error("failed to encode snapshot response")
		}
	}
}

// DefaultListSnapshotsHandler wires the handler to the production repository implementations.
func DefaultListSnapshotsHandler() http.HandlerFunc {
	return ListSnapshotsHandler(repository.NewPortfolioRepository(), repository.NewSnapshotRepository())
}

// DefaultLatestSnapshotHandler wires the handler to the production repository implementations.
func DefaultLatestSnapshotHandler() http.HandlerFunc {
	return LatestSnapshotHandler(repository.NewPortfolioRepository(), repository.NewSnapshotRepository())
}
