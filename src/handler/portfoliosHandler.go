package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"portfolioapi/src/auth"
	"portfolioapi/src/model"
	"portfolioapi/src/repository"
)

type portfolioCreator interface {
	Create(ctx context.Context, portfolio *model.Portfolio) error
}

type portfolioLister interface {
	ListByUser(ctx context.Context, userID uint) ([]model.Portfolio, error)
}

// portfolioFinder resolves a portfolio scoped to its owner. A nil result means
// unknown or foreign id; handlers answer 404 for both so portfolio ids of other
// users are not probeable.
type portfolioFinder interface {
	FindByIDAndUser(ctx context.Context, id uint, userID uint) (*model.Portfolio, error)
}

type portfolioDeleter interface {
	portfolioFinder
	Delete(ctx context.Context, id uint) error
}

// parsePortfolioID reads the {portfolioID} route parameter.
func parsePortfolioID(r *http.Request) (uint, bool) {
	raw := chi.URLParam(r, "portfolioID")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// CreatePortfolioHandler returns a handler that creates a portfolio owned by
// the authenticated user. The name is required.
func CreatePortfolioHandler(repo portfolioCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var payload model.CreatePortfolioPayload
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid create portfolio payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		name := strings.TrimSpace(payload.Name)
		if name == "" {
			http.Error(w, "name is required", http.StatusBadRequest)
			return
		}

		portfolio := &model.Portfolio{
			UserID: user.ID,
			Name:   name,
		}

		if err := repo.Create(r.Context(), portfolio); err != nil {
			logger.WithError(err).Error("failed to create portfolio")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(portfolio); err != nil {
			logger.WithError(err).Error("failed to encode portfolio response")
		}
	}
}

// ListPortfoliosHandler returns a handler that lists the authenticated user's
// portfolios.
func ListPortfoliosHandler(repo portfolioLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		portfolios, err := repo.ListByUser(r.Context(), user.ID)
		if err != nil {
			logger.WithError(err).Error("failed to list portfolios")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if portfolios == nil {
			portfolios = []model.Portfolio{}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(portfolios); err != nil {
			logger.WithError(err).Error("failed to encode portfolio list response")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}
}

// DeletePortfolioHandler returns a handler that deletes one of the
// authenticated user's portfolios together with its transactions. Unknown and
// foreign portfolio ids both answer 404.
func DeletePortfolioHandler(repo portfolioDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		portfolioID, ok := parsePortfolioID(r)
		if !ok {
			http.Error(w, "invalid portfolio id", http.StatusBadRequest)
			return
		}

		portfolio, err := repo.FindByIDAndUser(r.Context(), portfolioID, user.ID)
		if err != nil {
			logger.WithError(err).Error("failed to resolve portfolio")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if portfolio == nil {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}

		if err := repo.Delete(r.Context(), portfolio.ID); err != nil {
			logger.WithError(err).Error("failed to delete portfolio")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// DefaultCreatePortfolioHandler wires the handler to the production repository implementation.
func DefaultCreatePortfolioHandler() http.HandlerFunc {
	return CreatePortfolioHandler(repository.NewPortfolioRepository())
}

// DefaultListPortfoliosHandler wires the handler to the production repository implementation.
func DefaultListPortfoliosHandler() http.HandlerFunc {
	return ListPortfoliosHandler(repository.NewPortfolioRepository())
}

// DefaultDeletePortfolioHandler wires the handler to the production repository implementation.
func DefaultDeletePortfolioHandler() http.HandlerFunc {
	return DeletePortfolioHandler(repository.NewPortfolioRepository())
}
