package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"portfolioapi/src/auth"
	"portfolioapi/src/model"
	"portfolioapi/src/repository"
)

type transactionCreator interface {
	Create(ctx context.Context, transaction *model.Transaction) error
}

type transactionSearcher interface {
	Search(ctx context.Context, options repository.TransactionSearchOptions) ([]model.Transaction, error)
}

type transactionUpdater interface {
	FindByIDAndPortfolio(ctx context.Context, id uint, portfolioID uint) (*model.Transaction, error)
	Update(ctx context.Context, transaction *model.Transaction) error
}

type transactionDeleter interface {
	FindByIDAndPortfolio(ctx context.Context, id uint, portfolioID uint) (*model.Transaction, error)
	Delete(ctx context.Context, id uint) error
}

func parseTransactionID(r *http.Request) (uint, bool) {
	raw := chi.URLParam(r, "transactionID")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func validTransactionSide(side string) bool {
	return side == model.TransactionSideBuy || side == model.TransactionSideSell
}

// resolveOwnedPortfolio loads the portfolio from the route and checks it
// belongs to the authenticated user. It writes the error response itself and
// returns ok=false when the request is already answered.
func resolveOwnedPortfolio(w http.ResponseWriter, r *http.Request, portfolios portfolioFinder) (*model.Portfolio, bool) {
	user, ok := auth.GetUserFromContext(r.Context())
	if !ok || user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}

	portfolioID, ok := parsePortfolioID(r)
	if !ok {
		http.Error(w, "invalid portfolio id", http.StatusBadRequest)
		return nil, false
	}

	portfolio, err := portfolios.FindByIDAndUser(r.Context(), portfolioID, user.ID)
	if err != nil {
		logger.WithError(err).Error("failed to resolve portfolio")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	if portfolio == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return nil, false
	}

	return portfolio, true
}

// CreateTransactionHandler returns a handler that records a buy or sell in one
// of the authenticated user's portfolios. The timestamp defaults to now.
func CreateTransactionHandler(portfolios portfolioFinder, transactions transactionCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		portfolio, ok := resolveOwnedPortfolio(w, r, portfolios)
		if !ok {
			return
		}

		var payload model.CreateTransactionPayload
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid create transaction payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		symbol := strings.ToUpper(strings.TrimSpace(payload.Symbol))
		if symbol == "" {
			http.Error(w, "symbol is required", http.StatusBadRequest)
			return
		}

		if !validTransactionSide(payload.Side) {
			http.Error(w, "side must be buy or sell", http.StatusBadRequest)
			return
		}

		if !payload.Quantity.IsPositive() {
			http.Error(w, "quantity must be positive", http.StatusBadRequest)
			return
		}

		if !payload.Price.IsPositive() {
			http.Error(w, "price must be positive", http.StatusBadRequest)
			return
		}

		timestamp := time.Now().UTC()
		if payload.Timestamp != nil {
			timestamp = payload.Timestamp.UTC()
		}

		transaction := &model.Transaction{
			PortfolioID: portfolio.ID,
			Symbol:      symbol,
			Side:        payload.Side,
			Quantity:    payload.Quantity,
			Price:       payload.Price,
			Timestamp:   timestamp,
		}

		if err := transactions.Create(r.Context(), transaction); err != nil {
			logger.WithError(err).Error("failed to create transaction")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(transaction); err != nil {
			logger.WithError(err).Error("failed to encode transaction response")
		}
	}
}

// SearchTransactionsHandler returns a handler that lists a portfolio's
// transactions newest first. Supports pagination and filters (symbol, from, to).
func SearchTransactionsHandler(portfolios portfolioFinder, transactions transactionSearcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		portfolio, ok := resolveOwnedPortfolio(w, r, portfolios)
		if !ok {
			return
		}

		var symbol *string
		if symbolParam := r.URL.Query().Get("symbol"); symbolParam != "" {
			normalized := strings.ToUpper(strings.TrimSpace(symbolParam))
			symbol = &normalized
		}

		var from, to *time.Time
		if fromParam := r.URL.Query().Get("from"); fromParam != "" {
			parsed, err := time.Parse(time.RFC3339, fromParam)
			if err != nil {
				http.Error(w, "invalid from", http.StatusBadRequest)
				return
			}
			from = &parsed
		}

		if toParam := r.URL.Query().Get("to"); toParam != "" {
			parsed, err := time.Parse(time.RFC3339, toParam)
			if err != nil {
				http.Error(w, "invalid to", http.StatusBadRequest)
				return
			}
			to = &parsed
		}

		page := 1
		if pageParam := r.URL.Query().Get("page"); pageParam != "" {
			parsedPage, err := strconv.Atoi(pageParam)
			if err != nil || parsedPage <= 0 {
				http.Error(w, "invalid page", http.StatusBadRequest)
				return
			}
			page = parsedPage
		}

		pageSize := 20
		if sizeParam := r.URL.Query().Get("pageSize"); sizeParam != "" {
			parsedSize, err := strconv.Atoi(sizeParam)
			if err != nil || parsedSize <= 0 {
				http.Error(w, "invalid pageSize", http.StatusBadRequest)
				return
			}
			pageSize = parsedSize
		}

		offset := (page - 1) * pageSize

		results, err := transactions.Search(r.Context(), repository.TransactionSearchOptions{
			PortfolioID: portfolio.ID,
			Symbol:      symbol,
			From:        from,
			To:          to,
			Limit:       pageSize,
			Offset:      offset,
		})
		if err != nil {
			logger.WithError(err).Error("failed to search transactions")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if results == nil {
			results = []model.Transaction{}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(results); err != nil {
			logger.WithError(err).Error("failed to encode transaction search response")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}
}

// UpdateTransactionHandler returns a handler that edits a ledger entry.
// Holdings and P&L are derived from scratch on the next query, so an edit
// needs no recomputation here.
func UpdateTransactionHandler(portfolios portfolioFinder, transactions transactionUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		portfolio, ok := resolveOwnedPortfolio(w, r, portfolios)
		if !ok {
			return
		}

		transactionID, ok := parseTransactionID(r)
		if !ok {
			http.Error(w, "invalid transaction id", http.StatusBadRequest)
			return
		}

		transaction, err := transactions.FindByIDAndPortfolio(r.Context(), transactionID, portfolio.ID)
		if err != nil {
			logger.WithError(err).Error("failed to fetch transaction")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if transaction == nil {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}

		var payload model.UpdateTransactionPayload
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid update transaction payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		if payload.Symbol != nil {
			symbol := strings.ToUpper(strings.TrimSpace(*payload.Symbol))
			if symbol == "" {
				http.Error(w, "symbol cannot be empty", http.StatusBadRequest)
				return
			}
			transaction.Symbol = symbol
		}

		if payload.Side != nil {
			if !validTransactionSide(*payload.Side) {
				http.Error(w, "side must be buy or sell", http.StatusBadRequest)
				return
			}
			transaction.Side = *payload.Side
		}

		if payload.Quantity != nil {
			if !payload.Quantity.IsPositive() {
				http.Error(w, "quantity must be positive", http.StatusBadRequest)
				return
			}
			transaction.Quantity = *payload.Quantity
		}

		if payload.Price != nil {
			if !payload.Price.IsPositive() {
				http.Error(w, "price must be positive", http.StatusBadRequest)
				return
			}
			transaction.Price = *payload.Price
		}

		if payload.Timestamp != nil {
			transaction.Timestamp = payload.Timestamp.UTC()
		}

		if err := transactions.Update(r.Context(), transaction); err != nil {
			logger.WithError(err).Error("failed to update transaction")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(transaction); err != nil {
			logger.WithError(err).Error("failed to encode transaction response")
		}
	}
}

// DeleteTransactionHandler returns a handler that removes a ledger entry.
func DeleteTransactionHandler(portfolios portfolioFinder, transactions transactionDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		portfolio, ok := resolveOwnedPortfolio(w, r, portfolios)
		if !ok {
			return
		}

		transactionID, ok := parseTransactionID(r)
		if !ok {
			http.Error(w, "invalid transaction id", http.StatusBadRequest)
			return
		}

		transaction, err := transactions.FindByIDAndPortfolio(r.Context(), transactionID, portfolio.ID)
		if err != nil {
			logger.WithError(err).Error("failed to fetch transaction")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if transaction == nil {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}

		if err := transactions.Delete(r.Context(), transaction.ID); err != nil {
			logger.WithError(err).Error("failed to delete transaction")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// DefaultCreateTransactionHandler wires the handler to the production repository implementations.
func DefaultCreateTransactionHandler() http.HandlerFunc {
	return CreateTransactionHandler(repository.NewPortfolioRepository(), repository.NewTransactionRepository())
}

// DefaultSearchTransactionsHandler wires the handler to the production repository implementations.
func DefaultSearchTransactionsHandler() http.HandlerFunc {
	return SearchTransactionsHandler(repository.NewPortfolioRepository(), repository.NewTransactionRepository())
}

// DefaultUpdateTransactionHandler wires the handler to the production repository implementations.
func DefaultUpdateTransactionHandler() http.HandlerFunc {
	return UpdateTransactionHandler(repository.NewPortfolioRepository(), repository.NewTransactionRepository())
}

// DefaultDeleteTransactionHandler wires the handler to the production repository implementations.
func DefaultDeleteTransactionHandler() http.HandlerFunc {
	return DeleteTransactionHandler(repository.NewPortfolioRepository(), repository.NewTransactionRepository())
}
