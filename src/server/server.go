package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	logger "github.com/sirupsen/logrus"

	"portfolioapi/src/auth"
	"portfolioapi/src/handler"
	"portfolioapi/src/repository"
)

// NewRouter builds the API route table: a public healthcheck and registration
// endpoint, everything else behind bearer-token auth.
func NewRouter(config *Config) chi.Router {
	r := chi.NewRouter()

	// === Global Middleware ===
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error("/healthcheck write error")
		}
	})
	r.Post("/users", handler.DefaultRegisterUserHandler())

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(repository.NewUserRepository()))

		r.Put("/users/me", handler.DefaultUpdateUserHandler())
		r.Post("/users/me/password", handler.DefaultChangePasswordHandler())

		r.Post("/portfolios", handler.DefaultCreatePortfolioHandler())
		r.Get("/portfolios", handler.DefaultListPortfoliosHandler())
		r.Delete("/portfolios/{portfolioID}", handler.DefaultDeletePortfolioHandler())

		r.Post("/portfolios/{portfolioID}/transactions", handler.DefaultCreateTransactionHandler())
		r.Get("/portfolios/{portfolioID}/transactions", handler.DefaultSearchTransactionsHandler())
		r.Put("/portfolios/{portfolioID}/transactions/{transactionID}", handler.DefaultUpdateTransactionHandler())
		r.Delete("/portfolios/{portfolioID}/transactions/{transactionID}", handler.DefaultDeleteTransactionHandler())

		valuation := handler.DefaultValuationHandlers()
		r.Get("/portfolios/{portfolioID}/value", valuation.Value)
		r.Get("/portfolios/{portfolioID}/pnl", valuation.PnL)
		r.Get("/portfolios/{portfolioID}/positions", valuation.Positions)

		r.Get("/portfolios/{portfolioID}/snapshots", handler.DefaultListSnapshotsHandler())
		r.Get("/portfolios/{portfolioID}/snapshots/latest", handler.DefaultLatestSnapshotHandler())
	})

	return r
}

func StartServer(port string) {
	// Router with middleware
	r := NewRouter(GetConfig())

	// Graceful server
	// Server setup
	addr := ":" + port
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	// Shutdown on SIGINT or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}
