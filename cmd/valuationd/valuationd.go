package valuationd

import (
	"context"
	"os"
	"os/signal"
	"portfolioapi/src/database"
	"syscall"

	"github.com/sirupsen/logrus"
)

// Daemon is the periodic valuation snapshot worker. Each tick it replays every
// portfolio's ledger and persists one ValuationSnapshot per portfolio.
type Daemon struct {
}

func (d *Daemon) Start() error {
	config := GetConfig()
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	// Initialize main (read/write) database
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to main database")
		return err
	}

	// Initialize read-only database
	if err := database.InitReadOnlyDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to read-only database")
		return err
	}

	logrus.WithField("loopPeriod", config.LoopPeriod).Info("Starting valuation snapshot daemon")

	if err := StartLoop(ctx); err != nil {
		logrus.WithError(err).Error("Failed to start valuation loop")
		return err
	}

	return nil
}
