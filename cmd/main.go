package main

import (
	"fmt"
	"os"
	"portfolioapi/cmd/closings"
	"portfolioapi/cmd/tokens"
	"portfolioapi/cmd/valuationd"
	"portfolioapi/src/database"
	"portfolioapi/src/repository"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "Portfolio CMD"
	app.Usage = "The portfolio ops command line interface"

	app.Commands = []cli.Command{
		valuationdCMD,
		closingsCMD,
		tokensCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	valuationdCMD = cli.Command{
		Name:        "valuationd",
		Usage:       "run valuation snapshot daemon",
		Action:      valuationdAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run the periodic valuation snapshot daemon`,
	}
	closingsCMD = cli.Command{
		Name:        "closings",
		Usage:       "backfill daily closes",
		Action:      closingsAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Backfill daily closes from exchange klines`,
	}
	tokensCMD = cli.Command{
		Name:        "tokens",
		Usage:       "issue an API token for a user",
		Action:      tokensAction,
		ArgsUsage:   "<user_name>",
		Flags:       []cli.Flag{},
		Description: `Issue an API token for a user and print it once`,
	}
)

func valuationdAction(_ *cli.Context) error {

	logrus.Info("Starting valuationd CMD")
	logrus.WithField("cmd", "valuationd")

	daemon := &valuationd.Daemon{}
	err := daemon.Start()
	if err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

// closingsAction backfills end-of-day closes for the configured symbols.
func closingsAction(_ *cli.Context) error {

	logrus.Info("Starting closings CMD")
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	_closings := &closings.Closings{
		Log:    logrus.WithField("cmd", "closings"),
		Closes: repository.NewDailyCloseRepository(),
	}

	err := _closings.Start()
	if err != nil {
		logrus.WithError(err).Error("Starting closings cmd")
		return err
	}

	return nil
}

func tokensAction(c *cli.Context) error {

	logrus.Info("Starting tokens CMD")
	logrus.WithField("cmd", "tokens")

	issuer := &tokens.Issuer{}
	err := issuer.Start(c.Args().First())
	if err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}
