package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/ledgerkeeper/internal/cli"
	"github.com/dmitrijs2005/ledgerkeeper/internal/config"
	"github.com/dmitrijs2005/ledgerkeeper/internal/logging"
	"github.com/dmitrijs2005/ledgerkeeper/internal/savefile"
	"github.com/dmitrijs2005/ledgerkeeper/internal/session"
)

func main() {

	cfg := config.LoadConfig()
	level, err := cfg.SlogLevel()
	if err != nil {
		log.Fatalf("%v", err)
	}
	logger := logging.NewText(os.Stderr, level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	saves, err := savefile.NewManager(cfg.DataDir, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if _, err := saves.PurgeTemp(ctx); err != nil {
		logger.Warn(ctx, "failed to purge temp directory", "dir", saves.TempDir(), "error", err)
	}

	sess := session.New(saves, logger)
	app := cli.NewApp(sess, logger, os.Stdin, os.Stdout)

	runErr := app.Run(ctx)

	// the open save is written back even when a signal cancelled ctx
	if err := sess.Shutdown(context.WithoutCancel(ctx)); err != nil {
		logger.Error(ctx, "failed to close save on shutdown", "error", err)
		os.Exit(1)
	}
	if runErr != nil {
		log.Fatalf("%v", runErr)
	}
}
