package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"riel/internal/amqp"
	"riel/internal/config"
	applog "riel/internal/log"
	"riel/internal/sheets"
	"riel/internal/sheets/google"
	sheetsmem "riel/internal/sheets/memory"
	"riel/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     applog.LevelFromEnv(),
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	cfg := config.Load()
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the export worker")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	var appender sheets.LedgerAppender
	if cfg.GoogleSpreadsheetID != "" {
		gc, err := google.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		appender = gc
		logger.Info("Exporting to Google Sheets",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GoogleSheetName)
	} else {
		appender = sheetsmem.New()
		logger.Warn("GOOGLE_SPREADSHEET_ID not set, exporting to in-memory sink")
	}

	w := worker.NewExportWorker(appender)

	// Per-message deadline: a stuck Sheets call must not wedge the
	// consume loop.
	handle := func(ctx context.Context, msg *amqp.ExportMessage) error {
		ctx, cancel := context.WithTimeout(ctx, cfg.ConsumeTimeout)
		defer cancel()
		return w.HandleExportMessage(ctx, msg)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Export worker consuming", "queue", cfg.AMQPQueue)
		return client.Consume(gctx, handle)
	})

	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
			return nil
		case <-gctx.Done():
			return nil
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Export worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Export worker stopped gracefully")
}
