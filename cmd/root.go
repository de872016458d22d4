// Package cmd provides the command-line interface for the fraud warning
// engine.
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"fraudwatch/config"
	"fraudwatch/refresh"
	"fraudwatch/service"
	"fraudwatch/source"
	"fraudwatch/storage"
)

var rootCmd = &cobra.Command{
	Use:   "fraudwatch",
	Short: "Early fraud warning feed engine",
	Long: `Fraudwatch ingests early fraud warnings from an upstream source,
maintains the investigation lifecycle for each case, and serves the
filterable, aggregable feed the dashboard renders.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the warning feed against the synthetic source",
	RunE:  runEngine,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	runCmd.Flags().Duration("interval", 0, "override refresh interval")
	runCmd.Flags().Int64("seed", 0, "override synthetic source seed")
	rootCmd.AddCommand(runCmd)
}

func runEngine(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if v, _ := cmd.Flags().GetDuration("interval"); v > 0 {
		cfg.Refresh.Interval = v
	}
	if v, _ := cmd.Flags().GetInt64("seed"); v != 0 {
		cfg.Source.Seed = v
	}

	logger, err := newLogger(cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	sugar := logger.Sugar()
	sugar.Infof("Starting fraudwatch (interval=%s cap=%d seed=%d)",
		cfg.Refresh.Interval, cfg.Feed.DisplayCap, cfg.Source.Seed)

	store := storage.NewWarningStore()
	feed := storage.NewFeedIndex(cfg.Feed.DisplayCap)
	svc := service.NewWarningService(store, sugar)
	src := source.NewSynthetic(cfg.Source.Seed, storage.SystemClock)

	coordinator := refresh.NewCoordinator(src, svc, feed, refresh.Options{
		Interval:  cfg.Refresh.Interval,
		BatchSize: cfg.Refresh.BatchSize,
		FetchRate: cfg.Refresh.FetchRate,
	}, sugar)

	coordinator.Start()
	defer coordinator.Stop()

	renderer := newFeedRenderer(cfg.Presentation.SeverityColors)
	render := time.NewTicker(cfg.Refresh.Interval)
	defer render.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-render.C:
			renderer.render(svc, store, feed)
		case sig := <-sigCh:
			sugar.Infof("Received %s, shutting down", sig)
			return nil
		}
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
