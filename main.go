package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/97Cweb/package-scraper/config"
	"github.com/97Cweb/package-scraper/core"
	"github.com/97Cweb/package-scraper/workers/orders"
)

func main() {
	root := &cobra.Command{
		Use:   "package-scraper",
		Short: "Scan a mailbox for orders and track their packages",
	}
	root.AddCommand(runCmd(), scanCmd(), reviewCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup() (*config.Config, *zap.Logger) {
	cfg := config.LoadConfig()
	logger, err := core.NewLogger(*cfg)
	if err != nil {
		log.Fatal(err)
	}
	return cfg, logger
}

// runCmd starts the cron daemon and blocks until a termination signal.
func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the scan pipeline on a schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := setup()
			defer logger.Sync()

			orchestrator := core.NewOrchestrator([]core.Worker{
				orders.NewWorker(logger, cfg),
			})

			c, err := orchestrator.Start(context.Background())
			if err != nil {
				return err
			}
			defer c.Stop()

			// Wait for termination signal to exit gracefully
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig
			return nil
		},
	}
}

func scanCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a single scan cycle now",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := setup()
			defer logger.Sync()

			worker := orders.NewWorker(logger, cfg)
			return worker.RunOnce(cmd.Context(), all)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "ignore the checkpoint and rescan the whole folder")
	return cmd
}

func reviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review",
		Short: "Interactively archive watched orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := setup()
			defer logger.Sync()

			worker := orders.NewWorker(logger, cfg)
			return worker.Review(os.Stdin, os.Stdout)
		},
	}
}
