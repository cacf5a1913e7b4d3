package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaurya-ahuja/autoswing-trading-suite/feed"
	"github.com/shaurya-ahuja/autoswing-trading-suite/journal"
	"github.com/shaurya-ahuja/autoswing-trading-suite/logger"
	"github.com/shaurya-ahuja/autoswing-trading-suite/strategy"
)

var gridCmd = &cobra.Command{
	Use:   "grid SYMBOL LEVELS LOWER UPPER",
	Short: "Start a grid run against the live feed",
	Long: `Start a simulated grid run with default account settings.

Example:
  autoswing grid BTCUSDT 5 30000 40000`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := strategy.ParseGridArgs(args)
		if err != nil {
			return err
		}
		return startSingle(cfg)
	},
}

var dcaCmd = &cobra.Command{
	Use:   "dca SYMBOL INTERVALS TOTAL [PERIOD]",
	Short: "Start a DCA run against the live feed",
	Long: `Start a simulated dollar-cost-averaging run with default account settings.

Example:
  autoswing dca ETHUSDT 10 1000 24h`,
	Args: cobra.RangeArgs(3, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := strategy.ParseDCAArgs(args)
		if err != nil {
			return err
		}
		return startSingle(cfg)
	},
}

var (
	startDBPath string
	startAddr   string
)

func init() {
	rootCmd.AddCommand(gridCmd)
	rootCmd.AddCommand(dcaCmd)

	for _, c := range []*cobra.Command{gridCmd, dcaCmd} {
		c.Flags().StringVarP(&startDBPath, "db", "d", "./autoswing.db", "path to SQLite journal DB")
		c.Flags().StringVar(&startAddr, "addr", ":8080", "status server listen address")
	}
}

// startSingle runs one strategy against Binance until interrupted.
func startSingle(cfg strategy.Config) error {
	log := logger.New(logger.Config{Level: "info", Format: "text"})

	j, err := journal.NewSQLite(startDBPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	f := feed.NewBinance("", log)
	defer f.Close()

	registry := strategy.NewRegistry(f, j, log, strategy.Options{})

	ctx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	ctrl, err := registry.Start(context.Background(), cfg)
	if err != nil {
		return err
	}

	srv := newStatusServer(startAddr, registry, f, log)
	defer srv.shutdown()

	fmt.Printf("%s %s run %s started, ctrl-c to stop\n", cfg.Symbol, cfg.Mode, ctrl.RunID())
	<-ctx.Done()

	if err := registry.StopAll(); err != nil {
		return err
	}
	printSummary(registry)
	return nil
}
