package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaurya-ahuja/autoswing-trading-suite/config"
	"github.com/shaurya-ahuja/autoswing-trading-suite/feed"
	"github.com/shaurya-ahuja/autoswing-trading-suite/grid"
	"github.com/shaurya-ahuja/autoswing-trading-suite/journal"
	"github.com/shaurya-ahuja/autoswing-trading-suite/logger"
	"github.com/shaurya-ahuja/autoswing-trading-suite/market"
	"github.com/shaurya-ahuja/autoswing-trading-suite/sim"
	"github.com/shaurya-ahuja/autoswing-trading-suite/strategy"
	"github.com/shaurya-ahuja/autoswing-trading-suite/web"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run strategies from a config file",
	Long: `Run the configured grid and/or DCA strategies until interrupted.

The config file specifies the simulated account, strategy parameters, the
market data feed and where fills are journaled.

Example:
  autoswing run -f examples/configs/grid.yaml`,
	RunE: runRun,
}

var runConfigPath string

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	defer j.Close()

	f, err := openFeed(cfg, log)
	if err != nil {
		return err
	}
	defer f.Close()

	staleAfter, _ := cfg.Feed.ParseStaleAfter()
	grace, _ := cfg.Feed.ParseGrace()

	registry := strategy.NewRegistry(f, j, log, strategy.Options{})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Grid != nil {
		runCfg := strategy.Config{
			Symbol: cfg.Account.Symbol,
			Mode:   sim.ModeGrid,
			Grid: &strategy.GridParams{
				LowerBound:       cfg.Grid.LowerBound,
				UpperBound:       cfg.Grid.UpperBound,
				Levels:           cfg.Grid.Levels,
				Spacing:          grid.Spacing(cfg.Grid.Spacing),
				PerLevelNotional: cfg.Grid.PerLevelNotional,
			},
			StartingCash: cfg.Account.StartingCash,
			StaleAfter:   staleAfter,
			Grace:        grace,
		}
		if _, err := registry.Start(context.Background(), runCfg); err != nil {
			return fmt.Errorf("start grid run: %w", err)
		}
	}

	if cfg.DCA != nil {
		period, _ := cfg.DCA.ParsePeriod()
		runCfg := strategy.Config{
			Symbol: cfg.Account.Symbol,
			Mode:   sim.ModeDCA,
			DCA: &strategy.DCAParams{
				Intervals:   cfg.DCA.Intervals,
				TotalAmount: cfg.DCA.TotalAmount,
				Period:      period,
			},
			StartingCash: cfg.Account.StartingCash,
			StaleAfter:   staleAfter,
			Grace:        grace,
		}
		if _, err := registry.Start(context.Background(), runCfg); err != nil {
			return fmt.Errorf("start dca run: %w", err)
		}
	}

	var server *web.Server
	if cfg.Web.Enabled {
		server = web.NewServer(cfg.Web.Addr, registry, f, log)
		go func() {
			if err := server.Start(); err != nil {
				log.WithError(err).Error("status server failed")
			}
		}()
	}

	log.WithComponent("run").Info("strategies running, ctrl-c to stop")
	<-ctx.Done()
	log.WithComponent("run").Info("shutting down")

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("status server shutdown")
		}
	}

	if err := registry.StopAll(); err != nil {
		var timeout *strategy.ShutdownTimeoutError
		if errors.As(err, &timeout) {
			return fmt.Errorf("shutdown did not drain cleanly: %w", err)
		}
		return err
	}

	printSummary(registry)
	return nil
}

func openJournal(cfg config.JournalConfig) (journal.Journal, error) {
	switch cfg.Type {
	case "csv":
		return journal.NewCSV(cfg.FillsFile, cfg.EquityFile)
	case "sqlite":
		return journal.NewSQLite(cfg.DBPath)
	default:
		return journal.Nop{}, nil
	}
}

func openFeed(cfg *config.Config, log *logger.Logger) (market.FeedSource, error) {
	switch cfg.Feed.Kind {
	case "replay":
		r := feed.NewReplay()
		if err := r.LoadCSV(cfg.Feed.Script, cfg.Account.Symbol); err != nil {
			return nil, err
		}
		return r, nil
	default:
		return feed.NewBinance(cfg.Feed.URL, log), nil
	}
}

func printSummary(registry *strategy.Registry) {
	for _, st := range registry.List() {
		fmt.Printf("%s %s run %s\n", st.Config.Symbol, st.Config.Mode, st.RunID)
		fmt.Printf("  Cash: %.2f  Position: %.8f @ %.2f\n",
			st.Snapshot.Cash, st.Snapshot.Position.Quantity, st.Snapshot.Position.AvgEntryPrice)
		fmt.Printf("  Realized P&L: %.2f  Unrealized P&L: %.2f  Equity: %.2f\n",
			st.Snapshot.RealizedPnL, st.Snapshot.UnrealizedPnL, st.Snapshot.TotalEquity)
		fmt.Printf("  Fills: %d\n", st.Snapshot.FillCount)
	}
}
