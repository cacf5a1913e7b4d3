package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaurya-ahuja/autoswing-trading-suite/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query journaled fills and equity",
	Long: `Query and display fill and equity records from the SQLite journal.

Subcommands:
  fill   - Get details of a specific fill by ID
  run    - List fills for a run
  day    - List fills across all runs on a specific day
  equity - Print the equity curve for a run

Examples:
  autoswing journal fill 01HV3N...
  autoswing journal run 3f2b5c12-...
  autoswing journal day 2024-03-01
  autoswing journal equity 3f2b5c12-...`,
}

var journalFillCmd = &cobra.Command{
	Use:   "fill <fill-id>",
	Short: "Get details of a specific fill",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalFill,
}

var journalRunCmd = &cobra.Command{
	Use:   "run <run-id>",
	Short: "List fills for a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalRun,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List fills on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var journalEquityCmd = &cobra.Command{
	Use:   "equity <run-id>",
	Short: "Print the equity curve for a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalEquity,
}

var journalDBPath string

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalFillCmd)
	journalCmd.AddCommand(journalRunCmd)
	journalCmd.AddCommand(journalDayCmd)
	journalCmd.AddCommand(journalEquityCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./autoswing.db", "path to SQLite journal DB")
}

func openSQLite() (*journal.SQLite, error) {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func runJournalFill(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	rec, err := j.GetFill(args[0])
	if err != nil {
		return fmt.Errorf("get fill: %w", err)
	}

	fmt.Printf("Fill:     %s\n", rec.FillID)
	fmt.Printf("Run:      %s\n", rec.RunID)
	fmt.Printf("Symbol:   %s\n", rec.Symbol)
	fmt.Printf("Side:     %s\n", rec.Side)
	fmt.Printf("Price:    %.8f\n", rec.Price)
	fmt.Printf("Quantity: %.8f\n", rec.Quantity)
	fmt.Printf("Source:   %s\n", rec.Source)
	fmt.Printf("Time:     %s\n", rec.Time.Format(time.RFC3339))
	fmt.Printf("Status:   %s\n", rec.Status)
	if rec.Reason != "" {
		fmt.Printf("Reason:   %s\n", rec.Reason)
	}
	return nil
}

func runJournalRun(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	fills, err := j.ListFills(args[0])
	if err != nil {
		return fmt.Errorf("list fills: %w", err)
	}
	printFills(fills)
	return nil
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	day, err := time.Parse("2006-01-02", args[0])
	if err != nil {
		return fmt.Errorf("invalid date %q, want YYYY-MM-DD", args[0])
	}

	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	fills, err := j.ListFillsBetween(day, day.AddDate(0, 0, 1))
	if err != nil {
		return fmt.Errorf("list fills: %w", err)
	}
	printFills(fills)
	return nil
}

func runJournalEquity(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	curve, err := j.ListEquity(args[0])
	if err != nil {
		return fmt.Errorf("list equity: %w", err)
	}
	if len(curve) == 0 {
		fmt.Println("No equity records found.")
		return nil
	}

	for _, e := range curve {
		fmt.Printf("%s  cash=%.2f qty=%.8f realized=%.2f unrealized=%.2f equity=%.2f\n",
			e.Time.Format(time.RFC3339), e.Cash, e.Quantity, e.RealizedPnL, e.UnrealizedPnL, e.Equity)
	}
	return nil
}

func printFills(fills []journal.FillRecord) {
	if len(fills) == 0 {
		fmt.Println("No fills found.")
		return
	}
	for _, f := range fills {
		fmt.Printf("%s  %-7s %-4s %12.4f x %.8f  %-12s %s",
			f.Time.Format(time.RFC3339), f.Symbol, f.Side, f.Price, f.Quantity, f.Source, f.Status)
		if f.Reason != "" {
			fmt.Printf(" (%s)", f.Reason)
		}
		fmt.Println()
	}
}
