package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corvid-labs/tripline/internal/store"
)

var (
	historyDBPath string
	historyTrace  string
	historyLimit  int
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVar(&historyDBPath, "db", "tripline.db", "path to the SQLite decision history database")
	historyCmd.Flags().StringVar(&historyTrace, "trace", "", "show every decision recorded under this trace ID, oldest first")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of most recent decisions to show (ignored with --trace)")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Query the SQLite decision history trail",
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	db, err := store.Open(historyDBPath)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	defer db.Close()

	var records []store.Record
	if historyTrace != "" {
		records, err = db.ByTraceID(historyTrace)
	} else {
		records, err = db.Recent(historyLimit)
	}
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("no decisions recorded")
		return nil
	}

	for _, r := range records {
		verdict := fmt.Sprintf("%-9s", plainVerdict(r.Detected, r.WasDefended))
		fmt.Printf("%-36s %s %-24s delta=%.3f flagged=%d  %s\n",
			r.TraceID, colorizeVerdict(r.Detected, r.WasDefended, verdict), truncateName(r.ActionName, 24), r.DominantDelta, r.FlaggedCount, r.Age())
	}
	return nil
}

func truncateName(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
