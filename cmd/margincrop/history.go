// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/margincrop/internal/history"
	"github.com/pdiddy/margincrop/pkg/types"
)

// historyConfig builds the run database configuration from viper, so the
// MARGINCROP_HISTORY_DB environment variable and config files both work.
func historyConfig() types.HistoryConfig {
	return types.HistoryConfig{DBPath: viper.GetString("history_db")}
}

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List past crop runs or show one run's results",
	Long: `History reads the local run database. Without arguments it lists past
batch runs, most recent first; with a run ID it shows that run's per-document
results.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	historyCmd.Flags().String("db", "", "run database file (default: data directory)")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := historyConfig()
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.DBPath = db
	}

	store, err := history.NewStore(cfg, dataDir())
	if err != nil {
		return err
	}
	defer store.Close()

	if len(args) == 1 {
		return showRun(store, args[0])
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.ListRuns(context.Background(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-20s  %-9s  %-5s  %-7s  %s\n",
		"Run", "Started", "Elapsed", "OK", "Failed", "Margins")
	for _, r := range runs {
		fmt.Fprintf(os.Stdout, "%-36s  %-20s  %-9s  %-5d  %-7d  %s\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Elapsed.Round(time.Millisecond), r.Successful, r.Failed, r.Margins)
	}
	return nil
}

func showRun(store *history.Store, runID string) error {
	results, err := store.RunResults(context.Background(), runID)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("no results for run %s", runID)
	}

	for _, r := range results {
		if r.Success {
			fmt.Fprintf(os.Stdout, "ok      %s -> %s (%d pages)\n", r.InputPath, r.OutputPath, r.PagesProcessed)
		} else {
			fmt.Fprintf(os.Stdout, "failed  %s (%s)\n", r.InputPath, r.ErrMessage)
		}
	}
	return nil
}
