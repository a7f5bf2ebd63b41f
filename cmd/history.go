package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/thaafei/domainx/internal/contract"
	"github.com/thaafei/domainx/internal/iocache"
)

// historyCmd manages the record of past ranking runs.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the record of past ranking runs.",
	Long: `When --history-backend is set, every freshly computed ranking is recorded
with its configuration and the score of each library. Cached rankings are not
recorded again.

Subcommands:
  status - Show run counts and table sizes
  clear  - Remove all recorded runs
  export - Write runs and scores to Parquet files

Examples:
  domainx history status --history-backend sqlite
  domainx history export --history-backend sqlite --output-file history`,
}

var historyStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display ranking history statistics.",
	Args:    cobra.NoArgs,
	PreRunE: sharedSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		store, err := historyStore()
		if err != nil {
			return err
		}
		status, err := store.GetStatus()
		if err != nil {
			return fmt.Errorf("failed to get history status: %w", err)
		}
		iocache.PrintHistoryStatus(status)
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:     "clear",
	Short:   "Remove all recorded ranking runs.",
	Args:    cobra.NoArgs,
	PreRunE: sharedSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		store, err := historyStore()
		if err != nil {
			return err
		}
		if err := store.Clear(); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		fmt.Println("History cleared successfully.")
		return nil
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export ranking runs and library scores to Parquet.",
	Long: `Write two Parquet files next to --output-file:
<output-file>.ranking_runs.parquet and <output-file>.library_scores.parquet.`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		store, err := historyStore()
		if err != nil {
			return err
		}
		return iocache.ExecuteHistoryExport(store, cfg.OutputFile)
	},
}

func historyStore() (contract.HistoryStore, error) {
	store := storeManager.GetHistoryStore()
	if store == nil {
		return nil, errors.New("ranking history is disabled (set --history-backend)")
	}
	return store, nil
}
