package iocache

import (
	"errors"
	"fmt"

	"github.com/thaafei/domainx/internal/contract"
	"github.com/thaafei/domainx/internal/parquet"
)

// ExecuteHistoryExport writes ranking history to two Parquet files next to outputFile.
func ExecuteHistoryExport(store contract.HistoryStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no ranking history found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total ranking runs: %d\n", status.TotalRuns)
	fmt.Printf("Total library records: %d\n", status.TableSizes[rankingScoresTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve ranking runs: %w", err)
	}
	scores, err := store.GetAllLibraryScores()
	if err != nil {
		return fmt.Errorf("failed to retrieve library scores: %w", err)
	}

	parquetRuns := parquet.ConvertRankingRunRecords(runs)
	runsFile := outputFile + ".ranking_runs.parquet"
	if err := parquet.WriteRankingRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write ranking runs: %w", err)
	}
	fmt.Printf("Exported %d ranking runs to: %s\n", len(parquetRuns), runsFile)

	parquetScores := parquet.ConvertLibraryScoreRecords(scores)
	scoresFile := outputFile + ".library_scores.parquet"
	if err := parquet.WriteLibraryScoresParquet(parquetScores, scoresFile); err != nil {
		return fmt.Errorf("failed to write library scores: %w", err)
	}
	fmt.Printf("Exported %d library score records to: %s\n", len(parquetScores), scoresFile)

	return nil
}
