// Package parquet exports rankings and ranking history to Parquet files
// using github.com/parquet-go/parquet-go.
package parquet

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/thaafei/domainx/schema"
)

// RankingRun represents one recorded ranking run with metadata.
// This struct maps to the ranking runs table.
type RankingRun struct {
	RunID        int64      `parquet:"run_id,snappy"`
	DomainID     string     `parquet:"domain_id,snappy"`
	DomainName   string     `parquet:"domain_name,snappy"`
	StartTime    time.Time  `parquet:"start_time,snappy"`
	EndTime      *time.Time `parquet:"end_time,optional,snappy"`
	DurationMs   *int64     `parquet:"run_duration_ms,optional,snappy"`
	LibraryCount int32      `parquet:"library_count,snappy"`
	SkippedCount int32      `parquet:"skipped_count,snappy"`
	ConfigParams *string    `parquet:"config_params,optional,snappy"`
}

// LibraryScore represents the recorded score of one library in a run.
// This struct maps to the ranking scores table.
type LibraryScore struct {
	RunID          int64   `parquet:"run_id,snappy"`
	LibraryID      string  `parquet:"library_id,snappy"`
	LibraryName    string  `parquet:"library_name,snappy"`
	Rank           int32   `parquet:"rank,snappy"`
	OverallScore   float64 `parquet:"overall_score,snappy"`
	Completeness   float64 `parquet:"completeness,snappy"`
	CategoryScores string  `parquet:"category_scores,snappy"` // JSON object
}

// RankingRow is one ranked library of a live ranking.
type RankingRow struct {
	DomainID       string  `parquet:"domain_id,snappy"`
	DomainName     string  `parquet:"domain_name,snappy"`
	Rank           int32   `parquet:"rank,snappy"`
	LibraryID      string  `parquet:"library_id,snappy"`
	LibraryName    string  `parquet:"library_name,snappy"`
	OverallScore   float64 `parquet:"overall_score,snappy"`
	Label          string  `parquet:"label,snappy"`
	Completeness   float64 `parquet:"completeness,snappy"`
	CategoryScores string  `parquet:"category_scores,snappy"` // JSON object
}

// Write encodes rows of any tagged struct type into w.
func Write[T any](w io.Writer, data []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteFile writes rows of any tagged struct type to a new file at outputPath.
func WriteFile[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := Write(file, data); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// WriteRankingRunsParquet writes ranking runs to a Parquet file.
func WriteRankingRunsParquet(data []RankingRun, outputPath string) error {
	return WriteFile(data, outputPath)
}

// WriteLibraryScoresParquet writes library scores to a Parquet file.
func WriteLibraryScoresParquet(data []LibraryScore, outputPath string) error {
	return WriteFile(data, outputPath)
}

// ConvertRankingRunRecords converts history records for Parquet export.
func ConvertRankingRunRecords(records []schema.RankingRunRecord) []RankingRun {
	result := make([]RankingRun, len(records))
	for i, r := range records {
		result[i] = RankingRun{
			RunID:        r.RunID,
			DomainID:     r.DomainID,
			DomainName:   r.DomainName,
			StartTime:    r.StartTime,
			EndTime:      r.EndTime,
			DurationMs:   r.DurationMs,
			LibraryCount: int32(r.LibraryCount),
			SkippedCount: int32(r.SkippedCount),
			ConfigParams: r.ConfigParams,
		}
	}
	return result
}

// ConvertLibraryScoreRecords converts history records for Parquet export.
func ConvertLibraryScoreRecords(records []schema.LibraryScoreRecord) []LibraryScore {
	result := make([]LibraryScore, len(records))
	for i, r := range records {
		result[i] = LibraryScore{
			RunID:          r.RunID,
			LibraryID:      r.LibraryID,
			LibraryName:    r.LibraryName,
			Rank:           int32(r.Rank),
			OverallScore:   r.OverallScore,
			Completeness:   r.Completeness,
			CategoryScores: r.CategoryScores,
		}
	}
	return result
}

// ConvertRankingResults flattens rankings into rows, one per ranked library.
func ConvertRankingResults(results []schema.RankingResult) ([]RankingRow, error) {
	var rows []RankingRow
	for _, res := range results {
		for _, lib := range schema.EnrichLibraries(res.Ranked) {
			cats, err := marshalSorted(lib.CategoryScores)
			if err != nil {
				return nil, err
			}
			rows = append(rows, RankingRow{
				DomainID:       res.DomainID,
				DomainName:     res.Domain,
				Rank:           int32(lib.Rank),
				LibraryID:      lib.LibraryID,
				LibraryName:    lib.LibraryName,
				OverallScore:   lib.Score,
				Label:          lib.Label,
				Completeness:   lib.Completeness,
				CategoryScores: cats,
			})
		}
	}
	return rows, nil
}

// marshalSorted encodes a score map as JSON. encoding/json sorts map keys.
func marshalSorted(m map[string]float64) (string, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to encode category scores: %w", err)
	}
	return string(data), nil
}
