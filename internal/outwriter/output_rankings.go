package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/thaafei/domainx/internal/contract"
	"github.com/thaafei/domainx/internal/parquet"
	"github.com/thaafei/domainx/schema"
)

// jsonRanking is the JSON shape of one domain ranking.
type jsonRanking struct {
	schema.RankingResult
	Ranked   []schema.EnrichedLibrary `json:"ranked"`
	Skipped  []schema.SkippedValue    `json:"skipped,omitempty"`
	CacheHit bool                     `json:"cache_hit"`
}

// NewJSONRanking rounds a report for presentation and adds labels to its ranked list.
func NewJSONRanking(report *schema.RankingReport, precision int) any {
	rounded := report.Result.Rounded(precision)
	return jsonRanking{
		RankingResult: rounded,
		Ranked:        schema.EnrichLibraries(rounded.Ranked),
		Skipped:       report.Skipped,
		CacheHit:      report.CacheHit,
	}
}

// WriteRankingResults outputs rankings, dispatching based on the output format configured.
func WriteRankingResults(w io.Writer, reports []*schema.RankingReport, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeJSONResultsForRankings(w, reports, cfg.Precision); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeCSVResultsForRankings(w, reports, fmtFloat); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeParquetResultsForRankings(w, reports); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		return writeRankingTables(w, reports, cfg, fmtFloat, intFmt, duration)
	}
	return nil
}

// writeJSONResultsForRankings writes one object for a single domain and an array otherwise.
func writeJSONResultsForRankings(w io.Writer, reports []*schema.RankingReport, precision int) error {
	if len(reports) == 1 {
		return writeJSON(w, NewJSONRanking(reports[0], precision))
	}
	output := make([]any, len(reports))
	for i, r := range reports {
		output[i] = NewJSONRanking(r, precision)
	}
	return writeJSON(w, output)
}

// writeCSVResultsForRankings writes one row per ranked library.
func writeCSVResultsForRankings(w io.Writer, reports []*schema.RankingReport, fmtFloat func(float64) string) error {
	header := []string{
		"domain_id",
		"domain",
		"rank",
		"library_id",
		"library",
		"score",
		"label",
		"completeness",
		"category_scores",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range reports {
			for _, lib := range r.Result.Ranked {
				rec := []string{
					r.Result.DomainID,
					r.Result.Domain,
					strconv.Itoa(lib.Rank),
					lib.LibraryID,
					lib.LibraryName,
					fmtFloat(lib.Score),
					contract.GetPlainLabel(lib.Score),
					fmtFloat(lib.Completeness()),
					formatCategoryScores(lib.CategoryScores, fmtFloat),
				}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// writeParquetResultsForRankings writes every ranked library as a Parquet row.
func writeParquetResultsForRankings(w io.Writer, reports []*schema.RankingReport) error {
	results := make([]schema.RankingResult, len(reports))
	for i, r := range reports {
		results[i] = r.Result
	}
	rows, err := parquet.ConvertRankingResults(results)
	if err != nil {
		return err
	}
	return parquet.Write(w, rows)
}

// writeRankingTables renders one table per domain followed by a run summary.
func writeRankingTables(w io.Writer, reports []*schema.RankingReport, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration) error {
	skipped := 0
	for _, r := range reports {
		if err := writeRankingTable(w, r, cfg, fmtFloat, intFmt); err != nil {
			return err
		}
		skipped += len(r.Skipped)
	}
	if _, err := fmt.Fprintf(w, "Ranked %d domain(s) in %v with %d workers. Skipped values: %d. Cache backend: %s\n",
		len(reports), duration, cfg.Workers, skipped, cfg.CacheBackend); err != nil {
		return err
	}
	return nil
}

// writeRankingTable generates and writes the human-readable table of one domain.
func writeRankingTable(w io.Writer, report *schema.RankingReport, cfg *contract.Config, fmtFloat func(float64) string, intFmt string) error {
	res := report.Result
	categories := sortedKeys(res.Weights)

	if _, err := fmt.Fprintf(w, "Domain: %s (%s)\n", res.Domain, res.DomainID); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Weights (%s): %s\n", res.WeightSource, formatWeights(res.Weights, categories, fmtFloat)); err != nil {
		return err
	}
	if res.WeightsStale {
		if _, err := fmt.Fprintln(w, "Warning: stored weights are out of range or do not sum to 1 and were used as stored"); err != nil {
			return err
		}
	}

	table := tablewriter.NewWriter(w)

	// 1. Define Headers
	headers := []string{"Rank", "Library", "Score", "Label"}
	if cfg.Detail {
		headers = append(headers, categories...)
		headers = append(headers, "Complete")
	}
	table.Header(headers)

	// 2. Configure Alignment
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	// 3. Populate Rows
	label := labelFunc(cfg.UseColors)
	nameWidth := getMaxTableNameWidth(cfg, len(categories))
	var data [][]string
	for _, lib := range res.Ranked {
		row := []string{
			fmt.Sprintf(intFmt, lib.Rank),
			contract.TruncateName(lib.LibraryName, nameWidth),
			fmtFloat(lib.Score),
			label(lib.Score),
		}
		if cfg.Detail {
			for _, cat := range categories {
				if s, ok := lib.CategoryScores[cat]; ok {
					row = append(row, fmtFloat(s))
				} else {
					row = append(row, "-")
				}
			}
			row = append(row, fmt.Sprintf("%d/%d", lib.ScoredMetrics, lib.TotalMetrics))
		}
		data = append(data, row)
	}

	// 4. Render the table
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Showing %d of %d libraries (skipped values: %d, cached: %t)\n\n",
		len(res.Ranked), len(res.GlobalRanking), len(report.Skipped), report.CacheHit); err != nil {
		return err
	}
	return nil
}

// formatWeights formats weights as "cat=0.60, cat=0.40" in the given key order.
func formatWeights(weights map[string]float64, keys []string, fmtFloat func(float64) string) string {
	if len(keys) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, fmtFloat(weights[k])))
	}
	return strings.Join(parts, ", ")
}

// formatCategoryScores formats category scores as "cat:score" pairs joined by "|".
func formatCategoryScores(scores map[string]float64, fmtFloat func(float64) string) string {
	keys := sortedKeys(scores)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%s", k, fmtFloat(scores[k])))
	}
	return strings.Join(parts, "|")
}
