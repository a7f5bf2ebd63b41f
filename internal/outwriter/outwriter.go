// Package outwriter has output and writer logic.
package outwriter

import (
	"io"
	"time"

	"github.com/thaafei/domainx/internal/contract"
	"github.com/thaafei/domainx/schema"
)

// OutWriter sends every output to the configured destination: stdout or cfg.OutputFile.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteRankings prints rankings using the configured output format.
func (ow *OutWriter) WriteRankings(reports []*schema.RankingReport, cfg *contract.Config, duration time.Duration) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteRankingResults(w, reports, cfg, duration)
	}, successMessage(cfg.Output))
}

// WriteDomains prints the domain listing using the configured output format.
func (ow *OutWriter) WriteDomains(domains []schema.DomainSummary, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteDomains(w, domains, cfg)
	}, successMessage(cfg.Output))
}

// WriteDomainDetail prints one domain with its metrics and categories.
func (ow *OutWriter) WriteDomainDetail(detail schema.DomainDetail, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteDomainDetail(w, detail, cfg)
	}, successMessage(cfg.Output))
}

// WriteValues prints the library by metric grid of a domain.
func (ow *OutWriter) WriteValues(snap schema.DomainSnapshot, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteValuesTable(w, snap, cfg)
	}, successMessage(cfg.Output))
}

// WriteWeights prints the effective weights of a domain.
func (ow *OutWriter) WriteWeights(domain schema.Domain, weights map[string]float64, source schema.WeightSource, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteWeights(w, domain, weights, source, cfg)
	}, successMessage(cfg.Output))
}

// WriteRules prints the rules catalogue.
func (ow *OutWriter) WriteRules(set *schema.RuleSet, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteRules(w, set, cfg)
	}, successMessage(cfg.Output))
}

func successMessage(mode schema.OutputMode) string {
	switch mode {
	case schema.JSONOut:
		return "Wrote JSON"
	case schema.CSVOut:
		return "Wrote CSV"
	case schema.ParquetOut:
		return "Wrote Parquet"
	default:
		return "Wrote table"
	}
}
