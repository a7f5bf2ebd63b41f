package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/thaafei/domainx/internal/contract"
	"github.com/thaafei/domainx/schema"
)

// WriteDomains outputs the domain listing.
func WriteDomains(w io.Writer, domains []schema.DomainSummary, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		if domains == nil {
			domains = []schema.DomainSummary{}
		}
		return writeJSON(w, domains)
	case schema.CSVOut:
		header := []string{"domain_id", "domain", "description", "libraries", "metrics", "created_at"}
		return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
			for _, d := range domains {
				rec := []string{
					d.Domain.ID,
					d.Domain.Name,
					d.Domain.Description,
					strconv.Itoa(d.LibraryCount),
					strconv.Itoa(d.MetricCount),
					d.Domain.CreatedAt.Format(contract.DateTimeFormat),
				}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
			return nil
		})
	default:
		table := tablewriter.NewWriter(w)
		table.Header([]string{"ID", "Domain", "Libraries", "Metrics", "Created"})
		var data [][]string
		for _, d := range domains {
			data = append(data, []string{
				d.Domain.ID,
				d.Domain.Name,
				strconv.Itoa(d.LibraryCount),
				strconv.Itoa(d.MetricCount),
				d.Domain.CreatedAt.Format(contract.DateTimeFormat),
			})
		}
		if err := table.Bulk(data); err != nil {
			return err
		}
		return table.Render()
	}
}

// WriteDomainDetail outputs one domain with its metrics and categories.
func WriteDomainDetail(w io.Writer, detail schema.DomainDetail, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeJSON(w, detail)
	case schema.CSVOut:
		header := []string{"metric_id", "metric", "category", "value_type", "option_category", "rule", "range_min", "range_max"}
		return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
			for _, m := range detail.Metrics {
				if err := cw.Write(metricRecord(m)); err != nil {
					return err
				}
			}
			return nil
		})
	default:
		if _, err := fmt.Fprintf(w, "Domain: %s (%s)\n", detail.Name, detail.ID); err != nil {
			return err
		}
		if detail.Description != "" {
			if _, err := fmt.Fprintln(w, detail.Description); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "Libraries: %d. Categories: %s. Active: %s\n",
			detail.LibraryCount, joinOrNone(detail.Categories), joinOrNone(detail.ActiveCategories)); err != nil {
			return err
		}
		table := tablewriter.NewWriter(w)
		table.Header([]string{"ID", "Metric", "Category", "Type", "Option", "Rule", "Min", "Max"})
		var data [][]string
		for _, m := range detail.Metrics {
			data = append(data, metricRecord(m))
		}
		if err := table.Bulk(data); err != nil {
			return err
		}
		return table.Render()
	}
}

func metricRecord(m schema.Metric) []string {
	return []string{
		m.ID,
		m.Name,
		m.CategoryName(),
		string(m.ValueType),
		m.OptionCategory,
		m.Rule,
		formatBound(m.RangeMin),
		formatBound(m.RangeMax),
	}
}

func formatBound(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

// WriteValuesTable outputs the raw values of a domain, one row per library and one column per metric.
func WriteValuesTable(w io.Writer, snap schema.DomainSnapshot, cfg *contract.Config) error {
	grid := schema.BuildValuesTable(snap)

	header := make([]string, 0, len(grid.Metrics)+1)
	header = append(header, "Library")
	for _, m := range grid.Metrics {
		header = append(header, m.Name)
	}

	switch cfg.Output {
	case schema.JSONOut:
		return writeJSON(w, grid)
	case schema.CSVOut:
		return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
			for _, row := range grid.Rows {
				if err := cw.Write(valuesRecord(row)); err != nil {
					return err
				}
			}
			return nil
		})
	default:
		table := tablewriter.NewWriter(w)
		table.Header(header)
		table.Configure(func(cfg *tablewriter.Config) {
			cfg.Row.Alignment.Global = tw.AlignRight
		})
		var data [][]string
		for _, row := range grid.Rows {
			data = append(data, valuesRecord(row))
		}
		if err := table.Bulk(data); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "%s: %d libraries x %d metrics\n", snap.Domain.Name, len(grid.Rows), len(grid.Metrics))
		return err
	}
}

func valuesRecord(row schema.ValuesRow) []string {
	rec := make([]string, 0, len(row.Values)+1)
	rec = append(rec, row.LibraryName)
	for _, v := range row.Values {
		rec = append(rec, formatRawValue(v))
	}
	return rec
}

// formatRawValue prints a stored value; absent values print as "-".
func formatRawValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case string:
		return x
	case json.Number:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// WriteWeights outputs the effective weights of a domain.
func WriteWeights(w io.Writer, domain schema.Domain, weights map[string]float64, source schema.WeightSource, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)
	keys := sortedKeys(weights)

	switch cfg.Output {
	case schema.JSONOut:
		return writeJSON(w, map[string]any{
			"domain_id":     domain.ID,
			"domain":        domain.Name,
			"weights":       weights,
			"weight_source": source,
		})
	case schema.CSVOut:
		return writeCSVWithHeader(w, []string{"domain_id", "category", "weight", "source"}, func(cw *csv.Writer) error {
			for _, k := range keys {
				if err := cw.Write([]string{domain.ID, k, fmtFloat(weights[k]), string(source)}); err != nil {
					return err
				}
			}
			return nil
		})
	default:
		table := tablewriter.NewWriter(w)
		table.Header([]string{"Category", "Weight"})
		var data [][]string
		for _, k := range keys {
			data = append(data, []string{k, fmtFloat(weights[k])})
		}
		if err := table.Bulk(data); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "%s weights (%s)\n", domain.Name, source)
		return err
	}
}

// WriteRules outputs the rules catalogue.
func WriteRules(w io.Writer, set *schema.RuleSet, cfg *contract.Config) error {
	if cfg.Output == schema.JSONOut {
		return writeJSON(w, set)
	}

	type ruleRow struct {
		kind, optCat, display, name, scores string
	}
	var rows []ruleRow
	fmtFloat, _ := createFormatters(cfg.Precision)
	for _, section := range []struct {
		kind    schema.RuleKind
		options map[string]schema.RuleOption
	}{{schema.BooleanRuleKind, set.Bool}, {schema.BucketRuleKind, set.Range}} {
		for _, optCat := range sortedOptionKeys(section.options) {
			opt := section.options[optCat]
			for _, name := range sortedRuleKeys(opt.Templates) {
				rows = append(rows, ruleRow{
					kind:    string(section.kind),
					optCat:  optCat,
					display: opt.DisplayName,
					name:    name,
					scores:  formatRule(opt.Templates[name], fmtFloat),
				})
			}
		}
	}

	header := []string{"kind", "option_category", "display_name", "rule", "scores"}
	if cfg.Output == schema.CSVOut {
		return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
			for _, r := range rows {
				if err := cw.Write([]string{r.kind, r.optCat, r.display, r.name, r.scores}); err != nil {
					return err
				}
			}
			return nil
		})
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Kind", "Option", "Display", "Rule", "Scores"})
	var data [][]string
	for _, r := range rows {
		data = append(data, []string{r.kind, r.optCat, r.display, r.name, r.scores})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func formatRule(rule schema.Rule, fmtFloat func(float64) string) string {
	switch r := rule.(type) {
	case schema.BooleanRule:
		return fmt.Sprintf("true:%s|false:%s", fmtFloat(r.TrueScore), fmtFloat(r.FalseScore))
	case schema.BucketRule:
		return formatCategoryScores(r.Buckets, fmtFloat)
	default:
		return ""
	}
}

func sortedOptionKeys(m map[string]schema.RuleOption) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedRuleKeys(m map[string]schema.Rule) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
