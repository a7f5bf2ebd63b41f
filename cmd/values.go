package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/thaafei/domainx/core"
	"github.com/thaafei/domainx/schema"
)

// valuesCmd prints the raw metric values of a domain.
var valuesCmd = &cobra.Command{
	Use:   "values <domain-id>",
	Short: "Show the raw metric values of a domain as a library by metric table.",
	Long: `Print one row per library and one column per metric. Absent values print as "-".

Examples:
  domainx values 6f1c...
  domainx values 6f1c... --output json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetup,
	RunE:    runExecutor(core.ExecuteValuesTable),
}

// valuesSetCmd writes a single metric value.
var valuesSetCmd = &cobra.Command{
	Use:   "set <domain-id> <library-id> <metric-id> <value>",
	Short: "Set one metric value of a library.",
	Long: `Write one raw value. The value is read as JSON when possible (numbers,
true/false, null) and as plain text otherwise. It must fit the metric type.

Examples:
  domainx values set 6f1c... 91ab... 2c3d... 42000
  domainx values set 6f1c... 91ab... 7e8f... "100-500"`,
	Args:    cobra.ExactArgs(4),
	PreRunE: sharedSetup,
	RunE: func(cmd *cobra.Command, args []string) error {
		update := schema.MetricValueUpdate{
			LibraryID: args[1],
			MetricID:  args[2],
			Value:     parseValueArg(args[3]),
		}
		if err := core.UpdateMetricValue(rootCtx, storeManager.GetDomainStore(), cfg.DomainID, update); err != nil {
			return err
		}
		cmd.Println("Value updated.")
		return nil
	},
}

// valuesBulkCmd writes many metric values from a JSON file.
var valuesBulkCmd = &cobra.Command{
	Use:   "bulk <domain-id> <file.json>",
	Short: "Write many metric values from a JSON file.",
	Long: `Read a JSON array of {"library_id", "metric_id", "value"} objects and write
the valid ones in one transaction. Invalid entries are skipped and reported.`,
	Args:    cobra.ExactArgs(2),
	PreRunE: sharedSetup,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var updates []schema.MetricValueUpdate
		if err := dec.Decode(&updates); err != nil {
			return fmt.Errorf("invalid values file: %w", err)
		}

		result, err := core.UpdateMetricValues(rootCtx, storeManager.GetDomainStore(), cfg.DomainID, updates)
		if err != nil {
			return err
		}
		cmd.Printf("Updated: %d. Skipped: %d\n", result.Updated, result.Skipped)
		for _, reason := range result.Reasons {
			cmd.Printf("  %s\n", reason)
		}
		return nil
	},
}

// parseValueArg reads a command-line value as JSON, falling back to plain text.
func parseValueArg(raw string) any {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return raw
	}
	return v
}
