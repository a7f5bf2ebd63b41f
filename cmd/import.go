package cmd

import (
	"github.com/spf13/cobra"
	"github.com/thaafei/domainx/core/algo"
	"github.com/thaafei/domainx/internal/bundle"
)

// importCmd creates a domain from a bundle file.
var importCmd = &cobra.Command{
	Use:   "import <bundle-file>",
	Short: "Create a domain with its metrics, libraries and values from a bundle.",
	Long: `Read a YAML or JSON bundle and create the domain it describes.

A bundle holds the domain, its metric definitions, its libraries with raw values
keyed by metric, and optionally category weights. Values that do not fit their
metric type are skipped and reported.

Examples:
  domainx import web_frameworks.yaml
  domainx import ml.json --store-backend postgresql --store-db-connect "postgres://..."`,
	Args:    cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, _ []string) error { return sharedSetup(cmd, nil) },
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := bundle.ReadFile(args[0])
		if err != nil {
			return err
		}
		result, err := bundle.Import(rootCtx, storeManager.GetDomainStore(), b, algo.Options{Unranged: cfg.NumericUnranged})
		if err != nil {
			return err
		}

		cmd.Printf("Imported domain %s (%s)\n", result.Domain.Name, result.Domain.ID)
		cmd.Printf("  Metrics:   %d\n", result.Metrics)
		cmd.Printf("  Libraries: %d\n", result.Libraries)
		cmd.Printf("  Values:    %d written, %d skipped\n", result.Values.Updated, result.Values.Skipped)
		for _, reason := range result.Values.Reasons {
			cmd.Printf("    %s\n", reason)
		}
		cmd.Printf("  Weights:   %t\n", result.Weights)
		return nil
	},
}
