package cmd

import (
	"github.com/spf13/cobra"
	"github.com/thaafei/domainx/core"
)

// domainsCmd lists the domains in the store.
var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "List domains with their library and metric counts.",
	Long: `List every domain in the store.

Examples:
  domainx domains
  domainx domains --output csv

  # Metrics and categories of one domain
  domainx domains show 6f1c...`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetup,
	RunE:    runExecutor(core.ExecuteDomains),
}

// domainsShowCmd prints one domain with its metrics and categories.
var domainsShowCmd = &cobra.Command{
	Use:   "show <domain-id>",
	Short: "Show the metrics and categories of a domain.",
	Long: `Show the metrics of a domain and the categories they form.

Categories are listed in metric order. Metrics without a category are grouped
under "Uncategorized". Active categories are those with at least one scorable
metric; only they take part in a ranking.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetup,
	RunE:    runExecutor(core.ExecuteDomainDetail),
}
