package cmd

import (
	"github.com/spf13/cobra"
	"github.com/thaafei/domainx/core"
)

// rankCmd ranks the libraries of one domain or of every domain.
var rankCmd = &cobra.Command{
	Use:   "rank [domain-id]",
	Short: "Rank the libraries of a domain by weighted category score.",
	Long: `Score every library of a domain and print them from best to worst.

Each metric value is normalized to [0,1], averaged per category, and the
category scores are combined with the stored category weights. When no valid
weights are stored, every active category gets an equal share.

Values that cannot be scored (wrong type, unknown bucket, unknown rule) are
skipped and logged; they never count as zero.

Examples:
  # Rank one domain
  domainx rank 6f1c...

  # Show category scores and coverage per library
  domainx rank 6f1c... --detail

  # Rank every domain in parallel and export as JSON
  domainx rank --all --output json --output-file rankings.json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := requireDomain(cmd, args); err != nil {
			return err
		}
		return sharedSetup(cmd, args)
	},
	RunE: runExecutor(core.ExecuteRanking),
}
