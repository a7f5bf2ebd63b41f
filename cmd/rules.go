package cmd

import (
	"github.com/spf13/cobra"
	"github.com/thaafei/domainx/core"
	"github.com/thaafei/domainx/internal/rules"
)

// rulesCmd inspects scoring rule catalogues.
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and validate scoring rule catalogues.",
	Long: `Scoring rules turn bool and range values into scores. A metric names its rule
by option category and rule key, e.g. "yes_no" / "standard".

The built-in catalogue is used unless --rules-file points at a JSON or YAML file.

Examples:
  domainx rules show
  domainx rules show --rules-file rules.yaml --output json
  domainx rules validate rules.yaml`,
}

var rulesShowCmd = &cobra.Command{
	Use:     "show",
	Short:   "Print the loaded rules catalogue.",
	Args:    cobra.NoArgs,
	PreRunE: configSetupWithRules,
	RunE:    runExecutor(core.ExecuteRules),
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check that a rules file parses and every score lies in [0, 1].",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := rules.ReadFile(args[0])
		if err != nil {
			return err
		}
		cmd.Printf("Rules file is valid: %d template(s)\n", set.Len())
		return nil
	},
}

// configSetupWithRules loads config and the rules catalogue without opening the stores.
func configSetupWithRules(cmd *cobra.Command, _ []string) error {
	if err := configSetup(cmd, nil); err != nil {
		return err
	}
	provider, err := rules.Load(cfg.RulesFile)
	if err != nil {
		return err
	}
	ruleProvider = provider
	return nil
}
