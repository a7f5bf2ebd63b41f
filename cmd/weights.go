package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/thaafei/domainx/core"
	"github.com/thaafei/domainx/core/algo"
)

// weightsCmd manages the category weights of a domain.
var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Show, validate and store category weights.",
	Long: `Category weights decide how much each category contributes to the overall score.

Stored weights must name every active category, lie within [0, 1] and sum to 1
within 0.001. When nothing valid is stored, every active category gets 1/N.

Subcommands:
  show     - Print the weights a ranking would use and their source
  set      - Validate and store new weights
  validate - Validate weights without storing them

Examples:
  domainx weights show 6f1c...
  domainx weights set 6f1c... --weight Popularity=0.6 --weight Quality=0.4`,
}

var weightsShowCmd = &cobra.Command{
	Use:     "show <domain-id>",
	Short:   "Print the effective category weights of a domain.",
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetup,
	RunE:    runExecutor(core.ExecuteWeights),
}

var weightsSetCmd = &cobra.Command{
	Use:     "set <domain-id> --weight Category=value ...",
	Short:   "Validate and store the category weights of a domain.",
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		weights, err := weightsFlag(cmd)
		if err != nil {
			return err
		}
		opts := algo.Options{Unranged: cfg.NumericUnranged}
		if err := core.SaveCategoryWeights(rootCtx, storeManager.GetDomainStore(), cfg.DomainID, weights, opts); err != nil {
			return err
		}
		cmd.Println("Weights saved.")
		return nil
	},
}

var weightsValidateCmd = &cobra.Command{
	Use:     "validate <domain-id> --weight Category=value ...",
	Short:   "Check category weights against a domain without storing them.",
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		weights, err := weightsFlag(cmd)
		if err != nil {
			return err
		}
		opts := algo.Options{Unranged: cfg.NumericUnranged}
		if err := core.ValidateCategoryWeights(rootCtx, storeManager.GetDomainStore(), cfg.DomainID, weights, opts); err != nil {
			return err
		}
		cmd.Println("Weights are valid.")
		return nil
	},
}

// weightsFlag parses the repeated --weight Category=value flag.
func weightsFlag(cmd *cobra.Command) (map[string]float64, error) {
	raw, err := cmd.Flags().GetStringToString("weight")
	if err != nil {
		return nil, err
	}
	return parseWeights(raw)
}

func parseWeights(raw map[string]string) (map[string]float64, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("at least one --weight Category=value is required")
	}
	weights := make(map[string]float64, len(raw))
	for cat, v := range raw {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("weight of %q must be a number (received %q)", cat, v)
		}
		weights[cat] = f
	}
	return weights, nil
}
