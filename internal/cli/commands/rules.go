package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/curator-io/curator/internal/rules"
)

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	var dataset string
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the effective validation rules",
		Long: `Show the validation rules that will be applied to each dataset,
in evaluation order, along with each rule's failure policy.`,
		Example: `  # Show rules for both datasets
  curator rules

  # Show rules for orders only
  curator rules --dataset orders`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			out := cmd.OutOrStdout()

			ordersSet, productsSet, err := cmdCtx.Cfg.RuleSets()
			if err != nil {
				return err
			}

			sets := []*rules.Set{ordersSet, productsSet}
			if dataset != "" {
				switch dataset {
				case "orders":
					sets = []*rules.Set{ordersSet}
				case "products":
					sets = []*rules.Set{productsSet}
				default:
					return fmt.Errorf("unknown dataset %q (expected orders or products)", dataset)
				}
			}

			for _, set := range sets {
				_, _ = fmt.Fprintf(out, "%s\n", set.Dataset)
				rows := make([][]string, 0, len(set.Rules))
				for _, r := range set.Rules {
					rows = append(rows, []string{
						r.Column, string(r.Kind), string(r.Policy), r.Describe(),
					})
				}
				renderTable(out, []string{"column", "rule", "policy", "detail"}, rows)
				_, _ = fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&dataset, "dataset", "d", "", "Show rules for one dataset: orders, products")
	return cmd
}
