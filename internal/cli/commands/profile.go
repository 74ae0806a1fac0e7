package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/curator-io/curator/internal/table"
)

// NewProfileCommand creates the profile command.
func NewProfileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Profile the raw datasets without running the pipeline",
		Long: `Load the raw orders and products CSV files and print per-column
statistics: null counts, distinct counts, and numeric ranges. Useful
for inspecting a new extract before wiring up validation rules.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			out := cmd.OutOrStdout()

			ordersSchema, _, err := cmdCtx.Cfg.OrdersTableSchema()
			if err != nil {
				return err
			}
			productsSchema, _, err := cmdCtx.Cfg.ProductsTableSchema()
			if err != nil {
				return err
			}

			datasets := []struct {
				name   string
				path   string
				schema table.Schema
			}{
				{"orders", cmdCtx.Cfg.OrdersPath, ordersSchema},
				{"products", cmdCtx.Cfg.ProductsPath, productsSchema},
			}

			for _, d := range datasets {
				t, err := table.ReadCSV(d.path, d.name, d.schema)
				if err != nil {
					return fmt.Errorf("failed to load %s: %w", d.name, err)
				}
				p := t.Profile()
				p.Log(cmdCtx.Logger)

				_, _ = fmt.Fprintf(out, "%s (%d rows, %d duplicate rows)\n",
					d.name, p.Rows, p.DuplicateRows)
				rows := make([][]string, 0, len(p.Columns))
				for _, c := range p.Columns {
					min, max, mean := "", "", ""
					if c.Numeric {
						min = fmt.Sprintf("%g", c.Min)
						max = fmt.Sprintf("%g", c.Max)
						mean = fmt.Sprintf("%.2f", c.Mean)
					}
					rows = append(rows, []string{
						c.Name, c.Kind.String(),
						fmt.Sprintf("%d", c.Nulls),
						fmt.Sprintf("%d", c.Distinct),
						min, max, mean,
					})
				}
				renderTable(out, []string{"column", "type", "nulls", "distinct", "min", "max", "mean"}, rows)
				_, _ = fmt.Fprintln(out)
			}
			return nil
		},
	}
	return cmd
}
