package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/curator-io/curator/internal/pipeline"
)

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full cleanse-and-curate pipeline",
		Long: `Load the raw orders and products CSV files, validate them against
their per-column rules, quarantine or repair failing records, normalize
the survivors, and write the cleansed and curated outputs.`,
		Example: `  # Run with config discovered from ./curator.yaml
  curator run

  # Run against explicit inputs
  curator run --orders-path data/orders.csv --products-path data/products.csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			out := cmd.OutOrStdout()

			start := time.Now()
			p := pipeline.New(cmdCtx.Cfg, cmdCtx.Logger)
			res, err := p.Run(cmd.Context())
			if err != nil {
				if res != nil && res.RunID != "" {
					return fmt.Errorf("run %s failed: %w", res.RunID, err)
				}
				return err
			}

			_, _ = fmt.Fprintf(out, "Run %s: completed\n\n", res.RunID)
			renderTable(out,
				[]string{"dataset", "rows in", "rows out", "quarantined", "repaired"},
				[][]string{
					statsRow(res.Orders),
					statsRow(res.Products),
				})
			_, _ = fmt.Fprintf(out, "\nCurated %d products\n", res.CuratedProducts)
			for _, path := range res.Outputs {
				_, _ = fmt.Fprintf(out, "  wrote %s\n", path)
			}
			_, _ = fmt.Fprintf(out, "Completed in %s\n", time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	return cmd
}

func statsRow(s pipeline.DatasetStats) []string {
	return []string{
		s.Dataset,
		fmt.Sprintf("%d", s.RowsIn),
		fmt.Sprintf("%d", s.RowsOut),
		fmt.Sprintf("%d", s.Quarantined),
		fmt.Sprintf("%d", s.Repaired),
	}
}
