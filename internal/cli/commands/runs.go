package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/curator-io/curator/internal/state"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	var limit int
	var showStages bool
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent pipeline runs",
		Long: `Show the run history recorded in the state database, most recent
first. With --stages, also show per-dataset row counts for each stage.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			out := cmd.OutOrStdout()

			store := state.NewSQLiteStore(cmdCtx.Logger)
			if err := store.Open(cmdCtx.Cfg.StatePath); err != nil {
				return fmt.Errorf("failed to open state database: %w", err)
			}
			defer func() { _ = store.Close() }()
			if err := store.InitSchema(); err != nil {
				return fmt.Errorf("failed to initialize schema: %w", err)
			}

			runs, err := store.ListRuns(limit)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				rows = append(rows, []string{
					r.ID,
					string(r.Status),
					r.StartedAt.Format(time.RFC3339),
					formatCompleted(r.CompletedAt),
					r.Error,
				})
			}
			renderTable(out, []string{"run", "status", "started", "completed", "error"}, rows)

			if !showStages {
				return nil
			}
			for _, r := range runs {
				stats, err := store.GetStageStats(r.ID)
				if err != nil {
					return err
				}
				if len(stats) == 0 {
					continue
				}
				_, _ = fmt.Fprintf(out, "\n%s\n", r.ID)
				stageRows := make([][]string, 0, len(stats))
				for _, s := range stats {
					stageRows = append(stageRows, []string{
						s.Dataset, s.Stage,
						fmt.Sprintf("%d", s.RowsIn),
						fmt.Sprintf("%d", s.RowsOut),
						fmt.Sprintf("%d", s.Quarantined),
					})
				}
				renderTable(out, []string{"dataset", "stage", "rows in", "rows out", "quarantined"}, stageRows)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&showStages, "stages", false, "Show per-stage statistics for each run")
	return cmd
}

func formatCompleted(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
