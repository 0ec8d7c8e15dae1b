package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/aries-import/internal/store"
)

var (
	runsStatus   string
	runsScenario string
	runsLimit    int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List import runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Status:   store.RunStatus(runsStatus),
			Scenario: runsScenario,
			Limit:    runsLimit,
		})
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("no runs")
			return nil
		}
		for _, r := range runs {
			line := fmt.Sprintf("%s  %-8s  %-10s  %s", r.ID, r.Status, r.Scenario, r.CreatedAt.Format("2006-01-02 15:04:05"))
			if r.Summary != nil {
				line += fmt.Sprintf("  wells=%d docs=%d errors=%d warnings=%d",
					r.Summary.Wells, r.Summary.Documents, r.Summary.Errors, r.Summary.Warnings)
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().StringVar(&runsStatus, "status", "", "filter by status")
	runsCmd.Flags().StringVar(&runsScenario, "scenario", "", "filter by scenario")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 0, "max runs to list")
	rootCmd.AddCommand(runsCmd)
}
