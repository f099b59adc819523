package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kingrea/waypoint/internal/tui"
	"github.com/kingrea/waypoint/internal/workflow/engine"
	"github.com/kingrea/waypoint/internal/workflow/selector"
)

// journalTail is how many journal entries status shows.
const journalTail = 10

func (c *cli) nextCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "next <run>",
		Short: "Hand out the next batch of questions for a run",
		Long: `Return the outstanding questions at the run's current node, advancing
along the approved route once a node has nothing left to ask. Questions in
categories the project already satisfies (see --coverage) are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coverage, err := c.app.loadCoverage()
			if err != nil {
				return err
			}
			batch, run, err := c.app.engine.Next(cmd.Context(), args[0], coverage, limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), struct {
					Batch selector.Batch `json:"batch"`
					Run   engine.Summary `json:"run"`
				}{batch, run.Summary()})
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderBatch(batch))
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d units spent · %d remaining\n", run.State.ActualCostUnits, run.State.RemainingCostUnits)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "max", 0, "Maximum questions per batch (0 = no limit)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the batch as JSON")
	return cmd
}

func (c *cli) statusCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status <run>",
		Short: "Show a run's cursor, costs, and recent journal entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := c.app.engine.View(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), run)
			}
			entries, _ := c.app.journals.Run(run.ID).Tail(journalTail)
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderRun(run, entries))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full run as JSON")
	return cmd
}

func (c *cli) abandonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "abandon <run>",
		Short: "Stop an active run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := c.app.engine.Abandon(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Abandoned run %s at %s\n", run.ID, run.State.CurrentNode)
			return nil
		},
	}
}

func (c *cli) runsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runs, err := c.app.engine.Runs(cmd.Context())
			if err != nil {
				return err
			}
			summaries := make([]engine.Summary, len(runs))
			for i, run := range runs {
				summaries[i] = run.Summary()
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), summaries)
			}
			fmt.Fprintln(cmd.OutOrStdout(), tui.RenderRuns(summaries))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print summaries as JSON")
	return cmd
}
