package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kingrea/waypoint/internal/tui"
	"github.com/kingrea/waypoint/internal/workflow"
	"github.com/kingrea/waypoint/internal/workflow/approval"
)

func (c *cli) analyzeCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "analyze <graph>",
		Short: "Score every route through a graph and show the recommendation",
		Long: `Enumerate every route through the graph, price and risk-score each
one, and print them with the strategy's recommendation. The graph may be a
path, a file name under .waypoint/graphs, or - to read YAML from standard
input. Nothing is persisted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := c.app.optimize(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), req)
			}
			printRequest(cmd.OutOrStdout(), req)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the approval request as JSON")
	return cmd
}

func (c *cli) planCmd() *cobra.Command {
	var (
		yes    bool
		pathID string
	)
	cmd := &cobra.Command{
		Use:   "plan <graph>",
		Short: "Analyze a graph, approve a route, and start a run on it",
		Long: `Analyze the graph and open the approval picker. Approving a route starts
a run; rejecting records the reason. Use --yes to approve the recommended
route without the picker, or --path to approve a specific route id.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			req, err := a.optimize(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}

			var decision tui.Decision
			switch {
			case pathID != "":
				decision = tui.Decision{Action: tui.ActionApprove, PathID: pathID}
			case yes:
				if req.Recommended == nil {
					return fmt.Errorf("strategy %s makes no recommendation; pass --path", req.Strategy)
				}
				decision = tui.Decision{Action: tui.ActionApprove, PathID: req.Recommended.ID}
			default:
				decision, err = tui.RunPicker(cmd.Context(), req)
				if err != nil {
					return err
				}
			}

			switch decision.Action {
			case tui.ActionApprove:
				approved, err := a.registry.Approve(req.ID, decision.PathID, a.opts.user)
				if err != nil {
					return err
				}
				run, err := a.engine.Start(cmd.Context(), approved)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Approved %s\nStarted run %s at %s\n", run.Path.Key(), run.ID, run.State.CurrentNode)
			case tui.ActionReject:
				rejected, err := a.registry.Reject(req.ID, decision.Reason, a.opts.user)
				if err != nil {
					return err
				}
				if err := a.engine.Archive(cmd.Context(), rejected); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rejected request %s: %s\n", rejected.ID, rejected.Reason)
			default:
				fmt.Fprintln(cmd.OutOrStdout(), "No decision made; request left pending")
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Approve the recommended route without the picker")
	cmd.Flags().StringVar(&pathID, "path", "", "Approve the route with this id")
	return cmd
}

func printRequest(w io.Writer, req approval.Request) {
	fmt.Fprintf(w, "%s (%s) · strategy %s · %d route(s)\n", req.Definition.Name, req.Definition.ID, req.Strategy, len(req.Paths))
	recommended := ""
	if req.Recommended != nil {
		recommended = req.Recommended.ID
	}
	fmt.Fprintln(w, tui.RenderPaths(req.Paths, recommended))
	if req.Recommended != nil {
		fmt.Fprintf(w, "Recommended: %s (%s)\n", req.Recommended.Key(), req.Recommended.ID)
	} else {
		fmt.Fprintln(w, "No recommendation; choose a route with plan --path")
	}
	if degraded(req.Paths) {
		fmt.Fprintln(w, "* category data unavailable for this domain; risk shown is a conservative default")
	}
}

func degraded(paths []workflow.Path) bool {
	for _, p := range paths {
		if p.Risk.Degraded {
			return true
		}
	}
	return false
}

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
