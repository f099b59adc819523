package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath  string
	projectDir  string
	domain      string
	strategy    string
	project     string
	coverage    string
	user        string
	metricsFile string
}

// cli owns the flags and the lazily opened app of one invocation.
type cli struct {
	opts globalOptions
	app  *app
}

// Execute runs the command tree with signal handling.
func Execute(ctx context.Context, args []string) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root, c := newRootCmd()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if cerr := c.close(); err == nil {
		err = cerr
	}
	return err
}

func newRootCmd() (*cobra.Command, *cli) {
	c := &cli{}
	root := &cobra.Command{
		Use:   "waypoint",
		Short: "Plan and walk the cheapest, safest route through a workflow graph",
		Long: `waypoint enumerates every route from a graph's start node to its end
nodes, prices each route, scores its risk against the project's category
coverage, and recommends one under a selection strategy. Approved routes
become runs that hand out questions node by node.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.open,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.opts.configPath, "config", "", "Path to waypoint.yaml (default: $WAYPOINT_CONFIG or ./.waypoint/waypoint.yaml)")
	flags.StringVar(&c.opts.projectDir, "dir", "", "Project directory (default: current directory)")
	flags.StringVar(&c.opts.domain, "domain", "", "Category domain (default: categories.domain from config)")
	flags.StringVar(&c.opts.strategy, "strategy", "", "Selection strategy: balanced, minimize_cost, minimize_risk, maximize_quality, user_choice")
	flags.StringVar(&c.opts.project, "project", "", "Project identifier recorded on requests and runs")
	flags.StringVar(&c.opts.coverage, "coverage", "", "YAML file of earned category scores")
	flags.StringVar(&c.opts.user, "user", os.Getenv("USER"), "Name recorded as requester and approver")
	flags.StringVar(&c.opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")

	root.AddCommand(
		c.initCmd(),
		c.analyzeCmd(),
		c.planCmd(),
		c.nextCmd(),
		c.statusCmd(),
		c.abandonCmd(),
		c.runsCmd(),
	)
	return root, c
}

// open wires the app before any command that needs it.
func (c *cli) open(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "init" || cmd.Name() == "help" {
		return nil
	}
	a, err := openApp(cmd.Context(), c.opts)
	if err != nil {
		return err
	}
	c.app = a
	cmd.SetContext(a.context(cmd.Context()))
	return nil
}

func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}
