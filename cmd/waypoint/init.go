package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kingrea/waypoint/internal/config"
)

func (c *cli) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the .waypoint directory and a default waypoint.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir := c.opts.projectDir
			if dir == "" {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				dir = wd
			}
			path, err := config.Init(dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s\n", path)
			return nil
		},
	}
}
