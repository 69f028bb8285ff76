// Package main provides the deepnet command line tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "v0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "deepnet",
		Short:        "Build, inspect and train layered feed-forward networks",
		SilenceUsage: true,
	}
	root.AddCommand(
		versionCmd(),
		validateCmd(),
		dotCmd(),
		gradcheckCmd(),
		xorCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "deepnet %s\n", version)
		},
	}
}
