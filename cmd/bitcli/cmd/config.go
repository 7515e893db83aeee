package cmd

import (
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective config",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			spew.Fdump(cmd.OutOrStdout(), a.cfg)
		},
	}
}
