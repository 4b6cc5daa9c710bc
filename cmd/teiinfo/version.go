package main

import (
	"fmt"

	"github.com/aretw0/teiinfo"
	"github.com/aretw0/teiinfo/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of teiinfo",
	Run: func(cmd *cobra.Command, args []string) {
		if tui.IsTerminal(cmd.OutOrStdout()) {
			tui.PrintBanner(cmd.OutOrStdout(), teiinfo.Version)
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "teiinfo version %s\n", teiinfo.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
