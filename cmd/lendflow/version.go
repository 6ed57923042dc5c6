package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/lendflow"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of lendflow",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "lendflow version %s\n", strings.TrimSpace(lendflow.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
