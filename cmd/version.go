package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the triage release version.
const Version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the triage version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("triage " + Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
