package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "2.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of MentorSync",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mentorsync v%s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
