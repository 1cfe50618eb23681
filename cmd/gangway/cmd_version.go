package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tfkr-ae/gangway"
)

// version is set at build time via -ldflags
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the gangway version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gangway %s\n", version)
		if notice := gangway.UpdateNotice(version); notice != "" {
			fmt.Println(notice)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
