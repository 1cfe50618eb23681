package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show totals across all recorded deployments",
	RunE: func(cmd *cobra.Command, args []string) error {
		deployment, err := newDeployment()
		if err != nil {
			return err
		}
		defer deployment.Repo.Close()

		sessions, err := deployment.Repo.CountSessions()
		if err != nil {
			return fmt.Errorf("counting sessions: %w", err)
		}
		captures, err := deployment.Repo.CountCaptures()
		if err != nil {
			return fmt.Errorf("counting captures: %w", err)
		}
		hooks, err := deployment.Repo.CountHooks()
		if err != nil {
			return fmt.Errorf("counting hooks: %w", err)
		}
		lastURL, err := deployment.Repo.GetLastPublicURL()
		if err != nil {
			return fmt.Errorf("reading last public url: %w", err)
		}
		if lastURL == "" {
			lastURL = "-"
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "Sessions\t%d\n", sessions)
		fmt.Fprintf(w, "Exchanges\t%d\n", captures)
		fmt.Fprintf(w, "Hooks\t%d\n", hooks)
		fmt.Fprintf(w, "Last public URL\t%s\n", lastURL)
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
