package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/tfkr-ae/gangway/capture"
)

// sessionsCmd groups the deployment history commands
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect past deployment sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded deployment sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		deployment, err := newDeployment()
		if err != nil {
			return err
		}
		defer deployment.Repo.Close()

		sessions, err := deployment.Repo.GetSessions()
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tPUBLIC URL\tSTARTED")
		for _, session := range sessions {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", session.ID, session.Status, session.PublicURL, humanize.Time(session.StartedAt))
		}
		return w.Flush()
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show one session with its captured traffic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("parsing session id: %w", err)
		}

		deployment, err := newDeployment()
		if err != nil {
			return err
		}
		defer deployment.Repo.Close()

		session, err := deployment.Repo.GetSession(id)
		if err != nil {
			return fmt.Errorf("loading session: %w", err)
		}

		fmt.Printf("Session:    %s\n", session.ID)
		fmt.Printf("Command:    %s\n", session.Command)
		fmt.Printf("Port:       %d\n", session.Port)
		fmt.Printf("Status:     %s\n", session.Status)
		fmt.Printf("Public URL: %s\n", session.PublicURL)
		fmt.Printf("Started:    %s\n", session.StartedAt)
		if session.EndedAt != nil {
			fmt.Printf("Ended:      %s\n", session.EndedAt)
		}

		captures, err := deployment.Repo.GetCaptures(session.ID)
		if err != nil {
			return fmt.Errorf("loading captures: %w", err)
		}
		if len(captures) == 0 {
			return nil
		}

		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "METHOD\tURI\tSTATUS\tDURATION\tCAPTURED")
		for _, item := range captures {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", item.Method, item.URI, item.StatusCode, item.Duration, humanize.Time(item.CapturedAt))
		}
		return w.Flush()
	},
}

var sessionsLogsCmd = &cobra.Command{
	Use:   "logs <session-id>",
	Short: "Print the log entries recorded for a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("parsing session id: %w", err)
		}

		deployment, err := newDeployment()
		if err != nil {
			return err
		}
		defer deployment.Repo.Close()

		logs, err := deployment.Repo.GetSessionLogs(id)
		if err != nil {
			return fmt.Errorf("loading session logs: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tLEVEL\tMESSAGE")
		for _, entry := range logs {
			fmt.Fprintf(w, "%s\t%s\t%s\n", entry.Timestamp.Format("15:04:05"), entry.Level, entry.Message)
		}
		return w.Flush()
	},
}

var sessionsBodyCmd = &cobra.Command{
	Use:   "body <capture-id>",
	Short: "Print the prettified response body of a captured exchange",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("parsing capture id: %w", err)
		}

		deployment, err := newDeployment()
		if err != nil {
			return err
		}
		defer deployment.Repo.Close()

		item, err := deployment.Repo.GetCapture(id)
		if err != nil {
			return fmt.Errorf("loading capture: %w", err)
		}

		body, err := capture.PrettyBody(item.ResponseRaw)
		if err != nil {
			return fmt.Errorf("prettifying response body: %w", err)
		}
		fmt.Println(body)
		return nil
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsLogsCmd)
	sessionsCmd.AddCommand(sessionsBodyCmd)
	rootCmd.AddCommand(sessionsCmd)
}
