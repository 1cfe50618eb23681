package main

import (
	"fmt"
	"log/slog"
	"os"
	"path"

	"github.com/spf13/cobra"
	"github.com/tfkr-ae/gangway"
	"github.com/tfkr-ae/gangway/db"
)

var (
	// Global flags
	configDir string
	verbose   bool

	// Logger
	logger *slog.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "gangway",
	Short: "Gangway - tunnel deployment supervisor",
	Long: `Gangway deploys a local demo API to the public internet through a
tunnel agent. It starts the app server, starts the agent, resolves the
assigned public URL, records traffic, and tears everything down on Ctrl+C.

Run "gangway up" to start a deployment.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		if configDir == "" {
			userConfigDir, err := os.UserConfigDir()
			if err != nil {
				return fmt.Errorf("resolving user config dir: %w", err)
			}
			configDir = path.Join(userConfigDir, "gangway")
		}
		return nil
	},
}

// newDeployment assembles a Deployment with the SQLite history store and any
// extra options from the calling command.
func newDeployment(options ...func(*gangway.Deployment) error) (*gangway.Deployment, error) {
	base := []func(*gangway.Deployment) error{
		gangway.WithLogger(logger),
		gangway.WithConfigDir(configDir),
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("creating config dir: %w", err)
	}
	conn, err := db.New(gangway.DBPath(configDir))
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}
	base = append(base, gangway.WithRepo(db.NewDeployRepo(conn)))
	base = append(base, options...)

	deployment, err := gangway.New(base...)
	if err != nil {
		return nil, err
	}
	return deployment, nil
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (defaults to the gangway folder under the user config dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
