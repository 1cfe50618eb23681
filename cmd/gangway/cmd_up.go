package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tfkr-ae/gangway"
)

var (
	upPort      int
	upServerCmd string
	upAuthToken string
	upNoCapture bool
)

// upCmd runs a full deployment until interrupted
var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Start the app server and expose it through the tunnel",
	RunE: func(cmd *cobra.Command, args []string) error {
		options := []func(*gangway.Deployment) error{
			gangway.WithServerCommand(upServerCmd),
			gangway.WithPort(upPort),
			gangway.WithAuthToken(upAuthToken),
		}
		if upNoCapture {
			options = append(options, gangway.WithCaptureDisabled())
		}

		deployment, err := newDeployment(options...)
		if err != nil {
			return err
		}
		defer deployment.Repo.Close()

		if err := deployment.WithOptions(gangway.WithHooks(), gangway.WithPublicURLHandler(func(publicURL string) error {
			fmt.Println(deployment.Banner())
			return nil
		})); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		runErr := deployment.Run(ctx)
		fmt.Println(deployment.Summary())
		return runErr
	},
}

func init() {
	upCmd.Flags().IntVarP(&upPort, "port", "p", 0, "app server port (overrides config)")
	upCmd.Flags().StringVar(&upServerCmd, "server-cmd", "", "app server command (overrides config)")
	upCmd.Flags().StringVar(&upAuthToken, "auth-token", "", "tunnel provider auth token")
	upCmd.Flags().BoolVar(&upNoCapture, "no-capture", false, "disable traffic capture")
	rootCmd.AddCommand(upCmd)
}
