package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// hooksCmd groups the lifecycle hook management commands
var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Manage Lua lifecycle hooks",
}

var hooksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed hooks",
	RunE: func(cmd *cobra.Command, args []string) error {
		deployment, err := newDeployment()
		if err != nil {
			return err
		}
		defer deployment.Repo.Close()

		installed, err := deployment.Repo.GetHooks()
		if err != nil {
			return fmt.Errorf("listing hooks: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tAUTHOR\tENABLED\tDESCRIPTION")
		for _, hook := range installed {
			fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", hook.Name, hook.Author, hook.Enabled, hook.Description)
		}
		return w.Flush()
	},
}

var hooksInstallCmd = &cobra.Command{
	Use:   "install <github-url>",
	Short: "Install a hook from its GitHub repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deployment, err := newDeployment()
		if err != nil {
			return err
		}
		defer deployment.Repo.Close()

		hook, err := deployment.InstallHook(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("installed hook %s by %s\n", hook.Name, hook.Author)
		return nil
	},
}

var hooksRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Uninstall a hook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deployment, err := newDeployment()
		if err != nil {
			return err
		}
		defer deployment.Repo.Close()

		if err := deployment.Repo.RemoveHook(args[0]); err != nil {
			return fmt.Errorf("removing hook: %w", err)
		}
		fmt.Printf("removed hook %s\n", args[0])
		return nil
	},
}

var hooksEnableCmd = &cobra.Command{
	Use:   "enable <name>",
	Short: "Enable a hook for future deployments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setHookEnabled(args[0], true)
	},
}

var hooksDisableCmd = &cobra.Command{
	Use:   "disable <name>",
	Short: "Disable a hook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setHookEnabled(args[0], false)
	},
}

func setHookEnabled(name string, enabled bool) error {
	deployment, err := newDeployment()
	if err != nil {
		return err
	}
	defer deployment.Repo.Close()

	if err := deployment.Repo.SetHookEnabled(name, enabled); err != nil {
		return fmt.Errorf("updating hook %s: %w", name, err)
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	fmt.Printf("%s hook %s\n", state, name)
	return nil
}

func init() {
	hooksCmd.AddCommand(hooksListCmd)
	hooksCmd.AddCommand(hooksInstallCmd)
	hooksCmd.AddCommand(hooksRemoveCmd)
	hooksCmd.AddCommand(hooksEnableCmd)
	hooksCmd.AddCommand(hooksDisableCmd)
	rootCmd.AddCommand(hooksCmd)
}
