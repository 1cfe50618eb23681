package gangway

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/viper"
	"github.com/tfkr-ae/gangway/domain"
	"github.com/tfkr-ae/gangway/hooks"
)

// WithOptions applies a series of configuration functions to the deployment instance.
// Each option function can modify the deployment configuration and return an error if it fails.
//
// Parameters:
//   - options: Variadic list of configuration functions
//
// Returns:
//   - error: First error encountered from any option function
func (deployment *Deployment) WithOptions(options ...func(*Deployment) error) error {
	for _, option := range options {
		err := option(deployment)
		if err != nil {
			return fmt.Errorf("applying option on gangway : %w", err)
		}
	}
	return nil
}

// WithConfigDir configures the deployment to use the specified configuration directory.
// It creates the directory if it doesn't exist and initializes the configuration file using Viper.
//
// Parameters:
//   - appConfigDir: Path to the configuration directory
//
// Returns:
//   - func(*Deployment) error: Configuration function that sets up the config directory
func WithConfigDir(appConfigDir string) func(*Deployment) error {
	return func(deployment *Deployment) error {
		_, err := os.ReadDir(appConfigDir)
		if err != nil {
			if os.IsNotExist(err) {
				deployment.Logger.Info("creating config dir", "dir", appConfigDir)
				err := os.MkdirAll(appConfigDir, 0700)
				if err != nil {
					return fmt.Errorf("creating config dir %s: %w", appConfigDir, err)
				}
			} else {
				return fmt.Errorf("checking if directory exists %s: %w", appConfigDir, err)
			}
		}
		// At this point, the directory exists or was created successfully
		deployment.ConfigDir = appConfigDir

		// VIPER
		v := viper.New()
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(appConfigDir)
		v.SetDefault("server_command", "uvicorn main:app --host 127.0.0.1 --port 8000")
		v.SetDefault("port", 8000)
		v.SetDefault("agent_api_addr", "127.0.0.1:4040")
		v.SetDefault("health_path", "/health")
		v.SetDefault("routes", []string{"/", "/users", "/items"})
		v.SetDefault("capture_enabled", true)
		err = v.ReadInConfig()
		if err != nil {
			// need to check if the error is config file doesn't exist
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				// Config file is not found
				err = v.SafeWriteConfig()
				if err != nil {
					return fmt.Errorf("writing config file : %w", err)
				}
			} else {
				return fmt.Errorf("reading config file : %w", err)
			}
		}
		if err := v.Unmarshal(&deployment.Config); err != nil {
			return fmt.Errorf("unmarshalling config to struct : %w", err)
		}

		deployment.Config.viper = v
		deployment.Config.ConfigDir = appConfigDir
		deployment.Config.DesktopOS = runtime.GOOS
		v.Set("config_dir", appConfigDir)
		v.Set("desktop_os", runtime.GOOS)
		// Rewrite entire file from struct
		err = v.WriteConfig()
		if err != nil {
			return fmt.Errorf("writing config after unmarshalling : %w", err)
		}
		return nil
	}
}

// WithLogger sets the operational logger used for process output and progress
// messages. A nil logger keeps the default.
func WithLogger(logger *slog.Logger) func(*Deployment) error {
	return func(deployment *Deployment) error {
		if logger == nil {
			return nil
		}
		deployment.Logger = logger
		return nil
	}
}

// WithRepo will take the Repository interface and set it on the deployment,
// closing any previously configured repository first.
func WithRepo(repo Repository) func(*Deployment) error {
	return func(deployment *Deployment) error {
		// First we need to check if there is a repo
		if deployment.Repo != nil {
			if err := deployment.Repo.Close(); err != nil {
				return err
			}
			deployment.Repo = nil
		}
		deployment.Repo = repo
		return nil
	}
}

// WithServerCommand overrides the configured app server command line.
func WithServerCommand(command string) func(*Deployment) error {
	return func(deployment *Deployment) error {
		if deployment.Config == nil {
			return errors.New("config not loaded, apply WithConfigDir first")
		}
		if command != "" {
			deployment.Config.ServerCommand = command
		}
		return nil
	}
}

// WithPort overrides the configured app server port.
func WithPort(port int) func(*Deployment) error {
	return func(deployment *Deployment) error {
		if deployment.Config == nil {
			return errors.New("config not loaded, apply WithConfigDir first")
		}
		if port < 0 || port > 65535 {
			return fmt.Errorf("invalid port %d", port)
		}
		if port != 0 {
			deployment.Config.Port = port
		}
		return nil
	}
}

// WithAuthToken sets the tunnel provider auth token for this run. The token
// ends up in the generated agent config file only.
func WithAuthToken(token string) func(*Deployment) error {
	return func(deployment *Deployment) error {
		if deployment.Config == nil {
			return errors.New("config not loaded, apply WithConfigDir first")
		}
		if token != "" {
			deployment.Config.AuthToken = token
		}
		return nil
	}
}

// WithCaptureDisabled turns off inspector traffic recording for this run.
func WithCaptureDisabled() func(*Deployment) error {
	return func(deployment *Deployment) error {
		if deployment.Config == nil {
			return errors.New("config not loaded, apply WithConfigDir first")
		}
		deployment.Config.CaptureEnabled = false
		return nil
	}
}

// WithHook loads a single hook runtime into the deployment.
func WithHook(hook *hooks.Runtime) func(*Deployment) error {
	return func(deployment *Deployment) error {
		if _, ok := deployment.GetHook(hook.Hook.Name); !ok {
			deployment.Hooks = append(deployment.Hooks, hook)
		}
		return nil
	}
}

// WithHooks loads every enabled hook from the repository. Hooks that fail to
// compile are skipped with a log entry so a broken script cannot prevent a
// deployment.
func WithHooks() func(*Deployment) error {
	return func(deployment *Deployment) error {
		if deployment.Repo == nil {
			return errors.New("repo not set, apply WithRepo first")
		}
		installed, err := deployment.Repo.GetHooks()
		if err != nil {
			return fmt.Errorf("getting all hooks : %w", err)
		}
		for _, hook := range installed {
			if !hook.Enabled {
				continue
			}
			if _, ok := deployment.GetHook(hook.Name); ok {
				continue
			}
			runtime, err := hooks.NewRuntime(hook, deployment)
			if err != nil {
				deployment.Logger.Error("preparing hook", "hook", hook.Name, "error", err)
				continue
			}
			deployment.Hooks = append(deployment.Hooks, runtime)
		}
		return nil
	}
}

// WithLogHandler takes a handler function that will be executed on each Log
func WithLogHandler(handler func(log *domain.Log) error) func(*Deployment) error {
	return func(deployment *Deployment) error {
		if deployment.OnLog != nil {
			return errors.New("deployment already has a log handler defined")
		}
		deployment.OnLog = handler
		return nil
	}
}

// WithCaptureHandler takes a handler function that will be executed on each
// captured exchange.
func WithCaptureHandler(handler func(capture *domain.Capture) error) func(*Deployment) error {
	return func(deployment *Deployment) error {
		if deployment.OnCapture != nil {
			return errors.New("deployment already has a capture handler defined")
		}
		deployment.OnCapture = handler
		return nil
	}
}

// WithPublicURLHandler takes a handler function that will be executed once the
// public URL is resolved.
func WithPublicURLHandler(handler func(publicURL string) error) func(*Deployment) error {
	return func(deployment *Deployment) error {
		if deployment.OnPublicURL != nil {
			return errors.New("deployment already has a public URL handler defined")
		}
		deployment.OnPublicURL = handler
		return nil
	}
}
