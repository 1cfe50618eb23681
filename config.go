package gangway

import (
	"errors"
	"fmt"
	"os"
	"path"
	"slices"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// AgentPathConfig holds a user supplied tunnel agent location for one OS.
type AgentPathConfig struct {
	OS   string `mapstructure:"os"`   // OS for the given path
	Path string `mapstructure:"path"` // Custom agent binary path
}

// Config holds the persisted supervisor configuration, managed through viper.
type Config struct {
	viper          *viper.Viper
	ConfigDir      string            `mapstructure:"config_dir"`      // Current config dir
	DesktopOS      string            `mapstructure:"desktop_os"`      // Operating system identifier
	AgentDirs      []AgentPathConfig `mapstructure:"agent_dirs"`      // Custom tunnel agent locations
	ServerCommand  string            `mapstructure:"server_command"`  // Command line that starts the app server
	Port           int               `mapstructure:"port"`            // Local port the app server listens on
	AgentAPIAddr   string            `mapstructure:"agent_api_addr"`  // Address of the agent's diagnostic API
	AuthToken      string            `mapstructure:"auth_token"`      // Tunnel provider auth token
	HealthPath     string            `mapstructure:"health_path"`     // Diagnostic route used to confirm server startup
	Routes         []string          `mapstructure:"routes"`          // Routes advertised in the deployment banner
	CaptureEnabled bool              `mapstructure:"capture_enabled"` // Whether inspector traffic is recorded
}

// AddAgentPath registers a custom tunnel agent location for the given OS and
// persists the updated configuration.
func (cfg *Config) AddAgentPath(path, os string) error {
	switch os {
	case "darwin", "linux", "windows":
		cfg.AgentDirs = append(cfg.AgentDirs, AgentPathConfig{OS: os, Path: path})
		cfg.viper.Set("agent_dirs", cfg.AgentDirs)
		if err := cfg.viper.WriteConfig(); err != nil {
			return fmt.Errorf("failed to save configuration: %w", err)
		}
		if err := cfg.viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("unmarshalling config to struct : %w", err)
		}
	default:
		return errors.New("invalid os string")
	}
	return nil
}

// DeleteAgentPath removes a custom tunnel agent location and persists the
// updated configuration.
func (cfg *Config) DeleteAgentPath(path, os string) error {
	agentPath := AgentPathConfig{OS: os, Path: path}
	cfg.AgentDirs = slices.DeleteFunc(cfg.AgentDirs, func(c AgentPathConfig) bool {
		return c.OS == agentPath.OS && c.Path == agentPath.Path
	})
	cfg.viper.Set("agent_dirs", cfg.AgentDirs)
	if err := cfg.viper.WriteConfig(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	if err := cfg.viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("unmarshalling config to struct : %w", err)
	}
	return nil
}

// agentTunnel is one tunnel definition in the generated agent config file.
type agentTunnel struct {
	Proto string `yaml:"proto"`
	Addr  int    `yaml:"addr"`
}

// agentConfig mirrors the tunnel agent's own YAML configuration format.
// The supervisor always generates this file rather than editing a user's
// existing agent config, so a run never leaks state between deployments.
type agentConfig struct {
	Version   string                 `yaml:"version"`
	AuthToken string                 `yaml:"authtoken,omitempty"`
	WebAddr   string                 `yaml:"web_addr"`
	LogLevel  string                 `yaml:"log_level"`
	Tunnels   map[string]agentTunnel `yaml:"tunnels"`
}

// WriteAgentConfig renders the agent configuration for this deployment into
// the config directory and returns the file path. The auth token is written
// into the file instead of being passed on the command line, so it never
// shows up in argv.
func (cfg *Config) WriteAgentConfig() (string, error) {
	agentCfg := agentConfig{
		Version:   "2",
		AuthToken: cfg.AuthToken,
		WebAddr:   cfg.AgentAPIAddr,
		LogLevel:  "info",
		Tunnels: map[string]agentTunnel{
			"gangway": {
				Proto: "http",
				Addr:  cfg.Port,
			},
		},
	}

	rendered, err := yaml.Marshal(agentCfg)
	if err != nil {
		return "", fmt.Errorf("marshalling agent config : %w", err)
	}

	configPath := path.Join(cfg.ConfigDir, agentConfigFile)
	if err := os.WriteFile(configPath, rendered, 0600); err != nil {
		return "", fmt.Errorf("writing agent config %s : %w", configPath, err)
	}
	return configPath, nil
}
