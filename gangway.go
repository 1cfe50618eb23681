// Package gangway supervises the deployment of a local demonstration HTTP API
// to the public internet through a tunnel agent. It is designed to be
// decoupled from CLI implementations and provides methods to load handlers
// for building deployment tooling around two supervised child processes: the
// app server and the tunnel agent.
//
// The core functionality includes:
//   - Preflight checks for the agent binary, local ports, and config directory
//   - App server subprocess supervision with health-check polling
//   - Tunnel agent subprocess supervision with generated agent configuration
//   - Bounded polling of the agent's local diagnostic API for the public URL
//   - Traffic capture from the agent inspector into SQLite storage
//   - Lua-based hook system for deployment lifecycle events
//   - Signal-based teardown that never leaves orphaned processes
package gangway

import (
	"fmt"
	"log/slog"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tfkr-ae/gangway/domain"
	"github.com/tfkr-ae/gangway/hooks"
)

const (
	agentConfigFile = "agent.yml"  // Generated tunnel agent config file name
	dbFile          = "gangway.db" // History database file name
	agentBinary     = "ngrok"      // Tunnel agent binary name
)

// DBPath returns the history database location under a config directory.
func DBPath(configDir string) string {
	return path.Join(configDir, dbFile)
}

// Repository defines the methods consumed by the supervisor to interact with the SQLite backend.
// It provides an abstraction layer for all database operations including session management,
// capture storage, hook management, logging, and persisted application state.
type Repository interface {
	InsertSession(session *domain.Session) error
	UpdateSessionURL(id uuid.UUID, publicURL string) error
	CloseSession(id uuid.UUID, status string, endedAt time.Time) error
	GetSessions() ([]*domain.Session, error)
	GetSession(id uuid.UUID) (*domain.Session, error)
	InsertCapture(capture *domain.Capture) error
	GetCaptures(sessionID uuid.UUID) ([]*domain.Capture, error)
	GetCapture(id uuid.UUID) (*domain.Capture, error)
	HasCapture(sessionID uuid.UUID, agentID string) (bool, error)
	InsertLog(log *domain.Log) error
	GetLogs() ([]*domain.Log, error)
	GetSessionLogs(sessionID uuid.UUID) ([]*domain.Log, error)
	GetHooks() ([]*domain.Hook, error)
	GetHookByName(name string) (*domain.Hook, error)
	CreateHook(name string, sourceURL string, author string, luaContent string, publishedDate time.Time, description string) error
	RemoveHook(name string) error
	SetHookEnabled(name string, enabled bool) error
	GetHookLuaCodeByName(name string) (string, error)
	UpdateHookLuaCodeByName(name string, code string) error
	GetHookSettingsByUUID(id uuid.UUID) (map[string]any, error)
	SetHookSettingsByUUID(id uuid.UUID, settings map[string]any) error
	UpdateAgentPID(pid int) error
	GetAgentPID() (int, error)
	UpdateLastPublicURL(url string) error
	GetLastPublicURL() (string, error)
	CountSessions() (int, error)
	CountCaptures() (int, error)
	CountHooks() (int, error)
	Close() error
}

// Deployment is the main struct that orchestrates a deployment run: preflight
// checks, the two supervised child processes, public URL resolution, traffic
// capture, and teardown. It serves as the central coordinator for the Gangway
// supervisor.
type Deployment struct {
	ConfigDir      string            // The configuration directory (defaults to the gangway folder under the user configuration directory)
	Config         *Config           // The supervisor configuration (separate from any CLI config)
	Repo           Repository        // DB Repository Interface
	Logger         *slog.Logger      // Operational logger for process output and progress
	HistoryChannel chan any          // Async write channel for the history store
	Session        *domain.Session   // The session being supervised, nil before Run
	Server         *ServerProcess    // The app server child process
	Agent          *AgentProcess     // The tunnel agent child process
	AgentAPI       *AgentClient      // Client for the agent's local diagnostic API
	Hooks          []*hooks.Runtime  // Loaded lifecycle hook runtimes

	OnLog       func(log *domain.Log) error         // Function to be ran on each log entry - used by frontends to surface new logs
	OnPublicURL func(publicURL string) error        // Function to be ran once the public URL is resolved
	OnCapture   func(capture *domain.Capture) error // Function to be ran on each captured exchange

	teardownOnce sync.Once
}

// New creates a new Deployment instance with default configuration and applies any provided options.
// It initializes the history write channel, the hook slice, and the operational logger.
//
// Parameters:
//   - options: Variadic list of option functions to configure the deployment
//
// Returns:
//   - *Deployment: Configured deployment instance
//   - error: Configuration error if any option fails
func New(options ...func(*Deployment) error) (*Deployment, error) {
	deployment := &Deployment{
		Logger:         slog.Default(),
		HistoryChannel: make(chan any, 10),
		Hooks:          make([]*hooks.Runtime, 0),
	}
	err := deployment.WithOptions(options...)
	if err != nil {
		return nil, err
	}
	return deployment, nil
}

// WriteHistory drains the history channel and persists each item.
// It is started as a goroutine by Run and lives for the rest of the process.
func (deployment *Deployment) WriteHistory() {
	for item := range deployment.HistoryChannel {
		switch castItem := item.(type) {
		case *domain.Capture:
			err := deployment.Repo.InsertCapture(castItem)
			if err != nil {
				deployment.Logger.Error("inserting capture", "error", err)
				continue
			}
			if deployment.OnCapture != nil {
				if err := deployment.OnCapture(castItem); err != nil {
					deployment.Logger.Error("capture handler", "error", err)
				}
			}
		case *domain.Log:
			err := deployment.Repo.InsertLog(castItem)
			if err != nil {
				deployment.Logger.Error("inserting log", "error", err)
				continue
			}
			if deployment.OnLog != nil {
				if err := deployment.OnLog(castItem); err != nil {
					deployment.Logger.Error("log handler", "error", err)
				}
			}
		default:
			deployment.Logger.Warn("unknown history item", "item", castItem)
		}
	}
}

// WriteLog records a structured log entry in the history store. The entry is
// automatically associated with the running session when one exists.
func (deployment *Deployment) WriteLog(level string, message string, options ...func(log *domain.Log) error) error {
	switch level {
	case "DEBUG":
	case "INFO":
	case "WARN":
	case "ERROR":
	case "FATAL":
	default:
		return fmt.Errorf("level should be either: debug, info, warn, error, fatal")
	}
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generating new uuid : %w", err)
	}
	entry := &domain.Log{
		ID:        id,
		Level:     level,
		Message:   message,
		Timestamp: time.Now(),
		Context:   make(map[string]any),
	}
	if deployment.Session != nil {
		sessionID := deployment.Session.ID
		entry.SessionID = &sessionID
	}
	for _, option := range options {
		err := option(entry)
		if err != nil {
			return fmt.Errorf("applying log option : %w", err)
		}
	}
	deployment.HistoryChannel <- entry
	return nil
}

// GetHookRepo implements the hooks.DeployService interface.
func (deployment *Deployment) GetHookRepo() (domain.HookRepository, error) {
	if deployment.Repo == nil {
		return nil, fmt.Errorf("deployment has no repo")
	}
	return deployment.Repo, nil
}

// GetConfigDir implements the hooks.DeployService interface.
func (deployment *Deployment) GetConfigDir() (string, error) {
	if deployment.ConfigDir == "" {
		return "", fmt.Errorf("config dir not set")
	}
	return deployment.ConfigDir, nil
}

// GetHook returns the loaded hook runtime with the given name.
func (deployment *Deployment) GetHook(name string) (*hooks.Runtime, bool) {
	for _, hook := range deployment.Hooks {
		if hook.Hook.Name == name {
			return hook, true
		}
	}
	return nil, false
}

// DispatchHooks runs an event across every loaded hook. A failing hook is
// logged and skipped so one broken script cannot stall a deployment.
func (deployment *Deployment) DispatchHooks(event string, payload map[string]any) {
	for _, hook := range deployment.Hooks {
		if err := hook.Dispatch(event, payload); err != nil {
			deployment.Logger.Error("dispatching hook event", "hook", hook.Hook.Name, "event", event, "error", err)
		}
	}
}
