package domain

// ConfigRepository defines the interface for managing application-level state
// that must survive between runs of the supervisor.
type ConfigRepository interface {
	// UpdateAgentPID records the process ID of the tunnel agent that the
	// supervisor last started. The PID is used on the next run to detect and
	// kill a stale agent left behind by an unclean exit.
	UpdateAgentPID(pid int) error

	// GetAgentPID retrieves the recorded tunnel agent process ID.
	// A value of zero means no agent has been recorded.
	GetAgentPID() (int, error)

	// UpdateLastPublicURL saves the public URL assigned during the most recent
	// deployment, so the CLI can show it without the agent running.
	UpdateLastPublicURL(url string) error

	// GetLastPublicURL retrieves the public URL from the most recent deployment.
	GetLastPublicURL() (string, error)
}

// StatsRepository defines the interface for retrieving various statistics about the supervisor's history.
// It provides methods for counting different types of entities within the repository.
type StatsRepository interface {
	// CountSessions returns the total number of recorded deployment sessions.
	CountSessions() (int, error)
	// CountCaptures returns the total number of captured exchanges across all sessions.
	CountCaptures() (int, error)
	// CountHooks returns the total number of installed hooks.
	CountHooks() (int, error)
}
