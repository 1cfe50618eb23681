package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session status values as stored in the repository.
const (
	SessionRunning = "RUNNING" // Both children are up and the tunnel is established.
	SessionStopped = "STOPPED" // The session was torn down cleanly.
	SessionFailed  = "FAILED"  // A child exited unexpectedly or a phase failed.
)

// SessionRepository defines the interface for managing deployment sessions.
// It provides methods for recording new sessions, updating them as the
// deployment progresses, and retrieving past sessions for inspection.
type SessionRepository interface {
	// InsertSession records a new deployment session. The session is expected
	// to be in the RUNNING state with no public URL assigned yet.
	InsertSession(session *Session) error

	// UpdateSessionURL stores the public URL assigned by the tunnel agent for
	// the session identified by its UUID.
	UpdateSessionURL(id uuid.UUID, publicURL string) error

	// CloseSession marks a session as ended with the given status and records
	// the end timestamp. It returns an error if the session does not exist.
	CloseSession(id uuid.UUID, status string, endedAt time.Time) error

	// GetSessions retrieves all recorded sessions, most recent first.
	GetSessions() ([]*Session, error)

	// GetSession retrieves a single session by its UUID.
	// It returns an error if no session with the specified ID is found.
	GetSession(id uuid.UUID) (*Session, error)
}

// Session represents a single deployment run: the supervised app server and
// tunnel agent pair, from preflight to teardown.
type Session struct {
	ID        uuid.UUID      // Unique identifier for the session.
	Command   string         // The app server command line being supervised.
	Port      int            // The local port the app server listens on.
	AgentAddr string         // The address of the tunnel agent's diagnostic API.
	PublicURL string         // The public URL assigned by the tunnel agent, empty until resolved.
	Status    string         // Current session status (RUNNING, STOPPED, FAILED).
	Metadata  map[string]any // Additional context such as the agent version or advertised routes.
	StartedAt time.Time      // When the deployment started.
	EndedAt   *time.Time     // When the deployment ended, nil while running.
}
