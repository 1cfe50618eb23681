package domain

import (
	"time"

	"github.com/google/uuid"
)

// CaptureRepository defines the interface for persisting HTTP exchanges
// observed by the tunnel agent's inspector during a deployment session.
type CaptureRepository interface {
	// InsertCapture saves a captured exchange to the repository.
	InsertCapture(capture *Capture) error

	// GetCaptures retrieves all captures recorded for a session, oldest first.
	GetCaptures(sessionID uuid.UUID) ([]*Capture, error)

	// GetCapture retrieves a single capture by its UUID.
	// It returns an error if no capture with the specified ID is found.
	GetCapture(id uuid.UUID) (*Capture, error)

	// HasCapture reports whether an exchange with the given agent-assigned
	// identifier has already been recorded for the session. The agent keeps a
	// bounded in-memory buffer, so polling revisits entries.
	HasCapture(sessionID uuid.UUID, agentID string) (bool, error)
}

// Capture represents one HTTP request/response pair that traversed the tunnel,
// as reported by the agent's local inspection endpoint.
type Capture struct {
	ID          uuid.UUID      // Unique identifier for the capture.
	SessionID   uuid.UUID      // The deployment session the exchange belongs to.
	AgentID     string         // The identifier assigned by the tunnel agent.
	Method      string         // HTTP method (GET, POST, etc.).
	URI         string         // Request URI including query parameters.
	Proto       string         // Protocol version reported by the agent.
	Status      string         // HTTP status text (e.g., "200 OK").
	StatusCode  int            // HTTP status code (e.g., 200, 404).
	ContentType string         // Response content type.
	Duration    time.Duration  // Round trip duration reported by the agent.
	RequestRaw  []byte         // Complete raw HTTP request.
	ResponseRaw []byte         // Complete raw HTTP response.
	Metadata    map[string]any // Additional data such as prettified bodies.
	CapturedAt  time.Time      // When the exchange started.
}
