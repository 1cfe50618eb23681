package db

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tfkr-ae/gangway/domain"
)

var _ domain.CaptureRepository = (*Repository)(nil)

// dbCapture represents a captured exchange as stored in the database.
type dbCapture struct {
	ID          uuid.UUID `db:"id"`           // Unique identifier for the capture.
	SessionID   uuid.UUID `db:"session_id"`   // The deployment session the exchange belongs to.
	AgentID     string    `db:"agent_id"`     // The identifier assigned by the tunnel agent.
	Method      string    `db:"method"`       // HTTP method.
	URI         string    `db:"uri"`          // Request URI including query parameters.
	Proto       string    `db:"proto"`        // Protocol version reported by the agent.
	Status      string    `db:"status"`       // HTTP status text.
	StatusCode  int       `db:"status_code"`  // HTTP status code.
	ContentType string    `db:"content_type"` // Response content type.
	DurationNS  int64     `db:"duration_ns"`  // Round trip duration in nanoseconds.
	RequestRaw  RawField  `db:"request_raw"`  // Complete raw HTTP request.
	ResponseRaw RawField  `db:"response_raw"` // Complete raw HTTP response.
	Metadata    Metadata  `db:"metadata"`     // Additional data such as prettified bodies.
	CapturedAt  time.Time `db:"captured_at"`  // When the exchange started.
}

// toDomainCapture converts a dbCapture to a domain.Capture.
func toDomainCapture(dbCap *dbCapture) *domain.Capture {
	return &domain.Capture{
		ID:          dbCap.ID,
		SessionID:   dbCap.SessionID,
		AgentID:     dbCap.AgentID,
		Method:      dbCap.Method,
		URI:         dbCap.URI,
		Proto:       dbCap.Proto,
		Status:      dbCap.Status,
		StatusCode:  dbCap.StatusCode,
		ContentType: dbCap.ContentType,
		Duration:    time.Duration(dbCap.DurationNS),
		RequestRaw:  []byte(dbCap.RequestRaw),
		ResponseRaw: []byte(dbCap.ResponseRaw),
		Metadata:    map[string]any(dbCap.Metadata),
		CapturedAt:  dbCap.CapturedAt,
	}
}

// fromDomainCapture converts a domain.Capture to a dbCapture.
func fromDomainCapture(capture *domain.Capture) *dbCapture {
	return &dbCapture{
		ID:          capture.ID,
		SessionID:   capture.SessionID,
		AgentID:     capture.AgentID,
		Method:      capture.Method,
		URI:         capture.URI,
		Proto:       capture.Proto,
		Status:      capture.Status,
		StatusCode:  capture.StatusCode,
		ContentType: capture.ContentType,
		DurationNS:  int64(capture.Duration),
		RequestRaw:  RawField(capture.RequestRaw),
		ResponseRaw: RawField(capture.ResponseRaw),
		Metadata:    Metadata(capture.Metadata),
		CapturedAt:  capture.CapturedAt,
	}
}

// InsertCapture saves a captured exchange to the database.
func (repo *Repository) InsertCapture(capture *domain.Capture) error {
	dbCap := fromDomainCapture(capture)
	query := `INSERT INTO captures (id, session_id, agent_id, method, uri, proto, status, status_code, content_type, duration_ns, request_raw, response_raw, metadata, captured_at)
	          VALUES (:id, :session_id, :agent_id, :method, :uri, :proto, :status, :status_code, :content_type, :duration_ns, :request_raw, :response_raw, :metadata, :captured_at)`

	_, err := repo.dbConn.NamedExec(query, dbCap)
	if err != nil {
		return fmt.Errorf("inserting capture %s: %w", capture.ID, err)
	}

	return nil
}

// GetCaptures retrieves all captures recorded for a session, oldest first.
func (repo *Repository) GetCaptures(sessionID uuid.UUID) ([]*domain.Capture, error) {
	var dbCaptures []*dbCapture
	query := `SELECT * FROM captures WHERE session_id = ? ORDER BY captured_at ASC`

	err := repo.dbConn.Select(&dbCaptures, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("fetching captures for session %s: %w", sessionID, err)
	}

	captures := make([]*domain.Capture, len(dbCaptures))
	for i, dbCap := range dbCaptures {
		captures[i] = toDomainCapture(dbCap)
	}

	return captures, nil
}

// GetCapture retrieves a single capture by its UUID.
func (repo *Repository) GetCapture(id uuid.UUID) (*domain.Capture, error) {
	var dbCap dbCapture
	query := `SELECT * FROM captures WHERE id = ?`

	err := repo.dbConn.Get(&dbCap, query, id)
	if err != nil {
		return nil, fmt.Errorf("fetching capture %s: %w", id, err)
	}

	return toDomainCapture(&dbCap), nil
}

// HasCapture reports whether an exchange with the given agent-assigned
// identifier has already been recorded for the session.
func (repo *Repository) HasCapture(sessionID uuid.UUID, agentID string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM captures WHERE session_id = ? AND agent_id = ?`

	err := repo.dbConn.Get(&count, query, sessionID, agentID)
	if err != nil {
		return false, fmt.Errorf("checking capture %s for session %s: %w", agentID, sessionID, err)
	}

	return count > 0, nil
}
