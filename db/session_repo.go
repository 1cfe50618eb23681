package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tfkr-ae/gangway/domain"
)

var _ domain.SessionRepository = (*Repository)(nil)

// dbSession represents a deployment session as stored in the database.
type dbSession struct {
	ID        uuid.UUID      `db:"id"`         // Unique identifier for the session.
	Command   string         `db:"command"`    // The app server command line being supervised.
	Port      int            `db:"port"`       // The local port the app server listens on.
	AgentAddr string         `db:"agent_addr"` // The address of the tunnel agent's diagnostic API.
	PublicURL sql.NullString `db:"public_url"` // The public URL assigned by the tunnel agent.
	Status    string         `db:"status"`     // Current session status.
	Metadata  Metadata       `db:"metadata"`   // Additional session context.
	StartedAt time.Time      `db:"started_at"` // When the deployment started.
	EndedAt   sql.NullTime   `db:"ended_at"`   // When the deployment ended.
}

// toDomainSession converts a dbSession to a domain.Session.
func toDomainSession(dbSess *dbSession) *domain.Session {
	session := &domain.Session{
		ID:        dbSess.ID,
		Command:   dbSess.Command,
		Port:      dbSess.Port,
		AgentAddr: dbSess.AgentAddr,
		Status:    dbSess.Status,
		Metadata:  map[string]any(dbSess.Metadata),
		StartedAt: dbSess.StartedAt,
	}

	if dbSess.PublicURL.Valid {
		session.PublicURL = dbSess.PublicURL.String
	}

	if dbSess.EndedAt.Valid {
		endedAt := dbSess.EndedAt.Time
		session.EndedAt = &endedAt
	}

	return session
}

// fromDomainSession converts a domain.Session to a dbSession.
func fromDomainSession(session *domain.Session) *dbSession {
	dbSess := &dbSession{
		ID:        session.ID,
		Command:   session.Command,
		Port:      session.Port,
		AgentAddr: session.AgentAddr,
		Status:    session.Status,
		Metadata:  Metadata(session.Metadata),
		StartedAt: session.StartedAt,
	}

	if session.PublicURL != "" {
		dbSess.PublicURL = sql.NullString{String: session.PublicURL, Valid: true}
	}

	if session.EndedAt != nil {
		dbSess.EndedAt = sql.NullTime{Time: *session.EndedAt, Valid: true}
	}

	return dbSess
}

// InsertSession records a new deployment session in the database.
func (repo *Repository) InsertSession(session *domain.Session) error {
	dbSess := fromDomainSession(session)
	query := `INSERT INTO sessions (id, command, port, agent_addr, public_url, status, metadata, started_at, ended_at)
	          VALUES (:id, :command, :port, :agent_addr, :public_url, :status, :metadata, :started_at, :ended_at)`

	_, err := repo.dbConn.NamedExec(query, dbSess)
	if err != nil {
		return fmt.Errorf("inserting session %s: %w", session.ID, err)
	}

	return nil
}

// UpdateSessionURL stores the public URL assigned by the tunnel agent.
func (repo *Repository) UpdateSessionURL(id uuid.UUID, publicURL string) error {
	query := `UPDATE sessions SET public_url = ? WHERE id = ?`

	result, err := repo.dbConn.Exec(query, publicURL, id)
	if err != nil {
		return fmt.Errorf("updating session %s url: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows for session %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("session %s not found", id)
	}

	return nil
}

// CloseSession marks a session as ended with the given status.
func (repo *Repository) CloseSession(id uuid.UUID, status string, endedAt time.Time) error {
	query := `UPDATE sessions SET status = ?, ended_at = ? WHERE id = ?`

	result, err := repo.dbConn.Exec(query, status, endedAt, id)
	if err != nil {
		return fmt.Errorf("closing session %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows for session %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("session %s not found", id)
	}

	return nil
}

// GetSessions retrieves all recorded sessions, most recent first.
func (repo *Repository) GetSessions() ([]*domain.Session, error) {
	var dbSessions []*dbSession
	query := `SELECT * FROM sessions ORDER BY started_at DESC`

	err := repo.dbConn.Select(&dbSessions, query)
	if err != nil {
		return nil, fmt.Errorf("fetching all sessions: %w", err)
	}

	sessions := make([]*domain.Session, len(dbSessions))
	for i, dbSess := range dbSessions {
		sessions[i] = toDomainSession(dbSess)
	}

	return sessions, nil
}

// GetSession retrieves a single session by its UUID.
func (repo *Repository) GetSession(id uuid.UUID) (*domain.Session, error) {
	var dbSess dbSession
	query := `SELECT * FROM sessions WHERE id = ?`

	err := repo.dbConn.Get(&dbSess, query, id)
	if err != nil {
		return nil, fmt.Errorf("fetching session %s: %w", id, err)
	}

	return toDomainSession(&dbSess), nil
}
