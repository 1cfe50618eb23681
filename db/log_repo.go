package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tfkr-ae/gangway/domain"
)

var _ domain.LogRepository = (*Repository)(nil)

// dbLog represents a log entry as stored in the database.
type dbLog struct {
	ID        uuid.UUID      `db:"id"`         // Unique identifier for the log entry.
	Timestamp time.Time      `db:"timestamp"`  // The time at which the log entry was created.
	Level     string         `db:"level"`      // The severity level of the log.
	Message   string         `db:"message"`    // The main content of the log message.
	Context   Metadata       `db:"context"`    // A map of additional key-value data for structured logging.
	SessionID sql.NullString `db:"session_id"` // An optional ID of the associated deployment session.
	HookID    sql.NullString `db:"hook_id"`    // An optional ID of an associated hook.
}

// toDomainLog converts a dbLog to a domain.Log.
func toDomainLog(dbLog *dbLog) *domain.Log {
	log := &domain.Log{
		ID:        dbLog.ID,
		Timestamp: dbLog.Timestamp,
		Level:     dbLog.Level,
		Message:   dbLog.Message,
		Context:   map[string]any(dbLog.Context),
	}

	if dbLog.SessionID.Valid {
		if id, err := uuid.Parse(dbLog.SessionID.String); err == nil {
			log.SessionID = &id
		}
	}

	if dbLog.HookID.Valid {
		if id, err := uuid.Parse(dbLog.HookID.String); err == nil {
			log.HookID = &id
		}
	}

	return log
}

// fromDomainLog converts a domain.Log to a dbLog.
func fromDomainLog(log *domain.Log) *dbLog {
	dbLog := &dbLog{
		ID:        log.ID,
		Timestamp: log.Timestamp,
		Level:     log.Level,
		Message:   log.Message,
		Context:   Metadata(log.Context),
	}

	if log.SessionID != nil {
		dbLog.SessionID = sql.NullString{String: log.SessionID.String(), Valid: true}
	}

	if log.HookID != nil {
		dbLog.HookID = sql.NullString{String: log.HookID.String(), Valid: true}
	}

	return dbLog
}

// InsertLog saves a new log entry to the database.
func (repo *Repository) InsertLog(log *domain.Log) error {
	dbLog := fromDomainLog(log)
	query := `INSERT INTO logs (id, level, timestamp, message, context, session_id, hook_id)
	          VALUES (:id, :level, :timestamp, :message, :context, :session_id, :hook_id)`

	_, err := repo.dbConn.NamedExec(query, dbLog)
	if err != nil {
		return fmt.Errorf("inserting log %s: %w", log.ID, err)
	}

	return nil
}

// GetLogs retrieves all log entries from the database.
func (repo *Repository) GetLogs() ([]*domain.Log, error) {
	var dbLogs []*dbLog
	query := `SELECT * FROM logs`

	err := repo.dbConn.Select(&dbLogs, query)
	if err != nil {
		return nil, fmt.Errorf("fetching all logs: %w", err)
	}

	domainLogs := make([]*domain.Log, len(dbLogs))
	for i, dbLog := range dbLogs {
		domainLogs[i] = toDomainLog(dbLog)
	}

	return domainLogs, nil
}

// GetSessionLogs retrieves the log entries recorded for a single session.
func (repo *Repository) GetSessionLogs(sessionID uuid.UUID) ([]*domain.Log, error) {
	var dbLogs []*dbLog
	query := `SELECT * FROM logs WHERE session_id = ? ORDER BY timestamp ASC`

	err := repo.dbConn.Select(&dbLogs, query, sessionID.String())
	if err != nil {
		return nil, fmt.Errorf("fetching logs for session %s: %w", sessionID, err)
	}

	domainLogs := make([]*domain.Log, len(dbLogs))
	for i, dbLog := range dbLogs {
		domainLogs[i] = toDomainLog(dbLog)
	}

	return domainLogs, nil
}
