package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

func init() {
	goose.AddMigrationContext(upUppercaseStatus, downUppercaseStatus)
}

// Early builds stored session status values in lower case and log levels in
// mixed case. Repositories now compare against the upper case constants, so
// existing rows are rewritten in place.
func upUppercaseStatus(ctx context.Context, tx *sql.Tx) error {
	rows, err := tx.Query("SELECT id, status FROM sessions")
	if err != nil {
		return fmt.Errorf("getting all sessions: %w", err)
	}
	defer rows.Close()

	type entry struct {
		id     string
		status string
	}
	var entries []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.id, &e.status); err != nil {
			return fmt.Errorf("scanning session row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating sessions: %w", err)
	}

	for _, e := range entries {
		upper := strings.ToUpper(e.status)
		if upper == e.status {
			continue
		}
		_, err = tx.Exec("UPDATE sessions SET status = ? WHERE id = ?", upper, e.id)
		if err != nil {
			return fmt.Errorf("updating session %s : %w", e.id, err)
		}
	}

	_, err = tx.Exec("UPDATE logs SET level = UPPER(level)")
	if err != nil {
		return fmt.Errorf("uppercasing log levels : %w", err)
	}
	return nil
}

func downUppercaseStatus(ctx context.Context, tx *sql.Tx) error {
	// Lower casing everything back is lossless for the known values.
	_, err := tx.Exec("UPDATE sessions SET status = LOWER(status)")
	if err != nil {
		return fmt.Errorf("lowercasing session status for rollback: %w", err)
	}
	_, err = tx.Exec("UPDATE logs SET level = LOWER(level)")
	if err != nil {
		return fmt.Errorf("lowercasing log levels for rollback: %w", err)
	}
	return nil
}
