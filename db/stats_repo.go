package db

import (
	"fmt"

	"github.com/tfkr-ae/gangway/domain"
)

var _ domain.StatsRepository = (*Repository)(nil)

// CountSessions returns the total number of recorded deployment sessions.
func (repo *Repository) CountSessions() (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM sessions`

	err := repo.dbConn.Get(&count, query)
	if err != nil {
		return 0, fmt.Errorf("getting session count: %w", err)
	}

	return count, nil
}

// CountCaptures returns the total number of captured exchanges across all sessions.
func (repo *Repository) CountCaptures() (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM captures`

	err := repo.dbConn.Get(&count, query)
	if err != nil {
		return 0, fmt.Errorf("getting capture count: %w", err)
	}

	return count, nil
}

// CountHooks returns the total number of installed hooks.
func (repo *Repository) CountHooks() (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM hooks`

	err := repo.dbConn.Get(&count, query)
	if err != nil {
		return 0, fmt.Errorf("getting hook count: %w", err)
	}

	return count, nil
}
