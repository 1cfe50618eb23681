package db

import (
	"fmt"

	"github.com/tfkr-ae/gangway/domain"
)

var _ domain.ConfigRepository = (*Repository)(nil)

// UpdateAgentPID implements the domain.ConfigRepository interface.
// It records the process ID of the tunnel agent in the 'app' table so a stale
// agent can be detected and killed on the next run.
func (repo *Repository) UpdateAgentPID(pid int) error {
	query := `UPDATE app SET agent_pid = ?`
	_, err := repo.dbConn.Exec(query, pid)

	if err != nil {
		return fmt.Errorf("updating agent pid %d: %w", pid, err)
	}

	return nil
}

// GetAgentPID implements the domain.ConfigRepository interface.
// It retrieves the recorded tunnel agent process ID from the 'app' table.
func (repo *Repository) GetAgentPID() (int, error) {
	var pid int
	query := `SELECT agent_pid FROM app LIMIT 1`
	err := repo.dbConn.Get(&pid, query)

	if err != nil {
		return 0, fmt.Errorf("getting agent pid: %w", err)
	}

	return pid, nil
}

// UpdateLastPublicURL implements the domain.ConfigRepository interface.
// It saves the public URL assigned during the most recent deployment.
func (repo *Repository) UpdateLastPublicURL(url string) error {
	query := `UPDATE app SET last_public_url = ?`
	_, err := repo.dbConn.Exec(query, url)

	if err != nil {
		return fmt.Errorf("updating last public url %s: %w", url, err)
	}

	return nil
}

// GetLastPublicURL implements the domain.ConfigRepository interface.
// It retrieves the public URL from the most recent deployment.
func (repo *Repository) GetLastPublicURL() (string, error) {
	var url string
	query := `SELECT last_public_url FROM app LIMIT 1`
	err := repo.dbConn.Get(&url, query)

	if err != nil {
		return "", fmt.Errorf("getting last public url: %w", err)
	}

	return url, nil
}
