package db

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tfkr-ae/gangway/domain"
)

var _ domain.HookRepository = (*Repository)(nil)

// dbHook represents the structure of a hook as stored in the database.
// It uses the Metadata type for its settings field to handle JSON serialization.
type dbHook struct {
	ID          uuid.UUID `db:"id"`
	Name        string    `db:"name"`
	SourceURL   string    `db:"source_url"`
	Author      string    `db:"author"`
	LuaContent  string    `db:"lua_content"`
	Enabled     bool      `db:"enabled"`
	Description string    `db:"description"`
	Settings    Metadata  `db:"settings"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// toDomainHook converts a dbHook struct to its domain.Hook representation.
func toDomainHook(dbHook *dbHook) *domain.Hook {
	return &domain.Hook{
		ID:          dbHook.ID,
		Name:        dbHook.Name,
		SourceURL:   dbHook.SourceURL,
		Author:      dbHook.Author,
		LuaContent:  dbHook.LuaContent,
		Enabled:     dbHook.Enabled,
		Description: dbHook.Description,
		Settings:    map[string]any(dbHook.Settings),
		UpdatedAt:   dbHook.UpdatedAt,
	}
}

// GetHooks implements the domain.HookRepository interface.
// It retrieves all hooks from the database and converts them to domain.Hook objects.
func (repo *Repository) GetHooks() ([]*domain.Hook, error) {
	var dbHooks []*dbHook
	query := `SELECT * FROM hooks ORDER BY name ASC`

	err := repo.dbConn.Select(&dbHooks, query)
	if err != nil {
		return nil, fmt.Errorf("fetching all hooks: %w", err)
	}

	domainHooks := make([]*domain.Hook, len(dbHooks))

	for i, dbHook := range dbHooks {
		domainHooks[i] = toDomainHook(dbHook)
	}
	return domainHooks, nil
}

// GetHookByName implements the domain.HookRepository interface.
// It retrieves a single hook by its name and converts it to a domain.Hook object.
func (repo *Repository) GetHookByName(name string) (*domain.Hook, error) {
	var dbHook dbHook
	query := `SELECT * FROM hooks WHERE name = ?`

	err := repo.dbConn.Get(&dbHook, query, name)
	if err != nil {
		return nil, fmt.Errorf("fetching hook %s: %w", name, err)
	}

	return toDomainHook(&dbHook), nil
}

// CreateHook implements the domain.HookRepository interface.
// It installs a new hook with a freshly generated UUID and default settings.
func (repo *Repository) CreateHook(name string, sourceURL string, author string, luaContent string, publishedDate time.Time, description string) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generating hook uuid : %w", err)
	}

	query := `INSERT INTO hooks (id, name, source_url, author, lua_content, enabled, description, settings, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, '{}', ?)`

	_, err = repo.dbConn.Exec(query, id, name, sourceURL, author, luaContent, true, description, publishedDate)
	if err != nil {
		return fmt.Errorf("creating hook %s: %w", name, err)
	}

	return nil
}

// RemoveHook implements the domain.HookRepository interface.
// It uninstalls the hook identified by its name.
func (repo *Repository) RemoveHook(name string) error {
	query := `DELETE FROM hooks WHERE name = ?`

	result, err := repo.dbConn.Exec(query, name)
	if err != nil {
		return fmt.Errorf("removing hook %s: %w", name, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows for hook %s: %w", name, err)
	}
	if affected == 0 {
		return fmt.Errorf("hook %s not found", name)
	}

	return nil
}

// SetHookEnabled implements the domain.HookRepository interface.
// It toggles whether the named hook runs during deployments.
func (repo *Repository) SetHookEnabled(name string, enabled bool) error {
	query := `UPDATE hooks SET enabled = ? WHERE name = ?`

	result, err := repo.dbConn.Exec(query, enabled, name)
	if err != nil {
		return fmt.Errorf("setting hook %s enabled state: %w", name, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows for hook %s: %w", name, err)
	}
	if affected == 0 {
		return fmt.Errorf("hook %s not found", name)
	}

	return nil
}

// GetHookLuaCodeByName implements the domain.HookRepository interface.
// It retrieves the Lua source code of a hook by its name.
func (repo *Repository) GetHookLuaCodeByName(name string) (string, error) {
	var code string
	query := `SELECT lua_content FROM hooks WHERE name = ?`

	err := repo.dbConn.Get(&code, query, name)
	if err != nil {
		return "", fmt.Errorf("getting hook %s code: %w", name, err)
	}

	return code, nil
}

// UpdateHookLuaCodeByName implements the domain.HookRepository interface.
// It updates the Lua source code of an existing hook identified by its name.
func (repo *Repository) UpdateHookLuaCodeByName(name string, code string) error {
	query := `UPDATE hooks SET lua_content = ?, updated_at = ? WHERE name = ?`

	_, err := repo.dbConn.Exec(query, code, time.Now(), name)

	if err != nil {
		return fmt.Errorf("updating hook %s code: %w", name, err)
	}

	return nil
}

// GetHookSettingsByUUID implements the domain.HookRepository interface.
// It retrieves the settings of a hook by its UUID.
func (repo *Repository) GetHookSettingsByUUID(id uuid.UUID) (map[string]any, error) {
	var settings Metadata
	query := `SELECT settings FROM hooks WHERE id = ?`

	err := repo.dbConn.Get(&settings, query, id)
	if err != nil {
		return nil, fmt.Errorf("fetching hook %s settings: %w", id, err)
	}

	return map[string]any(settings), nil
}

// SetHookSettingsByUUID implements the domain.HookRepository interface.
// It updates the settings of an existing hook identified by its UUID.
func (repo *Repository) SetHookSettingsByUUID(id uuid.UUID, settings map[string]any) error {
	dbSettings := Metadata(settings)
	query := `UPDATE hooks SET settings = ? WHERE id = ?`

	_, err := repo.dbConn.Exec(query, dbSettings, id)
	if err != nil {
		return fmt.Errorf("setting hook %s settings: %w", id, err)
	}

	return nil
}
