package domain

import (
	"time"

	"github.com/google/uuid"
)

// HookRepository defines the interface for managing Lua lifecycle hooks.
// It provides methods for installing, retrieving, updating, and managing hook
// source code and settings.
type HookRepository interface {
	// GetHooks retrieves all installed hooks.
	// It returns a slice of Hook pointers.
	GetHooks() ([]*Hook, error)

	// GetHookByName retrieves a single hook by its unique name.
	// It returns an error if no hook with the specified name is found.
	GetHookByName(name string) (*Hook, error)

	// CreateHook installs a new hook with the given metadata and Lua source.
	CreateHook(name string, sourceURL string, author string, luaContent string, publishedDate time.Time, description string) error

	// RemoveHook uninstalls the hook identified by its name.
	// It returns an error if the hook does not exist.
	RemoveHook(name string) error

	// SetHookEnabled toggles whether the named hook runs during deployments.
	SetHookEnabled(name string, enabled bool) error

	// GetHookLuaCodeByName retrieves the Lua source code for a specific hook by its name.
	// It returns an error if the hook is not found.
	GetHookLuaCodeByName(name string) (string, error)

	// UpdateHookLuaCodeByName updates the Lua source code for a specific hook identified by its name.
	// It returns an error if the hook is not found.
	UpdateHookLuaCodeByName(name string, code string) error

	// GetHookSettingsByUUID retrieves the settings for a specific hook using its UUID.
	// Hook settings are returned as a map[string]any, allowing for flexible configuration.
	GetHookSettingsByUUID(id uuid.UUID) (map[string]any, error)

	// SetHookSettingsByUUID sets the settings for a specific hook using its UUID.
	// Hook settings are provided as a map[string]any.
	SetHookSettingsByUUID(id uuid.UUID, settings map[string]any) error
}

// Hook represents the domain model for a Lua-based lifecycle hook in Gangway.
// This struct holds all necessary information for the runtime to execute the
// hook, including its source code, metadata, and user-configurable settings.
type Hook struct {
	ID          uuid.UUID      // Unique identifier for the hook.
	Name        string         // The unique name of the hook.
	SourceURL   string         // The URL of the hook's source code repository.
	Author      string         // The name of the hook's author or creator.
	LuaContent  string         // The Lua source code of the hook.
	Enabled     bool           // A flag indicating whether the hook is currently active.
	Description string         // A brief description of the hook's functionality.
	Settings    map[string]any // A map of user-defined settings for the hook.
	UpdatedAt   time.Time      // The timestamp of the last update to the hook.
}
