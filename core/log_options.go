// Package core provides fundamental utilities for the Gangway supervisor.
// This file contains option functions for customizing log entries.
package core

import (
	"github.com/google/uuid"
	"github.com/tfkr-ae/gangway/domain"
)

// LogWithContext is an option to add a context map to a log entry.
func LogWithContext(context map[string]any) func(log *domain.Log) error {
	return func(log *domain.Log) error {
		log.Context = context
		return nil
	}
}

// LogWithSessionID is an option to associate a log entry with a deployment session.
func LogWithSessionID(id uuid.UUID) func(log *domain.Log) error {
	return func(log *domain.Log) error {
		log.SessionID = &id
		return nil
	}
}

// LogWithHookID is an option to associate a log entry with a hook.
func LogWithHookID(id uuid.UUID) func(log *domain.Log) error {
	return func(log *domain.Log) error {
		log.HookID = &id
		return nil
	}
}
