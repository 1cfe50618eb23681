// Package hooks provides the Lua-based lifecycle hook system for Gangway.
// It includes the runtime for executing Lua scripts and defines the Go
// functions exposed to the Lua environment, allowing hooks to react to
// deployment events such as startup, public URL assignment, captured
// traffic, and teardown.
package hooks
