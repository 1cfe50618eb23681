package hooks

import (
	"fmt"

	"github.com/Shopify/go-lua"
	"github.com/Shopify/goluago/util"
	"github.com/tfkr-ae/gangway/domain"
)

// DeployService defines the supervisor functionality available to hooks.
// It is implemented by the root Deployment type and mocked in tests.
type DeployService interface {
	// WriteLog writes a structured log entry to the history store.
	WriteLog(level string, message string, options ...func(log *domain.Log) error) error

	// GetHookRepo returns the repository used for hook settings persistence.
	GetHookRepo() (domain.HookRepository, error)

	// GetConfigDir returns the supervisor's configuration directory.
	GetConfigDir() (string, error)
}

// Runtime holds a single hook and its isolated Lua state. Each hook gets its
// own state so a misbehaving script cannot corrupt another hook's globals.
type Runtime struct {
	Hook     *domain.Hook // The hook being executed
	LuaState *lua.State   // The sandboxed Lua state
}

// NewRuntime creates a runtime for a hook and prepares its Lua state. The
// hook's source is executed once so its event functions are defined before
// the first dispatch.
func NewRuntime(hook *domain.Hook, service DeployService, options ...func(*Runtime) error) (*Runtime, error) {
	runtime := &Runtime{Hook: hook}
	if err := runtime.PrepareState(service, options); err != nil {
		return nil, fmt.Errorf("preparing state for hook %s : %w", hook.Name, err)
	}
	return runtime, nil
}

// PrepareState builds the sandboxed Lua state, registers the gangway library,
// and executes the hook source.
func (runtime *Runtime) PrepareState(service DeployService, options []func(*Runtime) error) error {
	if runtime.Hook == nil {
		return fmt.Errorf("runtime has no hook")
	}
	l := newSandboxedState()
	registerGangwayLibrary(l, service)
	setHookID(l, runtime.Hook.ID)
	runtime.LuaState = l

	for _, option := range options {
		if err := option(runtime); err != nil {
			return fmt.Errorf("applying runtime option : %w", err)
		}
	}

	if runtime.Hook.LuaContent != "" {
		if err := runtime.ExecuteLua(runtime.Hook.LuaContent); err != nil {
			return fmt.Errorf("executing hook source : %w", err)
		}
	}
	return nil
}

// ExecuteLua runs a chunk of Lua code in the hook's state.
func (runtime *Runtime) ExecuteLua(code string) error {
	if runtime.LuaState == nil {
		return fmt.Errorf("lua state not prepared")
	}
	if err := lua.DoString(runtime.LuaState, code); err != nil {
		return fmt.Errorf("executing lua code : %w", err)
	}
	return nil
}

// Dispatch invokes the hook's handler for an event if the script defines one.
// Events map to global Lua functions: on_start, on_public_url, on_exchange,
// and on_stop. A hook that does not define the handler is skipped silently.
func (runtime *Runtime) Dispatch(event string, payload map[string]any) error {
	if runtime.LuaState == nil {
		return fmt.Errorf("lua state not prepared")
	}
	l := runtime.LuaState
	l.Global(event)
	if !l.IsFunction(-1) {
		l.Pop(1)
		return nil
	}
	util.DeepPush(l, payload)
	if err := l.ProtectedCall(1, 0, 0); err != nil {
		return fmt.Errorf("dispatching %s to hook %s : %w", event, runtime.Hook.Name, err)
	}
	return nil
}

// Close releases the Lua state. The runtime cannot be dispatched to after
// closing.
func (runtime *Runtime) Close() {
	runtime.LuaState = nil
}
