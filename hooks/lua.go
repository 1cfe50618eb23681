package hooks

import (
	"github.com/Shopify/go-lua"
	"github.com/Shopify/goluago/util"
	"github.com/google/uuid"
)

const hookIDRegistryKey = "gangway_hook_id"

// restrictedGlobals lists the base library entries removed from every hook
// state. Hooks run inside the supervisor process, so filesystem and loader
// access stays off the table.
var restrictedGlobals = []string{
	"os",
	"io",
	"dofile",
	"loadfile",
	"load",
	"loadstring",
	"require",
	"package",
	"debug",
	"collectgarbage",
	"string",
}

// newSandboxedState creates a Lua state with only the safe standard
// libraries loaded.
func newSandboxedState() *lua.State {
	l := lua.NewState()

	lua.Require(l, "_G", lua.BaseOpen, true)
	l.Pop(1)
	lua.Require(l, "math", lua.MathOpen, true)
	l.Pop(1)
	lua.Require(l, "table", lua.TableOpen, true)
	l.Pop(1)
	lua.Require(l, "bit32", lua.Bit32Open, true)
	l.Pop(1)

	for _, global := range restrictedGlobals {
		l.PushNil()
		l.SetGlobal(global)
	}
	return l
}

// setHookID stores the owning hook's UUID in the Lua registry so library
// functions can recover it without a closure per hook.
func setHookID(l *lua.State, id uuid.UUID) {
	l.PushString(id.String())
	l.SetField(lua.RegistryIndex, hookIDRegistryKey)
}

// getHookID recovers the owning hook's UUID from the Lua registry. It
// returns uuid.Nil if no ID was stored.
func getHookID(l *lua.State) uuid.UUID {
	l.Field(lua.RegistryIndex, hookIDRegistryKey)
	defer l.Pop(1)
	idString, ok := l.ToString(-1)
	if !ok {
		return uuid.Nil
	}
	id, err := uuid.Parse(idString)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// goValue converts the Lua value at the given stack index to its Go
// representation. Tables are pulled recursively.
func goValue(l *lua.State, index int) any {
	switch l.TypeOf(index) {
	case lua.TypeNil:
		return nil
	case lua.TypeBoolean:
		return l.ToBoolean(index)
	case lua.TypeNumber:
		number, _ := l.ToNumber(index)
		return number
	case lua.TypeString:
		str, _ := l.ToString(index)
		return str
	case lua.TypeTable:
		table, err := util.PullTable(l, index)
		if err != nil {
			return nil
		}
		return table
	default:
		return nil
	}
}

// asMap coerces a pulled Lua table into a string keyed map. Empty Lua tables
// pull as []any, which counts as an empty map.
func asMap(val any) map[string]any {
	switch cast := val.(type) {
	case map[string]any:
		return cast
	case []any:
		if len(cast) == 0 {
			return map[string]any{}
		}
		return nil
	default:
		return nil
	}
}
