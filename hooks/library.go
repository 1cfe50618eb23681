package hooks

import (
	"fmt"
	"time"

	"github.com/Shopify/go-lua"
	luajson "github.com/Shopify/goluago/pkg/encoding/json"
	luafmt "github.com/Shopify/goluago/pkg/fmt"
	luaregexp "github.com/Shopify/goluago/pkg/regexp"
	luastrings "github.com/Shopify/goluago/pkg/strings"
	luatime "github.com/Shopify/goluago/pkg/time"
	"github.com/Shopify/goluago/util"
	"github.com/google/uuid"
	"github.com/tfkr-ae/gangway/core"
)

// registerGangwayLibrary registers the `gangway` global library and its
// sub-libraries into the Lua state. This is the entry point for exposing the
// supervisor's functionality to hook scripts.
func registerGangwayLibrary(l *lua.State, deploy DeployService) {
	funcs := []lua.RegistryFunction{
		// log writes a message to the deployment's log.
		//
		// @param message string The message to log.
		// @param level string (optional) The log level (e.g., "INFO", "WARN", "ERROR").
		// Defaults to "INFO".
		{Name: "log", Function: func(l *lua.State) int {
			message := lua.CheckString(l, 2)
			level := lua.OptString(l, 3, "INFO")
			if hookID := getHookID(l); hookID != uuid.Nil {
				err := deploy.WriteLog(level, message, core.LogWithHookID(hookID))
				if err != nil {
					lua.Errorf(l, fmt.Sprintf("writing log : %s", err.Error()))
					return 0
				}
			} else {
				err := deploy.WriteLog(level, message)
				if err != nil {
					lua.Errorf(l, fmt.Sprintf("writing log : %s", err.Error()))
					return 0
				}
			}
			return 0
		}},
		// config returns the path to the supervisor's configuration directory.
		//
		// @return string The configuration directory path.
		{Name: "config", Function: func(l *lua.State) int {
			config, err := deploy.GetConfigDir()
			if err != nil {
				l.PushString("")
				return 1
			}
			l.PushString(config)
			return 1
		}},
		// uuid generates a new UUIDv7 and returns it as a string.
		//
		// @return string The new UUID.
		{Name: "uuid", Function: func(l *lua.State) int {
			id, err := uuid.NewV7()
			if err != nil {
				lua.Errorf(l, "generating uuid: %s", err.Error())
				return 0
			}
			l.PushString(id.String())
			return 1
		}},
		// timestamp returns the current time as a Unix timestamp in milliseconds.
		//
		// @return number The current timestamp.
		{Name: "timestamp", Function: func(l *lua.State) int {
			l.PushNumber(float64(time.Now().UnixMilli()))
			return 1
		}},
		// sleep pauses the execution for a given number of milliseconds.
		//
		// @param milliseconds int The number of milliseconds to sleep.
		// @param limit int (optional) The maximum number of milliseconds to sleep.
		{Name: "sleep", Function: func(l *lua.State) int {
			milliseconds := lua.CheckInteger(l, 2)
			limit := lua.OptInteger(l, 3, 60000)

			if milliseconds < limit {
				time.Sleep(time.Duration(milliseconds) * time.Millisecond)
			}
			return 0
		}},
	}

	lua.NewLibrary(l, funcs)
	l.SetGlobal("gangway")

	registerSettingsLibrary(l, deploy)
	registerHelperLibraries(l)
}

// registerHelperLibraries exposes the goluago helper packages as sub-tables
// of the gangway global. The sandbox strips require, so the modules are
// lifted out of the loaded-module registry and attached directly.
func registerHelperLibraries(l *lua.State) {
	helpers := []struct {
		name   string
		module string
		open   func(*lua.State)
	}{
		{name: "json", module: "goluago/encoding/json", open: luajson.Open},
		{name: "strings", module: "goluago/strings", open: luastrings.Open},
		{name: "regexp", module: "goluago/regexp", open: luaregexp.Open},
		{name: "time", module: "goluago/time", open: luatime.Open},
		{name: "fmt", module: "goluago/fmt", open: luafmt.Open},
	}

	l.Global("gangway")
	if l.IsNil(-1) {
		l.Pop(1)
		return
	}
	for _, helper := range helpers {
		helper.open(l)
		lua.SubTable(l, lua.RegistryIndex, "_LOADED")
		l.Field(-1, helper.module)
		l.Remove(-2)
		l.SetField(-2, helper.name)
	}
	l.Pop(1)
}

// registerSettingsLibrary registers the `gangway.settings` library into the
// Lua state. Settings persist in the history database across deployments.
func registerSettingsLibrary(l *lua.State, deploy DeployService) {
	l.Global("gangway")

	if l.IsNil(-1) {
		l.Pop(1)
		return
	}

	lua.NewLibrary(l, settingsLibrary(deploy))

	l.SetField(-2, "settings")

	l.Pop(1)
}

// settingsLibrary returns a list of Lua functions for managing hook
// settings. These functions are available under the `gangway.settings` table
// in hook scripts.
func settingsLibrary(deploy DeployService) []lua.RegistryFunction {
	return []lua.RegistryFunction{
		// get returns the settings for the current hook.
		//
		// @return table The hook's settings as a Lua table.
		{Name: "get", Function: func(l *lua.State) int {
			repo, err := deploy.GetHookRepo()
			if err != nil {
				lua.Errorf(l, "getting hook repo: %s", err.Error())
				return 0
			}

			hookID := getHookID(l)
			if hookID == uuid.Nil {
				lua.Errorf(l, "hook ID is nil")
				return 0
			}

			settings, err := repo.GetHookSettingsByUUID(hookID)
			if err != nil {
				lua.Errorf(l, "getting hook %s settings: %s", hookID, err.Error())
				return 0
			}

			util.DeepPush(l, settings)
			return 1
		}},
		// set updates the settings for the current hook.
		//
		// @param settings table The new settings for the hook.
		// @return boolean True if the settings were updated successfully.
		{Name: "set", Function: func(l *lua.State) int {
			// util.PullTable cannot handle mixed keys
			val := goValue(l, 2)

			// empty tables in lua are cast as []any, need to convert this to map
			settingsMap := asMap(val)
			if settingsMap == nil {
				lua.Errorf(l,
					fmt.Sprintf("getting table(map) got: %T", val),
				)
				return 0
			}

			repo, err := deploy.GetHookRepo()
			if err != nil {
				lua.Errorf(l, "getting hook repo: %s", err.Error())
				return 0
			}

			hookID := getHookID(l)
			if hookID == uuid.Nil {
				lua.Errorf(l, "hook ID is nil")
				return 0
			}

			err = repo.SetHookSettingsByUUID(hookID, settingsMap)
			if err != nil {
				lua.Errorf(l, "updating settings for hook %s: %s", hookID.String(), err.Error())
				return 0
			}

			l.PushBoolean(true)
			return 1
		}},
	}
}
