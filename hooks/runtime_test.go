package hooks

import (
	"fmt"
	"testing"
)

func TestRuntime_Sandbox(t *testing.T) {
	for _, global := range restrictedGlobals {
		t.Run(fmt.Sprintf("%s should be nil", global), func(t *testing.T) {
			runtime, _ := setupTestHook(t, "")

			luaCode := fmt.Sprintf(`
				if %s == nil then return "nil" end
				return "exists"
			`, global)

			err := runtime.ExecuteLua(luaCode)
			if err != nil {
				t.Fatalf("executing lua code %s : %v", luaCode, err)
			}

			val := goValue(runtime.LuaState, -1)
			if val != "nil" {
				t.Errorf("\nwanted:\nnil\ngot:\n%v", val)
			}
		})
	}
}

func TestRuntime_LuaStandardLibraries(t *testing.T) {
	tests := []struct {
		name    string
		luaCode string
		want    any
	}{
		{
			name:    "math library should be available",
			luaCode: `return math.abs(-10)`,
			want:    10.0,
		},
		{
			name:    "table library should be available",
			luaCode: `local t = {1, 2, 3}; return table.concat(t, "-")`,
			want:    "1-2-3",
		},
		{
			name:    "bit32 library should be available",
			luaCode: `return bit32.band(10, 2)`,
			want:    2.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runtime, _ := setupTestHook(t, "")

			err := runtime.ExecuteLua(tt.luaCode)
			if err != nil {
				t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
			}

			got := goValue(runtime.LuaState, -1)
			if got != tt.want {
				t.Errorf("\nwanted:\n%v\ngot:\n%v", tt.want, got)
			}
		})
	}
}

func TestRuntime_ExecuteLua(t *testing.T) {
	t.Run("should execute valid lua code", func(t *testing.T) {
		runtime, _ := setupTestHook(t, "")
		err := runtime.ExecuteLua(`print("hello")`)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
	})

	t.Run("should return error on invalid lua code", func(t *testing.T) {
		runtime, _ := setupTestHook(t, "")
		err := runtime.ExecuteLua(`invalid syntax`)
		if err == nil {
			t.Fatalf("\nwanted:\nerror\ngot:\nnil")
		}
	})

	t.Run("should return error when runtime has no hook", func(t *testing.T) {
		runtime := &Runtime{Hook: nil}
		err := runtime.PrepareState(&mockDeployService{}, nil)
		if err == nil {
			t.Fatalf("\nwanted:\nerror\ngot:\nnil")
		}
	})
}

func TestRuntime_Dispatch(t *testing.T) {
	t.Run("should call defined handler with payload", func(t *testing.T) {
		luaCode := `
			seen = nil
			function on_public_url(payload)
				seen = payload.public_url
			end
		`
		runtime, _ := setupTestHook(t, luaCode)

		err := runtime.Dispatch("on_public_url", map[string]any{
			"public_url": "https://abc123.ngrok-free.app",
		})
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if err := runtime.ExecuteLua(`return seen`); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		got := goValue(runtime.LuaState, -1)
		if got != "https://abc123.ngrok-free.app" {
			t.Errorf("\nwanted:\nhttps://abc123.ngrok-free.app\ngot:\n%v", got)
		}
	})

	t.Run("should skip undefined handler", func(t *testing.T) {
		runtime, _ := setupTestHook(t, "")
		err := runtime.Dispatch("on_stop", map[string]any{})
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
	})

	t.Run("should surface handler errors", func(t *testing.T) {
		luaCode := `
			function on_start(payload)
				error("hook blew up")
			end
		`
		runtime, _ := setupTestHook(t, luaCode)
		err := runtime.Dispatch("on_start", map[string]any{})
		if err == nil {
			t.Fatalf("\nwanted:\nerror\ngot:\nnil")
		}
	})

	t.Run("should fail after close", func(t *testing.T) {
		runtime, _ := setupTestHook(t, "")
		runtime.Close()
		err := runtime.Dispatch("on_stop", map[string]any{})
		if err == nil {
			t.Fatalf("\nwanted:\nerror\ngot:\nnil")
		}
	})
}
