package db

import (
	"testing"
	"time"
)

func installTestHook(t *testing.T, repo *Repository, name string) {
	t.Helper()

	published := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	err := repo.CreateHook(name, "https://github.com/tfkr-ae/"+name, "tester", `function on_start(session) end`, published, "test hook")
	if err != nil {
		t.Fatalf("creating hook: %v", err)
	}
}

func TestHookRepo_GetHooks(t *testing.T) {
	t.Run("should return 0 hooks if none are installed", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		got, err := repo.GetHooks()
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if len(got) != 0 {
			t.Fatalf("\nwanted:\n0\ngot:\n%d", len(got))
		}
	})

	t.Run("should return installed hooks sorted by name", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		installTestHook(t, repo, "webhook-notify")
		installTestHook(t, repo, "banner-extra")

		got, err := repo.GetHooks()
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if len(got) != 2 {
			t.Fatalf("\nwanted:\n2\ngot:\n%d", len(got))
		}
		if got[0].Name != "banner-extra" || got[1].Name != "webhook-notify" {
			t.Fatalf("\nwanted:\nbanner-extra,webhook-notify\ngot:\n%s,%s", got[0].Name, got[1].Name)
		}
	})

	t.Run("should create hooks enabled", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		installTestHook(t, repo, "webhook-notify")

		hook, err := repo.GetHookByName("webhook-notify")
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if !hook.Enabled {
			t.Fatalf("\nwanted:\nenabled\ngot:\ndisabled")
		}
	})

	t.Run("should reject a duplicate hook name", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		installTestHook(t, repo, "webhook-notify")

		published := time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC)
		err := repo.CreateHook("webhook-notify", "https://example.test", "tester", "", published, "dup")
		if err == nil {
			t.Fatalf("\nwanted:\nerror\ngot:\nnil")
		}
	})
}

func TestHookRepo_SetHookEnabled(t *testing.T) {
	t.Run("should toggle the enabled flag", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		installTestHook(t, repo, "webhook-notify")

		if err := repo.SetHookEnabled("webhook-notify", false); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		hook, err := repo.GetHookByName("webhook-notify")
		if err != nil {
			t.Fatalf("getting hook: %v", err)
		}
		if hook.Enabled {
			t.Fatalf("\nwanted:\nfalse\ngot:\ntrue")
		}
	})

	t.Run("should fail for an unknown hook", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		if err := repo.SetHookEnabled("missing", true); err == nil {
			t.Fatalf("\nwanted:\nerror\ngot:\nnil")
		}
	})
}

func TestHookRepo_RemoveHook(t *testing.T) {
	t.Run("should uninstall an existing hook", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		installTestHook(t, repo, "webhook-notify")

		if err := repo.RemoveHook("webhook-notify"); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if _, err := repo.GetHookByName("webhook-notify"); err == nil {
			t.Fatalf("\nwanted:\nerror\ngot:\nnil")
		}
	})

	t.Run("should fail for an unknown hook", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		if err := repo.RemoveHook("missing"); err == nil {
			t.Fatalf("\nwanted:\nerror\ngot:\nnil")
		}
	})
}

func TestHookRepo_Settings(t *testing.T) {
	t.Run("should round trip hook settings", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		installTestHook(t, repo, "webhook-notify")
		hook, err := repo.GetHookByName("webhook-notify")
		if err != nil {
			t.Fatalf("getting hook: %v", err)
		}

		want := map[string]any{"url": "https://hooks.example.test", "retries": float64(3)}
		if err := repo.SetHookSettingsByUUID(hook.ID, want); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		got, err := repo.GetHookSettingsByUUID(hook.ID)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if got["url"] != want["url"] {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", want["url"], got["url"])
		}
		if got["retries"] != want["retries"] {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", want["retries"], got["retries"])
		}
	})
}

func TestHookRepo_UpdateHookLuaCodeByName(t *testing.T) {
	t.Run("should replace the stored lua source", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		installTestHook(t, repo, "webhook-notify")

		want := `function on_public_url(url) print(url) end`
		if err := repo.UpdateHookLuaCodeByName("webhook-notify", want); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		got, err := repo.GetHookLuaCodeByName("webhook-notify")
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if got != want {
			t.Fatalf("\nwanted:\n%s\ngot:\n%s", want, got)
		}
	})
}
