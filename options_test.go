package gangway

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/tfkr-ae/gangway/domain"
)

func TestWithLogger(t *testing.T) {
	t.Run("sets custom logger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))

		d, err := New(
			WithLogger(logger),
		)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if d.Logger != logger {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", logger, d.Logger)
		}

		d.Logger.Info("test log message")
		if !strings.Contains(buf.String(), "test log message") {
			t.Fatalf("\nwanted:\nlog output containing 'test log message'\ngot:\n%q", buf.String())
		}
	})

	t.Run("handles nil logger safely", func(t *testing.T) {
		d, err := New(
			WithLogger(nil),
		)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if d.Logger == nil {
			t.Fatalf("\nwanted:\nnon-nil logger\ngot:\nnil")
		}

		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("\nwanted:\nno panic\ngot:\n%v", r)
			}
		}()

		d.Logger.Info("safe check")
	})
}

func TestWithConfigDir(t *testing.T) {
	t.Run("creates directory and seeds defaults", func(t *testing.T) {
		dir := t.TempDir() + "/gangway"
		d, err := New(
			WithConfigDir(dir),
		)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if d.ConfigDir != dir {
			t.Fatalf("\nwanted:\n%s\ngot:\n%s", dir, d.ConfigDir)
		}
		if d.Config.Port != 8000 {
			t.Fatalf("\nwanted:\n8000\ngot:\n%d", d.Config.Port)
		}
		if d.Config.AgentAPIAddr != "127.0.0.1:4040" {
			t.Fatalf("\nwanted:\n127.0.0.1:4040\ngot:\n%s", d.Config.AgentAPIAddr)
		}
		if d.Config.HealthPath != "/health" {
			t.Fatalf("\nwanted:\n/health\ngot:\n%s", d.Config.HealthPath)
		}
		if !d.Config.CaptureEnabled {
			t.Fatalf("\nwanted:\ncapture enabled by default\ngot:\ndisabled")
		}
	})

	t.Run("reuses existing config file", func(t *testing.T) {
		dir := t.TempDir()
		_, err := New(WithConfigDir(dir))
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		d, err := New(WithConfigDir(dir))
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if d.Config.Port != 8000 {
			t.Fatalf("\nwanted:\n8000\ngot:\n%d", d.Config.Port)
		}
	})
}

func TestDeploymentOverrides(t *testing.T) {
	t.Run("overrides command, port and token", func(t *testing.T) {
		d, err := New(
			WithConfigDir(t.TempDir()),
			WithServerCommand("python -m http.server 9000"),
			WithPort(9000),
			WithAuthToken("tok_123"),
			WithCaptureDisabled(),
		)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if d.Config.ServerCommand != "python -m http.server 9000" {
			t.Fatalf("\nwanted:\npython -m http.server 9000\ngot:\n%s", d.Config.ServerCommand)
		}
		if d.Config.Port != 9000 {
			t.Fatalf("\nwanted:\n9000\ngot:\n%d", d.Config.Port)
		}
		if d.Config.AuthToken != "tok_123" {
			t.Fatalf("\nwanted:\ntok_123\ngot:\n%s", d.Config.AuthToken)
		}
		if d.Config.CaptureEnabled {
			t.Fatalf("\nwanted:\ncapture disabled\ngot:\nenabled")
		}
	})

	t.Run("rejects out of range port", func(t *testing.T) {
		_, err := New(
			WithConfigDir(t.TempDir()),
			WithPort(70000),
		)
		if err == nil {
			t.Fatalf("\nwanted:\nerror\ngot:\nnil")
		}
	})

	t.Run("ignores empty overrides", func(t *testing.T) {
		d, err := New(
			WithConfigDir(t.TempDir()),
			WithServerCommand(""),
			WithPort(0),
			WithAuthToken(""),
		)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if d.Config.Port != 8000 {
			t.Fatalf("\nwanted:\n8000\ngot:\n%d", d.Config.Port)
		}
	})

	t.Run("requires config before overrides", func(t *testing.T) {
		_, err := New(
			WithPort(9000),
		)
		if err == nil {
			t.Fatalf("\nwanted:\nerror\ngot:\nnil")
		}
	})
}

func TestWithHandlers(t *testing.T) {
	t.Run("rejects second log handler", func(t *testing.T) {
		handler := func(log *domain.Log) error { return nil }
		_, err := New(
			WithLogHandler(handler),
			WithLogHandler(handler),
		)
		if err == nil {
			t.Fatalf("\nwanted:\nerror\ngot:\nnil")
		}
	})

	t.Run("rejects second public URL handler", func(t *testing.T) {
		handler := func(publicURL string) error { return nil }
		_, err := New(
			WithPublicURLHandler(handler),
			WithPublicURLHandler(handler),
		)
		if err == nil {
			t.Fatalf("\nwanted:\nerror\ngot:\nnil")
		}
	})
}
