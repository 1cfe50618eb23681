package db

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tfkr-ae/gangway/domain"
)

func TestLogRepo_GetLogs(t *testing.T) {
	t.Run("should return 0 logs if there are none", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		want := 0
		got, err := repo.GetLogs()
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if len(got) != want {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", want, len(got))
		}
	})

	t.Run("should return the correct log count if there are entries in the DB", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		want := 2
		fixedTime := time.Date(2025, 10, 20, 12, 0, 0, 0, time.UTC)
		sessionID := testSession(t, repo, nil)
		hookID := uuid.MustParse("01937d13-9632-72aa-83b9-c10ea1abbdd6")

		logs := []*domain.Log{
			{
				ID:        uuid.MustParse("00000000-0000-0000-0000-000000000001"),
				Timestamp: fixedTime,
				Level:     "INFO",
				Message:   "Log message 1",
				Context:   make(map[string]any),
			},
			{
				ID:        uuid.MustParse("00000000-0000-0000-0000-000000000002"),
				Timestamp: fixedTime.Add(time.Second),
				Level:     "ERROR",
				Message:   "Log message 2",
				Context:   map[string]any{"key": "value"},
				SessionID: &sessionID,
				HookID:    &hookID,
			},
		}

		for _, logEntry := range logs {
			err := repo.InsertLog(logEntry)
			if err != nil {
				t.Fatalf("inserting log: %v", err)
			}
		}

		got, err := repo.GetLogs()
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if len(got) != want {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", want, len(got))
		}
	})

	t.Run("should preserve session and hook associations", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		sessionID := testSession(t, repo, nil)
		hookID := uuid.MustParse("01937d13-9632-72aa-83b9-c10ea1abbdd6")

		logEntry := &domain.Log{
			ID:        uuid.MustParse("00000000-0000-0000-0000-000000000003"),
			Timestamp: time.Date(2025, 10, 20, 12, 0, 0, 0, time.UTC),
			Level:     "WARN",
			Message:   "hook slow",
			Context:   make(map[string]any),
			SessionID: &sessionID,
			HookID:    &hookID,
		}
		if err := repo.InsertLog(logEntry); err != nil {
			t.Fatalf("inserting log: %v", err)
		}

		got, err := repo.GetLogs()
		if err != nil {
			t.Fatalf("getting logs: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("\nwanted:\n1\ngot:\n%d", len(got))
		}
		if got[0].SessionID == nil || *got[0].SessionID != sessionID {
			t.Fatalf("\nwanted:\n%s\ngot:\n%v", sessionID, got[0].SessionID)
		}
		if got[0].HookID == nil || *got[0].HookID != hookID {
			t.Fatalf("\nwanted:\n%s\ngot:\n%v", hookID, got[0].HookID)
		}
	})
}

func TestLogRepo_GetSessionLogs(t *testing.T) {
	t.Run("should return logs for the session in timestamp order", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		sessionID := testSession(t, repo, nil)
		other := testSession(t, repo, nil)
		fixedTime := time.Date(2025, 10, 20, 12, 0, 0, 0, time.UTC)

		logs := []*domain.Log{
			{
				ID:        uuid.MustParse("00000000-0000-0000-0000-000000000002"),
				Timestamp: fixedTime.Add(time.Minute),
				Level:     "INFO",
				Message:   "second",
				Context:   make(map[string]any),
				SessionID: &sessionID,
			},
			{
				ID:        uuid.MustParse("00000000-0000-0000-0000-000000000001"),
				Timestamp: fixedTime,
				Level:     "INFO",
				Message:   "first",
				Context:   make(map[string]any),
				SessionID: &sessionID,
			},
			{
				ID:        uuid.MustParse("00000000-0000-0000-0000-000000000003"),
				Timestamp: fixedTime,
				Level:     "INFO",
				Message:   "other session",
				Context:   make(map[string]any),
				SessionID: &other,
			},
		}

		for _, logEntry := range logs {
			if err := repo.InsertLog(logEntry); err != nil {
				t.Fatalf("inserting log: %v", err)
			}
		}

		got, err := repo.GetSessionLogs(sessionID)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if len(got) != 2 {
			t.Fatalf("\nwanted:\n2\ngot:\n%d", len(got))
		}
		if got[0].Message != "first" || got[1].Message != "second" {
			t.Fatalf("\nwanted:\nfirst,second\ngot:\n%s,%s", got[0].Message, got[1].Message)
		}
	})
}
