package hooks

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tfkr-ae/gangway/domain"
)

type mockDeployService struct {
	WriteLogFunc     func(level string, message string, options ...func(log *domain.Log) error) error
	GetHookRepoFunc  func() (domain.HookRepository, error)
	GetConfigDirFunc func() (string, error)
}

func (m *mockDeployService) WriteLog(level string, message string, options ...func(log *domain.Log) error) error {
	if m.WriteLogFunc != nil {
		return m.WriteLogFunc(level, message, options...)
	}
	return nil
}

func (m *mockDeployService) GetHookRepo() (domain.HookRepository, error) {
	if m.GetHookRepoFunc != nil {
		return m.GetHookRepoFunc()
	}
	return nil, nil
}

func (m *mockDeployService) GetConfigDir() (string, error) {
	if m.GetConfigDirFunc != nil {
		return m.GetConfigDirFunc()
	}
	return "/tmp/gangway-test", nil
}

type mockHookRepo struct {
	settingsStore map[uuid.UUID]map[string]any
	forceSetError bool
}

func (m *mockHookRepo) GetHooks() ([]*domain.Hook, error)                      { return nil, nil }
func (m *mockHookRepo) GetHookByName(name string) (*domain.Hook, error)        { return nil, nil }
func (m *mockHookRepo) RemoveHook(name string) error                           { return nil }
func (m *mockHookRepo) SetHookEnabled(name string, enabled bool) error         { return nil }
func (m *mockHookRepo) GetHookLuaCodeByName(name string) (string, error)       { return "", nil }
func (m *mockHookRepo) UpdateHookLuaCodeByName(name string, code string) error { return nil }

func (m *mockHookRepo) CreateHook(name string, sourceURL string, author string, luaContent string, publishedDate time.Time, description string) error {
	return nil
}

func (m *mockHookRepo) GetHookSettingsByUUID(id uuid.UUID) (map[string]any, error) {
	if settings, ok := m.settingsStore[id]; ok {
		return settings, nil
	}
	return make(map[string]any), nil
}

func (m *mockHookRepo) SetHookSettingsByUUID(id uuid.UUID, settings map[string]any) error {
	if m.forceSetError {
		return errors.New("forced set error")
	}
	if m.settingsStore == nil {
		m.settingsStore = make(map[uuid.UUID]map[string]any)
	}
	m.settingsStore[id] = settings
	return nil
}

func setupTestHook(t *testing.T, luaCode string, options ...func(*Runtime) error) (*Runtime, *mockDeployService) {
	t.Helper()

	id, err := uuid.NewV7()
	if err != nil {
		t.Fatalf("generating uuid : %v", err)
	}
	hook := &domain.Hook{
		ID:         id,
		Name:       "test-hook",
		LuaContent: luaCode,
	}
	runtime := &Runtime{Hook: hook}

	mockDeploy := &mockDeployService{}

	err = runtime.PrepareState(mockDeploy, options)
	if err != nil {
		t.Fatalf("preparing state: %v", err)
	}

	return runtime, mockDeploy
}
