package hook

import (
	"context"
	"sync"

	"github.com/rezkam/allyas/internal/logger"
	"github.com/rezkam/allyas/pkg/errors"
)

// DefaultHookManager is the default implementation of HookManager.
type DefaultHookManager struct {
	executor *TengoExecutor
	mutex    sync.RWMutex
}

// NewHookManager creates a new hook manager.
func NewHookManager() *DefaultHookManager {
	return &DefaultHookManager{
		executor: NewTengoExecutor(),
	}
}

// Execute runs the specified hook type with the given context.
func (m *DefaultHookManager) Execute(ctx context.Context, hookType HookType, hc HookContext) error {
	if !m.HasHook(hookType) {
		return nil
	}

	hcCopy := hc
	if hcCopy.Vars == nil {
		hcCopy.Vars = make(map[string]interface{})
	}

	logger.Debug("running hook", logger.Fields{"hook": string(hookType), "package": hc.PackageName})
	return m.executor.Execute(ctx, hookType, hcCopy)
}

// AddHook adds a new hook.
func (m *DefaultHookManager) AddHook(hook Hook) error {
	if hook.Type == "" {
		return errors.ErrHookTypeEmpty
	}
	if !hook.Type.Valid() {
		return errors.Wrapf(errors.ErrHookLoad, "unsupported hook type %q", hook.Type)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.executor.AddScript(hook.Type, hook.Content)
	return nil
}

// HasHook checks if a hook of the specified type exists.
func (m *DefaultHookManager) HasHook(hookType HookType) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.executor.HasScript(hookType)
}
