package hook

import (
	"context"
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/rezkam/allyas/pkg/errors"
)

// Modules available to hook scripts via import().
var scriptModules = []string{"fmt", "os", "text", "times"}

// TengoExecutor handles the execution of Tengo scripts.
type TengoExecutor struct {
	scripts map[HookType]string
	mutex   sync.RWMutex
}

// NewTengoExecutor creates a new Tengo script executor.
func NewTengoExecutor() *TengoExecutor {
	return &TengoExecutor{
		scripts: make(map[HookType]string),
	}
}

// Execute runs the specified hook type with the given context. A script
// fails the hook by assigning a non-empty string or an error value to a
// global named err.
func (e *TengoExecutor) Execute(ctx context.Context, hookType HookType, hc HookContext) error {
	e.mutex.RLock()
	script, exists := e.scripts[hookType]
	e.mutex.RUnlock()
	if !exists {
		return nil
	}

	scriptInstance := tengo.NewScript([]byte(script))
	scriptInstance.SetImports(stdlib.GetModuleMap(scriptModules...))

	_ = scriptInstance.Add("packageName", hc.PackageName)
	_ = scriptInstance.Add("packageVersion", hc.PackageVersion)
	_ = scriptInstance.Add("sourcePath", hc.SourcePath)
	_ = scriptInstance.Add("installPath", hc.InstallPath)
	for k, v := range hc.Vars {
		if err := scriptInstance.Add(k, v); err != nil {
			return errors.Wrapf(errors.ErrHookExecution, "%s: variable %s: %v", hookType, k, err)
		}
	}

	compiled, err := scriptInstance.RunContext(ctx)
	if err != nil {
		return errors.Wrapf(errors.ErrHookExecution, "%s: %v", hookType, err)
	}

	if !compiled.IsDefined("err") {
		return nil
	}
	if msg := scriptError(compiled.Get("err")); msg != "" {
		return errors.Wrapf(errors.ErrHookScript, "%s: %s", hookType, msg)
	}
	return nil
}

func scriptError(v *tengo.Variable) string {
	switch o := v.Object().(type) {
	case *tengo.Error:
		if s, ok := tengo.ToString(o.Value); ok {
			return s
		}
		return o.String()
	case *tengo.String:
		return o.Value
	}
	return ""
}

// AddScript adds or updates a script for the specified hook type.
func (e *TengoExecutor) AddScript(hookType HookType, script string) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.scripts[hookType] = script
}

// HasScript checks if a script exists for the specified hook type.
func (e *TengoExecutor) HasScript(hookType HookType) bool {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	_, exists := e.scripts[hookType]
	return exists
}
